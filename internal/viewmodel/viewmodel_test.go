package viewmodel

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marko-jovanovic/repolist-service/internal/models"
)

func fixedFetch(items []models.RepositorySummary, err error) FetchFunc {
	return func(ctx context.Context) ([]models.RepositorySummary, error) {
		return items, err
	}
}

// blockingFetch returns a fetch that blocks until release is closed.
func blockingFetch(items []models.RepositorySummary, err error) (FetchFunc, chan struct{}) {
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]models.RepositorySummary, error) {
		select {
		case <-release:
			return items, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return fetch, release
}

func waitSettled(t *testing.T, vm *RepoListViewModel) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := vm.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestViewModel_InitialStateIsLoading(t *testing.T) {
	fetch, release := blockingFetch(nil, nil)
	vm := New(fetch)
	defer vm.Close()

	if got := vm.State().Phase; got != PhaseLoading {
		t.Fatalf("State().Phase before Start = %v, want loading", got)
	}

	vm.Start(context.Background())
	if got := vm.State().Phase; got != PhaseLoading {
		t.Errorf("State().Phase while fetch outstanding = %v, want loading", got)
	}

	p := vm.Render()
	if p.Phase != PhaseLoading {
		t.Errorf("Render().Phase = %v, want loading", p.Phase)
	}
	if p.Message != "" || p.Rows != nil {
		t.Errorf("loading projection carries data: %+v", p)
	}

	close(release)
}

func TestViewModel_SuccessPreservesOrder(t *testing.T) {
	items := []models.RepositorySummary{
		{ID: 3, Name: "c", WatchCount: 10, RepositoryURL: "https://github.com/x/c"},
		{ID: 1, Name: "a", WatchCount: 30, RepositoryURL: "https://github.com/x/a"},
		{ID: 2, Name: "b", WatchCount: 20, RepositoryURL: "https://github.com/x/b"},
	}

	vm := New(fixedFetch(items, nil))
	vm.Start(context.Background())
	waitSettled(t, vm)

	st := vm.State()
	if st.Phase != PhaseReady {
		t.Fatalf("State().Phase = %v, want ready", st.Phase)
	}
	if !reflect.DeepEqual(st.Items, items) {
		t.Errorf("Items = %+v, want fetch result in same order %+v", st.Items, items)
	}

	rows := vm.Render().Rows
	if len(rows) != len(items) {
		t.Fatalf("Render() rows = %d, want %d", len(rows), len(items))
	}
	for i, row := range rows {
		if row.Key != items[i].ID || row.Name != items[i].Name {
			t.Errorf("row %d = %+v, want descriptor for %+v", i, row, items[i])
		}
	}
}

func TestViewModel_Render_HomepageSuppression(t *testing.T) {
	tests := []struct {
		name         string
		homepageURL  string
		wantHomepage string
	}{
		{
			name:         "homepage equals repository URL",
			homepageURL:  "https://github.com/x/repo",
			wantHomepage: "",
		},
		{
			name:         "homepage empty",
			homepageURL:  "",
			wantHomepage: "",
		},
		{
			name:         "homepage distinct and non-empty",
			homepageURL:  "https://repo.example.com",
			wantHomepage: "https://repo.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []models.RepositorySummary{{
				ID:            1,
				Name:          "repo",
				WatchCount:    5,
				RepositoryURL: "https://github.com/x/repo",
				HomepageURL:   tt.homepageURL,
			}}
			vm := New(fixedFetch(items, nil))
			vm.Start(context.Background())
			waitSettled(t, vm)

			rows := vm.Render().Rows
			if len(rows) != 1 {
				t.Fatalf("rows = %d, want 1", len(rows))
			}
			if rows[0].HomepageURL != tt.wantHomepage {
				t.Errorf("HomepageURL = %q, want %q", rows[0].HomepageURL, tt.wantHomepage)
			}
		})
	}
}

func TestViewModel_ErrorPropagation(t *testing.T) {
	fetchErr := errors.New("A terrible error occurred :(")
	vm := New(fixedFetch(nil, fetchErr))
	vm.Start(context.Background())
	waitSettled(t, vm)

	st := vm.State()
	if st.Phase != PhaseError {
		t.Fatalf("State().Phase = %v, want error", st.Phase)
	}
	if st.Message != "A terrible error occurred :(" {
		t.Errorf("Message = %q, want fetch failure message verbatim", st.Message)
	}

	p := vm.Render()
	if p.Phase != PhaseError || p.Message != "A terrible error occurred :(" {
		t.Errorf("Render() = %+v, want error projection with verbatim message", p)
	}
	if p.Rows != nil {
		t.Errorf("error projection carries rows: %+v", p.Rows)
	}
}

func TestViewModel_SecondCompletionIgnored(t *testing.T) {
	vm := New(nil)

	first := []models.RepositorySummary{{ID: 1, Name: "first", RepositoryURL: "https://github.com/x/first"}}
	vm.Complete(first, nil)
	vm.Complete(nil, errors.New("late failure"))

	st := vm.State()
	if st.Phase != PhaseReady {
		t.Fatalf("State().Phase after double completion = %v, want ready from first signal", st.Phase)
	}
	if len(st.Items) != 1 || st.Items[0].Name != "first" {
		t.Errorf("Items = %+v, want result of first completion", st.Items)
	}

	// Reverse order: error first, then a late success.
	vm2 := New(nil)
	vm2.Complete(nil, errors.New("boom"))
	vm2.Complete(first, nil)
	if got := vm2.State().Phase; got != PhaseError {
		t.Errorf("State().Phase = %v, want error from first signal", got)
	}
}

func TestViewModel_EmptySuccess(t *testing.T) {
	vm := New(fixedFetch([]models.RepositorySummary{}, nil))
	vm.Start(context.Background())
	waitSettled(t, vm)

	st := vm.State()
	if st.Phase != PhaseReady {
		t.Fatalf("State().Phase = %v, want ready", st.Phase)
	}
	if st.Items == nil || len(st.Items) != 0 {
		t.Errorf("Items = %#v, want empty non-nil sequence", st.Items)
	}
	if rows := vm.Render().Rows; len(rows) != 0 {
		t.Errorf("Render() rows = %d, want 0", len(rows))
	}
}

func TestViewModel_TwoItemScenario(t *testing.T) {
	items := []models.RepositorySummary{
		{
			ID:            28457823,
			Name:          "freeCodeCamp",
			WatchCount:    323864,
			RepositoryURL: "https://github.com/freeCodeCamp/freeCodeCamp",
			HomepageURL:   "https://contribute.freecodecamp.org",
		},
		{
			ID:            177736533,
			Name:          "996.ICU",
			WatchCount:    256883,
			RepositoryURL: "https://github.com/996icu/996.ICU",
			HomepageURL:   "https://996.icu",
		},
	}

	vm := New(fixedFetch(items, nil))
	vm.Start(context.Background())
	waitSettled(t, vm)

	p := vm.Render()
	if p.Phase != PhaseReady {
		t.Fatalf("Render().Phase = %v, want ready", p.Phase)
	}
	if len(p.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(p.Rows))
	}
	for i, row := range p.Rows {
		if row.Key != items[i].ID {
			t.Errorf("row %d Key = %d, want %d", i, row.Key, items[i].ID)
		}
		if row.WatchCount != items[i].WatchCount {
			t.Errorf("row %d WatchCount = %d, want %d", i, row.WatchCount, items[i].WatchCount)
		}
		if row.HomepageURL != items[i].HomepageURL {
			t.Errorf("row %d HomepageURL = %q, want %q (homepage differs from repo URL)", i, row.HomepageURL, items[i].HomepageURL)
		}
	}
}

func TestViewModel_CloseDiscardsLateCompletion(t *testing.T) {
	items := []models.RepositorySummary{{ID: 1, Name: "late", RepositoryURL: "https://github.com/x/late"}}
	fetch, release := blockingFetch(items, nil)
	vm := New(fetch)
	vm.Start(context.Background())

	vm.Close()
	close(release)

	// Give the fetch goroutine a chance to deliver its late completion.
	time.Sleep(50 * time.Millisecond)

	if got := vm.State().Phase; got != PhaseLoading {
		t.Errorf("State().Phase after teardown = %v, want loading (late completion discarded)", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := vm.Wait(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait() after Close = %v, want ErrClosed", err)
	}
}

func TestViewModel_CloseCancelsOutstandingFetch(t *testing.T) {
	cancelled := make(chan struct{})
	vm := New(func(ctx context.Context) ([]models.RepositorySummary, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	vm.Start(context.Background())
	vm.Close()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch context not cancelled by Close")
	}
}

func TestViewModel_StartIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	vm := New(func(ctx context.Context) ([]models.RepositorySummary, error) {
		calls.Add(1)
		return nil, nil
	})
	defer vm.Close()

	vm.Start(context.Background())
	vm.Start(context.Background())
	waitSettled(t, vm)

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want exactly 1 per initialization", got)
	}
}

func TestViewModel_WaitHonorsContext(t *testing.T) {
	fetch, release := blockingFetch(nil, nil)
	vm := New(fetch)
	defer func() {
		close(release)
		vm.Close()
	}()
	vm.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := vm.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want context.DeadlineExceeded", err)
	}
}
