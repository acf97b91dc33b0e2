package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/marko-jovanovic/repolist-service/internal/models"
)

type mockRepoClient struct {
	repos       []models.RepositorySummary
	err         error
	validateErr error
	calls       int
}

func (m *mockRepoClient) SearchTopRepositories(ctx context.Context) ([]models.RepositorySummary, error) {
	m.calls++
	return m.repos, m.err
}

func (m *mockRepoClient) ValidateEndpoint(ctx context.Context) error {
	return m.validateErr
}

func TestFetchTopRepositories_PassThroughInOrder(t *testing.T) {
	repos := []models.RepositorySummary{
		{ID: 2, Name: "second", WatchCount: 50, RepositoryURL: "https://github.com/x/second"},
		{ID: 1, Name: "first", WatchCount: 100, RepositoryURL: "https://github.com/x/first"},
	}
	mock := &mockRepoClient{repos: repos}
	svc := NewRepoService(mock)

	got, err := svc.FetchTopRepositories(context.Background())
	if err != nil {
		t.Fatalf("FetchTopRepositories() error = %v", err)
	}
	if !reflect.DeepEqual(got, repos) {
		t.Errorf("FetchTopRepositories() = %+v, want upstream result untouched %+v", got, repos)
	}
	if mock.calls != 1 {
		t.Errorf("client calls = %d, want exactly 1", mock.calls)
	}
}

func TestFetchTopRepositories_DropsRecordsWithoutURL(t *testing.T) {
	mock := &mockRepoClient{repos: []models.RepositorySummary{
		{ID: 1, Name: "kept", WatchCount: 10, RepositoryURL: "https://github.com/x/kept"},
		{ID: 2, Name: "broken", WatchCount: 20, RepositoryURL: ""},
		{ID: 3, Name: "also-kept", WatchCount: 5, RepositoryURL: "https://github.com/x/also-kept"},
	}}
	svc := NewRepoService(mock)

	got, err := svc.FetchTopRepositories(context.Background())
	if err != nil {
		t.Fatalf("FetchTopRepositories() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("repos = %d, want 2 (record without URL dropped)", len(got))
	}
	if got[0].Name != "kept" || got[1].Name != "also-kept" {
		t.Errorf("repos = %+v, want remaining records in original order", got)
	}
}

func TestFetchTopRepositories_WrapsClientError(t *testing.T) {
	clientErr := errors.New("upstream exploded")
	mock := &mockRepoClient{err: clientErr}
	svc := NewRepoService(mock)

	_, err := svc.FetchTopRepositories(context.Background())
	if err == nil {
		t.Fatal("FetchTopRepositories() expected error")
	}
	if !errors.Is(err, clientErr) {
		t.Errorf("FetchTopRepositories() error = %v, want wrapped %v", err, clientErr)
	}
}

func TestFetchTopRepositories_EmptyResult(t *testing.T) {
	mock := &mockRepoClient{repos: []models.RepositorySummary{}}
	svc := NewRepoService(mock)

	got, err := svc.FetchTopRepositories(context.Background())
	if err != nil {
		t.Fatalf("FetchTopRepositories() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("repos = %#v, want empty non-nil slice", got)
	}
}
