// Package viewmodel drives the three-state presentation of the repository
// list: Loading until the single fetch completes, then exactly one of Error
// or Ready. The fetch capability is injected at construction time so tests
// can substitute a deterministic stand-in.
package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/marko-jovanovic/repolist-service/internal/models"
	"github.com/marko-jovanovic/repolist-service/internal/observability"
)

// Phase identifies which variant of the view state is active.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "loading"
	}
}

// State is a snapshot of the view model. Exactly one variant is active:
// Loading (Message and Items both zero), Error (Message set) or Ready
// (Items set; may be empty but non-nil).
type State struct {
	Phase   Phase
	Message string
	Items   []models.RepositorySummary
}

// FetchFunc is the injected fetch capability: one asynchronous request for
// the top repositories, already mapped into typed summaries.
type FetchFunc func(ctx context.Context) ([]models.RepositorySummary, error)

// ErrClosed is returned by Wait when the view model was torn down before the
// fetch completed.
var ErrClosed = errors.New("view model closed")

// RepoListViewModel owns a single state cell. It is created in Loading,
// transitions at most once to Error or Ready, and never mutates again.
// All methods are safe for concurrent use.
type RepoListViewModel struct {
	fetch FetchFunc

	mu      sync.Mutex
	state   State
	started bool
	closed  bool
	cancel  context.CancelFunc

	settled chan struct{} // closed on terminal transition or teardown
}

// New returns a view model in the Loading state. Start must be called to
// issue the fetch.
func New(fetch FetchFunc) *RepoListViewModel {
	return &RepoListViewModel{
		fetch:   fetch,
		state:   State{Phase: PhaseLoading},
		settled: make(chan struct{}),
	}
}

// Start issues exactly one fetch in a background goroutine. Subsequent calls
// are no-ops, as is Start after Close.
func (vm *RepoListViewModel) Start(ctx context.Context) {
	vm.mu.Lock()
	if vm.started || vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.started = true
	fetchCtx, cancel := context.WithCancel(ctx)
	vm.cancel = cancel
	vm.mu.Unlock()

	go func() {
		items, err := vm.fetch(fetchCtx)
		vm.Complete(items, err)
	}()
}

// Complete applies the terminal transition. Only the first completion takes
// effect; a duplicate signal, or a completion arriving after Close, is
// discarded without mutating state.
func (vm *RepoListViewModel) Complete(items []models.RepositorySummary, err error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed || vm.state.Phase != PhaseLoading {
		return
	}

	if err != nil {
		vm.state = State{Phase: PhaseError, Message: err.Error()}
	} else {
		if items == nil {
			items = []models.RepositorySummary{}
		}
		vm.state = State{Phase: PhaseReady, Items: items}
	}
	observability.ViewModelTransitionsTotal.WithLabelValues(vm.state.Phase.String()).Inc()
	close(vm.settled)
}

// Close tears the view model down. The outstanding fetch is cancelled and a
// late completion will not mutate the defunct instance. Idempotent.
func (vm *RepoListViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	cancel := vm.cancel
	if vm.state.Phase == PhaseLoading {
		close(vm.settled) // unblock waiters; they observe ErrClosed
	}
	vm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the terminal transition is applied, the context is done,
// or the view model is closed while still loading.
func (vm *RepoListViewModel) Wait(ctx context.Context) error {
	select {
	case <-vm.settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state.Phase == PhaseLoading {
		return ErrClosed
	}
	return nil
}

// State returns a snapshot of the current state.
func (vm *RepoListViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}
