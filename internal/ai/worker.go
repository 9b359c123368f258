package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"chess_architect/internal/game"
)

// Result is the outcome of one background search.
type Result struct {
	Generation uint64
	Color      game.Color
	Scored
	Err error
}

// Worker runs one search at a time off the caller's goroutine. Starting a
// new search cancels the previous one and bumps the generation, so a result
// can be matched against the search that is still wanted.
type Worker struct {
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	results chan Result
	seed    func() int64
}

func NewWorker() *Worker {
	return &Worker{
		results: make(chan Result, 1),
		seed:    func() int64 { return time.Now().UnixNano() },
	}
}

// Results delivers finished searches. Superseded searches are not delivered,
// though a result may still race with a later Start; compare generations.
func (w *Worker) Results() <-chan Result { return w.results }

// Start searches a snapshot of state for its side to move and returns the
// generation of the new search.
func (w *Worker) Start(parent context.Context, state game.GameState, cfg Config) uint64 {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	rng := rand.New(rand.NewSource(w.seed()))
	w.mu.Unlock()

	snapshot := state.Clone()
	go func() {
		defer cancel()
		best, err := FindBestMove(ctx, snapshot, cfg, rng)
		if ctx.Err() != nil {
			return
		}
		select {
		case w.results <- Result{Generation: gen, Color: snapshot.CurrentPlayer, Scored: best, Err: err}:
		case <-ctx.Done():
		}
	}()
	return gen
}

// Cancel abandons the in-flight search, if any.
func (w *Worker) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
}

// Current reports whether gen is the latest generation started.
func (w *Worker) Current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen == w.gen
}
