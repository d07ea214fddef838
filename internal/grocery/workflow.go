// Package grocery runs the shopping-list check and clear lifecycle and
// suggests categories for new items.
package grocery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/larder/internal/clock"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/websocket"
)

// ErrClearInProgress rejects a clear while another is still running.
var ErrClearInProgress = errors.New("clear already in progress")

const (
	DefaultStepDelay    = 150 * time.Millisecond
	DefaultExitDuration = 300 * time.Millisecond
)

// Items is the part of the item store the workflow writes through. Toggle
// must flip the flag in one atomic read-modify-write.
type Items interface {
	Toggle(id string) (before, after *model.Item, err error)
	Clear(ids ...string) (int, error)
}

// Broadcaster receives workflow events.
type Broadcaster interface {
	Broadcast(websocket.Message)
}

type Options struct {
	// StepDelay separates marking one checked item pending from the next.
	StepDelay time.Duration
	// ExitDuration is how long the last item's exit runs before commit.
	ExitDuration time.Duration
}

// Workflow serialises clears. At most one clear runs at a time; its
// pending-removal marks are what the shopping list renders as exiting.
type Workflow struct {
	items  Items
	clock  clock.Clock
	hub    Broadcaster
	logger *slog.Logger

	stepDelay    time.Duration
	exitDuration time.Duration

	mu      sync.Mutex
	run     *clearRun
	pending []string
}

// clearRun is one staged clear. A run that is no longer w.run is dead and
// its timers do nothing when they fire.
type clearRun struct {
	ids   []string
	timer clock.Timer
	stop  func() bool
	done  chan error
}

func NewWorkflow(items Items, clk clock.Clock, hub Broadcaster, logger *slog.Logger, opts Options) *Workflow {
	if opts.StepDelay <= 0 {
		opts.StepDelay = DefaultStepDelay
	}
	if opts.ExitDuration <= 0 {
		opts.ExitDuration = DefaultExitDuration
	}
	return &Workflow{
		items:        items,
		clock:        clk,
		hub:          hub,
		logger:       logger,
		stepDelay:    opts.StepDelay,
		exitDuration: opts.ExitDuration,
	}
}

// Transition is a toggle that has been written. The record already holds
// To; From is what the list showed before. Until the UI re-reads, a list
// built with Overlay from the pre-toggle items renders both, under
// different keys, so the old row can animate out as the new one appears.
type Transition struct {
	From model.Item `json:"from"`
	To   model.Item `json:"to"`
}

// Overlay returns a copy of items with the toggled rendering appended, for
// projecting the momentary two-entry list. It never reaches the store.
func (t Transition) Overlay(items []model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+1)
	for _, item := range items {
		if item.ID == t.From.ID {
			item = t.From
		}
		out = append(out, item)
	}
	return append(out, t.To)
}

// Toggle flips the checked flag of one item and nothing else. A missing
// item is a no-op and returns nil. Concurrent toggles of the same item
// each flip it once.
func (w *Workflow) Toggle(id string) (*Transition, error) {
	before, after, err := w.items.Toggle(id)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, nil
	}

	w.hub.Broadcast(websocket.ItemToggled(id, after.Checked))
	return &Transition{From: *before, To: *after}, nil
}

// ClearChecked stages the removal of checked, which must be in display
// order. Each item is marked pending one step apart; once the last exit
// has run every item is set to quantity 0 in one write. The returned
// channel yields the commit result, or the cancellation cause, and is then
// closed.
//
// Cancelling ctx or calling Cancel before the commit aborts the clear with
// nothing written.
func (w *Workflow) ClearChecked(ctx context.Context, checked []model.Item) (<-chan error, error) {
	done := make(chan error, 1)
	if len(checked) == 0 {
		close(done)
		return done, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != nil {
		return nil, ErrClearInProgress
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(checked))
	for i, item := range checked {
		ids[i] = item.ID
	}
	run := &clearRun{ids: ids, done: done}
	w.run = run
	run.stop = context.AfterFunc(ctx, func() {
		w.abort(run, context.Cause(ctx))
	})

	w.logger.Info("clear started", "items", len(ids))
	w.stepLocked(run, 0)
	return done, nil
}

// stepLocked marks ids[i] pending and schedules the next step, or the
// commit after the last one.
func (w *Workflow) stepLocked(run *clearRun, i int) {
	if i == len(run.ids) {
		run.timer = w.clock.AfterFunc(w.exitDuration, func() { w.commit(run) })
		return
	}
	id := run.ids[i]
	w.pending = append(w.pending, id)
	w.hub.Broadcast(websocket.ItemPending(id))
	run.timer = w.clock.AfterFunc(w.stepDelay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.run != run {
			return
		}
		w.stepLocked(run, i+1)
	})
}

func (w *Workflow) commit(run *clearRun) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != run {
		return
	}
	run.stop()

	n, err := w.items.Clear(run.ids...)
	w.finishLocked()
	if err != nil {
		w.logger.Error("clear commit failed", "items", len(run.ids), "error", err)
		run.done <- fmt.Errorf("commit clear: %w", err)
		close(run.done)
		return
	}

	w.logger.Info("clear committed", "items", n)
	w.hub.Broadcast(websocket.ItemsCleared(run.ids, n))
	close(run.done)
}

// Cancel aborts the running clear, if any, and reports whether there was one.
func (w *Workflow) Cancel() bool {
	w.mu.Lock()
	run := w.run
	w.mu.Unlock()
	if run == nil {
		return false
	}
	return w.abort(run, context.Canceled)
}

func (w *Workflow) abort(run *clearRun, cause error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.run != run {
		return false
	}
	run.stop()
	if run.timer != nil {
		run.timer.Stop()
	}
	w.finishLocked()

	w.logger.Info("clear cancelled", "items", len(run.ids), "cause", cause)
	w.hub.Broadcast(websocket.ClearCancelled(run.ids))
	run.done <- cause
	close(run.done)
	return true
}

// finishLocked releases the gate and drops every pending mark.
func (w *Workflow) finishLocked() {
	w.run = nil
	w.pending = nil
}

// Clearing reports whether a clear is in flight.
func (w *Workflow) Clearing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run != nil
}

// Pending returns the ids marked for removal, in the order they were marked.
func (w *Workflow) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.pending)
}

// PendingSet is Pending as a lookup set for projections.
func (w *Workflow) PendingSet() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	set := make(map[string]bool, len(w.pending))
	for _, id := range w.pending {
		set[id] = true
	}
	return set
}

func (w *Workflow) IsPending(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.pending, id)
}
