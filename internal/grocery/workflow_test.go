package grocery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/clock"
	"github.com/dukerupert/larder/internal/kv"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
	"github.com/dukerupert/larder/internal/websocket"
)

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Broadcast(msg websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, msg.Type)
}

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.types {
		if t == typ {
			n++
		}
	}
	return n
}

type fixture struct {
	mem   *kv.Memory
	items *store.ItemStore
	clock *clock.Fake
	hub   *recorder
	wf    *Workflow
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := kv.NewMemory()
	items := store.NewItemStore(mem, logger)
	clk := clock.NewFake(time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC))
	hub := &recorder{}
	return &fixture{
		mem:   mem,
		items: items,
		clock: clk,
		hub:   hub,
		wf:    NewWorkflow(items, clk, hub, logger, Options{}),
	}
}

func (f *fixture) checkedItems(t *testing.T, names ...string) []model.Item {
	t.Helper()
	checked := true
	var out []model.Item
	for _, name := range names {
		item, err := f.items.Create(model.ItemInput{Name: name})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		item, err = f.items.Update(item.ID, model.ItemUpdate{Checked: &checked})
		if err != nil {
			t.Fatalf("check %s: %v", name, err)
		}
		out = append(out, *item)
	}
	return out
}

func (f *fixture) quantities(t *testing.T) []int {
	t.Helper()
	items, err := f.items.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.Quantity
	}
	return out
}

func allZero(qs []int) bool {
	for _, q := range qs {
		if q != 0 {
			return false
		}
	}
	return true
}

func TestClearCheckedStagesThenCommits(t *testing.T) {
	f := setup(t)
	checked := f.checkedItems(t, "Milk", "Eggs", "Bread")
	writes := f.mem.Writes()

	done, err := f.wf.ClearChecked(context.Background(), checked)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !f.wf.Clearing() {
		t.Fatal("expected clear in flight")
	}
	if got := f.wf.Pending(); len(got) != 1 || got[0] != checked[0].ID {
		t.Fatalf("pending at start = %v, want first item only", got)
	}

	f.clock.Advance(DefaultStepDelay)
	if got := f.wf.Pending(); len(got) != 2 {
		t.Errorf("pending after one step = %d, want 2", len(got))
	}
	f.clock.Advance(DefaultStepDelay)
	if !f.wf.IsPending(checked[2].ID) {
		t.Error("expected last item pending after two steps")
	}

	// Last step delay plus the exit duration, minus a hair.
	f.clock.Advance(DefaultStepDelay + DefaultExitDuration - time.Millisecond)
	if f.mem.Writes() != writes {
		t.Fatal("committed before the exit finished")
	}

	f.clock.Advance(time.Millisecond)
	if err := <-done; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if qs := f.quantities(t); !allZero(qs) {
		t.Errorf("quantities = %v, want all 0", qs)
	}
	if f.mem.Writes() != writes+1 {
		t.Errorf("commit took %d writes, want 1", f.mem.Writes()-writes)
	}
	if f.wf.Clearing() || len(f.wf.Pending()) != 0 {
		t.Error("gate or pending marks not released")
	}
	if f.hub.count("item_pending") != 3 || f.hub.count("items_cleared") != 1 {
		t.Errorf("events = %v", f.hub.types)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("%d timers left behind", f.clock.Pending())
	}
}

func TestClearCheckedRejectsSecondClear(t *testing.T) {
	f := setup(t)
	checked := f.checkedItems(t, "Milk", "Eggs", "Bread")
	writes := f.mem.Writes()

	done, err := f.wf.ClearChecked(context.Background(), checked)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	f.clock.Advance(DefaultStepDelay)

	if _, err := f.wf.ClearChecked(context.Background(), checked); !errors.Is(err, ErrClearInProgress) {
		t.Fatalf("second clear err = %v, want ErrClearInProgress", err)
	}

	f.clock.Advance(time.Second)
	if err := <-done; err != nil {
		t.Fatalf("commit: %v", err)
	}
	if f.mem.Writes() != writes+1 {
		t.Errorf("writes = %d, want exactly one commit", f.mem.Writes()-writes)
	}
	if f.hub.count("item_pending") != 3 {
		t.Errorf("pending events = %d, want 3", f.hub.count("item_pending"))
	}

	// The gate is open again once the first clear is done.
	more := f.checkedItems(t, "Jam")
	if _, err := f.wf.ClearChecked(context.Background(), more); err != nil {
		t.Errorf("clear after completion: %v", err)
	}
}

func TestClearCheckedEmptyIsNoop(t *testing.T) {
	f := setup(t)

	done, err := f.wf.ClearChecked(context.Background(), nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	select {
	case err, ok := <-done:
		if ok || err != nil {
			t.Errorf("done = %v, %v; want closed", err, ok)
		}
	default:
		t.Fatal("empty clear should finish immediately")
	}
	if f.wf.Clearing() || f.clock.Pending() != 0 {
		t.Error("empty clear scheduled work")
	}
}

func TestClearCheckedContextCancel(t *testing.T) {
	f := setup(t)
	checked := f.checkedItems(t, "Milk", "Eggs")
	writes := f.mem.Writes()

	ctx, cancel := context.WithCancel(context.Background())
	done, err := f.wf.ClearChecked(ctx, checked)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	f.clock.Advance(DefaultStepDelay)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("done err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancellation never reported")
	}

	f.clock.Advance(time.Second)
	if f.mem.Writes() != writes {
		t.Error("cancelled clear wrote to the store")
	}
	if qs := f.quantities(t); qs[0] != 1 || qs[1] != 1 {
		t.Errorf("quantities = %v, want untouched", qs)
	}
	if f.wf.Clearing() || len(f.wf.Pending()) != 0 {
		t.Error("cancel did not release the gate")
	}
	if f.hub.count("clear_cancelled") != 1 || f.hub.count("items_cleared") != 0 {
		t.Errorf("events = %v", f.hub.types)
	}
}

func TestCancel(t *testing.T) {
	f := setup(t)
	checked := f.checkedItems(t, "Milk")

	if f.wf.Cancel() {
		t.Error("cancel with nothing running reported true")
	}

	done, _ := f.wf.ClearChecked(context.Background(), checked)
	f.clock.Advance(DefaultStepDelay)
	if !f.wf.Cancel() {
		t.Fatal("expected cancel to stop the running clear")
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("done err = %v", err)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("%d timers still pending", f.clock.Pending())
	}
	f.clock.Advance(time.Second)
	if qs := f.quantities(t); qs[0] != 1 {
		t.Errorf("quantity = %d, want 1", qs[0])
	}
}

func TestClearCheckedAlreadyCancelled(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.wf.ClearChecked(ctx, f.checkedItems(t, "Milk")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if f.wf.Clearing() {
		t.Error("gate held after rejected start")
	}
}

func TestToggle(t *testing.T) {
	f := setup(t)
	item, _ := f.items.Create(model.ItemInput{Name: "Milk", Quantity: 3, Unit: "l"})

	tr, err := f.wf.Toggle(item.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if tr.From.Checked || !tr.To.Checked {
		t.Errorf("transition = %+v", tr)
	}
	got, _ := f.items.GetByID(item.ID)
	if !got.Checked || got.Quantity != 3 || got.Unit != "l" || got.Name != "Milk" {
		t.Errorf("stored = %+v, want only checked flipped", got)
	}

	before, _ := f.items.List()
	overlay := tr.Overlay(before)
	if len(overlay) != 2 {
		t.Fatalf("overlay = %+v, want both renderings", overlay)
	}
	if overlay[0].Key() == overlay[1].Key() {
		t.Error("overlay entries share a key")
	}
	if after, _ := f.items.List(); len(after) != 1 {
		t.Errorf("store holds %d records, want 1", len(after))
	}

	tr, _ = f.wf.Toggle(item.ID)
	if tr.To.Checked {
		t.Error("second toggle should uncheck")
	}
	if f.hub.count("item_toggled") != 2 {
		t.Errorf("events = %v", f.hub.types)
	}

	if tr, err := f.wf.Toggle("missing"); tr != nil || err != nil {
		t.Errorf("toggle missing = %+v, %v", tr, err)
	}
}

func TestConcurrentTogglesEachFlipOnce(t *testing.T) {
	f := setup(t)
	item, _ := f.items.Create(model.ItemInput{Name: "Milk"})

	const n = 40
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := f.wf.Toggle(item.ID)
			if err != nil {
				t.Errorf("toggle: %v", err)
				return
			}
			if tr.From.Checked == tr.To.Checked {
				t.Errorf("transition did not flip: %+v", tr)
			}
			results <- tr.To.Checked
		}()
	}
	wg.Wait()
	close(results)

	checked := 0
	for c := range results {
		if c {
			checked++
		}
	}
	if checked != n/2 {
		t.Errorf("%d of %d toggles checked the item, want %d", checked, n, n/2)
	}
	got, _ := f.items.GetByID(item.ID)
	if got.Checked {
		t.Errorf("after %d toggles checked = true, want false", n)
	}
	if f.hub.count("item_toggled") != n {
		t.Errorf("toggle events = %d, want %d", f.hub.count("item_toggled"), n)
	}
}
