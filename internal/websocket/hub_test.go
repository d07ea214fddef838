package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient has a send channel but no connection.
func mockClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufferSize)}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c1, c2 := mockClient(hub), mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	c1, c2 := mockClient(hub), mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Broadcast(ItemToggled("a1", true))

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "item_toggled" {
				t.Errorf("type = %q, want item_toggled", got.Type)
			}
			if got.ID != "a1" || got.Seq != 1 {
				t.Errorf("id = %q seq = %d, want a1 and 1", got.ID, got.Seq)
			}
			if got.Checked == nil || !*got.Checked {
				t.Errorf("checked = %v, want true", got.Checked)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func readMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return m
	default:
		t.Fatal("no message queued")
		return Message{}
	}
}

func TestBroadcastFullBufferResyncs(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize+1; i++ {
		hub.Broadcast(Changed(EntityItem, "updated", "x"))
	}
	if len(c.send) != sendBufferSize {
		t.Fatalf("queued %d messages, want %d", len(c.send), sendBufferSize)
	}
	for i := 1; i <= sendBufferSize; i++ {
		if got := readMessage(t, c); got.Seq != uint64(i) {
			t.Fatalf("message %d has seq %d", i, got.Seq)
		}
	}

	hub.Broadcast(Changed(EntityRecipe, "created", "r1"))
	got := readMessage(t, c)
	if got.Type != TypeResync || got.Seq != uint64(sendBufferSize+2) {
		t.Errorf("after drop got %+v, want resync at seq %d", got, sendBufferSize+2)
	}

	hub.Broadcast(Changed(EntityRecipe, "deleted", "r1"))
	if got := readMessage(t, c); got.Type != "recipe_deleted" {
		t.Errorf("after resync got %q, want recipe_deleted", got.Type)
	}
	if hub.Seq() != uint64(sendBufferSize+3) {
		t.Errorf("seq = %d", hub.Seq())
	}
}

func TestClearMessages(t *testing.T) {
	cleared := ItemsCleared([]string{"a", "b"}, 2)
	if cleared.Type != "items_cleared" || cleared.Count != 2 || len(cleared.IDs) != 2 {
		t.Errorf("cleared = %+v", cleared)
	}
	cancelled := ClearCancelled([]string{"a"})
	if cancelled.Type != "clear_cancelled" || cancelled.IDs[0] != "a" {
		t.Errorf("cancelled = %+v", cancelled)
	}
	if got := ItemPending("a"); got.Type != "item_pending" || got.ID != "a" {
		t.Errorf("pending = %+v", got)
	}
}

func TestMessageOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(ItemsCleared(nil, 0))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"id"`, `"ids"`, `"checked"`, `"count"`} {
		if strings.Contains(string(data), field) {
			t.Errorf("unexpected %s field in %s", field, data)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(Changed(EntityRecipe, "reordered", ""))
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients, got %d", got)
	}
}

func TestHandleDeliversBroadcasts(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(Handle(hub, testLogger()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(Changed(EntityCategory, "deleted", "c1"))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "category_deleted" || got.ID != "c1" {
		t.Errorf("got %+v", got)
	}
}
