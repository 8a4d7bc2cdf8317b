package coinbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"market_watcher/internal/event"
	"market_watcher/internal/infra"

	"github.com/gorilla/websocket"
)

// fakeFeed accepts one subscription and replays frames.
func fakeFeed(t *testing.T, frames []string, subs chan<- subscribeRequest) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req subscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subs <- req

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the socket open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestWorker_StreamsEvents(t *testing.T) {
	frames := []string{
		`{"type":"subscriptions","channels":[]}`,
		`{"type":"snapshot","product_id":"BTC-USD","bids":[["100","1"]],"asks":[["101","1"]]}`,
		`garbage`,
		`{"type":"ticker","sequence":7,"product_id":"BTC-USD","price":"100.5","time":"2023-11-09T22:16:05Z"}`,
		`{"type":"l2update","product_id":"BTC-USD","time":"2023-11-09T22:16:06Z","changes":[["sell","101","0"]]}`,
	}
	subs := make(chan subscribeRequest, 1)
	srv := fakeFeed(t, frames, subs)
	defer srv.Close()

	inbox := make(chan event.Event, 8)
	metrics := &infra.Metrics{}
	w := NewWorker(Config{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		ProductID: "BTC-USD",
		Channels:  []string{"ticker", "level2_batch"},
	}, inbox, metrics)

	if err := w.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Disconnect()

	select {
	case req := <-subs:
		b, _ := json.Marshal(req)
		if req.Type != "subscribe" || req.ProductIDs[0] != "BTC-USD" || len(req.Channels) != 2 {
			t.Errorf("Unexpected subscription %s", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No subscription received")
	}

	wantTypes := []event.Type{event.EvSnapshot, event.EvTicker, event.EvBookDelta}
	for i, want := range wantTypes {
		select {
		case ev := <-inbox:
			if ev.GetType() != want {
				t.Errorf("Event %d: expected %s, got %s", i, want, ev.GetType())
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for event %d", i)
		}
	}

	if !w.IsConnected() {
		t.Error("Expected worker to be connected")
	}
	if got := metrics.Snapshot().DecodeErrors; got != 1 {
		t.Errorf("Expected 1 decode error, got %d", got)
	}
}

func TestWorker_DisconnectWithoutServer(t *testing.T) {
	w := NewWorker(Config{URL: "ws://127.0.0.1:1", ProductID: "BTC-USD"}, make(chan event.Event, 1), nil)
	if err := w.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		w.Disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Disconnect did not return")
	}
	if w.IsConnected() {
		t.Error("Expected disconnected worker")
	}
}

func TestWorker_ReconnectUsesJitteredBackoff(t *testing.T) {
	w := NewWorker(Config{URL: "ws://127.0.0.1:1", ProductID: "BTC-USD"}, make(chan event.Event, 1), nil)

	var draws atomic.Int32
	w.backoff = infra.Backoff{
		Base:   5 * time.Millisecond,
		Max:    10 * time.Millisecond,
		Jitter: 0.5,
		Rand: func() float64 {
			draws.Add(1)
			return 0.5
		},
	}
	if err := w.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Disconnect()

	deadline := time.After(3 * time.Second)
	for draws.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("Expected repeated jittered retries, got %d", draws.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
