package coinbase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"market_watcher/internal/domain"
	"market_watcher/internal/event"
	"market_watcher/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries       = 10
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
)

// Config selects the feed endpoint and subscription.
type Config struct {
	URL       string
	ProductID string
	Channels  []string
}

// Worker handles the Coinbase WebSocket connection and pushes decoded
// events into the market inbox in arrival order.
type Worker struct {
	cfg     Config
	inbox   chan<- event.Event
	metrics *infra.Metrics
	backoff infra.Backoff
	logger  *slog.Logger

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ domain.ExchangeWorker = (*Worker)(nil)

// NewWorker creates a new Coinbase feed worker
func NewWorker(cfg Config, inbox chan<- event.Event, metrics *infra.Metrics) *Worker {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Worker{
		cfg:     cfg,
		inbox:   inbox,
		metrics: metrics,
		backoff: infra.NewBackoff(),
		logger:  slog.With(slog.String("component", "coinbase"), slog.String("product", cfg.ProductID)),
	}
}

// Connect starts the connection loop. It returns immediately; the loop
// reconnects with backoff until ctx is cancelled or Disconnect is called.
func (w *Worker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// Run connects and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Connect(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Disconnect()
	return nil
}

// IsConnected reports whether a socket is currently open.
func (w *Worker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *Worker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			w.logger.Warn("Coinbase connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			delay := w.backoff.Delay(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, w.cfg.URL, make(http.Header))
	if err != nil {
		return domain.NewNetworkError("dial", fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err))
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	w.metrics.IncrementConnections()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return domain.NewNetworkError("subscribe", err)
	}

	w.logger.Info("Coinbase connected", slog.Any("channels", w.cfg.Channels))
	return nil
}

func (w *Worker) subscribe() error {
	b, err := json.Marshal(subscribeRequest{
		Type:       typeSubscribe,
		ProductIDs: []string{w.cfg.ProductID},
		Channels:   w.cfg.Channels,
	})
	if err != nil {
		return err
	}
	return w.threadSafeWrite(websocket.TextMessage, b)
}

func (w *Worker) threadSafeWrite(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conn == nil {
		return fmt.Errorf("no conn")
	}
	return w.conn.WriteMessage(msgType, data)
}

func (w *Worker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Warn("Coinbase read failed", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}
		w.handleMessage(ctx, msg)
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg []byte) {
	ev, err := Decode(msg)
	if err != nil {
		if errors.Is(err, ErrFeedRejected) {
			w.logger.Error("Coinbase rejected request", slog.Any("error", err))
		} else {
			w.logger.Warn("Dropping undecodable message", slog.Any("error", err))
		}
		w.metrics.RecordDecodeError()
		return
	}
	if ev == nil {
		return
	}

	// Book deltas are never dropped; a full inbox stalls the socket instead.
	select {
	case w.inbox <- ev:
	case <-ctx.Done():
		if delta, ok := ev.(*event.BookDeltaEvent); ok {
			event.ReleaseBookDeltaEvent(delta)
		}
	}
}

func (w *Worker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
		w.metrics.DecrementConnections()
	}
	w.connected = false
}

// Disconnect stops the connection loop and waits for it to exit.
func (w *Worker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
}
