package infra

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

// SocketHandler supplies the endpoint-specific half of a SocketWorker.
type SocketHandler interface {
	// URL is dialed on every (re)connect.
	URL() string
	// Name tags log lines.
	Name() string
	OnConnect(ctx context.Context, conn *websocket.Conn) error
	OnMessage(ctx context.Context, msg []byte)
	OnPing(ctx context.Context, conn *websocket.Conn) error
}

// SocketWorker keeps one websocket connection alive: it dials, reads
// until the connection breaks and redials with jittered backoff.
// Stop waits for the loop to exit.
type SocketWorker struct {
	handler SocketHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup

	ReadTimeout  time.Duration
	PingInterval time.Duration
}

// NewSocketWorker wraps handler in a reconnecting worker.
func NewSocketWorker(handler SocketHandler) *SocketWorker {
	return &SocketWorker{
		handler:      handler,
		ReadTimeout:  60 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// Start launches the dial/read loop and returns immediately.
func (w *SocketWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop tears the connection down and waits for the loop to finish.
func (w *SocketWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConn()
	w.wg.Wait()
}

// Write sends one frame on the live connection.
func (w *SocketWorker) Write(msgType int, data []byte) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return errors.New("socket not connected")
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return conn.WriteMessage(msgType, data)
}

func (w *SocketWorker) run(ctx context.Context) {
	defer w.wg.Done()

	retry := &backoff.Backoff{
		Min:    time.Second,
		Max:    time.Minute,
		Factor: 2,
		Jitter: true,
	}
	for ctx.Err() == nil {
		conn, err := w.dial(ctx)
		if err != nil {
			delay := retry.Duration()
			slog.Warn("socket dial failed",
				slog.String("name", w.handler.Name()),
				slog.Any("error", err),
				slog.Duration("retry_in", delay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		retry.Reset()
		w.readUntilClosed(ctx, conn)
	}
}

func (w *SocketWorker) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.handler.URL(), nil)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.handler.OnConnect(ctx, conn); err != nil {
		w.closeConn()
		return nil, err
	}

	slog.Info("socket connected", slog.String("name", w.handler.Name()))
	return conn, nil
}

func (w *SocketWorker) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	if w.PingInterval > 0 {
		go w.pingLoop(pingCtx, conn)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(w.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("socket read failed",
					slog.String("name", w.handler.Name()),
					slog.Any("error", err))
			}
			w.closeConn()
			return
		}
		w.handler.OnMessage(ctx, msg)
	}
}

func (w *SocketWorker) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(w.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.handler.OnPing(ctx, conn); err != nil {
				slog.Warn("socket ping failed",
					slog.String("name", w.handler.Name()),
					slog.Any("error", err))
				w.closeConn()
				return
			}
		}
	}
}

func (w *SocketWorker) closeConn() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}
