package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// captureHandler records connects and messages on channels so tests can
// wait instead of sleeping.
type captureHandler struct {
	url       string
	connected chan struct{}
	messages  chan []byte
}

func newCaptureHandler(url string) *captureHandler {
	return &captureHandler{
		url:       url,
		connected: make(chan struct{}, 8),
		messages:  make(chan []byte, 8),
	}
}

func (h *captureHandler) URL() string  { return h.url }
func (h *captureHandler) Name() string { return "capture" }

func (h *captureHandler) OnConnect(context.Context, *websocket.Conn) error {
	h.connected <- struct{}{}
	return nil
}

func (h *captureHandler) OnMessage(_ context.Context, msg []byte) {
	h.messages <- append([]byte(nil), msg...)
}

func (h *captureHandler) OnPing(context.Context, *websocket.Conn) error { return nil }

func wsServer(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitConnected(t *testing.T, h *captureHandler) {
	t.Helper()
	select {
	case <-h.connected:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never connected")
	}
}

func TestSocketWorker_DeliversMessages(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		time.Sleep(200 * time.Millisecond)
	})

	h := newCaptureHandler(url)
	w := NewSocketWorker(h)
	w.ReadTimeout = time.Second

	w.Start(context.Background())
	defer w.Stop()

	waitConnected(t, h)
	select {
	case msg := <-h.messages:
		if string(msg) != "hello" {
			t.Errorf("msg = %q, want hello", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message was never delivered")
	}
}

func TestSocketWorker_WriteReachesServer(t *testing.T) {
	got := make(chan []byte, 1)
	url := wsServer(t, func(conn *websocket.Conn) {
		if _, msg, err := conn.ReadMessage(); err == nil {
			got <- msg
		}
		time.Sleep(100 * time.Millisecond)
	})

	h := newCaptureHandler(url)
	w := NewSocketWorker(h)
	w.Start(context.Background())
	defer w.Stop()

	waitConnected(t, h)
	if err := w.Write(websocket.TextMessage, []byte("sub")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	select {
	case msg := <-got:
		if string(msg) != "sub" {
			t.Errorf("server got %q, want sub", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestSocketWorker_StopDoesNotHang(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	url := wsServer(t, func(conn *websocket.Conn) { <-hold })

	h := newCaptureHandler(url)
	w := NewSocketWorker(h)
	w.Start(context.Background())
	waitConnected(t, h)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() hung")
	}
}

func TestSocketWorker_WriteWithoutConnection(t *testing.T) {
	w := NewSocketWorker(newCaptureHandler("ws://127.0.0.1:1"))
	if err := w.Write(websocket.TextMessage, []byte("x")); err == nil {
		t.Error("Write() on a dead worker must error")
	}
}
