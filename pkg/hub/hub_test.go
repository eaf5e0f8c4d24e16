package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	writes  []written
	closed  chan struct{}
	closeMu sync.Once
}

type written struct {
	kind int
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, written{kind: kind, data: data})
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error {
	f.closeMu.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) dataWrites() []written {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []written
	for _, w := range f.writes {
		if w.kind == websocket.TextMessage || w.kind == websocket.BinaryMessage {
			out = append(out, w)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("status", false)
	go h.Run(ctx)

	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, c := range conns {
		go NewClient(h, c).Run()
	}
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastStatus(map[string]string{"text": "No Objects Detected"}); err != nil {
		t.Fatalf("BroadcastStatus: %v", err)
	}
	h.BroadcastFrame([]byte{0xFF, 0xD8})

	for _, c := range conns {
		c := c
		waitFor(t, func() bool { return len(c.dataWrites()) == 2 })
		w := c.dataWrites()
		if w[0].kind != websocket.TextMessage || string(w[0].data) != `{"text":"No Objects Detected"}` {
			t.Errorf("first write = %d %q", w[0].kind, w[0].data)
		}
		if w[1].kind != websocket.BinaryMessage {
			t.Errorf("second write kind = %d", w[1].kind)
		}
	}
}

func TestReplayLastMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("status", true)
	go h.Run(ctx)
	waitFor(t, h.IsRunning)

	h.BroadcastStatus(map[string]bool{"visible": true})
	h.BroadcastStatus(map[string]bool{"visible": false})

	waitFor(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.last != nil && string(h.last.Data) == `{"visible":false}`
	})

	c := newFakeConn()
	go NewClient(h, c).Run()

	waitFor(t, func() bool { return len(c.dataWrites()) == 1 })
	if got := string(c.dataWrites()[0].data); got != `{"visible":false}` {
		t.Errorf("replayed %q", got)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("frames", false)
	go h.Run(ctx)

	c := newFakeConn()
	go NewClient(h, c).Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	c.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := New("frames", false)
	go h.Run(ctx)

	c := newFakeConn()
	done := make(chan struct{})
	go func() {
		NewClient(h, c).Run()
		close(done)
	}()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop with the hub")
	}
	if h.IsRunning() {
		t.Error("hub still running")
	}
}
