package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-snapdetect/internal/log"
)

// ButtonEvent is sent by the headset companion for each controller button edge.
type ButtonEvent struct {
	Button  string `json:"button"`  // "trigger" or "a"
	Pressed bool   `json:"pressed"` // Only presses activate a capture
}

// Bridge forwards VR controller button presses from a websocket to latches.
type Bridge struct {
	url     string
	buttons map[string]*Latch
	dialer  websocket.Dialer
	logger  *slog.Logger
}

// NewBridge creates a bridge that maps "trigger" and "a" to the given latches.
func NewBridge(url string, vrTrigger, vrButton *Latch) *Bridge {
	return &Bridge{
		url: url,
		buttons: map[string]*Latch{
			"trigger": vrTrigger,
			"a":       vrButton,
		},
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: log.Component("trigger.bridge"),
	}
}

// Run connects and forwards events until ctx is done or the connection fails.
func (b *Bridge) Run(ctx context.Context) error {
	conn, _, err := b.dialer.DialContext(ctx, b.url, http.Header{})
	if err != nil {
		return fmt.Errorf("bridge: connect %s: %w", b.url, err)
	}
	defer conn.Close()

	b.logger.Info("controller bridge connected", "url", b.url)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge: read: %w", err)
		}
		b.handle(data)
	}
}

// RunWithRetry keeps the bridge connected, waiting delay between attempts.
func (b *Bridge) RunWithRetry(ctx context.Context, delay time.Duration) {
	for {
		if err := b.Run(ctx); err != nil {
			b.logger.Warn("controller bridge disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (b *Bridge) handle(data []byte) {
	var ev ButtonEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.Warn("ignoring malformed controller event", "error", err)
		return
	}
	if !ev.Pressed {
		return
	}
	latch, ok := b.buttons[ev.Button]
	if !ok {
		b.logger.Debug("ignoring unmapped button", "button", ev.Button)
		return
	}
	latch.Press()
}
