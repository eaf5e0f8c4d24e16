package hub

import (
	"testing"

	"github.com/gofiber/websocket/v2"
)

func TestStatusMessage(t *testing.T) {
	msg, err := StatusMessage(map[string]int{"in_flight": 2})
	if err != nil {
		t.Fatalf("StatusMessage: %v", err)
	}
	if msg.Kind != KindStatus || string(msg.Data) != `{"in_flight":2}` {
		t.Errorf("msg = %v %q", msg.Kind, msg.Data)
	}
	if msg.Kind.wsType() != websocket.TextMessage {
		t.Errorf("status should be a text frame")
	}

	if _, err := StatusMessage(make(chan int)); err == nil {
		t.Error("expected an encode error")
	}
}

func TestFrameMessage(t *testing.T) {
	if _, ok := FrameMessage(nil); ok {
		t.Error("empty frame should not produce a message")
	}

	msg, ok := FrameMessage([]byte{0xFF, 0xD8, 0xFF})
	if !ok || msg.Kind != KindFrame || len(msg.Data) != 3 {
		t.Fatalf("msg = %v %v", msg, ok)
	}
	if msg.Kind.wsType() != websocket.BinaryMessage {
		t.Errorf("frame should be a binary frame")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{KindStatus: "status", KindFrame: "frame", Kind(7): "kind(7)"} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
