// Package hub fans capture status and frames out to websocket viewers.
package hub

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/websocket/v2"
)

// Kind is what a Message carries.
type Kind int

const (
	// KindStatus is a JSON status snapshot, written as a text frame.
	KindStatus Kind = iota
	// KindFrame is an encoded JPEG capture, written as a binary frame.
	KindFrame
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindFrame:
		return "frame"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// wsType is the websocket opcode for k.
func (k Kind) wsType() int {
	if k == KindFrame {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Message is one broadcast payload.
type Message struct {
	Kind Kind
	Data []byte
}

// StatusMessage encodes a status snapshot.
func StatusMessage(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("hub: encode status: %w", err)
	}
	return Message{Kind: KindStatus, Data: data}, nil
}

// FrameMessage wraps a JPEG capture. Empty frames are not sent.
func FrameMessage(jpeg []byte) (Message, bool) {
	if len(jpeg) == 0 {
		return Message{}, false
	}
	return Message{Kind: KindFrame, Data: jpeg}, true
}
