// Package frame captures a rendered view and encodes it for transmission.
package frame

import (
	"encoding/base64"
	"errors"
)

var (
	// ErrMissingRenderer is returned when no renderer is configured.
	ErrMissingRenderer = errors.New("frame: renderer required")

	// ErrInvalidSize is returned for non-positive capture dimensions.
	ErrInvalidSize = errors.New("frame: width and height must be positive")
)

// MIMETypeJPEG is the encoding used for transmitted frames.
const MIMETypeJPEG = "image/jpeg"

// EncodedFrame is a compressed capture owned by one pipeline invocation.
type EncodedFrame struct {
	Bytes    []byte
	Width    int
	Height   int
	MIMEType string
}

// Base64 returns the standard base64 encoding of the frame bytes,
// without any data URI prefix.
func (f *EncodedFrame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Bytes)
}
