// Package detect submits encoded frames to a remote object-detection
// service and classifies the result.
package detect

import (
	"context"
	"math"

	"github.com/teslashibe/go-snapdetect/pkg/frame"
)

// Envelope is the JSON request body sent to the service.
type Envelope struct {
	ImageBase64 string `json:"image_base64"`
}

// NewEnvelope wraps a frame's bytes as plain base64 (no data URI prefix).
func NewEnvelope(f *frame.EncodedFrame) Envelope {
	return Envelope{ImageBase64: f.Base64()}
}

// Detection is one labelled bounding box in the submitted image's pixel space.
type Detection struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"confidence"` // 0-1
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// Width returns the box width in pixels.
func (d Detection) Width() float64 {
	return d.X2 - d.X1
}

// Height returns the box height in pixels.
func (d Detection) Height() float64 {
	return d.Y2 - d.Y1
}

// Percent returns the confidence rounded to the nearest whole percent.
func (d Detection) Percent() int {
	return int(math.Round(d.Confidence * 100))
}

// Response is the decoded service reply. Detections keep the service order.
type Response struct {
	Detections  []Detection `json:"detections"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
}

// Detector is implemented by Client and Mock.
type Detector interface {
	// Detect submits f and classifies the reply. It never returns an error;
	// every failure is expressed as an Outcome.
	Detect(ctx context.Context, f *frame.EncodedFrame) Outcome

	// Health checks the service is reachable.
	Health(ctx context.Context) error
}
