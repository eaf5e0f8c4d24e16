// Package webcam renders capture frames from a local camera through OpenCV.
// It is kept apart from package camera so that only binaries that open a
// device need cgo.
package webcam

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-snapdetect/pkg/render"
)

// Device renders frames grabbed from a webcam. Each Render grabs a fresh
// frame and scales it to the bound target.
type Device struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	scaled gocv.Mat
	target *render.Target
}

// Open opens webcam index id.
func Open(id int) (*Device, error) {
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("webcam: open device %d: %w", id, err)
	}
	return &Device{
		cap:    vc,
		frame:  gocv.NewMat(),
		scaled: gocv.NewMat(),
	}, nil
}

// SetTarget binds the output target.
func (d *Device) SetTarget(t *render.Target) {
	d.mu.Lock()
	d.target = t
	d.mu.Unlock()
}

// ClearTarget unbinds the output target.
func (d *Device) ClearTarget() {
	d.mu.Lock()
	d.target = nil
	d.mu.Unlock()
}

// Render grabs a frame and draws it into the target at the target's size.
func (d *Device) Render(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.target == nil {
		return render.ErrNoTarget
	}
	dst := d.target.Image()
	if dst == nil {
		return render.ErrTargetReleased
	}

	if ok := d.cap.Read(&d.frame); !ok || d.frame.Empty() {
		return fmt.Errorf("webcam: no frame available")
	}

	w, h := d.target.Size()
	gocv.Resize(d.frame, &d.scaled, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)

	img, err := d.scaled.ToImage()
	if err != nil {
		return fmt.Errorf("webcam: convert frame: %w", err)
	}
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// ReadPixels copies a rectangle of the bound target.
func (d *Device) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.target == nil {
		return nil, render.ErrNoTarget
	}
	return d.target.ReadPixels(r)
}

// Close releases the webcam and frame buffers.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame.Close()
	d.scaled.Close()
	return d.cap.Close()
}

var _ render.Renderer = (*Device)(nil)
