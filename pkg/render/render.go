// Package render defines the renderer collaborator the frame encoder samples.
package render

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrNoTarget is returned when rendering or reading without a bound target.
	ErrNoTarget = errors.New("render: no output target bound")

	// ErrTargetReleased is returned when a released target is used.
	ErrTargetReleased = errors.New("render: target released")

	// ErrOutOfBounds is returned when a readback rectangle exceeds the target.
	ErrOutOfBounds = errors.New("render: read rectangle outside target")
)

// Renderer draws a view into an off-screen target on request.
type Renderer interface {
	// SetTarget binds the output target for subsequent Render calls.
	SetTarget(t *Target)

	// Render draws the current view into the bound target.
	Render(ctx context.Context) error

	// ReadPixels copies a rectangle of the bound target.
	ReadPixels(r image.Rectangle) (*image.RGBA, error)

	// ClearTarget unbinds the output target.
	ClearTarget()
}

// FrameNotifier is implemented by renderers with their own frame loop.
// FrameDone returns a channel closed once the frame in progress completes.
type FrameNotifier interface {
	FrameDone() <-chan struct{}
}

// WaitFrameEnd blocks until the renderer's current frame has completed.
// Renderers without a frame loop are always between frames.
func WaitFrameEnd(ctx context.Context, r Renderer) error {
	fn, ok := r.(FrameNotifier)
	if !ok {
		return nil
	}
	select {
	case <-fn.FrameDone():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Target is an off-screen RGBA buffer owned by a single capture.
type Target struct {
	width, height int
	img           *image.RGBA
}

// NewTarget allocates a target of the given size.
func NewTarget(width, height int) *Target {
	return &Target{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the target dimensions.
func (t *Target) Size() (width, height int) {
	return t.width, t.height
}

// Image returns the backing buffer, or nil once released.
func (t *Target) Image() *image.RGBA {
	return t.img
}

// Release frees the buffer. Calling it more than once is harmless.
func (t *Target) Release() {
	t.img = nil
}

// Released reports whether Release has been called.
func (t *Target) Released() bool {
	return t.img == nil
}

// ReadPixels copies r out of the target.
func (t *Target) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	if t.img == nil {
		return nil, ErrTargetReleased
	}
	if r.Empty() || !r.In(t.img.Bounds()) {
		return nil, ErrOutOfBounds
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		src := t.img.PixOffset(r.Min.X, r.Min.Y+y)
		dst := out.PixOffset(0, y)
		copy(out.Pix[dst:dst+4*r.Dx()], t.img.Pix[src:src+4*r.Dx()])
	}
	return out, nil
}
