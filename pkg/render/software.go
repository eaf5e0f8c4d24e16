package render

import (
	"context"
	"image"
	"image/color"
	"math"
	"sync"
	"time"
)

// Scene draws one frame into dst. t is the scene time.
type Scene func(dst *image.RGBA, t time.Duration)

// Software is a CPU renderer with its own frame loop. It has no
// hardware target, so every capture renders into an off-screen Target.
type Software struct {
	scene Scene

	mu     sync.Mutex
	target *Target
	frame  uint64
	clock  time.Duration
	done   chan struct{}
}

// NewSoftware creates a renderer for scene. A nil scene uses TestPattern.
func NewSoftware(scene Scene) *Software {
	if scene == nil {
		scene = TestPattern
	}
	return &Software{
		scene: scene,
		done:  make(chan struct{}),
	}
}

// SetTarget binds the output target.
func (s *Software) SetTarget(t *Target) {
	s.mu.Lock()
	s.target = t
	s.mu.Unlock()
}

// ClearTarget unbinds the output target.
func (s *Software) ClearTarget() {
	s.mu.Lock()
	s.target = nil
	s.mu.Unlock()
}

// Render draws the scene at the current scene time into the bound target.
func (s *Software) Render(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.target == nil {
		return ErrNoTarget
	}
	img := s.target.Image()
	if img == nil {
		return ErrTargetReleased
	}
	s.scene(img, s.clock)
	return nil
}

// ReadPixels copies a rectangle of the bound target.
func (s *Software) ReadPixels(r image.Rectangle) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.target == nil {
		return nil, ErrNoTarget
	}
	return s.target.ReadPixels(r)
}

// FrameDone returns a channel closed when the frame in progress completes.
func (s *Software) FrameDone() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Step completes the current frame, advancing scene time by dt.
func (s *Software) Step(dt time.Duration) {
	s.mu.Lock()
	s.frame++
	s.clock += dt
	done := s.done
	s.done = make(chan struct{})
	s.mu.Unlock()

	close(done)
}

// Frame returns the number of completed frames.
func (s *Software) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Run steps frames at fps until ctx is done.
func (s *Software) Run(ctx context.Context, fps int) {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Step(interval)
		}
	}
}

// Box oscillation: speed in rad/s, distance in box widths.
const (
	boxSpeed    = 2.0
	boxDistance = 2.0
)

// TestPattern draws a vertical gradient with a red box swinging
// horizontally around the centre.
func TestPattern(dst *image.RGBA, t time.Duration) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()

	for y := 0; y < h; y++ {
		shade := uint8(40 + 150*y/max(h, 1))
		c := color.RGBA{R: shade / 3, G: shade / 2, B: shade, A: 255}
		for x := 0; x < w; x++ {
			dst.SetRGBA(b.Min.X+x, b.Min.Y+y, c)
		}
	}

	size := max(min(w, h)/6, 1)
	offset := math.Sin(t.Seconds()*boxSpeed) * boxDistance * float64(size)
	cx := w/2 + int(offset)
	cy := h / 2
	box := image.Rect(cx-size/2, cy-size/2, cx+size/2, cy+size/2).Intersect(image.Rect(0, 0, w, h))

	red := color.RGBA{R: 220, G: 30, B: 30, A: 255}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			dst.SetRGBA(b.Min.X+x, b.Min.Y+y, red)
		}
	}
}

var (
	_ Renderer      = (*Software)(nil)
	_ FrameNotifier = (*Software)(nil)
)
