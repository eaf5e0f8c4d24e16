package render

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

func TestTargetReadPixels(t *testing.T) {
	tgt := NewTarget(4, 3)
	tgt.Image().Pix[0] = 200

	img, err := tgt.ReadPixels(image.Rect(0, 0, 4, 3))
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if img.Pix[0] != 200 {
		t.Error("pixel data not copied")
	}

	if _, err := tgt.ReadPixels(image.Rect(0, 0, 5, 3)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}

	tgt.Release()
	tgt.Release()
	if !tgt.Released() {
		t.Error("target should be released")
	}
	if _, err := tgt.ReadPixels(image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrTargetReleased) {
		t.Errorf("expected ErrTargetReleased, got %v", err)
	}
}

func TestSoftwareRenderRequiresTarget(t *testing.T) {
	s := NewSoftware(nil)
	if err := s.Render(context.Background()); !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
	if _, err := s.ReadPixels(image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestSoftwareRender(t *testing.T) {
	s := NewSoftware(nil)
	tgt := NewTarget(64, 48)
	s.SetTarget(tgt)
	defer s.ClearTarget()

	if err := s.Render(context.Background()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := s.ReadPixels(image.Rect(0, 0, 64, 48))
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}

	// Centre pixel is covered by the box at t=0.
	c := img.RGBAAt(32, 24)
	if c.R != 220 || c.G != 30 {
		t.Errorf("centre pixel = %+v, want box colour", c)
	}
	if a := img.RGBAAt(0, 0).A; a != 255 {
		t.Errorf("background alpha = %d", a)
	}
}

func TestWaitFrameEnd(t *testing.T) {
	s := NewSoftware(nil)

	waited := make(chan error, 1)
	go func() { waited <- WaitFrameEnd(context.Background(), s) }()

	select {
	case <-waited:
		t.Fatal("WaitFrameEnd returned before the frame completed")
	case <-time.After(20 * time.Millisecond):
	}

	s.Step(time.Millisecond)

	select {
	case err := <-waited:
		if err != nil {
			t.Errorf("WaitFrameEnd: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFrameEnd did not return after Step")
	}
	if s.Frame() != 1 {
		t.Errorf("Frame = %d, want 1", s.Frame())
	}
}

func TestWaitFrameEndCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitFrameEnd(ctx, NewSoftware(nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
