package frame

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/debug"
	"github.com/teslashibe/go-snapdetect/pkg/render"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 60

// Config holds encoder configuration.
type Config struct {
	Quality int    // JPEG quality 1-100
	Saver   *Saver // Optional lossless persistence; nil disables it
	Logger  *slog.Logger
}

// Option is a functional option for configuring the encoder.
type Option func(*Config)

// WithQuality sets the JPEG quality.
func WithQuality(q int) Option {
	return func(c *Config) { c.Quality = q }
}

// WithSaver enables lossless persistence of every capture.
func WithSaver(s *Saver) Option {
	return func(c *Config) { c.Saver = s }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Encoder samples a renderer and produces JPEG frames. Captures sharing
// an encoder take turns on the renderer's output target.
type Encoder struct {
	quality int
	saver   atomic.Pointer[Saver]
	logger  *slog.Logger

	grabMu sync.Mutex
}

// NewEncoder creates an encoder.
func NewEncoder(opts ...Option) *Encoder {
	cfg := Config{
		Quality: DefaultQuality,
		Logger:  log.L(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		cfg.Quality = DefaultQuality
	}

	e := &Encoder{
		quality: cfg.Quality,
		logger:  cfg.Logger.With("component", "frame.encoder"),
	}
	e.saver.Store(cfg.Saver)
	return e
}

// SetSaver enables persistence with s, or disables it when s is nil.
func (e *Encoder) SetSaver(s *Saver) {
	e.saver.Store(s)
}

// Capture waits for the renderer's current frame to complete, renders into
// a temporary target of width x height, and returns the JPEG encoding.
// Quality overrides the encoder default when in 1-100; pass 0 to keep it.
func (e *Encoder) Capture(ctx context.Context, r render.Renderer, width, height, quality int) (*EncodedFrame, error) {
	if r == nil {
		return nil, ErrMissingRenderer
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	if quality < 1 || quality > 100 {
		quality = e.quality
	}

	if err := render.WaitFrameEnd(ctx, r); err != nil {
		return nil, fmt.Errorf("frame: wait for frame end: %w", err)
	}

	start := time.Now()
	img, err := e.grab(ctx, r, width, height)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("frame captured", "width", width, "height", height, "took", time.Since(start))

	if saver := e.saver.Load(); saver != nil {
		if path, err := saver.Save(img); err != nil {
			e.logger.Warn("snapshot not saved", "error", err)
		} else {
			e.logger.Info("snapshot saved", "path", path)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("frame: encode jpeg: %w", err)
	}
	debug.Log("jpeg encoded", "bytes", buf.Len(), "quality", quality)

	b := img.Bounds()
	return &EncodedFrame{
		Bytes:    buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		MIMEType: MIMETypeJPEG,
	}, nil
}

// grab renders into a temporary target and reads it back. The target is
// unbound and released on every path, including a panicking readback.
func (e *Encoder) grab(ctx context.Context, r render.Renderer, width, height int) (*image.RGBA, error) {
	e.grabMu.Lock()
	defer e.grabMu.Unlock()

	target := render.NewTarget(width, height)
	r.SetTarget(target)
	defer func() {
		r.ClearTarget()
		target.Release()
	}()

	if err := r.Render(ctx); err != nil {
		return nil, fmt.Errorf("frame: render: %w", err)
	}

	img, err := r.ReadPixels(image.Rect(0, 0, width, height))
	if err != nil {
		return nil, fmt.Errorf("frame: read pixels: %w", err)
	}
	return img, nil
}
