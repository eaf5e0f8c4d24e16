// Package capture wires trigger requests through encoding, detection and
// presentation. Every capture runs on its own goroutine and ends in exactly
// one presenter call.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/camera"
	"github.com/teslashibe/go-snapdetect/pkg/detect"
	"github.com/teslashibe/go-snapdetect/pkg/frame"
	"github.com/teslashibe/go-snapdetect/pkg/present"
	"github.com/teslashibe/go-snapdetect/pkg/render"
	"github.com/teslashibe/go-snapdetect/pkg/trigger"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSettings sets the capture settings source. Changes made through the
// manager apply to the next capture.
func WithSettings(m *camera.Manager) Option {
	return func(p *Pipeline) { p.settings = m }
}

// WithSaver sets where snapshots go when saving is enabled in the settings.
func WithSaver(s *frame.Saver) Option {
	return func(p *Pipeline) { p.saver = s }
}

// WithSingleFlight drops triggers that arrive while a capture is running.
func WithSingleFlight() Option {
	return func(p *Pipeline) { p.singleFlight = true }
}

// WithOnFrame registers a hook that receives every encoded frame.
func WithOnFrame(fn func(*frame.EncodedFrame)) Option {
	return func(p *Pipeline) { p.onFrame = fn }
}

// WithOnOutcome registers a hook called after each detection completes.
func WithOnOutcome(fn func(trigger.CaptureRequest, detect.Outcome)) Option {
	return func(p *Pipeline) { p.onOutcome = fn }
}

// WithContext sets the context captures run under. Cancelling it aborts
// captures that have not yet finished.
func WithContext(ctx context.Context) Option {
	return func(p *Pipeline) { p.ctx = ctx }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Stats counts pipeline activity.
type Stats struct {
	Triggered int64 `json:"triggered"`
	Dropped   int64 `json:"dropped"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	InFlight  int64 `json:"in_flight"`
}

// Pipeline runs captures.
type Pipeline struct {
	renderer  render.Renderer
	detector  detect.Detector
	presenter *present.Presenter
	encoder   *frame.Encoder
	settings  *camera.Manager
	saver     *frame.Saver

	singleFlight bool
	onFrame      func(*frame.EncodedFrame)
	onOutcome    func(trigger.CaptureRequest, detect.Outcome)
	ctx          context.Context
	logger       *slog.Logger

	wg        sync.WaitGroup
	busy      atomic.Bool
	inFlight  atomic.Int64
	triggered atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a pipeline. r may be nil; captures then fail with
// frame.ErrMissingRenderer and are reported through the presenter.
func New(r render.Renderer, d detect.Detector, pres *present.Presenter, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer:  r,
		detector:  d,
		presenter: pres,
		ctx:       context.Background(),
		logger:    log.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.settings == nil {
		p.settings = camera.NewManager(camera.DefaultConfig())
	}
	p.logger = p.logger.With("component", "capture")

	cfg := p.settings.GetConfig()
	p.encoder = frame.NewEncoder(frame.WithQuality(cfg.Quality), frame.WithLogger(p.logger))
	p.applySettings(cfg)
	p.settings.OnConfigChange = func(cfg camera.Config) error {
		p.applySettings(cfg)
		return nil
	}

	return p
}

func (p *Pipeline) applySettings(cfg camera.Config) {
	if cfg.SaveToDisk && p.saver != nil {
		p.encoder.SetSaver(p.saver)
	} else {
		p.encoder.SetSaver(nil)
	}
}

// Settings returns the settings manager.
func (p *Pipeline) Settings() *camera.Manager {
	return p.settings
}

// Presenter returns the presenter captures report to.
func (p *Pipeline) Presenter() *present.Presenter {
	return p.presenter
}

// Detector returns the detection client.
func (p *Pipeline) Detector() detect.Detector {
	return p.detector
}

// Trigger starts a capture for req and returns immediately. It reports
// false when the request was dropped by single-flight mode.
func (p *Pipeline) Trigger(req trigger.CaptureRequest) bool {
	p.triggered.Add(1)

	if p.singleFlight && !p.busy.CompareAndSwap(false, true) {
		p.dropped.Add(1)
		p.logger.Debug("capture dropped, one already in flight", "capture_id", req.ID, "source", req.Source)
		return false
	}

	p.inFlight.Add(1)
	p.wg.Add(1)
	go p.run(req)
	return true
}

// Run triggers a capture for every request received until ctx is done or
// reqs is closed.
func (p *Pipeline) Run(ctx context.Context, reqs <-chan trigger.CaptureRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-reqs:
			if !ok {
				return
			}
			p.Trigger(req)
		}
	}
}

// Wait blocks until every started capture has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// InFlight returns the number of running captures.
func (p *Pipeline) InFlight() int64 {
	return p.inFlight.Load()
}

// Stats returns activity counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Triggered: p.triggered.Load(),
		Dropped:   p.dropped.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		InFlight:  p.inFlight.Load(),
	}
}

func (p *Pipeline) run(req trigger.CaptureRequest) {
	logger := p.logger.With("capture_id", req.ID, "source", req.SourceLabel)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("capture panicked", "panic", r)
			p.failed.Add(1)
			p.presenter.PresentError(fmt.Errorf("capture: panic: %v", r))
		}
		p.inFlight.Add(-1)
		if p.singleFlight {
			p.busy.Store(false)
		}
		p.wg.Done()
	}()

	logger.Info("capture started")

	cfg := p.settings.GetConfig()
	f, err := p.encoder.Capture(p.ctx, p.renderer, cfg.Width, cfg.Height, cfg.Quality)
	if err != nil {
		logger.Error("capture failed", "error", err)
		p.failed.Add(1)
		p.presenter.PresentError(err)
		return
	}

	p.presenter.Notice(present.MsgCaptured)
	if p.onFrame != nil {
		hook(logger, "on_frame", func() { p.onFrame(f) })
	}

	out := p.detector.Detect(p.ctx, f)
	if out.Kind == detect.KindSuccess || out.Kind == detect.KindEmpty {
		p.completed.Add(1)
	} else {
		p.failed.Add(1)
	}
	p.presenter.Present(out)

	if p.onOutcome != nil {
		hook(logger, "on_outcome", func() { p.onOutcome(req, out) })
	}
}

// hook runs an observer callback. A panicking observer is logged and does
// not count against the capture.
func hook(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("capture hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}
