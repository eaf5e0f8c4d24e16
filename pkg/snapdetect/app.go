// Package snapdetect assembles the capture pipeline, its input sources and
// its front ends into a runnable application.
package snapdetect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-snapdetect/internal/config"
	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/camera"
	"github.com/teslashibe/go-snapdetect/pkg/capture"
	"github.com/teslashibe/go-snapdetect/pkg/debug"
	"github.com/teslashibe/go-snapdetect/pkg/detect"
	"github.com/teslashibe/go-snapdetect/pkg/frame"
	"github.com/teslashibe/go-snapdetect/pkg/present"
	"github.com/teslashibe/go-snapdetect/pkg/render"
	"github.com/teslashibe/go-snapdetect/pkg/trigger"
	"github.com/teslashibe/go-snapdetect/pkg/tui"
	"github.com/teslashibe/go-snapdetect/pkg/web"
)

// softwareFPS drives the software renderer when no UI steps it.
const softwareFPS = 30

// shutdownGrace bounds how long Shutdown waits for captures to finish.
const shutdownGrace = 5 * time.Second

// bridgeRetry is the reconnect delay for the controller bridge.
const bridgeRetry = 2 * time.Second

// ErrCaptureFailed is returned by Shot when no frame reached the service.
var ErrCaptureFailed = errors.New("snapdetect: capture failed")

// ConfigError lists every configuration problem found.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Option configures an App.
type Option func(*App)

// WithRenderer supplies the renderer captures sample. The App closes it on
// Shutdown if it implements io.Closer. Without this option a software
// renderer drawing a test scene is used.
func WithRenderer(r render.Renderer) Option {
	return func(a *App) { a.renderer = r }
}

// WithDetector replaces the HTTP detection client.
func WithDetector(d detect.Detector) Option {
	return func(a *App) { a.detector = d }
}

// App is the snapdetect application orchestrator.
type App struct {
	config config.Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	renderer render.Renderer
	software *render.Software

	sources  *trigger.Defaults
	webLatch *trigger.Latch
	agg      *trigger.Aggregator
	bridge   *trigger.Bridge

	detector  detect.Detector
	presenter *present.Presenter
	settings  *camera.Manager
	pipeline  *capture.Pipeline
	webServer *web.Server

	outcomeMu   sync.Mutex
	lastOutcome *detect.Outcome
}

// New validates cfg and creates an application.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	debug.Enabled = cfg.Debug

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config: cfg,
		logger: log.Component("app"),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init builds every component. Call it after New and before Run or Shot.
func (a *App) Init() error {
	if a.renderer == nil {
		a.software = render.NewSoftware(render.TestPattern)
		a.renderer = a.software
	}

	if a.detector == nil {
		client, err := detect.NewClient(
			detect.WithEndpoint(a.config.Endpoint),
			detect.WithTimeout(a.config.Timeout),
			detect.WithLogger(log.L()),
		)
		if err != nil {
			return fmt.Errorf("detection client: %w", err)
		}
		a.detector = client
	}

	a.settings = camera.NewManager(camera.Config{
		Width:      a.config.Width,
		Height:     a.config.Height,
		Quality:    a.config.Quality,
		SaveToDisk: a.config.SaveToDisk,
	})
	if cfg := a.settings.GetConfig(); len(cfg.Validate()) > 0 {
		return &ConfigError{Problems: cfg.Validate()}
	}

	a.presenter = present.New()

	opts := []capture.Option{
		capture.WithSettings(a.settings),
		capture.WithSaver(frame.NewSaver(a.config.SaveDir)),
		capture.WithContext(a.ctx),
		capture.WithOnOutcome(a.recordOutcome),
		capture.WithOnFrame(a.publishFrame),
	}
	if a.config.SingleFlight {
		opts = append(opts, capture.WithSingleFlight())
	}
	a.pipeline = capture.New(a.renderer, a.detector, a.presenter, opts...)

	a.sources = trigger.NewDefaults()
	a.webLatch = trigger.NewLatch(trigger.SourceWeb, "Dashboard")
	a.agg = trigger.NewAggregator(append(a.sources.Sources(), a.webLatch)...)

	if a.config.BridgeURL != "" {
		a.bridge = trigger.NewBridge(a.config.BridgeURL, a.sources.VRTrigger, a.sources.VRButton)
	}

	a.logger.Info("initialized",
		"endpoint", a.config.Endpoint,
		"renderer", fmt.Sprintf("%T", a.renderer),
		"size", fmt.Sprintf("%dx%d", a.config.Width, a.config.Height),
		"quality", a.config.Quality,
		"save_to_disk", a.config.SaveToDisk,
		"single_flight", a.config.SingleFlight,
		"debug", debug.Enabled,
	)
	return nil
}

// Pipeline returns the capture pipeline.
func (a *App) Pipeline() *capture.Pipeline {
	return a.pipeline
}

// Run serves the dashboard and bridge, then drives captures from the
// terminal UI (or a headless loop) until ctx is done or the user quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.WebPort != "" {
		srv := web.NewServer(a.config.WebPort, a.pipeline, a.webLatch)
		if err := srv.StartAsync(); err != nil {
			return fmt.Errorf("snapdetect: dashboard: %w", err)
		}
		a.webServer = srv
	}
	if a.bridge != nil {
		go a.bridge.RunWithRetry(ctx, bridgeRetry)
	}

	if a.config.Headless {
		return a.runHeadless(ctx)
	}

	var stepper tui.Stepper
	if a.software != nil {
		stepper = a.software
	}
	model := tui.NewModel(a.sources, a.agg, a.pipeline, stepper, a.config.TickInterval)
	return tui.Run(ctx, model)
}

func (a *App) runHeadless(ctx context.Context) error {
	a.logger.Info("running headless", "tick", a.config.TickInterval)

	a.presenter.Subscribe(func(m present.Message) {
		if m.Visible {
			a.logger.Info("status", "message", m.Text, "kind", m.Kind)
		}
	})

	if a.software != nil {
		go a.software.Run(ctx, softwareFPS)
	}

	reqs := make(chan trigger.CaptureRequest, 1)
	go a.agg.Run(ctx, a.config.TickInterval, reqs)
	go a.pipeline.Run(ctx, reqs)

	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			a.presenter.Tick(now.Sub(last))
			last = now
		}
	}
}

// Shot performs one capture and returns the detection outcome together
// with the message that was presented for it.
func (a *App) Shot(ctx context.Context) (detect.Outcome, string, error) {
	stop := context.AfterFunc(ctx, a.cancel)
	defer stop()

	if a.software != nil {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.software.Run(ctx, softwareFPS)
	}

	latch := trigger.NewLatch(trigger.SourceCLI, "Command Line")
	agg := trigger.NewAggregator(latch)
	latch.Press()
	req, _ := agg.Poll(time.Now())

	a.pipeline.Trigger(req)
	a.pipeline.Wait()

	msg, _ := a.presenter.Current()

	a.outcomeMu.Lock()
	defer a.outcomeMu.Unlock()
	if a.lastOutcome == nil {
		return detect.Outcome{}, msg.Text, ErrCaptureFailed
	}
	return *a.lastOutcome, msg.Text, nil
}

// Health probes the detection service.
func (a *App) Health(ctx context.Context) error {
	return a.detector.Health(ctx)
}

// Shutdown stops background work and releases the renderer.
func (a *App) Shutdown() {
	done := make(chan struct{})
	go func() {
		a.pipeline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		a.logger.Warn("abandoning in-flight captures", "in_flight", a.pipeline.InFlight())
		a.cancel()
		<-done
	}
	a.cancel()

	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("dashboard shutdown", "error", err)
		}
	}
	if c, ok := a.renderer.(io.Closer); ok {
		c.Close()
	}
	if c, ok := a.detector.(io.Closer); ok {
		c.Close()
	}
	a.logger.Info("shutdown complete", "stats", a.pipeline.Stats())
}

func (a *App) recordOutcome(req trigger.CaptureRequest, out detect.Outcome) {
	a.outcomeMu.Lock()
	a.lastOutcome = &out
	a.outcomeMu.Unlock()
}

func (a *App) publishFrame(f *frame.EncodedFrame) {
	if a.webServer != nil {
		a.webServer.SendFrame(f.Bytes)
	}
}
