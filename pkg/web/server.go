// Package web serves the capture dashboard: status, remote trigger,
// settings and live websocket feeds.
package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/capture"
	"github.com/teslashibe/go-snapdetect/pkg/hub"
	"github.com/teslashibe/go-snapdetect/pkg/present"
	"github.com/teslashibe/go-snapdetect/pkg/trigger"
)

//go:embed index.html
var indexHTML []byte

var (
	// ErrServerClosed is returned when starting a server after Shutdown.
	ErrServerClosed = errors.New("web: server closed")
	// ErrServerStarted is returned when starting a server twice.
	ErrServerStarted = errors.New("web: server already started")
)

// Status is the dashboard view of the pipeline.
type Status struct {
	Message     string        `json:"message"`
	Visible     bool          `json:"visible"`
	Kind        present.Kind  `json:"kind,omitempty"`
	Remaining   float64       `json:"remaining_seconds"`
	LastOutcome string        `json:"last_outcome,omitempty"`
	InFlight    int64         `json:"in_flight"`
	Stats       capture.Stats `json:"stats"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app      *fiber.App
	port     string
	pipeline *capture.Pipeline
	latch    *trigger.Latch
	logger   *slog.Logger

	statusHub *hub.Hub
	framesHub *hub.Hub
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

// onceCloser makes a listener safe to close from both Shutdown and fiber.
type onceCloser struct {
	net.Listener
	once sync.Once
	err  error
}

func (l *onceCloser) Close() error {
	l.once.Do(func() { l.err = l.Listener.Close() })
	return l.err
}

// NewServer creates a dashboard for p. POST /api/capture presses latch;
// a nil latch disables remote capture.
func NewServer(port string, p *capture.Pipeline, latch *trigger.Latch) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		ctx:       ctx,
		cancel:    cancel,
		port:      port,
		pipeline:  p,
		latch:     latch,
		logger:    log.Component("web"),
		statusHub: hub.New("status", true),
		framesHub: hub.New("frames", true),
	}

	app := fiber.New(fiber.Config{
		AppName:               "snapdetect",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.logRequests)

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html")
		return c.Send(indexHTML)
	})

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/capture", s.handleCapture)
	api.Get("/config", s.handleGetConfig)
	api.Put("/config", s.handleUpdateConfig)
	api.Get("/health", s.handleHealth)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/frames", websocket.New(s.serveHub(s.framesHub)))

	p.Presenter().Subscribe(func(present.Message) {
		s.statusHub.BroadcastStatus(s.status())
	})

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	return s.serve(ln)
}

// StartAsync binds the port and serves in a goroutine. The port is bound
// before it returns, so a following Shutdown always stops the server.
func (s *Server) StartAsync() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	go func() {
		if err := s.serve(ln); err != nil {
			s.logger.Error("dashboard stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrServerClosed
	}
	if s.ln != nil {
		return nil, ErrServerStarted
	}

	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return nil, fmt.Errorf("web: listen on :%s: %w", s.port, err)
	}
	s.ln = &onceCloser{Listener: ln}

	go s.statusHub.Run(s.ctx)
	go s.framesHub.Run(s.ctx)
	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return s.ln, nil
}

func (s *Server) serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// SendFrame publishes a captured JPEG to /ws/frames viewers.
func (s *Server) SendFrame(jpeg []byte) {
	s.framesHub.BroadcastFrame(jpeg)
}

// Shutdown stops the server and disconnects viewers. It is safe to call
// before the server has started.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	s.cancel()
	if ln == nil {
		return nil
	}
	// Closing the listener first stops a server whose goroutine has not
	// reached Accept yet.
	ln.Close()
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func (s *Server) status() Status {
	msg, visible := s.pipeline.Presenter().Current()
	stats := s.pipeline.Stats()
	return Status{
		Message:     msg.Text,
		Visible:     visible,
		Kind:        msg.Kind,
		Remaining:   msg.Remaining.Seconds(),
		LastOutcome: s.pipeline.Presenter().LastOutcome(),
		InFlight:    stats.InFlight,
		Stats:       stats,
	}
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"took", time.Since(start),
	)
	return err
}
