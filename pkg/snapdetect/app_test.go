package snapdetect

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-snapdetect/internal/config"
	"github.com/teslashibe/go-snapdetect/pkg/detect"
	"github.com/teslashibe/go-snapdetect/pkg/present"
	"github.com/teslashibe/go-snapdetect/pkg/render"
)

func testConfig(t *testing.T, endpoint string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Endpoint = endpoint
	cfg.Width, cfg.Height = 64, 48
	cfg.WebPort = ""
	cfg.SaveDir = t.TempDir()
	return cfg
}

func newApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	app, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Quality = 0
	cfg.Endpoint = "not a url"

	_, err := New(cfg)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if len(cfgErr.Problems) != 2 {
		t.Errorf("problems = %v", cfgErr.Problems)
	}
}

func TestShotAgainstService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"detections":[{"class":"cat","confidence":0.92,"x1":10,"y1":20,"x2":60,"y2":40}],"image_width":64,"image_height":48}`)
	}))
	defer server.Close()

	app := newApp(t, testConfig(t, server.URL+"/detect"))

	out, msg, err := app.Shot(context.Background())
	if err != nil {
		t.Fatalf("Shot: %v", err)
	}
	if out.Kind != detect.KindSuccess {
		t.Errorf("Kind = %v (%s)", out.Kind, out.Reason)
	}
	if msg != "Detected: cat (92%)" {
		t.Errorf("message = %q", msg)
	}
}

func TestShotServiceDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/detect"
	server.Close()

	app := newApp(t, testConfig(t, url))

	out, msg, err := app.Shot(context.Background())
	if err != nil {
		t.Fatalf("Shot: %v", err)
	}
	if out.Kind != detect.KindTransportFailure {
		t.Errorf("Kind = %v", out.Kind)
	}
	if msg != present.MsgTransportFailure {
		t.Errorf("message = %q", msg)
	}
}

// brokenRenderer fails every render.
type brokenRenderer struct{}

func (brokenRenderer) SetTarget(*render.Target)     {}
func (brokenRenderer) Render(context.Context) error { return errors.New("gpu lost") }
func (brokenRenderer) ReadPixels(image.Rectangle) (*image.RGBA, error) {
	return nil, render.ErrNoTarget
}
func (brokenRenderer) ClearTarget() {}

func TestShotCaptureFailure(t *testing.T) {
	det := detect.NewMock()
	app := newApp(t, testConfig(t, "http://127.0.0.1:1/detect"),
		WithRenderer(brokenRenderer{}),
		WithDetector(det),
	)

	_, msg, err := app.Shot(context.Background())
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("expected ErrCaptureFailed, got %v", err)
	}
	if msg != present.MsgCaptureFailed {
		t.Errorf("message = %q", msg)
	}
	if det.CallCount("Detect") != 0 {
		t.Error("nothing should be sent when the capture fails")
	}
}

func TestShotSavesSnapshot(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/detect")
	cfg.SaveToDisk = true
	app := newApp(t, cfg, WithDetector(detect.NewMock()))

	if _, _, err := app.Shot(context.Background()); err != nil {
		t.Fatalf("Shot: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(cfg.SaveDir, "screenshot_*.png"))
	if len(matches) != 1 {
		t.Fatalf("expected one snapshot, got %v", matches)
	}
	if info, err := os.Stat(matches[0]); err != nil || info.Size() == 0 {
		t.Errorf("snapshot empty: %v", err)
	}
}

func TestRunHeadlessStopsWithContext(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/detect")
	cfg.Headless = true
	cfg.TickInterval = 10 * time.Millisecond
	det := detect.NewMock()
	app := newApp(t, cfg, WithDetector(det))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	app.webLatch.Press()
	deadline := time.Now().Add(2 * time.Second)
	for det.CallCount("Detect") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if det.CallCount("Detect") != 1 {
		t.Errorf("Detect calls = %d, want 1", det.CallCount("Detect"))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHealth(t *testing.T) {
	det := detect.NewMock()
	app := newApp(t, testConfig(t, "http://127.0.0.1:1/detect"), WithDetector(det))

	if err := app.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
	if det.CallCount("Health") != 1 {
		t.Errorf("Health calls = %d", det.CallCount("Health"))
	}
}
