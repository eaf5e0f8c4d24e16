package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/teslashibe/go-snapdetect/internal/httpc"
	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/debug"
	"github.com/teslashibe/go-snapdetect/pkg/frame"
)

// Client posts frames to a detection service. It never retries: each
// call is a single best-effort attempt.
type Client struct {
	endpoint  string
	healthURL string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a detection client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("detect: invalid endpoint %q", cfg.Endpoint)
	}

	healthURL := cfg.HealthURL
	if healthURL == "" {
		h := *u
		h.Path = path.Join(path.Dir(strings.TrimSuffix(u.Path, "/")), "health")
		h.RawQuery = ""
		healthURL = h.String()
	}

	hc := cfg.HTTP
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:  u.String(),
		healthURL: healthURL,
		http:      hc,
		logger:    logger.With("component", "detect.client"),
	}, nil
}

// Endpoint returns the detection URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Detect submits f and classifies the response.
func (c *Client) Detect(ctx context.Context, f *frame.EncodedFrame) Outcome {
	start := time.Now()
	out := c.detect(ctx, f)
	out.Latency = time.Since(start)

	attrs := []any{"kind", out.Kind.String(), "latency", out.Latency}
	switch out.Kind {
	case KindSuccess:
		c.logger.Info("detection complete", append(attrs, "detections", len(out.Response.Detections))...)
		for _, d := range out.Response.Detections {
			c.logger.Debug("detection",
				"class", d.Label,
				"confidence", d.Confidence,
				"box", fmt.Sprintf("[%.0f, %.0f, %.0f, %.0f]", d.X1, d.Y1, d.X2, d.Y2),
			)
		}
	case KindEmpty:
		c.logger.Info("detection complete", attrs...)
	default:
		c.logger.Error("detection failed", append(attrs, "reason", out.Reason)...)
	}
	return out
}

// DetectAsync runs Detect in its own goroutine. The channel receives exactly
// one outcome and is then closed.
func (c *Client) DetectAsync(ctx context.Context, f *frame.EncodedFrame) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- c.Detect(ctx, f)
	}()
	return ch
}

func (c *Client) detect(ctx context.Context, f *frame.EncodedFrame) Outcome {
	if f == nil || len(f.Bytes) == 0 {
		return TransportFailure(ErrEmptyFrame)
	}

	env := NewEnvelope(f)
	debug.Preview("image_base64", env.ImageBase64, 100)

	body, err := json.Marshal(env)
	if err != nil {
		return TransportFailure(fmt.Errorf("detect: marshal envelope: %w", err))
	}
	debug.Log("posting frame", "url", c.endpoint, "image_bytes", len(f.Bytes), "json_bytes", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return TransportFailure(fmt.Errorf("detect: create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TransportFailure(fmt.Errorf("detect: post %s: %w", c.endpoint, err))
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TransportFailure(&APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		})
	}
	if readErr != nil {
		return TransportFailure(fmt.Errorf("detect: read response: %w", readErr))
	}
	if len(data) > MaxResponseBytes {
		return ParseFailure(ErrBodyTooLarge)
	}
	debug.Preview("response", string(data), 300)

	return Classify(data, f)
}

// Classify decodes a 2xx response body. f, when given, is used to check the
// response coordinate space matches the submitted image.
func Classify(data []byte, f *frame.EncodedFrame) Outcome {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return ParseFailure(fmt.Errorf("detect: decode response: %w", err))
	}

	if len(resp.Detections) == 0 {
		return Empty(&resp)
	}

	for i, d := range resp.Detections {
		if err := validate(i, d); err != nil {
			return ParseFailure(err)
		}
	}

	if f != nil && (resp.ImageWidth != f.Width || resp.ImageHeight != f.Height) {
		log.Component("detect.client").Warn("detection coordinate space differs from submitted frame",
			"response_size", fmt.Sprintf("%dx%d", resp.ImageWidth, resp.ImageHeight),
			"frame_size", fmt.Sprintf("%dx%d", f.Width, f.Height),
		)
	}

	return Success(&resp)
}

func validate(i int, d Detection) error {
	switch {
	case d.Confidence < 0 || d.Confidence > 1:
		return &InvalidDetectionError{Index: i, Reason: fmt.Sprintf("confidence %v outside [0,1]", d.Confidence)}
	case d.X1 > d.X2 || d.Y1 > d.Y2:
		return &InvalidDetectionError{Index: i, Reason: "inverted bounding box"}
	}
	return nil
}

// Health probes the service health URL.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return fmt.Errorf("detect: create health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("detect: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Verify Client implements Detector at compile time.
var _ Detector = (*Client)(nil)
