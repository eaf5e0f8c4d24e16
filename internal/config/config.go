// Package config provides configuration for go-snapdetect commands.
//
// Values are layered: built-in defaults, then an optional YAML file,
// then environment variables, then command line flags (applied by cmd).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Default configuration values.
const (
	DefaultEndpoint     = "http://127.0.0.1:8000/detect"
	DefaultQuality      = 60
	DefaultSaveDir      = "snapshots"
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultTickInterval = 100 * time.Millisecond
	DefaultWebPort      = "8080"
	DefaultLogLevel     = "info"
	DefaultLogFile      = "snapdetect.log"
)

// Config holds all configuration for a snapdetect process.
type Config struct {
	// Endpoint is the detection service URL that receives the POST.
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a detection request. Zero leaves the transport defaults in charge.
	Timeout time.Duration `yaml:"timeout"`

	// Capture resolution and JPEG quality (1-100).
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Quality int `yaml:"quality"`

	// SaveToDisk writes a lossless PNG of every capture into SaveDir.
	SaveToDisk bool   `yaml:"save_to_disk"`
	SaveDir    string `yaml:"save_dir"`

	// SingleFlight drops triggers while a capture is already running.
	SingleFlight bool `yaml:"single_flight"`

	// TickInterval is the host loop period used for trigger polling and message countdown.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Camera selects a webcam device index. Negative uses the software renderer.
	Camera int `yaml:"camera"`

	// WebPort serves the dashboard. Empty disables it.
	WebPort string `yaml:"web_port"`

	// BridgeURL is the websocket of the headset companion that forwards controller buttons.
	BridgeURL string `yaml:"bridge_url"`

	// Headless runs without the terminal UI; triggers then come only from
	// the dashboard and the bridge.
	Headless bool `yaml:"headless"`

	// LogFile receives logs while the terminal UI owns the screen.
	LogFile string `yaml:"log_file"`

	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Quality:      DefaultQuality,
		SaveDir:      DefaultSaveDir,
		TickInterval: DefaultTickInterval,
		Camera:       -1,
		WebPort:      DefaultWebPort,
		LogFile:      DefaultLogFile,
		LogLevel:     DefaultLogLevel,
	}
}

// Validate checks the values are usable.
// Returns every problem found, or nil if valid.
func (c *Config) Validate() []string {
	var problems []string

	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("endpoint must be an absolute http(s) URL, got %q", c.Endpoint))
	}
	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, "width and height must be positive")
	}
	if c.Quality < 1 || c.Quality > 100 {
		problems = append(problems, "quality must be between 1 and 100")
	}
	if c.SaveToDisk && c.SaveDir == "" {
		problems = append(problems, "save_dir is required when save_to_disk is set")
	}
	if c.TickInterval <= 0 {
		problems = append(problems, "tick_interval must be positive")
	}

	return problems
}
