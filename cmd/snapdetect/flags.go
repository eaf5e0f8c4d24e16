package main

import (
	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-snapdetect/internal/config"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML config file",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Detection service URL",
			Value: config.DefaultEndpoint,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Detection request timeout (0 = transport defaults only)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: config.DefaultLogLevel,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log payload previews and per-stage traces",
		},
	}
}

func captureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "quality",
			Usage: "JPEG quality 1-100",
			Value: config.DefaultQuality,
		},
		&cli.IntFlag{
			Name:  "width",
			Usage: "Capture width in pixels",
			Value: config.DefaultWidth,
		},
		&cli.IntFlag{
			Name:  "height",
			Usage: "Capture height in pixels",
			Value: config.DefaultHeight,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Write a lossless PNG of every capture",
		},
		&cli.StringFlag{
			Name:  "save-dir",
			Usage: "Directory for saved captures",
			Value: config.DefaultSaveDir,
		},
		&cli.IntFlag{
			Name:  "camera",
			Usage: "Webcam device index (-1 = built-in test scene)",
			Value: -1,
		},
	}
}

// loadConfig layers defaults, the config file, the environment and then
// any flag the user set explicitly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfigError)
	}

	if c.IsSet("endpoint") {
		cfg.Endpoint = c.String("endpoint")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("save") {
		cfg.SaveToDisk = c.Bool("save")
	}
	if c.IsSet("save-dir") {
		cfg.SaveDir = c.String("save-dir")
	}
	if c.IsSet("camera") {
		cfg.Camera = c.Int("camera")
	}
	if c.IsSet("web-port") {
		cfg.WebPort = c.String("web-port")
	}
	if c.IsSet("bridge") {
		cfg.BridgeURL = c.String("bridge")
	}
	if c.IsSet("single-flight") {
		cfg.SingleFlight = c.Bool("single-flight")
	}
	if c.IsSet("headless") {
		cfg.Headless = c.Bool("headless")
	}
	if c.IsSet("tick") {
		cfg.TickInterval = c.Duration("tick")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}

	return cfg, nil
}
