package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-snapdetect/internal/config"
	"github.com/teslashibe/go-snapdetect/internal/log"
	"github.com/teslashibe/go-snapdetect/pkg/camera/webcam"
	"github.com/teslashibe/go-snapdetect/pkg/detect"
	"github.com/teslashibe/go-snapdetect/pkg/snapdetect"
)

// healthTimeout bounds the health command.
const healthTimeout = 5 * time.Second

func runCommand() *cli.Command {
	flags := append(commonFlags(), captureFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "web-port",
			Usage: "Dashboard port (empty disables the dashboard)",
			Value: config.DefaultWebPort,
		},
		&cli.StringFlag{
			Name:  "bridge",
			Usage: "Controller bridge websocket URL, e.g. ws://headset.local:9090/buttons",
		},
		&cli.BoolFlag{
			Name:  "single-flight",
			Usage: "Ignore triggers while a capture is in flight",
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal UI",
		},
		&cli.DurationFlag{
			Name:  "tick",
			Usage: "Input polling and message countdown period",
			Value: config.DefaultTickInterval,
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Log destination while the terminal UI is active",
			Value: config.DefaultLogFile,
		},
	)

	return &cli.Command{
		Name:   "run",
		Usage:  "Capture on key press, click, controller button or dashboard request",
		Flags:  flags,
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if cfg.Headless {
		log.Init(cfg.LogLevel)
	} else {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot open log file: %v", err), exitConfigError)
		}
		defer f.Close()
		log.SetOutput(f, cfg.LogLevel)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("runtime error: %v", err), exitFailure)
	}
	return nil
}

func shotCommand() *cli.Command {
	return &cli.Command{
		Name:   "shot",
		Usage:  "Capture one frame, detect and print the result",
		Flags:  append(commonFlags(), captureFlags()...),
		Action: shotAction,
	}
}

func shotAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr, cfg.LogLevel)

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out, msg, err := app.Shot(ctx)
	fmt.Fprintln(c.App.Writer, msg)
	if err != nil {
		return cli.Exit("", exitFailure)
	}

	switch out.Kind {
	case detect.KindSuccess, detect.KindEmpty:
		return nil
	default:
		return cli.Exit("", exitFailure)
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check the detection service is reachable",
		Flags:  commonFlags(),
		Action: healthAction,
	}
}

func healthAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr, cfg.LogLevel)

	client, err := detect.NewClient(detect.WithEndpoint(cfg.Endpoint), detect.WithTimeout(cfg.Timeout))
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, healthTimeout)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return cli.Exit(fmt.Sprintf("unhealthy: %v", err), exitFailure)
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}

// newApp opens the configured renderer and initializes the application.
func newApp(cfg *config.Config) (*snapdetect.App, error) {
	var opts []snapdetect.Option
	var dev *webcam.Device
	if cfg.Camera >= 0 {
		var err error
		if dev, err = webcam.Open(cfg.Camera); err != nil {
			return nil, cli.Exit(err.Error(), exitFailure)
		}
		opts = append(opts, snapdetect.WithRenderer(dev))
	}

	app, err := snapdetect.New(*cfg, opts...)
	if err != nil {
		if dev != nil {
			dev.Close()
		}
		var cfgErr *snapdetect.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, cli.Exit(err.Error(), exitConfigError)
		}
		return nil, err
	}
	if err := app.Init(); err != nil {
		if dev != nil {
			dev.Close()
		}
		return nil, cli.Exit(fmt.Sprintf("initialization failed: %v", err), exitFailure)
	}
	return app, nil
}
