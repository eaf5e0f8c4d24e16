package main

import (
	"flag"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-snapdetect/internal/config"
)

// newContext parses args against flags the way the cli app would.
func newContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SNAPDETECT_ENDPOINT", "")
	c := newContext(t, runCommand().Flags)

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if diff := cmp.Diff(config.Default(), *cfg); diff != "" {
		t.Errorf("unset flags changed defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	c := newContext(t, runCommand().Flags,
		"--endpoint", "http://detector:9000/v1/detect",
		"--quality", "85",
		"--save",
		"--timeout", "4s",
		"--single-flight",
		"--headless",
		"--web-port", "",
		"--camera", "0",
	)

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	want := config.Default()
	want.Endpoint = "http://detector:9000/v1/detect"
	want.Quality = 85
	want.SaveToDisk = true
	want.Timeout = 4 * time.Second
	want.SingleFlight = true
	want.Headless = true
	want.WebPort = ""
	want.Camera = 0

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigEnvBeneathFlags(t *testing.T) {
	t.Setenv("SNAPDETECT_QUALITY", "30")
	t.Setenv("SNAPDETECT_ENDPOINT", "http://env:8000/detect")

	c := newContext(t, shotCommand().Flags, "--quality", "90")
	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Quality != 90 {
		t.Errorf("flag should win over env, Quality = %d", cfg.Quality)
	}
	if cfg.Endpoint != "http://env:8000/detect" {
		t.Errorf("env should win over default, Endpoint = %q", cfg.Endpoint)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	c := newContext(t, healthCommand().Flags, "--config", "/nonexistent/snapdetect.yaml")
	_, err := loadConfig(c)

	exitErr, ok := err.(cli.ExitCoder)
	if !ok {
		t.Fatalf("expected cli.ExitCoder, got %T", err)
	}
	if exitErr.ExitCode() != exitConfigError {
		t.Errorf("exit code = %d", exitErr.ExitCode())
	}
}
