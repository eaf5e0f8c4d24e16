// snapdetect captures frames on demand, sends them to an object-detection
// service and shows what was found.
//
// Usage:
//
//	snapdetect run   [flags]   interactive capture (terminal UI + dashboard)
//	snapdetect shot  [flags]   one headless capture; exit 1 unless something was detected or the scene was empty
//	snapdetect health [flags]  probe the detection service
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	app := &cli.App{
		Name:           "snapdetect",
		Usage:          "Capture frames and run them through an object-detection service",
		Version:        version,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			runCommand(),
			shotCommand(),
			healthCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
