// Package debug gates verbose pipeline traces behind a global flag.
package debug

import "github.com/teslashibe/go-snapdetect/internal/log"

// Enabled controls whether verbose traces are emitted.
var Enabled bool

// Log emits msg at info level only if debug mode is enabled.
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, args...)
	}
}

// Preview logs the first n bytes of a large payload (base64 image, JSON body).
func Preview(label, payload string, n int) {
	if !Enabled {
		return
	}
	log.Info("payload preview",
		"label", label,
		"length", len(payload),
		"head", Truncate(payload, n),
	)
}

// Truncate shortens s to at most n bytes.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
