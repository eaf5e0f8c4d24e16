// Package trigger turns independent input sources into capture requests.
//
// Sources publish activations as they happen; the Aggregator samples them
// once per host tick and emits at most one CaptureRequest per tick.
package trigger

import (
	"sync/atomic"
	"time"
)

// Names of the default sources, in tie-break order.
const (
	SourceKeyboard  = "keyboard"
	SourcePointer   = "pointer"
	SourceVRTrigger = "vr-trigger"
	SourceVRButton  = "vr-button"
	SourceWeb       = "web"
	SourceCLI       = "cli"
)

// CaptureRequest asks the pipeline for one capture.
type CaptureRequest struct {
	ID          string    // Unique per request, used to correlate logs
	Source      string    // Name of the source that fired
	SourceLabel string    // Human-readable source label
	Timestamp   time.Time // Tick time at which the request was emitted
}

// Source reports whether it was activated since the last call.
// Activated consumes the activation.
type Source interface {
	Name() string
	Label() string
	Activated() bool
}

// Latch is a Source fed by events. Any number of presses between two
// polls count as a single activation.
type Latch struct {
	name    string
	label   string
	pending atomic.Bool
}

// NewLatch creates a latch source.
func NewLatch(name, label string) *Latch {
	return &Latch{name: name, label: label}
}

// Name returns the source name.
func (l *Latch) Name() string { return l.name }

// Label returns the human-readable label.
func (l *Latch) Label() string { return l.label }

// Press records an activation. Safe to call from any goroutine.
func (l *Latch) Press() {
	l.pending.Store(true)
}

// Activated reports and clears a pending press.
func (l *Latch) Activated() bool {
	return l.pending.Swap(false)
}

// Defaults holds the four standard input latches.
type Defaults struct {
	Keyboard  *Latch
	Pointer   *Latch
	VRTrigger *Latch
	VRButton  *Latch
}

// NewDefaults creates the standard latches: primary key, primary pointer,
// VR index trigger and VR A button.
func NewDefaults() *Defaults {
	return &Defaults{
		Keyboard:  NewLatch(SourceKeyboard, "Keyboard C"),
		Pointer:   NewLatch(SourcePointer, "Mouse Click"),
		VRTrigger: NewLatch(SourceVRTrigger, "Quest R Index Trigger"),
		VRButton:  NewLatch(SourceVRButton, "Quest A Button"),
	}
}

// Sources returns the latches in declaration order.
func (d *Defaults) Sources() []Source {
	return []Source{d.Keyboard, d.Pointer, d.VRTrigger, d.VRButton}
}
