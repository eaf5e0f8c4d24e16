// Package present turns detection outcomes into short-lived status text.
package present

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-snapdetect/pkg/detect"
)

// DisplayDuration is how long a message stays visible.
const DisplayDuration = 3 * time.Second

// Fixed messages.
const (
	MsgDetectedPrefix   = "Detected: "
	MsgNoObjects        = "No Objects Detected"
	MsgParseError       = "Detection Parse Error"
	MsgTransportFailure = "Detection Failed - Check Logs"
	MsgCaptureFailed    = "Capture failed"
	MsgCaptured         = "Screenshot Captured ✓"
)

// Kind identifies what produced a message.
type Kind string

const (
	KindResult  Kind = "result"
	KindNotice  Kind = "notice"
	KindError   Kind = "error"
	KindExpired Kind = "expired"
)

// Message is a snapshot of the presenter state.
type Message struct {
	Text      string        `json:"text"`
	Kind      Kind          `json:"kind"`
	Outcome   string        `json:"outcome,omitempty"`
	Visible   bool          `json:"visible"`
	Remaining time.Duration `json:"remaining"`
}

// Summary renders detections as "label (NN%)" joined by ", " in the order given.
func Summary(dets []detect.Detection) string {
	var b strings.Builder
	for i, d := range dets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Label)
		b.WriteString(" (")
		b.WriteString(strconv.Itoa(d.Percent()))
		b.WriteString("%)")
	}
	return b.String()
}

// Text maps an outcome to its user-facing string. Failure reasons are never
// included.
func Text(out detect.Outcome) string {
	switch out.Kind {
	case detect.KindSuccess:
		return MsgDetectedPrefix + Summary(out.Detections())
	case detect.KindEmpty:
		return MsgNoObjects
	case detect.KindParseFailure:
		return MsgParseError
	default:
		return MsgTransportFailure
	}
}

// Presenter owns the visible status message. The last write wins; there is
// no queue.
type Presenter struct {
	// notifyMu orders state changes with their notifications, so listeners
	// see messages in the order they were applied.
	notifyMu sync.Mutex

	mu        sync.Mutex
	msg       Message
	lastKind  string
	duration  time.Duration
	listeners []func(Message)
}

// New creates a presenter with an empty, hidden message.
func New() *Presenter {
	return &Presenter{duration: DisplayDuration}
}

// WithDuration overrides the display duration.
func (p *Presenter) WithDuration(d time.Duration) *Presenter {
	p.mu.Lock()
	p.duration = d
	p.mu.Unlock()
	return p
}

// Present shows the message for out, replacing anything visible.
func (p *Presenter) Present(out detect.Outcome) {
	p.show(Message{Text: Text(out), Kind: KindResult, Outcome: out.Kind.String()}, out.Kind.String())
}

// Notice shows interim text with the same countdown.
func (p *Presenter) Notice(text string) {
	p.show(Message{Text: text, Kind: KindNotice}, "")
}

// PresentError reports a failure that happened before any request was sent.
// err is for the logs only.
func (p *Presenter) PresentError(err error) {
	p.show(Message{Text: MsgCaptureFailed, Kind: KindError}, "capture_failure")
}

func (p *Presenter) show(m Message, kind string) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	m.Visible = true
	m.Remaining = p.duration
	p.msg = m
	if kind != "" {
		p.lastKind = kind
	}
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, m)
}

// Tick advances the countdown by dt and hides the message at zero.
func (p *Presenter) Tick(dt time.Duration) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if !p.msg.Visible {
		p.mu.Unlock()
		return
	}
	p.msg.Remaining -= dt
	if p.msg.Remaining > 0 {
		p.mu.Unlock()
		return
	}
	p.msg = Message{Kind: KindExpired}
	m := p.msg
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, m)
}

// Current returns the visible message, if any.
func (p *Presenter) Current() (Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msg, p.msg.Visible
}

// LastOutcome returns the kind of the most recent result, or "".
func (p *Presenter) LastOutcome() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastKind
}

// Subscribe registers fn for every change. Calls are serialized in the order
// changes are applied. fn runs on the caller's goroutine, must not block, and
// must not call Present, Notice, PresentError or Tick.
func (p *Presenter) Subscribe(fn func(Message)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func notify(listeners []func(Message), m Message) {
	for _, fn := range listeners {
		fn(m)
	}
}
