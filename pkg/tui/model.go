package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teslashibe/go-snapdetect/pkg/capture"
	"github.com/teslashibe/go-snapdetect/pkg/present"
	"github.com/teslashibe/go-snapdetect/pkg/trigger"
)

// DefaultTick is the input polling period.
const DefaultTick = 100 * time.Millisecond

type keyMap struct {
	Capture key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Capture: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "capture"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Stepper advances a renderer by one frame.
type Stepper interface {
	Step(dt time.Duration)
}

type tickMsg time.Time

// Model is the Bubble Tea model.
type Model struct {
	sources  *trigger.Defaults
	agg      *trigger.Aggregator
	pipeline *capture.Pipeline
	stepper  Stepper
	interval time.Duration

	last     time.Time
	width    int
	quitting bool
}

// NewModel creates a model. stepper may be nil when the renderer runs its
// own frame loop.
func NewModel(sources *trigger.Defaults, agg *trigger.Aggregator, p *capture.Pipeline, stepper Stepper, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultTick
	}
	return Model{
		sources:  sources,
		agg:      agg,
		pipeline: p,
		stepper:  stepper,
		interval: interval,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Capture):
			m.sources.Keyboard.Press()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.sources.Pointer.Press()
		}

	case tickMsg:
		now := time.Time(msg)
		dt := m.interval
		if !m.last.IsZero() {
			dt = now.Sub(m.last)
		}
		m.last = now

		if req, ok := m.agg.Poll(now); ok {
			m.pipeline.Trigger(req)
		}
		if m.stepper != nil {
			m.stepper.Step(dt)
		}
		m.pipeline.Presenter().Tick(dt)
		return m, m.tick()
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("snapdetect"))
	b.WriteString("\n")

	if msg, ok := m.pipeline.Presenter().Current(); ok {
		style := MessageStyle
		if msg.Kind == present.KindError {
			style = ErrorStyle
		}
		b.WriteString(style.Render(msg.Text))
	}
	b.WriteString("\n\n")

	stats := m.pipeline.Stats()
	if stats.InFlight > 0 {
		b.WriteString(BusyStyle.Render(fmt.Sprintf("%d capture(s) in flight", stats.InFlight)))
	} else {
		b.WriteString(MutedStyle.Render("idle"))
	}
	b.WriteString(MutedStyle.Render(fmt.Sprintf("  ·  %d ok  %d failed  %d dropped",
		stats.Completed, stats.Failed, stats.Dropped)))
	b.WriteString("\n")

	var labels []string
	for _, s := range m.agg.Sources() {
		labels = append(labels, s.Label())
	}
	b.WriteString(MutedStyle.Render("triggers: " + strings.Join(labels, ", ")))

	b.WriteString(HelpStyle.Render("\nc or click to capture • q to quit"))
	return b.String()
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
