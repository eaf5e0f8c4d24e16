package detect

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-snapdetect/pkg/frame"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, f *frame.EncodedFrame) Outcome

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Frame  *frame.EncodedFrame
	Time   time.Time
}

// NewMock creates a mock that reports a single "object" detection.
func NewMock() *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, f *frame.EncodedFrame) Outcome {
			return Success(&Response{
				Detections: []Detection{
					{Label: "object", Confidence: 0.9, X1: 0, Y1: 0, X2: float64(f.Width), Y2: float64(f.Height)},
				},
				ImageWidth:  f.Width,
				ImageHeight: f.Height,
			})
		},
		HealthFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

// WithOutcome returns a mock that always returns out.
func WithOutcome(out Outcome) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, f *frame.EncodedFrame) Outcome {
			return out
		},
	}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, f *frame.EncodedFrame) Outcome {
	m.record("Detect", f)
	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, f)
	}
	return Empty(&Response{})
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", nil)
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Mock) record(method string, f *frame.EncodedFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Frame: f, Time: time.Now()})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Detector at compile time.
var _ Detector = (*Mock)(nil)
