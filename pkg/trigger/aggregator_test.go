package trigger

import (
	"context"
	"testing"
	"time"
)

func TestPollSingleSource(t *testing.T) {
	defaults := NewDefaults()
	agg := NewAggregator(defaults.Sources()...)

	for _, latch := range []*Latch{defaults.Keyboard, defaults.Pointer, defaults.VRTrigger, defaults.VRButton} {
		t.Run(latch.Name(), func(t *testing.T) {
			latch.Press()

			req, ok := agg.Poll(time.Now())
			if !ok {
				t.Fatal("expected a capture request")
			}
			if req.Source != latch.Name() {
				t.Errorf("Source = %q, want %q", req.Source, latch.Name())
			}
			if req.SourceLabel != latch.Label() {
				t.Errorf("SourceLabel = %q, want %q", req.SourceLabel, latch.Label())
			}
			if req.ID == "" {
				t.Error("request ID should be set")
			}

			if _, ok := agg.Poll(time.Now()); ok {
				t.Error("activation should be consumed after one tick")
			}
		})
	}
}

func TestPollSimultaneousFirstDeclaredWins(t *testing.T) {
	tests := []struct {
		name    string
		pressed func(d *Defaults)
		want    string
	}{
		{
			name: "all four",
			pressed: func(d *Defaults) {
				d.VRButton.Press()
				d.VRTrigger.Press()
				d.Pointer.Press()
				d.Keyboard.Press()
			},
			want: SourceKeyboard,
		},
		{
			name: "pointer and vr button",
			pressed: func(d *Defaults) {
				d.VRButton.Press()
				d.Pointer.Press()
			},
			want: SourcePointer,
		},
		{
			name: "vr pair",
			pressed: func(d *Defaults) {
				d.VRButton.Press()
				d.VRTrigger.Press()
			},
			want: SourceVRTrigger,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDefaults()
			agg := NewAggregator(d.Sources()...)
			tc.pressed(d)

			req, ok := agg.Poll(time.Now())
			if !ok {
				t.Fatal("expected exactly one request")
			}
			if req.Source != tc.want {
				t.Errorf("Source = %q, want %q", req.Source, tc.want)
			}

			// Losers were consumed in the same tick.
			if _, ok := agg.Poll(time.Now()); ok {
				t.Error("simultaneous activations must produce only one request")
			}
		})
	}
}

func TestPollNoInput(t *testing.T) {
	agg := NewAggregator(NewDefaults().Sources()...)
	if _, ok := agg.Poll(time.Now()); ok {
		t.Error("no input should produce no request")
	}
}

func TestLatchCollapsesPresses(t *testing.T) {
	l := NewLatch("k", "K")
	l.Press()
	l.Press()
	l.Press()

	if !l.Activated() {
		t.Fatal("expected activation")
	}
	if l.Activated() {
		t.Error("multiple presses should count once")
	}
}

func TestRunEmitsRequests(t *testing.T) {
	d := NewDefaults()
	agg := NewAggregator(d.Sources()...)
	out := make(chan CaptureRequest, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agg.Run(ctx, 5*time.Millisecond, out)

	d.Pointer.Press()

	select {
	case req := <-out:
		if req.Source != SourcePointer {
			t.Errorf("Source = %q, want %q", req.Source, SourcePointer)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for request")
	}
}
