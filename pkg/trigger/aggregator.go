package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-snapdetect/internal/log"
)

// Aggregator samples its sources once per tick and emits at most one request.
type Aggregator struct {
	sources []Source
	logger  *slog.Logger
}

// NewAggregator creates an aggregator. Source order is the tie-break order.
func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{
		sources: sources,
		logger:  log.Component("trigger.aggregator"),
	}
}

// Sources returns the configured sources.
func (a *Aggregator) Sources() []Source {
	out := make([]Source, len(a.sources))
	copy(out, a.sources)
	return out
}

// Poll inspects every source for this tick. All sources are sampled so that
// simultaneous activations are consumed together; the first declared wins.
func (a *Aggregator) Poll(now time.Time) (CaptureRequest, bool) {
	var winner Source
	for _, s := range a.sources {
		if s.Activated() && winner == nil {
			winner = s
		}
	}
	if winner == nil {
		return CaptureRequest{}, false
	}

	req := CaptureRequest{
		ID:          uuid.New().String(),
		Source:      winner.Name(),
		SourceLabel: winner.Label(),
		Timestamp:   now,
	}
	a.logger.Info("capture triggered", "capture_id", req.ID, "source", req.SourceLabel)
	return req, true
}

// Run polls every interval until ctx is done and sends requests to out.
// A request is dropped if out is not ready to receive it.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration, out chan<- CaptureRequest) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			req, ok := a.Poll(now)
			if !ok {
				continue
			}
			select {
			case out <- req:
			default:
				a.logger.Warn("capture request dropped, consumer busy", "capture_id", req.ID)
			}
		}
	}
}
