package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/logging"
)

// DefaultReplayRate is used when a replay rate of zero is configured.
const DefaultReplayRate = 20

// Replayer paces captured frames into an ingest function.
type Replayer struct {
	limiter *rate.Limiter
	// Loop restarts the capture from the beginning when it ends.
	Loop bool
}

// NewReplayer creates a replayer emitting perSecond frames per second with
// the given burst. A negative rate disables pacing.
func NewReplayer(perSecond float64, burst int) *Replayer {
	if perSecond == 0 {
		perSecond = DefaultReplayRate
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond < 0 {
		limit = rate.Inf
	}
	return &Replayer{limiter: rate.NewLimiter(limit, burst)}
}

// Replay feeds each record to ingest, tagged "replay:<direction>", until the
// records run out or ctx is cancelled. It returns the number of frames fed.
func (r *Replayer) Replay(ctx context.Context, records []capture.Record, ingest func(source string, raw []byte)) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	logging.Info("Replaying capture",
		zap.Int("records", len(records)),
		zap.Float64("rate", float64(r.limiter.Limit())),
		zap.Bool("loop", r.Loop),
	)

	sent := 0
	for {
		for _, rec := range records {
			if err := r.limiter.Wait(ctx); err != nil {
				return sent, fmt.Errorf("replay stopped: %w", err)
			}
			ingest("replay:"+string(rec.Direction), rec.Data)
			sent++
		}
		if !r.Loop {
			return sent, nil
		}
	}
}
