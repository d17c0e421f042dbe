package upload

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPollFailed indicates a status request failed. Polling is not retried.
	ErrPollFailed = errors.New("failed to check processing status")
	// ErrPollTimeout indicates the document did not reach a terminal status within MaxDuration.
	ErrPollTimeout = errors.New("processing timed out")
)

// PollConfig controls status polling cadence. A zero MaxDuration polls until
// a terminal status is observed or the context is cancelled.
type PollConfig struct {
	StartDelay  time.Duration
	Interval    time.Duration
	MaxDuration time.Duration
}

// DefaultPollConfig returns a 2s start delay, 2s interval, and a 10 minute ceiling.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		StartDelay:  2 * time.Second,
		Interval:    2 * time.Second,
		MaxDuration: 10 * time.Minute,
	}
}

// Poll queries the processing status of documentID after cfg.StartDelay and then
// every cfg.Interval, passing each snapshot to onUpdate. It returns nil once a
// terminal snapshot has been delivered, ctx.Err() when cancelled, ErrPollTimeout
// when cfg.MaxDuration elapses, and an error wrapping ErrPollFailed when a status
// request fails.
func Poll(
	ctx context.Context,
	t Transport,
	documentID string,
	cfg PollConfig,
	onUpdate func(StatusSnapshot),
) error {
	var deadline <-chan time.Time
	if cfg.MaxDuration > 0 {
		ceiling := time.NewTimer(cfg.MaxDuration)
		defer ceiling.Stop()
		deadline = ceiling.C
	}

	tick := time.NewTimer(cfg.StartDelay)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return ErrPollTimeout
		case <-tick.C:
		}

		snap, err := t.Status(ctx, documentID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrPollFailed, err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		onUpdate(*snap)
		if snap.Terminal() {
			return nil
		}

		tick.Reset(cfg.Interval)
	}
}
