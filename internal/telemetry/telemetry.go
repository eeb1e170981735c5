// Package telemetry keeps a bounded in-memory window of recent
// hardware observations for consumers that want short-term history.
package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
)

type service struct {
	ring *ring
}

// NewService returns a Collector retaining the most recent window
// samples.
func NewService(window int) (Collector, error) {
	if window <= 0 {
		return nil, errors.New().WithData(ErrInvalidWindow, window)
	}

	return &service{ring: newRing(window)}, nil
}

func (s *service) Record(ctx context.Context, sample *Sample) error {
	errFactory := errors.New()

	if sample == nil {
		return errFactory.New(ErrInvalidSample)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	default:
		s.ring.record(*sample)
	}

	return nil
}

func (s *service) Snapshot() []Sample {
	return s.ring.snapshot()
}

func (s *service) Close() error {
	return nil
}

// Collect polls source on the given interval and records one sample per
// tick until ctx is cancelled. A failed read skips the tick.
func Collect(ctx context.Context, collector Collector, source Source, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recordOnce(ctx, collector, source)
		}
	}
}

func recordOnce(ctx context.Context, collector Collector, source Source) {
	thermal, err := source.Thermal(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Telemetry thermal read failed")
		return
	}

	sample := &Sample{
		Timestamp: time.Now(),
		Sensors:   thermal.Sensors,
		Fans:      thermal.Fans,
	}
	if maxTemp, ok := thermal.MaxTempC(); ok {
		sample.MaxTempC = &maxTemp
	}

	// Power state is best-effort; a sample without it is still useful.
	if power, err := source.Power(ctx); err == nil {
		onAC := power.OnAC()
		sample.OnAC = &onAC
		sample.ChargePct = power.ChargePct
	}

	if err := collector.Record(ctx, sample); err != nil {
		logger.Debug().Err(err).Msg("Telemetry record failed")
	}
}
