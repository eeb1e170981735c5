package backend

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/logger"
)

// DefaultProbeInterval is the cadence at which supervisors retry
// acquisition and re-validate held handles.
const DefaultProbeInterval = 5 * time.Second

// Repeated failures are logged in full for the first few consecutive
// occurrences, then only every Nth so a missing backend does not flood
// the journal.
const (
	logFirstFailures = 3
	logEveryNth      = 10
)

// Supervisor owns one backend slot and drives its availability state:
// while the slot is empty it retries acquisition, while it holds a
// handle it re-validates liveness and demotes on failure. It is the
// slot's only writer.
type Supervisor[T any] struct {
	name     string
	interval time.Duration
	slot     *Slot[T]
	acquire  func(context.Context) (T, error)
	probe    func(context.Context, T) error

	failures int
}

func NewSupervisor[T any](
	name string,
	interval time.Duration,
	slot *Slot[T],
	acquire func(context.Context) (T, error),
	probe func(context.Context, T) error,
) *Supervisor[T] {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	return &Supervisor[T]{
		name:     name,
		interval: interval,
		slot:     slot,
		acquire:  acquire,
		probe:    probe,
	}
}

// Run ticks until ctx is cancelled. The first tick fires immediately so
// a healthy backend is usable without waiting out an interval.
func (s *Supervisor[T]) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Supervisor[T]) tick(ctx context.Context) {
	if handle, ok := s.slot.Get(); ok {
		if err := s.probe(ctx, handle); err != nil {
			s.slot.Clear()
			logger.Warn().Str("backend", s.name).Err(err).Msg("Backend lost, demoting")
		} else {
			s.failures = 0
		}

		return
	}

	handle, err := s.acquire(ctx)
	if err != nil {
		s.failures++
		if s.shouldLog() {
			logger.Debug().
				Str("backend", s.name).
				Int("consecutive_failures", s.failures).
				Err(err).
				Msg("Backend unavailable")
		}

		return
	}

	s.slot.Set(handle)
	if s.failures > 0 {
		logger.Info().Str("backend", s.name).Msg("Backend recovered")
	} else {
		logger.Info().Str("backend", s.name).Msg("Backend available")
	}
	s.failures = 0
}

func (s *Supervisor[T]) shouldLog() bool {
	return s.failures <= logFirstFailures || s.failures%logEveryNth == 0
}
