package control

import (
	"context"
	"math"
	"time"

	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
)

// FanController periodically maps the hottest sensor through the
// configured curve and commands the resulting duty. A failed read or
// write skips the tick; the next tick retries from scratch.
type FanController struct {
	backend FanBackend
	mode    config.FanMode
	curve   Curve

	manualDuty float64
	interval   time.Duration
	hysteresis float64
	rateLimit  float64

	lastDuty float64
	haveLast bool
}

func NewFanController(backend FanBackend, cfg config.FanConfig) (*FanController, error) {
	c := &FanController{
		backend:    backend,
		mode:       config.FanMode(cfg.Mode),
		manualDuty: cfg.ManualDutyPct,
		interval:   time.Duration(cfg.PollInterval) * time.Second,
		hysteresis: cfg.HysteresisPct,
		rateLimit:  cfg.RateLimitPct,
	}

	if c.mode == config.FanModeCurve {
		curve, err := NewCurve(cfg.Points)
		if err != nil {
			return nil, err
		}
		c.curve = curve
	}

	return c, nil
}

// Run ticks until ctx is cancelled, then hands fan control back to the
// EC so a stopped daemon cannot leave the fans pinned.
func (c *FanController) Run(ctx context.Context) {
	if c.mode == config.FanModeDisabled {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			c.restoreAuto()
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick performs one control step.
func (c *FanController) Tick(ctx context.Context) {
	switch c.mode {
	case config.FanModeDisabled:
	case config.FanModeManual:
		c.apply(ctx, c.manualDuty)
	case config.FanModeCurve:
		sample, err := c.backend.Thermal(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("Thermal read failed, skipping fan tick")
			return
		}

		maxTemp, ok := sample.MaxTempC()
		if !ok {
			logger.Debug().Msg("No sensor reported, skipping fan tick")
			return
		}

		c.apply(ctx, c.nextDuty(c.curve.Interpolate(maxTemp)))
	}
}

// nextDuty bounds how far the commanded duty may move in one step:
// changes inside the hysteresis band are ignored to keep sensor jitter
// from twitching the fans, and larger changes are clipped to the
// per-step rate limit.
func (c *FanController) nextDuty(target float64) float64 {
	if !c.haveLast {
		return target
	}

	delta := target - c.lastDuty
	if math.Abs(delta) < c.hysteresis {
		return c.lastDuty
	}
	if c.rateLimit > 0 && math.Abs(delta) > c.rateLimit {
		delta = math.Copysign(c.rateLimit, delta)
	}

	return c.lastDuty + delta
}

func (c *FanController) apply(ctx context.Context, duty float64) {
	if duty < 0 {
		duty = 0
	}
	if duty > 100 {
		duty = 100
	}

	if c.haveLast && duty == c.lastDuty {
		return
	}

	if err := c.backend.SetFanDuty(ctx, uint8(math.Round(duty))); err != nil {
		var e errors.Error
		if errors.As(err, &e) {
			logger.ErrorWithCode(e).Msg("Fan duty write failed, skipping tick")
		} else {
			logger.Error().Err(err).Msg("Fan duty write failed, skipping tick")
		}

		return
	}

	logger.Debug().Float64("duty_pct", duty).Msg("Applied fan duty")
	c.lastDuty = duty
	c.haveLast = true
}

// restoreAuto is best-effort; the context driving the loop is already
// done, so it gets a short one of its own.
func (c *FanController) restoreAuto() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.backend.SetFanAuto(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore automatic fan control")
		return
	}

	logger.Info().Msg("Restored automatic fan control")
}
