package control

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/logger"
)

// BatteryController keeps the configured charge limits asserted on the
// EC. The limit survives in EC state, but firmware events can reset it,
// so the loop re-checks the reported window and re-asserts on drift.
type BatteryController struct {
	backend  BatteryBackend
	cfg      config.BatteryConfig
	interval time.Duration

	rateApplied bool
}

func NewBatteryController(backend BatteryBackend, cfg config.BatteryConfig, interval time.Duration) *BatteryController {
	return &BatteryController{
		backend:  backend,
		cfg:      cfg,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled.
func (c *BatteryController) Run(ctx context.Context) {
	if !c.cfg.ChargeLimitEnabled && !c.cfg.ChargeRateEnabled {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick performs one control step.
func (c *BatteryController) Tick(ctx context.Context) {
	if c.cfg.ChargeLimitEnabled {
		c.assertChargeLimit(ctx)
	}

	if c.cfg.ChargeRateEnabled && !c.rateApplied {
		var socPct *int
		if c.cfg.ChargeRateSocPct > 0 {
			soc := c.cfg.ChargeRateSocPct
			socPct = &soc
		}

		if err := c.backend.SetChargeRateLimit(ctx, c.cfg.ChargeRateC, socPct); err != nil {
			logger.Warn().Err(err).Msg("Charge rate limit write failed")
		} else {
			logger.Info().Float64("rate_c", c.cfg.ChargeRateC).Msg("Applied charge rate limit")
			c.rateApplied = true
		}
	}
}

func (c *BatteryController) assertChargeLimit(ctx context.Context) {
	want := c.cfg.ChargeLimitPct

	current, err := c.backend.ChargeLimit(ctx)
	if err == nil && current.MaxPct == want {
		return
	}

	if err := c.backend.SetChargeLimit(ctx, uint8(want)); err != nil {
		logger.Warn().Err(err).Int("charge_limit_pct", want).Msg("Charge limit write failed")
		return
	}

	logger.Info().Int("charge_limit_pct", want).Msg("Applied charge limit")
}
