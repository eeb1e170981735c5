package control

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/logger"
)

// PowerController applies the TDP and thermal limits of whichever
// profile matches the current power source, re-asserting them whenever
// the source flips. A failed write leaves the limit marked unapplied so
// the next tick retries it.
type PowerController struct {
	backend  PowerBackend
	profiles config.PowerConfig
	interval time.Duration

	onAC           bool
	haveSource     bool
	tdpApplied     bool
	thermalApplied bool
}

func NewPowerController(backend PowerBackend, profiles config.PowerConfig, interval time.Duration) *PowerController {
	return &PowerController{
		backend:  backend,
		profiles: profiles,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled.
func (c *PowerController) Run(ctx context.Context) {
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
func (c *PowerController) Tick(ctx context.Context) {
	info, err := c.backend.Power(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("Power read failed, skipping power tick")
		return
	}

	onAC := info.OnAC()
	if !c.haveSource || onAC != c.onAC {
		c.onAC = onAC
		c.haveSource = true
		c.tdpApplied = false
		c.thermalApplied = false
		logger.Info().Bool("on_ac", onAC).Msg("Power source changed")
	}

	profile := c.profiles.Battery
	if onAC {
		profile = c.profiles.AC
	}

	if profile.TDPEnabled && !c.tdpApplied {
		if err := c.backend.SetTDPWatts(ctx, profile.TDPWatts); err != nil {
			logger.Warn().Err(err).Int("tdp_watts", profile.TDPWatts).Msg("TDP write failed")
		} else {
			logger.Info().Int("tdp_watts", profile.TDPWatts).Msg("Applied TDP limit")
			c.tdpApplied = true
		}
	}

	if profile.ThermalEnabled && !c.thermalApplied {
		if err := c.backend.SetThermalLimitC(ctx, profile.ThermalLimitC); err != nil {
			logger.Warn().Err(err).Int("thermal_limit_c", profile.ThermalLimitC).Msg("Thermal limit write failed")
		} else {
			logger.Info().Int("thermal_limit_c", profile.ThermalLimitC).Msg("Applied thermal limit")
			c.thermalApplied = true
		}
	}
}
