// Package control runs the periodic loops that steer the hardware:
// fan duty from a temperature curve, package power limits per power
// source, and battery charge limits.
package control

import (
	"context"

	"codeberg.org/mutker/fwectl/internal/hw"
)

// FanBackend is the slice of the backend manager the fan loop needs.
type FanBackend interface {
	Thermal(ctx context.Context) (hw.ThermalSample, error)
	SetFanDuty(ctx context.Context, pct uint8) error
	SetFanAuto(ctx context.Context) error
}

// PowerBackend is the slice of the backend manager the power loop needs.
type PowerBackend interface {
	Power(ctx context.Context) (hw.PowerBatteryInfo, error)
	SetTDPWatts(ctx context.Context, watts int) error
	SetThermalLimitC(ctx context.Context, limitC int) error
}

// BatteryBackend is the slice of the backend manager the battery loop needs.
type BatteryBackend interface {
	ChargeLimit(ctx context.Context) (hw.ChargeLimit, error)
	SetChargeLimit(ctx context.Context, maxPct uint8) error
	SetChargeRateLimit(ctx context.Context, rateC float64, socPct *int) error
}
