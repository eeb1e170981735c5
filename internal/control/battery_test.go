package control_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/control"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/hw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBatteryBackend struct {
	window  hw.ChargeLimit
	readErr error

	limits []uint8
	rates  []float64
	socs   []*int
}

func (f *fakeBatteryBackend) ChargeLimit(context.Context) (hw.ChargeLimit, error) {
	if f.readErr != nil {
		return hw.ChargeLimit{}, f.readErr
	}

	return f.window, nil
}

func (f *fakeBatteryBackend) SetChargeLimit(_ context.Context, maxPct uint8) error {
	f.limits = append(f.limits, maxPct)
	f.window = hw.ChargeLimit{MinPct: int(maxPct) - 5, MaxPct: int(maxPct)}

	return nil
}

func (f *fakeBatteryBackend) SetChargeRateLimit(_ context.Context, rateC float64, socPct *int) error {
	f.rates = append(f.rates, rateC)
	f.socs = append(f.socs, socPct)

	return nil
}

func TestBatteryAssertsChargeLimitOnDrift(t *testing.T) {
	backend := &fakeBatteryBackend{window: hw.ChargeLimit{MinPct: 95, MaxPct: 100}}
	c := control.NewBatteryController(backend, config.BatteryConfig{
		ChargeLimitEnabled: true,
		ChargeLimitPct:     80,
	}, time.Second)
	ctx := context.Background()

	c.Tick(ctx)
	require.Equal(t, []uint8{80}, backend.limits)

	// The EC now reports the wanted window: no rewrite.
	c.Tick(ctx)
	assert.Len(t, backend.limits, 1)

	// Firmware reset the window: the loop re-asserts it.
	backend.window = hw.ChargeLimit{MinPct: 95, MaxPct: 100}
	c.Tick(ctx)
	assert.Equal(t, []uint8{80, 80}, backend.limits)
}

func TestBatteryWritesLimitWhenWindowUnreadable(t *testing.T) {
	backend := &fakeBatteryBackend{readErr: errors.New().New(errors.ErrUnavailable)}
	c := control.NewBatteryController(backend, config.BatteryConfig{
		ChargeLimitEnabled: true,
		ChargeLimitPct:     75,
	}, time.Second)

	c.Tick(context.Background())
	assert.Equal(t, []uint8{75}, backend.limits)
}

func TestBatteryChargeRateAppliedOnce(t *testing.T) {
	backend := &fakeBatteryBackend{}
	c := control.NewBatteryController(backend, config.BatteryConfig{
		ChargeRateEnabled: true,
		ChargeRateC:       0.5,
		ChargeRateSocPct:  60,
	}, time.Second)
	ctx := context.Background()

	c.Tick(ctx)
	c.Tick(ctx)

	require.Len(t, backend.rates, 1)
	assert.InDelta(t, 0.5, backend.rates[0], 0.001)
	require.NotNil(t, backend.socs[0])
	assert.Equal(t, 60, *backend.socs[0])
}
