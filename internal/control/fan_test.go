package control_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/control"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/hw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFanBackend struct {
	tempC      float64
	thermalErr error
	writeErr   error

	duties []uint8
	auto   bool
}

func (f *fakeFanBackend) Thermal(context.Context) (hw.ThermalSample, error) {
	if f.thermalErr != nil {
		return hw.ThermalSample{}, f.thermalErr
	}

	return hw.ThermalSample{
		Sensors: []hw.SensorReading{{Name: "CPU", TempC: f.tempC}},
	}, nil
}

func (f *fakeFanBackend) SetFanDuty(_ context.Context, pct uint8) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.duties = append(f.duties, pct)

	return nil
}

func (f *fakeFanBackend) SetFanAuto(context.Context) error {
	f.auto = true
	return nil
}

func curveFanConfig() config.FanConfig {
	return config.FanConfig{
		Mode:          string(config.FanModeCurve),
		Points:        [][]float64{{50, 0}, {60, 30}, {70, 50}, {80, 80}, {90, 100}},
		PollInterval:  1,
		HysteresisPct: 2.0,
		RateLimitPct:  10.0,
	}
}

func TestFanCurveFirstTickAppliesInterpolatedDuty(t *testing.T) {
	backend := &fakeFanBackend{tempC: 65}
	c, err := control.NewFanController(backend, curveFanConfig())
	require.NoError(t, err)

	c.Tick(context.Background())

	require.Len(t, backend.duties, 1)
	assert.Equal(t, uint8(40), backend.duties[0])
}

func TestFanHysteresisSuppressesJitter(t *testing.T) {
	backend := &fakeFanBackend{tempC: 65}
	c, err := control.NewFanController(backend, curveFanConfig())
	require.NoError(t, err)
	ctx := context.Background()

	c.Tick(ctx)
	require.Len(t, backend.duties, 1)

	// 65.5 °C interpolates to 41%, inside the 2% band around 40%.
	backend.tempC = 65.5
	c.Tick(ctx)
	assert.Len(t, backend.duties, 1, "change inside hysteresis band must not be written")

	// 67 °C interpolates to 44%, outside the band.
	backend.tempC = 67
	c.Tick(ctx)
	require.Len(t, backend.duties, 2)
	assert.Equal(t, uint8(44), backend.duties[1])
}

func TestFanRateLimitClipsLargeSteps(t *testing.T) {
	backend := &fakeFanBackend{tempC: 55}
	c, err := control.NewFanController(backend, curveFanConfig())
	require.NoError(t, err)
	ctx := context.Background()

	c.Tick(ctx)
	require.Len(t, backend.duties, 1)
	assert.Equal(t, uint8(15), backend.duties[0])

	// 90 °C wants 100%; each step may move at most 10 points.
	backend.tempC = 90
	c.Tick(ctx)
	c.Tick(ctx)
	require.Len(t, backend.duties, 3)
	assert.Equal(t, uint8(25), backend.duties[1])
	assert.Equal(t, uint8(35), backend.duties[2])
}

func TestFanWriteFailureSkipsTick(t *testing.T) {
	backend := &fakeFanBackend{tempC: 65}
	c, err := control.NewFanController(backend, curveFanConfig())
	require.NoError(t, err)
	ctx := context.Background()

	backend.writeErr = errors.New().New(errors.ErrUnavailable)
	c.Tick(ctx)
	assert.Empty(t, backend.duties)

	// Once the backend recovers the full target is applied, not a
	// value derived from the failed attempt.
	backend.writeErr = nil
	c.Tick(ctx)
	require.Len(t, backend.duties, 1)
	assert.Equal(t, uint8(40), backend.duties[0])
}

func TestFanThermalFailureSkipsTick(t *testing.T) {
	backend := &fakeFanBackend{thermalErr: errors.New().New(errors.ErrUnavailable)}
	c, err := control.NewFanController(backend, curveFanConfig())
	require.NoError(t, err)

	c.Tick(context.Background())
	assert.Empty(t, backend.duties)
}

func TestFanManualModeAppliesOnce(t *testing.T) {
	backend := &fakeFanBackend{}
	c, err := control.NewFanController(backend, config.FanConfig{
		Mode:          string(config.FanModeManual),
		ManualDutyPct: 35,
		PollInterval:  1,
	})
	require.NoError(t, err)
	ctx := context.Background()

	c.Tick(ctx)
	c.Tick(ctx)

	require.Len(t, backend.duties, 1, "unchanged manual duty must not be rewritten")
	assert.Equal(t, uint8(35), backend.duties[0])
}
