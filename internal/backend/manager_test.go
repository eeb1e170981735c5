package backend_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/fwectl/internal/backend"
	"codeberg.org/mutker/fwectl/internal/cli"
	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/ec"
	"codeberg.org/mutker/fwectl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// With every slot empty, each operation must report unavailability
// rather than panic or block.
func TestManagerUnavailableWhenNoBackend(t *testing.T) {
	m := backend.NewManager(
		config.BackendDevice,
		backend.NewSlot[*ec.Transport](),
		backend.NewSlot[*cli.FrameworkTool](),
		backend.NewSlot[*cli.RyzenAdj](),
	)
	ctx := context.Background()

	_, err := m.Thermal(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))

	_, err = m.Power(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))

	_, err = m.Versions(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))

	_, err = m.ChargeLimit(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))

	_, err = m.PowerLimits(ctx)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))

	assert.True(t, errors.HasCode(m.SetFanDuty(ctx, 50), errors.ErrUnavailable))
	assert.True(t, errors.HasCode(m.SetFanAuto(ctx), errors.ErrUnavailable))
	assert.True(t, errors.HasCode(m.SetChargeLimit(ctx, 80), errors.ErrUnavailable))
	assert.True(t, errors.HasCode(m.SetChargeRateLimit(ctx, 0.5, nil), errors.ErrUnavailable))
	assert.True(t, errors.HasCode(m.SetTDPWatts(ctx, 25), errors.ErrUnavailable))
	assert.True(t, errors.HasCode(m.SetThermalLimitC(ctx, 90), errors.ErrUnavailable))
}
