package backend

import (
	"context"
	"time"

	"codeberg.org/mutker/fwectl/internal/cache"
	"codeberg.org/mutker/fwectl/internal/cli"
	"codeberg.org/mutker/fwectl/internal/config"
	"codeberg.org/mutker/fwectl/internal/ec"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/hw"
)

const deviceThermalTTL = 1 * time.Second

// Manager routes operations to the preferred backend and falls back to
// the other when the preferred one is unavailable. It only ever reads
// the slots; the supervisors own them.
type Manager struct {
	prefer config.Backend

	device *Slot[*ec.Transport]
	tool   *Slot[*cli.FrameworkTool]
	adj    *Slot[*cli.RyzenAdj]

	// Device reads are memoized here on the same TTLs the CLI adapter
	// uses internally, so consumers see one caching policy regardless
	// of which backend serves them.
	thermal *cache.Cache[hw.ThermalSample]

	errFactory errors.Factory
}

func NewManager(
	prefer config.Backend,
	device *Slot[*ec.Transport],
	tool *Slot[*cli.FrameworkTool],
	adj *Slot[*cli.RyzenAdj],
) *Manager {
	return &Manager{
		prefer:     prefer,
		device:     device,
		tool:       tool,
		adj:        adj,
		thermal:    cache.New[hw.ThermalSample](),
		errFactory: errors.New(),
	}
}

// deviceFirst reports whether the device channel should be tried before
// the CLI tools.
func (m *Manager) deviceFirst() bool {
	return m.prefer != config.BackendCLI
}

func (m *Manager) unavailable(op string) error {
	return m.errFactory.WithData(errors.ErrUnavailable, op)
}

// Thermal returns the latest sensor and fan snapshot.
func (m *Manager) Thermal(ctx context.Context) (hw.ThermalSample, error) {
	readDevice := func(t *ec.Transport) (hw.ThermalSample, error) {
		return m.thermal.GetOrUpdate(ctx, "thermal", deviceThermalTTL, true,
			func(context.Context) (hw.ThermalSample, error) {
				return deviceThermal(t)
			})
	}

	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return readDevice(t)
		}
	}
	if tool, ok := m.tool.Get(); ok {
		return tool.Thermal(ctx)
	}
	if t, ok := m.device.Get(); ok {
		return readDevice(t)
	}

	return hw.ThermalSample{}, m.unavailable("thermal read")
}

// deviceThermal composes a sample from the EC memory map, naming the
// sensor slots conventionally.
func deviceThermal(t *ec.Transport) (hw.ThermalSample, error) {
	temps, err := t.ReadTemps()
	if err != nil {
		return hw.ThermalSample{}, err
	}

	fans, err := t.ReadFans()
	if err != nil {
		return hw.ThermalSample{}, err
	}

	sample := hw.ThermalSample{Fans: fans}
	for i, temp := range temps {
		sample.Sensors = append(sample.Sensors, hw.SensorReading{
			Name:  hw.SensorName(i),
			TempC: temp,
		})
	}

	return sample, nil
}

// Power returns the charger and battery snapshot. Only the diagnostic
// tool reports it; the device channel has no battery query.
func (m *Manager) Power(ctx context.Context) (hw.PowerBatteryInfo, error) {
	if tool, ok := m.tool.Get(); ok {
		return tool.Power(ctx)
	}

	return hw.PowerBatteryInfo{}, m.unavailable("power read")
}

// Versions returns the firmware identifiers, uncached.
func (m *Manager) Versions(ctx context.Context) (hw.Versions, error) {
	if tool, ok := m.tool.Get(); ok {
		return tool.Versions(ctx)
	}

	return hw.Versions{}, m.unavailable("versions read")
}

// ChargeLimit returns the EC-enforced charge window.
func (m *Manager) ChargeLimit(ctx context.Context) (hw.ChargeLimit, error) {
	if tool, ok := m.tool.Get(); ok {
		return tool.ChargeLimit(ctx)
	}

	return hw.ChargeLimit{}, m.unavailable("charge limit read")
}

// PowerLimits returns the configured package power and thermal limits
// as reported by the power-limit tool.
func (m *Manager) PowerLimits(ctx context.Context) (cli.PowerTableInfo, error) {
	if adj, ok := m.adj.Get(); ok {
		return adj.Info(ctx)
	}

	return cli.PowerTableInfo{}, m.unavailable("power limits read")
}

// SetFanDuty forces all fans to pct.
func (m *Manager) SetFanDuty(ctx context.Context, pct uint8) error {
	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return t.SetFanDuty(pct)
		}
	}
	if tool, ok := m.tool.Get(); ok {
		return tool.SetFanDuty(ctx, pct, nil)
	}
	if t, ok := m.device.Get(); ok {
		return t.SetFanDuty(pct)
	}

	return m.unavailable("set fan duty")
}

// SetFanAuto returns fan control to the EC.
func (m *Manager) SetFanAuto(ctx context.Context) error {
	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return t.SetFanAuto()
		}
	}
	if tool, ok := m.tool.Get(); ok {
		return tool.SetFanAuto(ctx)
	}
	if t, ok := m.device.Get(); ok {
		return t.SetFanAuto()
	}

	return m.unavailable("set fan auto")
}

// SetChargeLimit caps battery charge at maxPct.
func (m *Manager) SetChargeLimit(ctx context.Context, maxPct uint8) error {
	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return t.SetChargeLimit(maxPct)
		}
	}
	if tool, ok := m.tool.Get(); ok {
		return tool.SetChargeLimit(ctx, maxPct)
	}
	if t, ok := m.device.Get(); ok {
		return t.SetChargeLimit(maxPct)
	}

	return m.unavailable("set charge limit")
}

// SetChargeRateLimit caps the charge current. Only the diagnostic tool
// exposes the rate command.
func (m *Manager) SetChargeRateLimit(ctx context.Context, rateC float64, socPct *int) error {
	if tool, ok := m.tool.Get(); ok {
		return tool.SetChargeRateLimit(ctx, rateC, socPct)
	}

	return m.unavailable("set charge rate limit")
}

// SetTDPWatts sets the sustained package power limit.
func (m *Manager) SetTDPWatts(ctx context.Context, watts int) error {
	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return t.SetTDPWatts(uint32(watts))
		}
	}
	if adj, ok := m.adj.Get(); ok {
		return adj.SetTDPWatts(ctx, watts)
	}
	if t, ok := m.device.Get(); ok {
		return t.SetTDPWatts(uint32(watts))
	}

	return m.unavailable("set tdp")
}

// SetThermalLimitC sets the package thermal throttle temperature.
func (m *Manager) SetThermalLimitC(ctx context.Context, limitC int) error {
	if m.deviceFirst() {
		if t, ok := m.device.Get(); ok {
			return t.SetThermalLimit(uint32(limitC))
		}
	}
	if adj, ok := m.adj.Get(); ok {
		return adj.SetThermalLimitC(ctx, limitC)
	}
	if t, ok := m.device.Get(); ok {
		return t.SetThermalLimit(uint32(limitC))
	}

	return m.unavailable("set thermal limit")
}
