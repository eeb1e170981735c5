package cli

import (
	"context"
	"strconv"
	"time"

	"codeberg.org/mutker/fwectl/internal/cache"
	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/hw"
)

const frameworkToolName = "framework_tool"

// Read TTLs. Thermal state moves fast, charger and limit state slowly.
const (
	thermalTTL     = 1 * time.Second
	powerTTL       = 2 * time.Second
	chargeLimitTTL = 2 * time.Second
)

// FrameworkTool drives the vendor diagnostic executable. Reads are
// memoized per call type so concurrent consumers (control loops,
// telemetry, supervisor probes) do not multiply process spawns.
type FrameworkTool struct {
	path string

	thermal     *cache.Cache[hw.ThermalSample]
	power       *cache.Cache[hw.PowerBatteryInfo]
	chargeLimit *cache.Cache[hw.ChargeLimit]
}

// NewFrameworkTool locates the diagnostic executable and validates it
// with a read-only version query before handing it out.
func NewFrameworkTool(ctx context.Context) (*FrameworkTool, error) {
	path, err := resolveExecutable(frameworkToolName)
	if err != nil {
		return nil, err
	}

	t := &FrameworkTool{
		path:        path,
		thermal:     cache.New[hw.ThermalSample](),
		power:       cache.New[hw.PowerBatteryInfo](),
		chargeLimit: cache.New[hw.ChargeLimit](),
	}

	if _, err := t.Versions(ctx); err != nil {
		return nil, errors.New().Wrap(ErrProbeFailed, err)
	}

	return t, nil
}

// Path returns the resolved executable path, for logging.
func (t *FrameworkTool) Path() string {
	return t.path
}

// Thermal reads sensor temperatures and fan speeds.
func (t *FrameworkTool) Thermal(ctx context.Context) (hw.ThermalSample, error) {
	return t.thermal.GetOrUpdate(ctx, "thermal", thermalTTL, true,
		func(ctx context.Context) (hw.ThermalSample, error) {
			out, err := run(ctx, t.path, "--thermal")
			if err != nil {
				return hw.ThermalSample{}, err
			}

			return parseThermal(out), nil
		})
}

// Power reads charger and battery state.
func (t *FrameworkTool) Power(ctx context.Context) (hw.PowerBatteryInfo, error) {
	return t.power.GetOrUpdate(ctx, "power", powerTTL, true,
		func(ctx context.Context) (hw.PowerBatteryInfo, error) {
			out, err := run(ctx, t.path, "--power", "-vv")
			if err != nil {
				return hw.PowerBatteryInfo{}, err
			}

			return parsePower(out), nil
		})
}

// Versions reads firmware identifiers. Never cached: this doubles as
// the liveness probe, so a stale success must not mask a dead tool.
func (t *FrameworkTool) Versions(ctx context.Context) (hw.Versions, error) {
	out, err := run(ctx, t.path, "--versions")
	if err != nil {
		return hw.Versions{}, err
	}

	return parseVersions(out), nil
}

// ChargeLimit reads the EC-enforced battery charge window.
func (t *FrameworkTool) ChargeLimit(ctx context.Context) (hw.ChargeLimit, error) {
	return t.chargeLimit.GetOrUpdate(ctx, "charge-limit", chargeLimitTTL, true,
		func(ctx context.Context) (hw.ChargeLimit, error) {
			out, err := run(ctx, t.path, "--charge-limit")
			if err != nil {
				return hw.ChargeLimit{}, err
			}

			return parseChargeLimit(out)
		})
}

// fanDutyArgs translates a duty percentage and optional fan index into
// the tool's argument form. Without an index the tool targets all fans.
func fanDutyArgs(pct uint8, fanIndex *int) []string {
	args := []string{"--fansetduty"}
	if fanIndex != nil {
		args = append(args, strconv.Itoa(*fanIndex))
	}

	return append(args, strconv.Itoa(int(pct)))
}

// SetFanDuty forces fan duty to pct. A nil fanIndex targets all fans.
func (t *FrameworkTool) SetFanDuty(ctx context.Context, pct uint8, fanIndex *int) error {
	if pct > 100 {
		return errors.New().WithData(errors.ErrInvalidOperation, "fan duty above 100%")
	}

	_, err := run(ctx, t.path, fanDutyArgs(pct, fanIndex)...)

	return err
}

// SetFanAuto returns fan control to the EC's thermal table.
func (t *FrameworkTool) SetFanAuto(ctx context.Context) error {
	_, err := run(ctx, t.path, "--autofanctrl")

	return err
}

// SetChargeLimit sets the maximum battery charge percentage and drops
// the cached window so the next read reflects it.
func (t *FrameworkTool) SetChargeLimit(ctx context.Context, maxPct uint8) error {
	_, err := run(ctx, t.path, "--charge-limit", strconv.Itoa(int(maxPct)))
	if err == nil {
		t.chargeLimit.Invalidate("charge-limit")
	}

	return err
}

// chargeRateArgs translates a charge rate in C and optional state of
// charge threshold into the tool's argument form.
func chargeRateArgs(rateC float64, socPct *int) []string {
	args := []string{"--charge-rate-limit", strconv.FormatFloat(rateC, 'f', -1, 64)}
	if socPct != nil {
		args = append(args, strconv.Itoa(*socPct))
	}

	return args
}

// SetChargeRateLimit caps the charge current as a fraction of the
// battery's design capacity. A non-nil socPct applies the cap only
// above that state of charge.
func (t *FrameworkTool) SetChargeRateLimit(ctx context.Context, rateC float64, socPct *int) error {
	_, err := run(ctx, t.path, chargeRateArgs(rateC, socPct)...)

	return err
}
