// Package hw holds the typed records produced by the hardware backends.
// Values are produced fresh on every read and never mutated afterwards.
package hw

import "strconv"

// SensorReading is a single named temperature in degrees Celsius.
type SensorReading struct {
	Name  string
	TempC float64
}

// ThermalSample is one snapshot of all reporting sensors and fans.
// Fan speeds are RPM when read from the EC tachometers and duty
// percentage when a backend only reports duty.
type ThermalSample struct {
	Sensors []SensorReading
	Fans    []float64
}

// MaxTempC returns the hottest sensor reading, or false when no sensor
// reported. The hottest sensor governs cooling need.
func (s ThermalSample) MaxTempC() (float64, bool) {
	if len(s.Sensors) == 0 {
		return 0, false
	}

	maxTemp := s.Sensors[0].TempC
	for _, r := range s.Sensors[1:] {
		if r.TempC > maxTemp {
			maxTemp = r.TempC
		}
	}

	return maxTemp, true
}

// PowerBatteryInfo is one snapshot of the charger and battery state.
// Pointer fields stay nil when the backend did not report them, so
// callers can distinguish "not reported" from "reported as zero".
type PowerBatteryInfo struct {
	Status             string
	Charging           *bool
	ACPresent          *bool
	ChargePct          *float64
	CapacityCurrentMAh *int
	CapacityDesignMAh  *int
	VoltageV           *float64
	CurrentMA          *int
}

// OnAC reports whether the machine currently draws external power.
// Reported AC presence wins; charging state is the fallback signal.
func (p PowerBatteryInfo) OnAC() bool {
	if p.ACPresent != nil {
		return *p.ACPresent
	}
	if p.Charging != nil {
		return *p.Charging
	}

	return false
}

// Versions holds the firmware identifiers reported by the diagnostic
// tool. Used as the liveness probe for the CLI backend.
type Versions struct {
	UEFI    string
	ECBuild string
}

// ChargeLimit is the EC-enforced battery charge window.
type ChargeLimit struct {
	MinPct int
	MaxPct int
}

// DefaultSensorNames maps EC memory-map sensor slots to human names.
// Slots beyond the list fall back to a positional name.
var DefaultSensorNames = []string{
	"CPU", "GPU", "Battery", "Charger", "Memory", "VRM", "Ambient", "SSD",
}

// SensorName returns the conventional name of a memory-map sensor slot.
func SensorName(index int) string {
	if index >= 0 && index < len(DefaultSensorNames) {
		return DefaultSensorNames[index]
	}

	return "Temp " + strconv.Itoa(index)
}
