package cli

import (
	"math"
	"strconv"
	"strings"

	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/hw"
)

// PowerTableInfo is the parsed result of the power-limit tool's
// diagnostic dump. Fields stay nil when the dump did not report them.
type PowerTableInfo struct {
	TDPWatts      *int
	ThermalLimitC *int
}

// tdpLimitLabels are the configured package power limits. The chip
// enforces the tightest of them, so the reported TDP is their minimum.
var tdpLimitLabels = []string{"STAPM LIMIT", "PPT LIMIT FAST", "PPT LIMIT SLOW"}

var thermalLimitLabels = []string{"THM LIMIT CORE", "TCTL"}

// parseDumpTable scans the pipe-delimited table emitted by the
// power-limit tool. Only lines shaped as table rows are considered;
// separator rows are skipped.
func parseDumpTable(text string) PowerTableInfo {
	var info PowerTableInfo
	var limits []float64

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || strings.HasPrefix(line, "|-") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}

		name := strings.ToUpper(strings.TrimSpace(parts[1]))
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			continue
		}

		for _, label := range tdpLimitLabels {
			if strings.Contains(name, label) {
				limits = append(limits, value)
				break
			}
		}

		// Last match wins; only one such row is expected.
		for _, label := range thermalLimitLabels {
			if strings.Contains(name, label) {
				c := int(math.Round(value))
				info.ThermalLimitC = &c
				break
			}
		}
	}

	if len(limits) > 0 {
		minLimit := limits[0]
		for _, v := range limits[1:] {
			if v < minLimit {
				minLimit = v
			}
		}

		w := int(math.Round(minLimit))
		if w < 1 {
			w = 1
		}
		info.TDPWatts = &w
	}

	return info
}

// parseThermal extracts sensor and fan lines from the diagnostic tool's
// thermal output. Sensor lines look like "F75303_CPU: 43 C", fan lines
// like "Fan Speed: 2840 RPM".
func parseThermal(text string) hw.ThermalSample {
	sample := hw.ThermalSample{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}

		switch strings.ToUpper(fields[1]) {
		case "RPM":
			sample.Fans = append(sample.Fans, value)
		case "C":
			sample.Sensors = append(sample.Sensors, hw.SensorReading{
				Name:  strings.TrimSpace(name),
				TempC: value,
			})
		}
	}

	return sample
}

// parsePower extracts charger and battery fields from the diagnostic
// tool's power output. Fields the tool did not print stay unset so
// callers can distinguish "not reported" from "reported as zero".
func parsePower(text string) hw.PowerBatteryInfo {
	info := hw.PowerBatteryInfo{}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "AC is:"):
			present := !strings.Contains(line, "not connected")
			info.ACPresent = &present
		case strings.HasPrefix(line, "Charge level:"):
			if v, ok := numberAfterColon(line, "%"); ok {
				info.ChargePct = &v
			}
		case strings.HasPrefix(line, "Battery LFCC:"):
			if v, ok := numberAfterColon(line, ""); ok {
				mah := int(math.Round(v))
				info.CapacityCurrentMAh = &mah
			}
		case strings.HasPrefix(line, "Battery Design Capacity:"):
			if v, ok := numberAfterColon(line, ""); ok {
				mah := int(math.Round(v))
				info.CapacityDesignMAh = &mah
			}
		case strings.HasPrefix(line, "Battery Present Voltage:"):
			if v, ok := numberAfterColon(line, ""); ok {
				volts := v
				if strings.Contains(line, "mV") {
					volts = v / 1000
				}
				info.VoltageV = &volts
			}
		case strings.HasPrefix(line, "Battery Present Rate:"):
			if v, ok := numberAfterColon(line, ""); ok {
				ma := int(math.Round(v))
				info.CurrentMA = &ma
			}
		case strings.HasPrefix(line, "Battery charging"):
			charging := true
			info.Charging = &charging
			info.Status = "Charging"
		case strings.HasPrefix(line, "Battery discharging"):
			charging := false
			info.Charging = &charging
			info.Status = "Discharging"
		case strings.HasPrefix(line, "Battery idle"):
			charging := false
			info.Charging = &charging
			info.Status = "Idle"
		}
	}

	if info.Status == "" && info.ACPresent != nil {
		if *info.ACPresent {
			info.Status = "Plugged In"
		} else {
			info.Status = "On Battery"
		}
	}

	return info
}

// numberAfterColon parses the first numeric token following the label,
// tolerating a unit suffix glued to the number ("72%", "17048mV").
func numberAfterColon(line, trim string) (float64, bool) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return 0, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}

	token := strings.TrimSuffix(fields[0], trim)
	token = strings.TrimRightFunc(token, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// parseVersions extracts firmware identifiers from the diagnostic
// tool's version output, tracking which section a "Version:" line
// belongs to.
func parseVersions(text string) hw.Versions {
	var versions hw.Versions
	var section string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "UEFI"):
			section = "uefi"
		case strings.HasPrefix(trimmed, "EC"):
			section = "ec"
		case strings.HasPrefix(trimmed, "Build version:"):
			if section == "ec" {
				versions.ECBuild = valueAfterColon(trimmed)
			}
		case strings.HasPrefix(trimmed, "Version:"):
			if section == "uefi" && versions.UEFI == "" {
				versions.UEFI = valueAfterColon(trimmed)
			}
		}
	}

	return versions
}

func valueAfterColon(line string) string {
	_, rest, _ := strings.Cut(line, ":")
	return strings.TrimSpace(rest)
}

// parseChargeLimit reads the "Minimum N%, Maximum M%" line reported by
// the diagnostic tool.
func parseChargeLimit(text string) (hw.ChargeLimit, error) {
	errFactory := errors.New()

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "Minimum") || !strings.Contains(line, "Maximum") {
			continue
		}

		var limit hw.ChargeLimit
		var haveMin, haveMax bool

		fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
		for i := 0; i+1 < len(fields); i++ {
			v, err := strconv.Atoi(strings.TrimSuffix(fields[i+1], "%"))
			if err != nil {
				continue
			}
			switch fields[i] {
			case "Minimum":
				limit.MinPct = v
				haveMin = true
			case "Maximum":
				limit.MaxPct = v
				haveMax = true
			}
		}

		if haveMin && haveMax {
			return limit, nil
		}
	}

	return hw.ChargeLimit{}, errFactory.WithData(ErrParseFailed, "charge limit line not found")
}
