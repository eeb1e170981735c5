package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDumpTable = `
| Name             | Value   | Parameter      |
|------------------|---------|----------------|
| STAPM LIMIT      | 45.000  | stapm-limit    |
| STAPM VALUE      | 12.341  |                |
| PPT LIMIT FAST   | 60.000  | fast-limit     |
| PPT VALUE FAST   | 13.102  |                |
| PPT LIMIT SLOW   | 50.000  | slow-limit     |
| PPT VALUE SLOW   | 12.898  |                |
| THM LIMIT CORE   | 95.000  | tctl-temp      |
| THM VALUE CORE   | 64.250  |                |
`

func TestParseDumpTable(t *testing.T) {
	info := parseDumpTable(sampleDumpTable)

	require.NotNil(t, info.TDPWatts)
	assert.Equal(t, 45, *info.TDPWatts, "tightest of the three limits governs")

	require.NotNil(t, info.ThermalLimitC)
	assert.Equal(t, 95, *info.ThermalLimitC)
}

func TestParseDumpTableMissingRows(t *testing.T) {
	info := parseDumpTable("| STAPM VALUE | 12.341 |\n|---|---|\nnot a table line\n")

	assert.Nil(t, info.TDPWatts)
	assert.Nil(t, info.ThermalLimitC)
}

func TestParseDumpTableFloorsTDP(t *testing.T) {
	info := parseDumpTable("| STAPM LIMIT | 0.200 | stapm-limit |")

	require.NotNil(t, info.TDPWatts)
	assert.Equal(t, 1, *info.TDPWatts)
}

const sampleThermal = `
  F75303_Local: 43 C
  F75303_CPU: 51 C
  F75303_DDR: 39 C
  APU: 54 C
  Fan Speed: 2840 RPM
  Fan Speed: 0 RPM
`

func TestParseThermal(t *testing.T) {
	sample := parseThermal(sampleThermal)

	require.Len(t, sample.Sensors, 4)
	assert.Equal(t, "F75303_CPU", sample.Sensors[1].Name)
	assert.InDelta(t, 51.0, sample.Sensors[1].TempC, 0.001)

	require.Len(t, sample.Fans, 2)
	assert.InDelta(t, 2840.0, sample.Fans[0], 0.001)
	assert.InDelta(t, 0.0, sample.Fans[1], 0.001)

	maxTemp, ok := sample.MaxTempC()
	require.True(t, ok)
	assert.InDelta(t, 54.0, maxTemp, 0.001)
}

func TestParseThermalEmpty(t *testing.T) {
	sample := parseThermal("garbage output\nwithout: structure here\n")

	assert.Empty(t, sample.Sensors)
	assert.Empty(t, sample.Fans)
}

const samplePower = `
Charger Status
  AC is: not connected
Battery Status
  Battery is present
  Battery discharging
  Charge level: 72%
  Battery LFCC: 3541 mAh
  Battery Design Capacity: 3915 mAh
  Battery Present Voltage: 17048 mV
  Battery Present Rate: 655 mA
`

func TestParsePower(t *testing.T) {
	info := parsePower(samplePower)

	require.NotNil(t, info.ACPresent)
	assert.False(t, *info.ACPresent)

	require.NotNil(t, info.Charging)
	assert.False(t, *info.Charging)
	assert.Equal(t, "Discharging", info.Status)

	require.NotNil(t, info.ChargePct)
	assert.InDelta(t, 72.0, *info.ChargePct, 0.001)

	require.NotNil(t, info.CapacityCurrentMAh)
	assert.Equal(t, 3541, *info.CapacityCurrentMAh)
	require.NotNil(t, info.CapacityDesignMAh)
	assert.Equal(t, 3915, *info.CapacityDesignMAh)

	require.NotNil(t, info.VoltageV)
	assert.InDelta(t, 17.048, *info.VoltageV, 0.001)
	require.NotNil(t, info.CurrentMA)
	assert.Equal(t, 655, *info.CurrentMA)

	assert.False(t, info.OnAC())
}

func TestParsePowerACWithoutBatteryLines(t *testing.T) {
	info := parsePower("AC is: connected\n")

	require.NotNil(t, info.ACPresent)
	assert.True(t, *info.ACPresent)
	assert.Equal(t, "Plugged In", info.Status)
	assert.True(t, info.OnAC())
}

const sampleVersions = `
UEFI BIOS
  Version:        03.05
  Release Date:   03/14/2024
EC Firmware
  Build version:  "lilac-3.0.29981-ec:3ef3228"
`

func TestParseVersions(t *testing.T) {
	versions := parseVersions(sampleVersions)

	assert.Equal(t, "03.05", versions.UEFI)
	assert.Equal(t, `"lilac-3.0.29981-ec:3ef3228"`, versions.ECBuild)
}

func TestParseChargeLimit(t *testing.T) {
	limit, err := parseChargeLimit("Charge limit: Minimum 75%, Maximum 80%\n")

	require.NoError(t, err)
	assert.Equal(t, 75, limit.MinPct)
	assert.Equal(t, 80, limit.MaxPct)
}

func TestParseChargeLimitMissing(t *testing.T) {
	_, err := parseChargeLimit("no limit line here\n")

	require.Error(t, err)
}
