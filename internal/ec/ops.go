package ec

import (
	"encoding/binary"

	"codeberg.org/mutker/fwectl/internal/errors"
	"codeberg.org/mutker/fwectl/internal/logger"
)

// EC command IDs and memory-map layout.
const (
	cmdSetFanDuty     = 0x13
	cmdSetFanAuto     = 0x14
	cmdSetTDP         = 0x20
	cmdSetThermalLim  = 0x21
	cmdSetChargeLimit = 0x30

	memmapTempOffset = 0x00
	memmapTempLen    = 0x0F
	memmapFanOffset  = 0x10
	memmapFanLen     = 0x08

	// Temperature bytes at or above this value are sentinels:
	// absent, errored, unpowered or uncalibrated sensors.
	tempSentinelMin = 0xFC

	// Raw temperature bytes are offset-encoded degrees Celsius.
	tempOffsetC = 73

	// Readings outside this exclusive band are sensor noise and
	// dropped silently rather than surfaced as errors.
	tempSaneMinC = -50.0
	tempSaneMaxC = 150.0

	// A tachometer word of all ones means the fan slot is not present.
	fanAbsent = 0xFFFF

	maxFanSlots    = 4
	chargeLimitGap = 5
)

// SetFanDuty commands all fans to a fixed duty percentage.
func (t *Transport) SetFanDuty(pct uint8) error {
	if pct > 100 {
		return errors.New().WithData(ErrInvalidDuty, pct)
	}

	logger.Debug().Uint8("duty_pct", pct).Msg("Setting EC fan duty")
	_, err := t.SendCommand(cmdSetFanDuty, 0, []byte{pct})

	return err
}

// SetFanAuto returns fan control to the EC's own thermal policy.
func (t *Transport) SetFanAuto() error {
	logger.Debug().Msg("Restoring EC automatic fan control")
	_, err := t.SendCommand(cmdSetFanAuto, 0, nil)

	return err
}

// ReadTemps reads the sensor region of the memory map and decodes it.
func (t *Transport) ReadTemps() ([]float64, error) {
	raw, err := t.ReadMemory(memmapTempOffset, memmapTempLen)
	if err != nil {
		return nil, err
	}

	return decodeTemps(raw), nil
}

// ReadFans reads the tachometer region of the memory map and decodes it.
func (t *Transport) ReadFans() ([]float64, error) {
	raw, err := t.ReadMemory(memmapFanOffset, memmapFanLen)
	if err != nil {
		return nil, err
	}

	return decodeFans(raw), nil
}

// SetChargeLimit sets the battery charge window to [max-5, max],
// floored at zero.
func (t *Transport) SetChargeLimit(maxPct uint8) error {
	if maxPct > 100 {
		return errors.New().WithData(ErrInvalidChargeLimit, maxPct)
	}

	minPct := uint8(0)
	if maxPct > chargeLimitGap {
		minPct = maxPct - chargeLimitGap
	}

	logger.Debug().Uint8("min_pct", minPct).Uint8("max_pct", maxPct).Msg("Setting EC charge limit")
	_, err := t.SendCommand(cmdSetChargeLimit, 0, []byte{minPct, maxPct})

	return err
}

// SetTDPWatts sets the sustained package power budget.
func (t *Transport) SetTDPWatts(watts uint32) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, watts)

	logger.Debug().Uint32("tdp_watts", watts).Msg("Setting EC TDP")
	_, err := t.SendCommand(cmdSetTDP, 0, payload)

	return err
}

// SetThermalLimit sets the package thermal limit in degrees Celsius.
func (t *Transport) SetThermalLimit(celsius uint32) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, celsius)

	logger.Debug().Uint32("thermal_limit_c", celsius).Msg("Setting EC thermal limit")
	_, err := t.SendCommand(cmdSetThermalLim, 0, payload)

	return err
}

// decodeTemps converts raw memory-map sensor bytes into degrees
// Celsius. Sentinel and out-of-band values are excluded, order of the
// remaining readings is preserved.
func decodeTemps(raw []byte) []float64 {
	temps := make([]float64, 0, len(raw))
	for _, b := range raw {
		if b >= tempSentinelMin {
			continue
		}

		tempC := float64(int16(b) - tempOffsetC)
		if tempC > tempSaneMinC && tempC < tempSaneMaxC {
			temps = append(temps, tempC)
		}
	}

	return temps
}

// decodeFans converts raw tachometer bytes (little-endian u16 pairs)
// into RPM values, excluding absent fan slots.
func decodeFans(raw []byte) []float64 {
	fans := make([]float64, 0, maxFanSlots)
	for i := 0; i < maxFanSlots; i++ {
		offset := i * 2
		if offset+1 >= len(raw) {
			break
		}

		rpm := binary.LittleEndian.Uint16(raw[offset:])
		if rpm != fanAbsent {
			fans = append(fans, float64(rpm))
		}
	}

	return fans
}
