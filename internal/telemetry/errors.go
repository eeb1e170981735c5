package telemetry

import "codeberg.org/mutker/fwectl/internal/errors"

const (
	ErrInvalidSample = errors.ErrorCode("telemetry_invalid_sample")
	ErrInvalidWindow = errors.ErrorCode("telemetry_invalid_window")
)
