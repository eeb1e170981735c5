package ec

import "codeberg.org/mutker/fwectl/internal/errors"

const (
	// Transport Errors
	ErrAccessDenied  = errors.ErrorCode("ec_access_denied")
	ErrDriverMissing = errors.ErrorCode("ec_driver_missing")
	ErrIO            = errors.ErrorCode("ec_io_error")

	// Frame Errors
	ErrPayloadTooLarge = errors.ErrorCode("ec_payload_too_large")
	ErrReadOutOfRange  = errors.ErrorCode("ec_read_out_of_range")
	ErrShortFrame      = errors.ErrorCode("ec_short_frame")

	// Operation Errors
	ErrInvalidDuty        = errors.ErrorCode("ec_invalid_duty")
	ErrInvalidChargeLimit = errors.ErrorCode("ec_invalid_charge_limit")
)

// IsAccessDenied reports whether err is the privilege failure that the
// host should surface as an elevation prompt rather than retry.
func IsAccessDenied(err error) bool {
	return errors.HasCode(err, ErrAccessDenied)
}

// IsDriverMissing reports whether err means the device is not installed
// or not exposed, which the supervisor handles with its retry cadence.
func IsDriverMissing(err error) bool {
	return errors.HasCode(err, ErrDriverMissing)
}
