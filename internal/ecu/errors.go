package ecu

import "codeberg.org/mutker/roverdash/internal/errors"

const (
	// Lifecycle Errors
	ErrNotConnected  = errors.ErrorCode("ecu_not_connected")
	ErrConnectFailed = errors.ErrorCode("ecu_connect_failed")
	ErrInvalidDevice = errors.ErrorCode("ecu_invalid_device")
	ErrUnknownDriver = errors.ErrorCode("ecu_unknown_driver")

	// Read Errors
	ErrReadFailed       = errors.ErrorCode("ecu_read_failed")
	ErrNotYetAvailable  = errors.ErrorCode("ecu_value_not_yet_available")
	ErrFaultCodesFailed = errors.ErrorCode("ecu_fault_codes_failed")
)
