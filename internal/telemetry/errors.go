package telemetry

import "codeberg.org/mutker/roverdash/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidAddr   = errors.ErrorCode("telemetry_invalid_addr")
	ErrInvalidKey    = errors.ErrorCode("telemetry_invalid_key")

	// Publishing Errors
	ErrPublishFailed = errors.ErrorCode("telemetry_publish_failed")
	ErrInvalidUpdate = errors.ErrorCode("telemetry_invalid_update")

	// Connection Errors
	ErrConnect      = errors.ErrInitPublisher
	ErrConnectClose = errors.ErrorCode("telemetry_close_failed")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
