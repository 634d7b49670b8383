package config

import "codeberg.org/mutker/roverdash/internal/errors"

const (
	ErrHelpRequested = errors.ErrorCode("config_help_requested")
	ErrInvalidValue  = errors.ErrorCode("config_invalid_value")
)
