package acquisition

import "codeberg.org/mutker/roverdash/internal/errors"

const (
	ErrUnknownSampleKind = errors.ErrorCode("acquisition_unknown_sample_kind")
	ErrInvalidInterval   = errors.ErrInvalidInterval
)
