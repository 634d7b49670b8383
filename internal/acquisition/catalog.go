package acquisition

import (
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
)

// ModeContext is the engine operating mode the gates are evaluated against.
// It is set from configuration; acquisition never changes it.
type ModeContext struct {
	Feedback       ecu.FeedbackMode
	LambdaTrim     ecu.LambdaTrimType
	FuelMapRefresh bool
}

// Stock refresh intervals in milliseconds
var defaultIntervals = [numSampleKinds]int64{
	EngineTemperature:  1499,
	RoadSpeed:          997,
	EngineRPM:          0,
	FuelTemperature:    1801,
	MAF:                0,
	Throttle:           0,
	IdleBypassPosition: 0,
	TargetIdleRPM:      487,
	GearSelection:      563,
	MainVoltage:        283,
	LambdaTrimShort:    0,
	LambdaTrimLong:     331,
	COTrimVoltage:      317,
	FuelPumpRelay:      313,
	FuelMapRowCol:      0,
	FuelMapData:        3511,
	FuelMapIndex:       1201,
	InjectorPulseWidth: 0,
	MIL:                347,
}

// Catalog holds the refresh interval of every sample kind. An interval of 0
// means the kind is read on every cycle.
type Catalog struct {
	intervals [numSampleKinds]int64
}

// DefaultCatalog returns the catalog with the stock intervals
func DefaultCatalog() *Catalog {
	return &Catalog{intervals: defaultIntervals}
}

// WithInterval overrides the interval of kind, in milliseconds
func (c *Catalog) WithInterval(kind SampleKind, ms int64) error {
	errFactory := errors.New()

	if kind < 0 || kind >= numSampleKinds {
		return errFactory.WithData(ErrUnknownSampleKind, int(kind))
	}
	if ms < 0 {
		return errFactory.WithData(ErrInvalidInterval, kind.String())
	}
	c.intervals[kind] = ms

	return nil
}

// Interval returns the refresh interval of kind in milliseconds
func (c *Catalog) Interval(kind SampleKind) int64 {
	return c.intervals[kind]
}

// Eligible reports whether the mode gate of kind admits it under mode
func (c *Catalog) Eligible(kind SampleKind, mode ModeContext) bool {
	switch kind {
	case LambdaTrimLong:
		return mode.Feedback == ecu.ClosedLoop && mode.LambdaTrim == ecu.LongTerm
	case LambdaTrimShort:
		return mode.Feedback == ecu.ClosedLoop && mode.LambdaTrim == ecu.ShortTerm
	case COTrimVoltage:
		return mode.Feedback == ecu.OpenLoop
	case FuelMapData:
		return mode.FuelMapRefresh
	default:
		return true
	}
}
