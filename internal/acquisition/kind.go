package acquisition

import "codeberg.org/mutker/roverdash/internal/errors"

// SampleKind is one category of telemetry the dashboard can acquire
type SampleKind int

// Declaration order is the order fields are read within a cycle.
const (
	EngineTemperature SampleKind = iota
	RoadSpeed
	EngineRPM
	FuelTemperature
	MAF
	Throttle
	IdleBypassPosition
	TargetIdleRPM
	GearSelection
	MainVoltage
	LambdaTrimShort
	LambdaTrimLong
	COTrimVoltage
	FuelPumpRelay
	FuelMapRowCol
	FuelMapData
	FuelMapIndex
	InjectorPulseWidth
	MIL

	numSampleKinds
)

var sampleKindNames = [numSampleKinds]string{
	EngineTemperature:  "engine_temperature",
	RoadSpeed:          "road_speed",
	EngineRPM:          "engine_rpm",
	FuelTemperature:    "fuel_temperature",
	MAF:                "maf",
	Throttle:           "throttle",
	IdleBypassPosition: "idle_bypass_position",
	TargetIdleRPM:      "target_idle_rpm",
	GearSelection:      "gear_selection",
	MainVoltage:        "main_voltage",
	LambdaTrimShort:    "lambda_trim_short",
	LambdaTrimLong:     "lambda_trim_long",
	COTrimVoltage:      "co_trim_voltage",
	FuelPumpRelay:      "fuel_pump_relay",
	FuelMapRowCol:      "fuel_map_row_col",
	FuelMapData:        "fuel_map_data",
	FuelMapIndex:       "fuel_map_index",
	InjectorPulseWidth: "injector_pulse_width",
	MIL:                "mil",
}

// SampleKinds returns every kind in cycle order
func SampleKinds() []SampleKind {
	kinds := make([]SampleKind, numSampleKinds)
	for i := range kinds {
		kinds[i] = SampleKind(i)
	}
	return kinds
}

func (k SampleKind) String() string {
	if k < 0 || k >= numSampleKinds {
		return "unknown"
	}
	return sampleKindNames[k]
}

// ParseSampleKind looks a kind up by its configuration name
func ParseSampleKind(name string) (SampleKind, error) {
	for i, n := range sampleKindNames {
		if n == name {
			return SampleKind(i), nil
		}
	}
	return 0, errors.New().WithData(ErrUnknownSampleKind, name)
}
