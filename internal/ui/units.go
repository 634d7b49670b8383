package ui

// Units selects how speeds and temperatures are displayed
type Units int

const (
	Metric Units = iota
	Imperial
)

const (
	kmPerMile   = 1.609344
	celsiusPerF = 0.5555556
	freezingPtF = 32
)

func (u Units) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

// Toggle returns the other unit system
func (u Units) Toggle() Units {
	if u == Metric {
		return Imperial
	}
	return Metric
}

// Speed converts a road speed in mph, truncating toward zero
func (u Units) Speed(mph uint8) int {
	if u == Imperial {
		return int(mph)
	}
	return int(float64(mph) * kmPerMile)
}

// Temperature converts a temperature in Fahrenheit, truncating toward zero
func (u Units) Temperature(f int16) int {
	if u == Imperial {
		return int(f)
	}
	return int(float64(f-freezingPtF) * celsiusPerF)
}

func (u Units) SpeedUnit() string {
	if u == Imperial {
		return "mph"
	}
	return "km/h"
}

func (u Units) TemperatureUnit() string {
	if u == Imperial {
		return "degF"
	}
	return "degC"
}
