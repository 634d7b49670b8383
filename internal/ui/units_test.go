package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeed(t *testing.T) {
	tests := []struct {
		mph   uint8
		units Units
		want  int
	}{
		{0, Metric, 0},
		{30, Metric, 48},
		{60, Metric, 96},
		{100, Metric, 160},
		{30, Imperial, 30},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.units.Speed(tt.mph), "%d mph %s", tt.mph, tt.units)
	}
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		f     int16
		units Units
		want  int
	}{
		{32, Metric, 0},
		{212, Metric, 100},
		{190, Metric, 87},
		{-40, Metric, -40},
		{190, Imperial, 190},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.units.Temperature(tt.f), "%dF %s", tt.f, tt.units)
	}
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Imperial, Metric.Toggle())
	assert.Equal(t, Metric, Imperial.Toggle())
	assert.Equal(t, "km/h", Metric.SpeedUnit())
	assert.Equal(t, "degF", Imperial.TemperatureUnit())
}
