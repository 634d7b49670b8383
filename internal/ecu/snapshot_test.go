package ecu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatchKeepsFirstValue(t *testing.T) {
	var l Latch[uint16]
	_, ok := l.Get()
	assert.False(t, ok)

	l.Set(5720)
	l.Set(6000)

	v, ok := l.Get()
	assert.True(t, ok)
	assert.True(t, l.IsSet())
	assert.Equal(t, uint16(5720), v)
}

func TestInjectorDutyCycle(t *testing.T) {
	s := NewSnapshot()
	assert.Zero(t, s.InjectorDutyCycle(), "stopped engine has no duty cycle")

	// 3000 rpm -> 20 ms per revolution, 5 ms pulse -> 25 %
	s.EngineSpeedRPM = 3000
	s.InjectorPulseWidthMs = 5
	assert.InDelta(t, 25.0, s.InjectorDutyCycle(), 0.001)
}
