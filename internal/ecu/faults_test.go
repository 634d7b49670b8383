package ecu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultSetActiveKeepsDisplayOrder(t *testing.T) {
	set := FaultSet(0).
		With(FaultRAMChecksum).
		With(FaultROMChecksum).
		With(FaultRoadSpeedSensor)

	active := set.Active()
	if assert.Len(t, active, 3) {
		assert.Equal(t, "(29) ECU checksum error", active[0].String())
		assert.Equal(t, "(68) Road speed sensor", active[1].String())
		assert.Equal(t, "(03) Bad checksum on battery-backed RAM", active[2].String())
	}
}

func TestFaultSetEmpty(t *testing.T) {
	var set FaultSet
	assert.True(t, set.Empty())
	assert.Empty(t, set.Active())
	assert.False(t, set.Has(FaultMisfireOdd))

	set = set.With(FaultMisfireOdd)
	assert.False(t, set.Empty())
	assert.True(t, set.Has(FaultMisfireOdd))
	assert.False(t, set.Has(FaultMisfireEven))
}

func TestEveryFaultHasConfig(t *testing.T) {
	for f := FaultROMChecksum; f <= FaultRAMChecksum; f <<= 1 {
		cfg, ok := GetFaultConfig(f)
		assert.True(t, ok, "fault %#x", uint32(f))
		assert.NotEmpty(t, cfg.Description)
	}
	assert.Len(t, faultConfigs, 24)
}
