package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
)

// Recorder stores one sample per acquisition cycle
type Recorder interface {
	Record(ctx context.Context, sample *Sample) error
	Close() error
}

// Repository defines the interface for cycle log storage
type Repository interface {
	Record(sample *Sample) error
	Close() error
}

// Sample is the state of the dashboard after one cycle
type Sample struct {
	Timestamp time.Time
	Result    acquisition.Result

	EngineRPM       uint16
	RoadSpeedMPH    uint8
	CoolantTempF    int16
	FuelTempF       int16
	ThrottlePos     float64
	MAFReading      float64
	MainVoltage     float64
	LambdaTrimOdd   int16
	LambdaTrimEven  int16
	PulseWidthMs    float64
	FuelMapIndex    uint8
	Gear            ecu.Gear
	MILOn           bool
	FuelPumpRelayOn bool
	IdleMode        bool
}

// NewSample copies the fields of snap that go into the cycle log
func NewSample(ts time.Time, snap *ecu.Snapshot, result acquisition.Result) *Sample {
	return &Sample{
		Timestamp:       ts,
		Result:          result,
		EngineRPM:       snap.EngineSpeedRPM,
		RoadSpeedMPH:    snap.RoadSpeedMPH,
		CoolantTempF:    snap.CoolantTempF,
		FuelTempF:       snap.FuelTempF,
		ThrottlePos:     snap.ThrottlePos,
		MAFReading:      snap.MAFReading,
		MainVoltage:     snap.MainVoltage,
		LambdaTrimOdd:   snap.LambdaTrimOdd,
		LambdaTrimEven:  snap.LambdaTrimEven,
		PulseWidthMs:    snap.InjectorPulseWidthMs,
		FuelMapIndex:    snap.FuelMapIndex,
		Gear:            snap.Gear,
		MILOn:           snap.MILOn,
		FuelPumpRelayOn: snap.FuelPumpRelayOn,
		IdleMode:        snap.IdleMode,
	}
}
