package ecu

// Snapshot is the latest known value of every telemetry field. It is created
// zeroed at connection time and updated field by field as reads succeed.
type Snapshot struct {
	RoadSpeedMPH   uint8
	EngineSpeedRPM uint16
	TargetIdleRPM  uint16
	IdleMode       bool
	CoolantTempF   int16
	FuelTempF      int16
	ThrottlePos    float64
	Gear           Gear
	MainVoltage    float64

	FuelMapIndex     uint8
	FuelMapIndexRead bool
	FuelMapRow       uint8
	FuelMapRowWeight uint8
	FuelMapCol       uint8
	FuelMapColWeight uint8
	FuelMap          *FuelMap

	MAFReading      float64
	IdleBypassPos   float64
	FuelPumpRelayOn bool
	LambdaTrimOdd   int16
	LambdaTrimEven  int16
	COTrimVoltage   float64
	MILOn           bool

	InjectorPulseWidthUs uint16
	InjectorPulseWidthMs float64

	Tune     Latch[TuneRevision]
	RPMLimit Latch[uint16]

	Faults FaultSet
}

// NewSnapshot returns a zeroed snapshot for a fresh connection
func NewSnapshot() *Snapshot {
	return &Snapshot{}
}

// InjectorDutyCycle returns the injector duty cycle in percent, derived from
// the pulse width and the time one crank revolution takes at the current RPM.
func (s *Snapshot) InjectorDutyCycle() float64 {
	if s.EngineSpeedRPM == 0 {
		return 0
	}
	revolutionMs := 60.0 / float64(s.EngineSpeedRPM) * 1000.0

	return s.InjectorPulseWidthMs / revolutionMs * 100
}
