package ecu

import "codeberg.org/mutker/roverdash/internal/errors"

// Driver is the ECU communication capability. Every read either succeeds and
// returns the value, or fails transiently with an error.
type Driver interface {
	Connect(device string) error
	Disconnect() error
	Connected() bool

	TuneRevision() (TuneRevision, error)
	MAFReading(airflow AirflowType) (float64, error)
	ThrottlePosition(throttle ThrottlePosType) (float64, error)
	LambdaTrimShort(bank Bank) (int16, error)
	LambdaTrimLong(bank Bank) (int16, error)
	EngineRPM() (uint16, error)
	RPMLimit() (uint16, error)
	FuelMapRowIndex() (index, weighting uint8, err error)
	FuelMapColumnIndex() (index, weighting uint8, err error)
	InjectorPulseWidth() (uint16, error)
	IdleBypassPosition() (float64, error)
	MainVoltage() (float64, error)
	TargetIdle() (uint16, error)
	IdleMode() (bool, error)
	FuelPumpRelay() (bool, error)
	GearSelection() (Gear, error)
	RoadSpeed() (uint8, error)
	CoolantTemp() (int16, error)
	FuelTemp() (int16, error)
	MILOn() (bool, error)
	CurrentFuelMap() (uint8, error)
	FuelMap(index uint8) (FuelMap, error)
	COTrimVoltage() (float64, error)
	FaultCodes() (FaultSet, error)
}

// Options configures driver construction
type Options struct {
	Seed        int64
	FailureRate float64
	// FailConnect makes the simulated port refuse every Connect
	FailConnect bool
}

// New creates the driver registered under name
func New(name string, opts Options) (Driver, error) {
	switch name {
	case "sim", "":
		return NewSimDriver(opts), nil
	default:
		return nil, errors.New().WithData(ErrUnknownDriver, name)
	}
}
