package ecu

import "fmt"

// Fault is a single 14CUX fault flag
type Fault uint32

const (
	FaultROMChecksum Fault = 1 << iota
	FaultLambdaSensorOdd
	FaultLambdaSensorEven
	FaultMisfireOdd
	FaultMisfireEven
	FaultAirflowMeter
	FaultTuneResistor
	FaultInjectorOdd
	FaultInjectorEven
	FaultCoolantTempSensor
	FaultThrottlePot
	FaultThrottlePotHiMAFLo
	FaultThrottlePotLoMAFHi
	FaultPurgeValveLeak
	FaultMixtureTooLean
	FaultIntakeAirLeak
	FaultLowFuelPressure
	FaultIdleStepperMotor
	FaultRoadSpeedSensor
	FaultNeutralSwitch
	FaultFuelPressureOrAirLeak
	FaultFuelTempSensor
	FaultBatteryDisconnected
	FaultRAMChecksum
)

// FaultSet is the set of fault flags reported by the ECU
type FaultSet uint32

type FaultConfig struct {
	Fault       Fault
	Code        int
	Description string
}

// faultConfigs is in display order
var faultConfigs = []FaultConfig{
	{FaultROMChecksum, 29, "ECU checksum error"},
	{FaultLambdaSensorOdd, 44, "Lambda sensor (odd)"},
	{FaultLambdaSensorEven, 45, "Lambda sensor (even)"},
	{FaultMisfireOdd, 40, "Misfire (odd)"},
	{FaultMisfireEven, 50, "Misfire (even)"},
	{FaultAirflowMeter, 12, "Airflow meter"},
	{FaultTuneResistor, 21, "Tune resistor out of range"},
	{FaultInjectorOdd, 34, "Injector bank (odd)"},
	{FaultInjectorEven, 36, "Injector bank (even)"},
	{FaultCoolantTempSensor, 14, "Coolant temp sensor"},
	{FaultThrottlePot, 17, "Throttle pot"},
	{FaultThrottlePotHiMAFLo, 18, "Throttle pot hi / MAF lo"},
	{FaultThrottlePotLoMAFHi, 19, "Throttle pot lo / MAF hi"},
	{FaultPurgeValveLeak, 88, "Purge valve leak"},
	{FaultMixtureTooLean, 26, "Mixture too lean"},
	{FaultIntakeAirLeak, 28, "Intake air leak"},
	{FaultLowFuelPressure, 23, "Low fuel pressure"},
	{FaultIdleStepperMotor, 48, "Idle Air Control stepper motor"},
	{FaultRoadSpeedSensor, 68, "Road speed sensor"},
	{FaultNeutralSwitch, 69, "Neutral (gear selector) switch"},
	{FaultFuelPressureOrAirLeak, 58, "Ambiguous: low fuel pressure or air leak"},
	{FaultFuelTempSensor, 15, "Fuel temp sensor"},
	{FaultBatteryDisconnected, 2, "RAM contents unreliable (battery disconnected)"},
	{FaultRAMChecksum, 3, "Bad checksum on battery-backed RAM"},
}

// GetFaultConfig returns the code and description of a fault
func GetFaultConfig(fault Fault) (FaultConfig, bool) {
	for _, cfg := range faultConfigs {
		if cfg.Fault == fault {
			return cfg, true
		}
	}
	return FaultConfig{}, false
}

// Has reports whether f is set
func (s FaultSet) Has(f Fault) bool {
	return uint32(s)&uint32(f) != 0
}

// With returns the set with f added
func (s FaultSet) With(f Fault) FaultSet {
	return s | FaultSet(f)
}

// Empty reports whether no fault is set
func (s FaultSet) Empty() bool {
	return s == 0
}

// Active returns the configs of all set faults in display order
func (s FaultSet) Active() []FaultConfig {
	var active []FaultConfig
	for _, cfg := range faultConfigs {
		if s.Has(cfg.Fault) {
			active = append(active, cfg)
		}
	}
	return active
}

func (c FaultConfig) String() string {
	return fmt.Sprintf("(%02d) %s", c.Code, c.Description)
}
