package acquisition

import (
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
)

// fakeDriver returns canned values and fails the reads named in fail.
// Every read is appended to calls.
type fakeDriver struct {
	fail  map[string]bool
	calls []string

	rpm      uint16
	rpmLimit uint16
	mil      bool
	speed    uint8
	coolant  int16
	fuelMap  uint8
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		fail:     map[string]bool{},
		rpm:      900,
		rpmLimit: 5720,
		speed:    30,
		coolant:  180,
		fuelMap:  1,
	}
}

func (f *fakeDriver) call(name string) error {
	f.calls = append(f.calls, name)
	if f.fail[name] {
		return errors.New().New(ecu.ErrReadFailed)
	}
	return nil
}

func (f *fakeDriver) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeDriver) Connect(string) error { return nil }
func (f *fakeDriver) Disconnect() error    { return nil }
func (f *fakeDriver) Connected() bool      { return true }

func (f *fakeDriver) TuneRevision() (ecu.TuneRevision, error) {
	return ecu.TuneRevision{Tune: 0x3360, Ident: 0x0D}, f.call("tune")
}

func (f *fakeDriver) MAFReading(ecu.AirflowType) (float64, error) { return 12.5, f.call("maf") }

func (f *fakeDriver) ThrottlePosition(ecu.ThrottlePosType) (float64, error) {
	return 4.2, f.call("throttle")
}

func (f *fakeDriver) LambdaTrimShort(b ecu.Bank) (int16, error) {
	return 10 + int16(b), f.call("lambda_short_" + b.String())
}

func (f *fakeDriver) LambdaTrimLong(b ecu.Bank) (int16, error) {
	return 20 + int16(b), f.call("lambda_long_" + b.String())
}

func (f *fakeDriver) EngineRPM() (uint16, error) { return f.rpm, f.call("rpm") }
func (f *fakeDriver) RPMLimit() (uint16, error)  { return f.rpmLimit, f.call("rpm_limit") }

func (f *fakeDriver) FuelMapRowIndex() (uint8, uint8, error) { return 3, 7, f.call("fuel_map_row") }
func (f *fakeDriver) FuelMapColumnIndex() (uint8, uint8, error) {
	return 5, 9, f.call("fuel_map_col")
}

func (f *fakeDriver) InjectorPulseWidth() (uint16, error) { return 2500, f.call("injector") }
func (f *fakeDriver) IdleBypassPosition() (float64, error) { return 30, f.call("idle_bypass") }
func (f *fakeDriver) MainVoltage() (float64, error)        { return 13.9, f.call("voltage") }
func (f *fakeDriver) TargetIdle() (uint16, error)          { return 850, f.call("target_idle") }
func (f *fakeDriver) IdleMode() (bool, error)              { return true, f.call("idle_mode") }
func (f *fakeDriver) FuelPumpRelay() (bool, error)         { return true, f.call("fuel_pump") }

func (f *fakeDriver) GearSelection() (ecu.Gear, error) {
	return ecu.GearDriveOrReverse, f.call("gear")
}

func (f *fakeDriver) RoadSpeed() (uint8, error)    { return f.speed, f.call("road_speed") }
func (f *fakeDriver) CoolantTemp() (int16, error)  { return f.coolant, f.call("coolant") }
func (f *fakeDriver) FuelTemp() (int16, error)     { return 95, f.call("fuel_temp") }
func (f *fakeDriver) MILOn() (bool, error)         { return f.mil, f.call("mil") }
func (f *fakeDriver) CurrentFuelMap() (uint8, error) { return f.fuelMap, f.call("fuel_map_index") }

func (f *fakeDriver) FuelMap(index uint8) (ecu.FuelMap, error) {
	return ecu.FuelMap{Index: index}, f.call("fuel_map")
}

func (f *fakeDriver) COTrimVoltage() (float64, error) { return 2.5, f.call("co_trim") }

func (f *fakeDriver) FaultCodes() (ecu.FaultSet, error) { return 0, f.call("faults") }
