package ecu

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
)

const (
	simCrankDuration = 2 * time.Second
	simWarmUpSeconds = 120.0
	simIdleRPM       = 850
	simRevRange      = 2500.0
	simRPMLimit      = 5720
	simFuelMapIndex  = 1
)

// SimDriver generates a simulated 14CUX engine for bench use and demos.
// The engine cranks briefly after Connect, then idles and revs on a slow cycle
// while coolant and fuel temperatures warm up.
type SimDriver struct {
	mu          sync.Mutex
	rng         *rand.Rand
	failureRate float64
	failConnect bool
	now         func() time.Time
	device      string
	connected   bool
	started     time.Time
	faults      FaultSet
}

// NewSimDriver creates a simulated driver
func NewSimDriver(opts Options) *SimDriver {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimDriver{
		rng:         rand.New(rand.NewSource(seed)), //nolint:gosec // simulation only
		failureRate: opts.FailureRate,
		failConnect: opts.FailConnect,
		now:         time.Now,
		faults:      FaultSet(0).With(FaultPurgeValveLeak),
	}
}

// SetClock replaces the time source; used to drive the simulation deterministically
func (d *SimDriver) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// SetFaults replaces the simulated fault set
func (d *SimDriver) SetFaults(faults FaultSet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faults = faults
}

func (d *SimDriver) Connect(device string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if device == "" {
		return errors.New().New(ErrInvalidDevice)
	}
	if d.failConnect {
		return errors.New().WithData(ErrConnectFailed, device)
	}

	d.device = device
	d.connected = true
	d.started = d.now()

	return nil
}

func (d *SimDriver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return errors.New().New(ErrNotConnected)
	}
	d.connected = false

	return nil
}

func (d *SimDriver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// read checks the link and injects transient failures, returning the
// simulated time since connect in seconds.
func (d *SimDriver) read() (float64, error) {
	errFactory := errors.New()

	if !d.connected {
		return 0, errFactory.New(ErrNotConnected)
	}
	if d.failureRate > 0 && d.rng.Float64() < d.failureRate {
		return 0, errFactory.New(ErrReadFailed)
	}

	return d.now().Sub(d.started).Seconds(), nil
}

func (d *SimDriver) rpmAt(t float64) uint16 {
	if t < simCrankDuration.Seconds() {
		return 0
	}
	s := math.Sin(t * 0.3)
	return uint16(simIdleRPM + simRevRange*s*s)
}

// throttleAt returns the throttle opening in percent
func (d *SimDriver) throttleAt(t float64) float64 {
	rpm := d.rpmAt(t)
	if rpm <= simIdleRPM {
		return 0
	}
	return clampPercent((float64(rpm) - simIdleRPM) / simRevRange * 100)
}

func (d *SimDriver) roadSpeedAt(t float64) uint8 {
	return uint8(d.throttleAt(t) * 0.9)
}

func (d *SimDriver) warmUp(t, from, to float64) int16 {
	frac := math.Min(t/simWarmUpSeconds, 1)
	return int16(from + (to-from)*frac)
}

func (d *SimDriver) TuneRevision() (TuneRevision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return TuneRevision{}, err
	}
	return TuneRevision{Tune: 0x3360, ChecksumFixer: 0x2A, Ident: 0x0D}, nil
}

func (d *SimDriver) MAFReading(airflow AirflowType) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	pct := 8 + d.throttleAt(t)*0.8
	if airflow == AirflowDirect {
		pct *= 0.95
	}
	return clampPercent(pct), nil
}

func (d *SimDriver) ThrottlePosition(throttle ThrottlePosType) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	pos := d.throttleAt(t)
	if throttle == ThrottleAbsolute {
		// absolute readings include the closed-throttle pot offset
		pos = clampPercent(pos + 3.5)
	}
	return pos, nil
}

func (d *SimDriver) LambdaTrimShort(bank Bank) (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	phase := 0.0
	if bank == BankEven {
		phase = math.Pi / 2
	}
	return int16(12 * math.Sin(t*2+phase)), nil
}

func (d *SimDriver) LambdaTrimLong(bank Bank) (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return 0, err
	}
	if bank == BankEven {
		return -3, nil
	}
	return 4, nil
}

func (d *SimDriver) EngineRPM() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	return d.rpmAt(t), nil
}

// RPMLimit is only populated once the spark interrupt has run
func (d *SimDriver) RPMLimit() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	if d.rpmAt(t) == 0 {
		return 0, errors.New().New(ErrNotYetAvailable)
	}
	return simRPMLimit, nil
}

func (d *SimDriver) FuelMapRowIndex() (uint8, uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, 0, err
	}
	pos := float64(d.rpmAt(t)) / 6000 * (FuelMapRows - 1)
	return uint8(pos), uint8((pos - math.Floor(pos)) * 15), nil
}

func (d *SimDriver) FuelMapColumnIndex() (uint8, uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, 0, err
	}
	pos := d.throttleAt(t) / 100 * (FuelMapColumns - 1)
	return uint8(pos), uint8((pos - math.Floor(pos)) * 15), nil
}

// InjectorPulseWidth returns the pulse width in microseconds
func (d *SimDriver) InjectorPulseWidth() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	if d.rpmAt(t) == 0 {
		return 0, nil
	}
	return uint16(1800 + d.throttleAt(t)*60), nil
}

func (d *SimDriver) IdleBypassPosition() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	if d.throttleAt(t) > 0 {
		return 15, nil
	}
	// the stepper opens further while cold
	return clampPercent(40 - float64(d.warmUp(t, 0, 25))), nil
}

func (d *SimDriver) MainVoltage() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	if d.rpmAt(t) == 0 {
		return 11.9, nil
	}
	return 13.9 + 0.2*math.Sin(t), nil
}

func (d *SimDriver) TargetIdle() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	// cold engines idle higher
	return uint16(1150 - int(d.warmUp(t, 0, 300))), nil
}

func (d *SimDriver) IdleMode() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return false, err
	}
	return d.throttleAt(t) == 0, nil
}

func (d *SimDriver) FuelPumpRelay() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return false, err
	}
	return true, nil
}

func (d *SimDriver) GearSelection() (Gear, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return GearNoReading, err
	}
	if d.roadSpeedAt(t) == 0 {
		return GearParkOrNeutral, nil
	}
	return GearDriveOrReverse, nil
}

func (d *SimDriver) RoadSpeed() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	return d.roadSpeedAt(t), nil
}

// CoolantTemp returns the coolant temperature in Fahrenheit
func (d *SimDriver) CoolantTemp() (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	return d.warmUp(t, 60, 190), nil
}

// FuelTemp returns the fuel rail temperature in Fahrenheit
func (d *SimDriver) FuelTemp() (int16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.read()
	if err != nil {
		return 0, err
	}
	return d.warmUp(t, 62, 105), nil
}

func (d *SimDriver) MILOn() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return false, err
	}
	return !d.faults.Empty(), nil
}

func (d *SimDriver) CurrentFuelMap() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return 0, err
	}
	return simFuelMapIndex, nil
}

func (d *SimDriver) FuelMap(index uint8) (FuelMap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return FuelMap{}, err
	}

	fm := FuelMap{Index: index, AdjustmentFactor: 0x5A00}
	for row := 0; row < FuelMapRows; row++ {
		for col := 0; col < FuelMapColumns; col++ {
			fm.Data[row][col] = uint8(0x20 + row*0x10 + col*4 + int(index))
		}
	}
	return fm, nil
}

func (d *SimDriver) COTrimVoltage() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return 0, err
	}
	return 2.5, nil
}

func (d *SimDriver) FaultCodes() (FaultSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.read(); err != nil {
		return 0, errors.New().Wrap(ErrFaultCodesFailed, err)
	}
	return d.faults, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
