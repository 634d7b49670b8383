package acquisition

import (
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/logger"
)

// ReadOptions selects the scaling the ECU applies to some readings
type ReadOptions struct {
	Airflow  ecu.AirflowType
	Throttle ecu.ThrottlePosType
}

// Acquirer runs polling cycles against an ECU driver. It owns the poll
// schedule and the RPM-limit latch, which outlives reconnections.
type Acquirer struct {
	driver    ecu.Driver
	scheduler *Scheduler
	opts      ReadOptions
	logger    logger.Logger

	rpmLimit ecu.Latch[uint16]
}

func NewAcquirer(driver ecu.Driver, catalog *Catalog, opts ReadOptions, log logger.Logger) *Acquirer {
	if log == nil {
		log = logger.Nop()
	}
	return &Acquirer{
		driver:    driver,
		scheduler: NewScheduler(catalog),
		opts:      opts,
		logger:    log,
	}
}

// Scheduler exposes the poll schedule for inspection
func (a *Acquirer) Scheduler() *Scheduler {
	return a.scheduler
}

// Reconnected clears the poll schedule after the link was re-established.
// The RPM limit stays latched.
func (a *Acquirer) Reconnected() {
	a.scheduler.Reset()
}

// RunCycle performs one polling pass at nowMs and returns the merged result.
// Each field is written to snap only when its own read succeeds.
func (a *Acquirer) RunCycle(snap *ecu.Snapshot, mode ModeContext, nowMs int64) Result {
	result := NoStatement

	// retried every cycle until read once; not part of the cycle result
	if !snap.Tune.IsSet() {
		if tune, err := a.driver.TuneRevision(); err == nil {
			snap.Tune.Set(tune)
			a.logger.Info().
				Uint16("tune", tune.Tune).
				Uint8("checksum_fixer", tune.ChecksumFixer).
				Uint16("ident", tune.Ident).
				Msg("Tune revision read")
		} else {
			a.failed("tune_revision", err)
		}
	}

	for _, kind := range SampleKinds() {
		if !a.scheduler.IsDue(kind, nowMs, mode) {
			continue
		}
		result = a.read(kind, snap, result)
	}

	if limit, ok := a.rpmLimit.Get(); ok {
		snap.RPMLimit.Set(limit)
	}

	a.logger.Debug().
		Int64("now_ms", nowMs).
		Str("result", result.String()).
		Msg("Cycle complete")

	return result
}

func (a *Acquirer) read(kind SampleKind, snap *ecu.Snapshot, result Result) Result {
	d := a.driver

	switch kind {
	case EngineTemperature:
		result = a.merge(kind, result, readInto(d.CoolantTemp, &snap.CoolantTempF))

	case RoadSpeed:
		result = a.merge(kind, result, readInto(d.RoadSpeed, &snap.RoadSpeedMPH))

	case EngineRPM:
		err := readInto(d.EngineRPM, &snap.EngineSpeedRPM)
		result = a.merge(kind, result, err)
		if err == nil {
			a.readRPMLimit(snap)
		}

	case FuelTemperature:
		result = a.merge(kind, result, readInto(d.FuelTemp, &snap.FuelTempF))

	case MAF:
		v, err := d.MAFReading(a.opts.Airflow)
		if err == nil {
			snap.MAFReading = v
		}
		result = a.merge(kind, result, err)

	case Throttle:
		v, err := d.ThrottlePosition(a.opts.Throttle)
		if err == nil {
			snap.ThrottlePos = v
		}
		result = a.merge(kind, result, err)

	case IdleBypassPosition:
		result = a.merge(kind, result, readInto(d.IdleBypassPosition, &snap.IdleBypassPos))

	case TargetIdleRPM:
		result = a.merge(kind, result, readInto(d.TargetIdle, &snap.TargetIdleRPM))
		result = a.merge(kind, result, readInto(d.IdleMode, &snap.IdleMode))

	case GearSelection:
		result = a.merge(kind, result, readInto(d.GearSelection, &snap.Gear))

	case MainVoltage:
		result = a.merge(kind, result, readInto(d.MainVoltage, &snap.MainVoltage))

	case LambdaTrimShort:
		result = a.merge(kind, result, readBank(d.LambdaTrimShort, ecu.BankOdd, &snap.LambdaTrimOdd))
		result = a.merge(kind, result, readBank(d.LambdaTrimShort, ecu.BankEven, &snap.LambdaTrimEven))

	case LambdaTrimLong:
		result = a.merge(kind, result, readBank(d.LambdaTrimLong, ecu.BankOdd, &snap.LambdaTrimOdd))
		result = a.merge(kind, result, readBank(d.LambdaTrimLong, ecu.BankEven, &snap.LambdaTrimEven))

	case COTrimVoltage:
		result = a.merge(kind, result, readInto(d.COTrimVoltage, &snap.COTrimVoltage))

	case FuelPumpRelay:
		result = a.merge(kind, result, readInto(d.FuelPumpRelay, &snap.FuelPumpRelayOn))

	case FuelMapRowCol:
		row, rowWeight, err := d.FuelMapRowIndex()
		if err == nil {
			snap.FuelMapRow, snap.FuelMapRowWeight = row, rowWeight
		}
		result = a.merge(kind, result, err)

		col, colWeight, err := d.FuelMapColumnIndex()
		if err == nil {
			snap.FuelMapCol, snap.FuelMapColWeight = col, colWeight
		}
		result = a.merge(kind, result, err)

	case FuelMapData:
		fm, err := d.FuelMap(snap.FuelMapIndex)
		if err == nil {
			snap.FuelMap = &fm
		}
		result = a.merge(kind, result, err)

	case FuelMapIndex:
		idx, err := d.CurrentFuelMap()
		if err == nil {
			if !snap.FuelMapIndexRead || idx != snap.FuelMapIndex {
				a.logger.Info().Uint8("fuel_map", idx).Msg("Fuel map index changed")
			}
			snap.FuelMapIndex = idx
			snap.FuelMapIndexRead = true
		}
		result = a.merge(kind, result, err)

	case InjectorPulseWidth:
		err := readInto(d.InjectorPulseWidth, &snap.InjectorPulseWidthUs)
		snap.InjectorPulseWidthMs = float64(snap.InjectorPulseWidthUs) / 1000.0
		result = a.merge(kind, result, err)

	case MIL:
		// an unreadable lamp is shown as off rather than stale
		err := readInto(d.MILOn, &snap.MILOn)
		if err != nil {
			snap.MILOn = false
		}
		result = a.merge(kind, result, err)
	}

	return result
}

// readRPMLimit tries the RPM limit once the engine has turned over. The ECU
// only fills it in after the spark interrupt has run at least once.
func (a *Acquirer) readRPMLimit(snap *ecu.Snapshot) {
	if a.rpmLimit.IsSet() || snap.EngineSpeedRPM == 0 {
		return
	}

	limit, err := a.driver.RPMLimit()
	if err != nil {
		a.failed("rpm_limit", err)
		return
	}

	a.rpmLimit.Set(limit)
	snap.RPMLimit.Set(limit)
	a.logger.Info().Uint16("rpm_limit", limit).Msg("RPM limit read")
}

func (a *Acquirer) merge(kind SampleKind, acc Result, err error) Result {
	if err != nil {
		a.failed(kind.String(), err)
	}
	return Merge(acc, err == nil)
}

func (a *Acquirer) failed(sample string, err error) {
	a.logger.Debug().Str("sample", sample).Err(err).Msg("Read failed")
}

func readInto[T any](read func() (T, error), dst *T) error {
	v, err := read()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func readBank(read func(ecu.Bank) (int16, error), bank ecu.Bank, dst *int16) error {
	v, err := read(bank)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
