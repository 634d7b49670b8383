package ecu

// Bank selects one of the two injector/lambda banks
type Bank int

const (
	BankOdd Bank = iota
	BankEven
)

func (b Bank) String() string {
	if b == BankEven {
		return "even"
	}
	return "odd"
}

// Gear is the automatic gearbox selector position (or the neutral switch on manuals)
type Gear int

const (
	GearNoReading Gear = iota
	GearParkOrNeutral
	GearDriveOrReverse
	GearManualGearbox
)

func (g Gear) String() string {
	switch g {
	case GearParkOrNeutral:
		return "P/N"
	case GearDriveOrReverse:
		return "D/R"
	case GearManualGearbox:
		return "Manual"
	default:
		return "--"
	}
}

// AirflowType selects how the MAF reading is scaled
type AirflowType int

const (
	AirflowLinear AirflowType = iota
	AirflowDirect
)

// ThrottlePosType selects how the throttle position is scaled
type ThrottlePosType int

const (
	ThrottleAbsolute ThrottlePosType = iota
	ThrottleCorrected
)

// FeedbackMode is the fueling feedback mode of the engine
type FeedbackMode int

const (
	ClosedLoop FeedbackMode = iota
	OpenLoop
)

func (m FeedbackMode) String() string {
	if m == OpenLoop {
		return "open"
	}
	return "closed"
}

// LambdaTrimType selects the lambda trim horizon shown on the dashboard
type LambdaTrimType int

const (
	ShortTerm LambdaTrimType = iota
	LongTerm
)

func (l LambdaTrimType) String() string {
	if l == LongTerm {
		return "long"
	}
	return "short"
}

// TuneRevision identifies the tune burned into the ECU PROM
type TuneRevision struct {
	Tune          uint16
	ChecksumFixer uint8
	Ident         uint16
}

const (
	FuelMapRows    = 8
	FuelMapColumns = 16
)

// FuelMap is one of the ECU fuel maps with its adjustment factor
type FuelMap struct {
	Index            uint8
	AdjustmentFactor uint16
	Data             [FuelMapRows][FuelMapColumns]uint8
}
