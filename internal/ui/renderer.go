package ui

import "codeberg.org/mutker/roverdash/internal/ecu"

// Renderer draws the dashboard. Implementations keep what they were last
// given, so a popup stays visible while values underneath are refreshed.
type Renderer interface {
	DrawLayout(units Units)
	DrawValues(snap *ecu.Snapshot, units Units)
	ShowFaults(report FaultReport)
	HideFaults()
	ShowStatus(readOK, heartbeat bool)
	Close() error
}

// FaultSource reads the stored fault codes from the ECU
type FaultSource interface {
	FaultCodes() (ecu.FaultSet, error)
}

// FaultReport is the outcome of one fault-code read. A failed read is kept
// distinct from a read that found no faults.
type FaultReport struct {
	Faults []ecu.FaultConfig
	Err    error
}

const (
	readErrText = "Read Err"
	noFaultText = "No faults"
)

// Lines returns the popup text for the report
func (r FaultReport) Lines() []string {
	if r.Err != nil {
		return []string{readErrText}
	}
	if len(r.Faults) == 0 {
		return []string{noFaultText}
	}

	lines := make([]string, len(r.Faults))
	for i, f := range r.Faults {
		lines[i] = "* " + f.String()
	}
	return lines
}
