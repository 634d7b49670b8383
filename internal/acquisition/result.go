package acquisition

// Result summarizes the reads attempted in one cycle
type Result int

const (
	NoStatement Result = iota
	Success
	Failure
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "no_statement"
	}
}

// Merge folds one read outcome into the cycle result. The first outcome sets
// the result; afterwards only a Failure can change, and only to Success.
// A Success is never downgraded by a later failure in the same cycle.
func Merge(acc Result, ok bool) Result {
	switch {
	case acc == NoStatement && ok:
		return Success
	case acc == NoStatement:
		return Failure
	case acc == Failure && ok:
		return Success
	default:
		return acc
	}
}
