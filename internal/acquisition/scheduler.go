package acquisition

// Scheduler tracks when each sample kind was last polled. It is owned by a
// single Acquirer and never shared.
type Scheduler struct {
	catalog  *Catalog
	lastPoll [numSampleKinds]int64
	polled   [numSampleKinds]bool
}

func NewScheduler(catalog *Catalog) *Scheduler {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Scheduler{catalog: catalog}
}

// IsDue reports whether kind should be read at nowMs, and if so marks it as
// polled at nowMs in the same step. A kind rejected by its mode gate is never
// due and its timestamp is left untouched. A kind that has never been polled
// is due as soon as its gate admits it.
func (s *Scheduler) IsDue(kind SampleKind, nowMs int64, mode ModeContext) bool {
	if !s.catalog.Eligible(kind, mode) {
		return false
	}

	if s.polled[kind] && nowMs-s.lastPoll[kind] < s.catalog.Interval(kind) {
		return false
	}

	s.lastPoll[kind] = nowMs
	s.polled[kind] = true

	return true
}

// LastPoll returns the last poll time of kind and whether it was ever polled
func (s *Scheduler) LastPoll(kind SampleKind) (int64, bool) {
	return s.lastPoll[kind], s.polled[kind]
}

// Reset forgets every poll time, so each kind is due again on its next check
func (s *Scheduler) Reset() {
	s.lastPoll = [numSampleKinds]int64{}
	s.polled = [numSampleKinds]bool{}
}
