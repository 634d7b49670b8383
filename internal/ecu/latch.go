package ecu

// Latch holds a value that is written once and never re-acquired
type Latch[T any] struct {
	value T
	set   bool
}

// Set stores v and latches. Later calls are ignored.
func (l *Latch[T]) Set(v T) {
	if l.set {
		return
	}
	l.value = v
	l.set = true
}

// Get returns the latched value and whether it has been set
func (l *Latch[T]) Get() (T, bool) {
	return l.value, l.set
}

// IsSet reports whether the value has been latched
func (l *Latch[T]) IsSet() bool {
	return l.set
}
