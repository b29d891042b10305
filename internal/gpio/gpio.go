// Package gpio abstracts the three board pins the daemon touches: the
// mister power relay, the status LED and the mode button.
package gpio

// OutputPin drives a digital output and remembers the last level it set,
// so callers can skip idempotent writes.
type OutputPin interface {
	// Set drives the pin high or low.
	Set(high bool) error
	// High reports the last driven level.
	High() bool
}

// InputPin samples a digital input.
type InputPin interface {
	Read() (bool, error)
}
