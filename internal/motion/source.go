package motion

import "github.com/balkashynov/bitelog/internal/models"

// SampleHandler receives samples from a motion source.
type SampleHandler func(models.RawSample)

// StatusHandler receives live connection changes while a source is running.
type StatusHandler func(connected bool)

// Source is an inertial motion device, e.g. headphones with a motion sensor.
// Handlers are invoked from the source's own goroutine.
type Source interface {
	// Available reports whether the hardware can currently deliver samples.
	Available() bool
	Start(onSample SampleHandler, onStatus StatusHandler) error
	Stop()
}
