package track

import "trackstation.dev/dcc"

// Pin is a single GPIO output line. Implementations live in the GPIO Track
// Driver (see driver/dcctrack); this package never imports periph.io
// directly so the packet engine, waveform generator, and power supervisor
// stay testable with fakes.
type Pin interface {
	Set(high bool)
}

// CurrentSense is the track's current-sense input, returning a raw reading
// in whatever units the underlying ADC produces. Both the Power Supervisor
// and the service-mode ACK detector read through this single interface.
type CurrentSense interface {
	Read() int
}

// Pins collects the physical lines a Track drives. SignalB always carries
// the toggled half-bit wave; SignalA's role changes with Scheme: the
// anti-phase companion for DualDirection/DualDirectionInverted, or the
// once-per-bit direction line for DirectionBrakeEnable.
type Pins struct {
	SignalA      Pin
	SignalB      Pin
	Enable       Pin
	CurrentSense CurrentSense
}

// Hardware describes how a Track is wired: its pins, its control scheme,
// and the current-sense calibration used by the Power Supervisor.
type Hardware struct {
	Name string
	Pins Pins
	// Scheme selects which pins are toggled per half-bit.
	Scheme dcc.ControlScheme
	// CurrentFactor converts a raw CurrentSense reading into milliamps.
	CurrentFactor float64
	// TriggerMilliamps is the overcurrent threshold the Power Supervisor
	// trips at, already in milliamps (post CurrentFactor conversion).
	TriggerMilliamps float64
}
