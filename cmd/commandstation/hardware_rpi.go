//go:build linux && arm

package main

import (
	"fmt"

	"trackstation.dev/dcc"
	"trackstation.dev/driver/dcctrack"
	"trackstation.dev/track"
)

// Pin names for a two-track booster HAT: each track gets a DualDirection
// pair plus an enable line; current sense is read through an external ADC
// wired over SPI (not modeled here; ReadCurrentSense callers on real
// hardware should supply an analog.PinADC-backed dcctrack.ADCSense).
const (
	mainSignalA = "GPIO5"
	mainSignalB = "GPIO6"
	mainEnable  = "GPIO13"

	progSignalA = "GPIO19"
	progSignalB = "GPIO26"
	progEnable  = "GPIO21"
)

func openPlatformHardware() (main, prog track.Hardware, err error) {
	if err := dcctrack.Init(); err != nil {
		return track.Hardware{}, track.Hardware{}, err
	}
	main, err = openTrackHardware("main", mainSignalA, mainSignalB, mainEnable, 2500)
	if err != nil {
		return track.Hardware{}, track.Hardware{}, fmt.Errorf("main track: %w", err)
	}
	prog, err = openTrackHardware("prog", progSignalA, progSignalB, progEnable, 300)
	if err != nil {
		return track.Hardware{}, track.Hardware{}, fmt.Errorf("programming track: %w", err)
	}
	return main, prog, nil
}

func openTrackHardware(name, sigA, sigB, enable string, triggerMA float64) (track.Hardware, error) {
	a, err := dcctrack.OpenPin(sigA)
	if err != nil {
		return track.Hardware{}, err
	}
	b, err := dcctrack.OpenPin(sigB)
	if err != nil {
		return track.Hardware{}, err
	}
	en, err := dcctrack.OpenPin(enable)
	if err != nil {
		return track.Hardware{}, err
	}
	return track.Hardware{
		Name: name,
		Pins: track.Pins{
			SignalA: a,
			SignalB: b,
			Enable:  en,
			// CurrentSense is a software SimCurrentSense, which reads 0
			// unless programmed, so on this wiring neither the Power
			// Supervisor nor service-mode ACK detection sees real track
			// current.
			CurrentSense: &dcctrack.SimCurrentSense{},
		},
		Scheme:           dcc.DualDirection,
		CurrentFactor:    1.0,
		TriggerMilliamps: triggerMA,
	}, nil
}
