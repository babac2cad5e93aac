// Package dcctrack implements the GPIO Track Driver: the periph.io-backed
// track.Pin and track.CurrentSense implementations a Hardware wires its
// signal, enable, and current-sense lines to, plus software SimPin and
// SimCurrentSense stand-ins usable off real hardware.
package dcctrack

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Init initializes the periph.io host drivers. Call once at program
// startup before OpenPin; safe to call more than once.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("dcctrack: host init: %w", err)
	}
	return nil
}

// GPIOPin adapts a periph.io GPIO line, looked up by name (e.g. "GPIO6"),
// to track.Pin.
type GPIOPin struct {
	pin gpio.PinIO
}

// OpenPin looks up name in the periph.io GPIO registry and configures it
// as a low output, the way driver/wshat configures its button inputs by
// name against bcm283x.
func OpenPin(name string) (*GPIOPin, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("dcctrack: no such GPIO pin %q", name)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("dcctrack: configure %q as output: %w", name, err)
	}
	return &GPIOPin{pin: pin}, nil
}

// Set drives the pin high or low.
func (p *GPIOPin) Set(high bool) {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	p.pin.Out(level)
}

// ADCSense adapts a periph.io analog-to-digital input to track.CurrentSense.
// The track-current shunt's ADC (an external chip such as an MCP3008 wired
// over SPI) is constructed by the caller and passed in here rather than
// looked up by name, since periph.io has no built-in ADC registry the way
// it does for GPIO.
type ADCSense struct {
	pin analog.PinADC
}

// NewADCSense wraps pin as a track.CurrentSense.
func NewADCSense(pin analog.PinADC) *ADCSense {
	return &ADCSense{pin: pin}
}

// Read samples the current-sense ADC once, returning its raw reading.
func (s *ADCSense) Read() int {
	sample, err := s.pin.Read()
	if err != nil {
		return 0
	}
	return int(sample.Raw)
}
