// Package dcc implements the NMRA Digital Command Control wire-level
// primitives shared by the packet engine, the service-mode driver, and the
// waveform generator: packet framing, checksums, and the well-known
// idle/reset packets every track defaults to.
package dcc

import "fmt"

// PacketMax is the largest payload a Packet may carry, in bytes, not
// counting the trailing checksum byte.
const PacketMax = 5

// Packet is a DCC packet: up to PacketMax payload bytes followed by one
// XOR-checksum byte. Len counts payload bytes only; Bytes[:Len] is the
// payload and Bytes[Len] is the checksum.
type Packet struct {
	Bytes [PacketMax + 1]byte
	Len   uint8
}

// NewPacket builds a Packet from payload, appending the XOR checksum.
// It panics if payload is too long; callers (schedulePacket) are expected
// to have already rejected oversized payloads so this is never reached in
// the normal command path.
func NewPacket(payload []byte) Packet {
	if len(payload) > PacketMax {
		panic(fmt.Sprintf("dcc: payload too long: %d bytes", len(payload)))
	}
	var p Packet
	var checksum byte
	for i, b := range payload {
		p.Bytes[i] = b
		checksum ^= b
	}
	p.Bytes[len(payload)] = checksum
	p.Len = uint8(len(payload))
	return p
}

// Payload returns the packet's payload bytes, excluding the checksum.
func (p *Packet) Payload() []byte {
	return p.Bytes[:p.Len]
}

// Checksum returns the packet's trailing XOR-checksum byte.
func (p *Packet) Checksum() byte {
	return p.Bytes[p.Len]
}

// Wire returns the full on-wire byte sequence: payload followed by checksum.
func (p *Packet) Wire() []byte {
	return p.Bytes[:p.Len+1]
}

// IdlePacket is broadcast to address 0xFF with a no-op instruction; the
// generator re-transmits it whenever no real packet is pending.
var IdlePacket = NewPacket([]byte{0xFF, 0x00})

// ResetPacket addresses decoder 0x00 with a no-op instruction; service mode
// opens and closes every sequence with bursts of this packet.
var ResetPacket = NewPacket([]byte{0x00, 0x00})

// ControlScheme selects which physical pins the Waveform Generator toggles
// for each half-bit, matching the three wiring schemes a DCC booster H-bridge
// can be built with.
type ControlScheme int

const (
	// DualDirection drives two signal pins in anti-phase.
	DualDirection ControlScheme = iota
	// DualDirectionInverted is DualDirection with both pins inverted.
	DualDirectionInverted
	// DirectionBrakeEnable drives a direction pin from the bit value and
	// holds a separate brake pin according to the same bit.
	DirectionBrakeEnable
)

// Service-mode timing constants, named identically to the original
// firmware's #defines so the ACK-detection algorithm in package service
// reads the same as the spec it implements.
const (
	// AckBaseCount is the number of current-sense samples averaged into
	// the pre-operation baseline.
	AckBaseCount = 20
	// AckSampleCount is the number of current-sense samples taken during
	// the second (verify) round of a service-mode sequence.
	AckSampleCount = 500
	// AckSampleSmoothing is the exponential-smoothing factor applied to
	// the ACK current readings.
	AckSampleSmoothing = 0.3
	// AckSampleThreshold is the smoothed-current delta (in ADC counts)
	// above which a decoder ACK pulse is considered detected.
	AckSampleThreshold = 30.0
)

// Power-supervisor timing constants.
const (
	// CurrentSampleTime is the minimum interval between two Power
	// Supervisor current-sense samples.
	CurrentSampleTime = 1 // milliseconds
	// CurrentSampleSmoothing is the exponential-smoothing factor applied
	// to the Power Supervisor's current reading.
	CurrentSampleSmoothing = 0.01
	// RetryMillis is how long a tripped track stays disabled before the
	// Power Supervisor re-arms it.
	RetryMillis = 1000
)

// MinPreambleBits is the minimum number of '1' bits the Waveform Generator
// must emit before the start bit of every packet.
const MinPreambleBits = 14
