// Package track implements one DCC track output: the packet engine that
// assembles and schedules packets, the waveform generator that bit-clocks
// them onto the hardware, and the power supervisor that arms/trips the
// track's enable line on overcurrent.
//
// A Track is driven by exactly two goroutines: the "foreground" goroutine
// that calls the packet-engine methods and CheckPower, and the "interrupt"
// goroutine (RunWaveform) that consumes ticks from a Ticker. The two
// communicate only through the single pending-packet slot, guarded by
// packetPending; see waveform.go.
package track

import (
	"errors"
	"sync/atomic"
	"time"

	"trackstation.dev/dcc"
)

// ErrOutOfRange is returned when a throttle device index falls outside the
// track's configured capacity.
var ErrOutOfRange = errors.New("track: device index out of range")

// ErrPacketTooLong is returned by SchedulePacket when the caller asks for a
// payload of PacketMax bytes or more.
var ErrPacketTooLong = errors.New("track: packet payload too long")

// ThrottleResponse echoes the effective values of a setThrottle call, for
// the command parser to format into a <T ...> response.
type ThrottleResponse struct {
	Device    uint8
	Speed     uint8
	Direction bool
}

// Track is one DCC signal output: main operations track or programming
// track, both built from the same engine.
type Track struct {
	hw     Hardware
	numDev int

	// speedTable is written and read only by the foreground goroutine
	// (setThrottle and the status dump share a single goroutine by
	// construction; see cmd/commandstation).
	speedTable []int

	// Packet engine shared slot. packetPending is the only field the
	// foreground and waveform goroutines both touch; see waveform.go for
	// the ordering discipline.
	packetPending  atomic.Bool
	pendingPacket  dcc.Packet
	pendingRepeats int

	// Waveform generator state, owned exclusively by RunWaveform's
	// goroutine.
	wf waveformState

	// Power supervisor state, foreground-only.
	reading       float64
	currentMA     float64
	tripped       bool
	lastTripTime  time.Time
	lastCheckTime time.Time
}

// New constructs a Track with the given hardware wiring and device
// capacity. numDev must be at least 1; speedTable is sized numDev+1 so
// device indices are 1-based and index 0 stays unused, matching the
// original firmware's register numbering.
func New(hw Hardware, numDev int) *Track {
	if numDev < 1 {
		numDev = 1
	}
	t := &Track{
		hw:         hw,
		numDev:     numDev,
		speedTable: make([]int, numDev+1),
	}
	t.wf.pkt = dcc.IdlePacket
	t.wf.preambleLeft = dcc.MinPreambleBits
	t.wf.halfLeft = 2 * halfTicksFor(true) // first preamble bit already in flight
	t.wf.freshPacket = true
	return t
}

// NumDev returns the track's configured device capacity.
func (t *Track) NumDev() int {
	return t.numDev
}

// Speed returns the signed speed memory for device n (sign encodes
// direction, magnitude encodes 0..126), and whether n is in range.
func (t *Track) Speed(n int) (int, bool) {
	if n < 1 || n > t.numDev {
		return 0, false
	}
	return t.speedTable[n], true
}

// SchedulePacket stages a packet for pickup by the waveform generator. It
// rejects payloads of PacketMax bytes or more, then busy-waits (yielding to
// the scheduler) until the previous pending packet has been consumed,
// matching the original firmware's `while(packetPending);` spin — bounded
// in practice because the generator drains the slot at least once per
// packet's wire time (single-digit milliseconds worst case).
func (t *Track) SchedulePacket(payload []byte, repeats int) error {
	if len(payload) >= dcc.PacketMax {
		return ErrPacketTooLong
	}
	for t.packetPending.Load() {
		spinWait()
	}
	t.pendingPacket = dcc.NewPacket(payload)
	t.pendingRepeats = repeats
	t.packetPending.Store(true)
	return nil
}

// SetThrottle assembles and schedules a 128-step speed packet for cab on
// device nDev.
func (t *Track) SetThrottle(nDev int, cab uint16, speed int8, direction bool) (ThrottleResponse, error) {
	if nDev < 1 || nDev > t.numDev {
		return ThrottleResponse{}, ErrOutOfRange
	}
	var b []byte
	b = appendCabAddress(b, cab)
	b = append(b, 0x3F) // 128-step speed control
	var reportedSpeed uint8
	if speed >= 0 {
		s := uint8(speed)
		var dirBit uint8
		if direction {
			dirBit = 1
		}
		var nonZero uint8
		if s > 0 {
			nonZero = 1
		}
		b = append(b, s+nonZero+dirBit*128)
		reportedSpeed = s
	} else {
		b = append(b, 1) // emergency stop
		reportedSpeed = 0
	}
	if err := t.SchedulePacket(b, 0); err != nil {
		return ThrottleResponse{}, err
	}
	if direction {
		t.speedTable[nDev] = int(reportedSpeed)
	} else {
		t.speedTable[nDev] = -int(reportedSpeed)
	}
	return ThrottleResponse{Device: uint8(nDev), Speed: reportedSpeed, Direction: direction}, nil
}

// SetFunctionGroup1 sends the two-byte F0-F12 function instruction.
func (t *Track) SetFunctionGroup1(cab uint16, byte1 uint8) error {
	var b []byte
	b = appendCabAddress(b, cab)
	b = append(b, (byte1|0x80)&0xBF)
	return t.SchedulePacket(b, 4)
}

// SetFunctionGroup2 sends the three-byte F13-F28 function instruction.
func (t *Track) SetFunctionGroup2(cab uint16, byte1, byte2 uint8) error {
	var b []byte
	b = appendCabAddress(b, cab)
	b = append(b, (byte1|0xDE)&0xDF)
	b = append(b, byte2)
	return t.SchedulePacket(b, 4)
}

// SetAccessory sends a basic accessory decoder packet.
func (t *Track) SetAccessory(address uint16, number uint8, activate bool) error {
	var act uint8
	if activate {
		act = 1
	}
	b0 := byte(address%64) + 128
	b1 := byte((((address/64)%8)<<4)+(uint16(number%4)<<1)+uint16(act)) ^ 0xF8
	return t.SchedulePacket([]byte{b0, b1}, 4)
}

// WriteCvByteMain sends a programming-on-the-main byte write, unverified.
func (t *Track) WriteCvByteMain(cab uint16, cv uint16, value uint8) error {
	cv--
	var b []byte
	b = appendCabAddress(b, cab)
	b = append(b, 0xEC|byte((cv>>8)&0x03), byte(cv&0xFF), value)
	return t.SchedulePacket(b, 4)
}

// WriteCvBitMain sends a programming-on-the-main bit write, unverified.
func (t *Track) WriteCvBitMain(cab uint16, cv uint16, bit, value uint8) error {
	cv--
	value &= 1
	bit &= 7
	var b []byte
	b = appendCabAddress(b, cab)
	b = append(b, 0xE8|byte((cv>>8)&0x03), byte(cv&0xFF), 0xF0|(value<<3)|bit)
	return t.SchedulePacket(b, 4)
}

func appendCabAddress(b []byte, cab uint16) []byte {
	if cab > 127 {
		b = append(b, byte(cab>>8)|0xC0)
	}
	return append(b, byte(cab))
}

// PowerOn asserts the enable pin unconditionally, arming the Power
// Supervisor.
func (t *Track) PowerOn() {
	t.tripped = false
	t.hw.Pins.Enable.Set(true)
}

// PowerOff deasserts the enable pin.
func (t *Track) PowerOff() {
	t.hw.Pins.Enable.Set(false)
}

// GetLastRead returns the smoothed current reading, in milliamps.
func (t *Track) GetLastRead() float64 {
	return t.currentMA
}

// Tripped reports whether the Power Supervisor has the track disabled due
// to overcurrent.
func (t *Track) Tripped() bool {
	return t.tripped
}

// ReadCurrentSense samples the track's current-sense input directly,
// bypassing the Power Supervisor's smoothing. Used by the service-mode ACK
// detector (package service), which needs raw, fast samples rather than the
// slow-smoothed mA reading.
func (t *Track) ReadCurrentSense() int {
	return t.hw.Pins.CurrentSense.Read()
}

// CheckPower runs one Power Supervisor tick: arms, trips, or retries the
// track's enable line based on the current current-sense reading. Call at
// least every CurrentSampleTime; calls closer together than that are
// no-ops.
func (t *Track) CheckPower(now time.Time) {
	if !t.lastCheckTime.IsZero() && now.Sub(t.lastCheckTime) < dcc.CurrentSampleTime*time.Millisecond {
		return
	}
	t.lastCheckTime = now
	sample := float64(t.hw.Pins.CurrentSense.Read())
	t.reading = sample*dcc.CurrentSampleSmoothing + t.reading*(1-dcc.CurrentSampleSmoothing)
	t.currentMA = t.reading * t.hw.CurrentFactor

	switch {
	case t.currentMA > t.hw.TriggerMilliamps && !t.tripped:
		t.PowerOff()
		t.tripped = true
		t.lastTripTime = now
	case t.currentMA < t.hw.TriggerMilliamps && t.tripped:
		if now.Sub(t.lastTripTime) > dcc.RetryMillis*time.Millisecond {
			t.PowerOn()
		}
	}
}
