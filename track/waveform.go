package track

import (
	"runtime"

	"trackstation.dev/dcc"
)

// spinWait yields the processor once while SchedulePacket waits for the
// previous pending packet to be consumed.
func spinWait() {
	runtime.Gosched()
}

// bitPhase identifies where in a packet's bitstream the generator currently
// sits.
type bitPhase int

const (
	phasePreamble bitPhase = iota
	phaseStartBit
	phaseDataBit
	phaseStopBit
)

// waveformState is the tick-goroutine's private state machine. Every field
// here is touched only from RunWaveform's goroutine; the single exception
// is the Track's packetPending/pendingPacket/pendingRepeats triple, which
// this code reads under the atomic discipline documented on Track.
type waveformState struct {
	wave bool // current half-bit level, toggled at the start of every half-bit

	phase        bitPhase
	preambleLeft int
	byteIndex    int // index into pkt.Wire(), valid during phaseDataBit/phaseStopBit
	bitIndex     int // 0 (MSB) .. 7, valid during phaseDataBit
	halfLeft     int // ticks remaining for the bit in flight, both halves

	pkt         dcc.Packet
	repeatsLeft int
	freshPacket bool // true once at startup, before the first real pickup
}

// halfTicksFor returns the number of ticker ticks one half of the given bit
// value occupies: 1 tick for a '1' bit's half (58us at the base tick rate),
// 2 ticks for a '0' bit's half (>=100us), matching the NMRA timing
// requirements encoded in the base tick period chosen by the caller of
// RunWaveform.
func halfTicksFor(bit bool) int {
	if bit {
		return 1
	}
	return 2
}

// RunWaveform drives t's pins from ticks, one call per half-bit tick, until
// stop is closed. It is the "interrupt" side of the packet engine: the
// foreground goroutine stages packets via SchedulePacket and this loop
// bit-clocks whatever is staged (or the idle packet, if nothing is) onto
// the hardware.
//
// Call RunWaveform in its own goroutine, fed by a Ticker at the half-bit
// base rate (58us, the '1'-bit half period; '0' bits simply consume two
// ticks per half instead of one).
func RunWaveform(t *Track, ticks <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticks:
			t.waveformTick()
		}
	}
}

func (t *Track) waveformTick() {
	w := &t.wf
	if w.halfLeft == 0 {
		t.advancePhase()
	}
	// Toggle at the start of each half: every tick of a '1' bit, every
	// other tick of a '0' bit.
	if w.halfLeft%halfTicksFor(w.currentBit()) == 0 {
		w.wave = !w.wave
	}
	w.halfLeft--
	t.drivePins()
}

// currentBit returns the logical bit value (preamble/start/stop bits count
// as '1', '0', '1' respectively) the generator is currently transmitting.
func (w *waveformState) currentBit() bool {
	switch w.phase {
	case phasePreamble:
		return true
	case phaseStartBit:
		return false
	case phaseStopBit:
		return true
	default: // phaseDataBit
		return w.pkt.Bytes[w.byteIndex]&(1<<(7-uint(w.bitIndex))) != 0
	}
}

// advancePhase moves the state machine to the next bit and reloads halfLeft
// for it, picking up a fresh packet at packet boundaries.
func (t *Track) advancePhase() {
	w := &t.wf
	switch w.phase {
	case phasePreamble:
		w.preambleLeft--
		if w.preambleLeft <= 0 {
			w.phase = phaseStartBit
			w.byteIndex = 0
		}
	case phaseStartBit:
		w.phase = phaseDataBit
		w.bitIndex = 0
	case phaseDataBit:
		w.bitIndex++
		if w.bitIndex == 8 {
			w.bitIndex = 0
			w.byteIndex++
			if w.byteIndex > int(w.pkt.Len) {
				w.phase = phaseStopBit
			} else {
				w.phase = phaseStartBit
			}
		}
	case phaseStopBit:
		t.finishPacket()
	}
	w.halfLeft = 2 * halfTicksFor(w.currentBit()) // two equal halves per bit
}

// finishPacket closes out the packet just fully transmitted and picks up
// the next one: a repeat of the same packet, the next pending packet, or
// the idle packet if nothing is staged.
func (t *Track) finishPacket() {
	w := &t.wf
	if w.repeatsLeft > 0 {
		w.repeatsLeft--
		w.phase = phasePreamble
		w.preambleLeft = dcc.MinPreambleBits
		return
	}
	if t.packetPending.Load() {
		w.pkt = t.pendingPacket
		w.repeatsLeft = t.pendingRepeats
		t.packetPending.Store(false)
		w.freshPacket = false
	} else if w.freshPacket {
		w.freshPacket = false
	} else {
		w.pkt = dcc.IdlePacket
		w.repeatsLeft = 0
	}
	w.phase = phasePreamble
	w.preambleLeft = dcc.MinPreambleBits
}

// drivePins maps the current half-bit wave level onto the track's physical
// pins according to its control scheme.
func (t *Track) drivePins() {
	w := &t.wf
	pins := t.hw.Pins
	switch t.hw.Scheme {
	case dcc.DualDirection:
		pins.SignalA.Set(w.wave)
		pins.SignalB.Set(!w.wave)
	case dcc.DualDirectionInverted:
		pins.SignalA.Set(!w.wave)
		pins.SignalB.Set(w.wave)
	case dcc.DirectionBrakeEnable:
		pins.SignalA.Set(w.currentBit())
		pins.SignalB.Set(w.wave)
	}
}
