package track

import (
	"bytes"
	"testing"
	"time"

	"trackstation.dev/dcc"
)

type fakePin struct{ high bool }

func (p *fakePin) Set(high bool) { p.high = high }

type fakeSense struct{ v int }

func (s *fakeSense) Read() int { return s.v }

func newTestTrack(numDev int) (*Track, *fakeSense) {
	sense := &fakeSense{}
	hw := Hardware{
		Name: "test",
		Pins: Pins{
			SignalA:      &fakePin{},
			SignalB:      &fakePin{},
			Enable:       &fakePin{},
			CurrentSense: sense,
		},
		Scheme:           dcc.DualDirection,
		CurrentFactor:    1.0,
		TriggerMilliamps: 1000,
	}
	return New(hw, numDev), sense
}

func TestSchedulePacketRejectsOversized(t *testing.T) {
	trk, _ := newTestTrack(1)
	if err := trk.SchedulePacket(make([]byte, dcc.PacketMax), 0); err != ErrPacketTooLong {
		t.Fatalf("SchedulePacket(oversized) = %v, want ErrPacketTooLong", err)
	}
}

func TestSchedulePacketSetsPending(t *testing.T) {
	trk, _ := newTestTrack(1)
	if err := trk.SchedulePacket([]byte{0x03, 0x3F}, 2); err != nil {
		t.Fatalf("SchedulePacket: %v", err)
	}
	if !trk.packetPending.Load() {
		t.Fatal("packetPending not set after SchedulePacket")
	}
	if trk.pendingRepeats != 2 {
		t.Fatalf("pendingRepeats = %d, want 2", trk.pendingRepeats)
	}
}

func TestSetThrottleEncodingAndSpeedTable(t *testing.T) {
	trk, _ := newTestTrack(4)
	resp, err := trk.SetThrottle(1, 3, 64, true)
	if err != nil {
		t.Fatalf("SetThrottle: %v", err)
	}
	if resp.Speed != 64 || !resp.Direction {
		t.Fatalf("response = %+v, want speed 64 forward", resp)
	}
	got, ok := trk.Speed(1)
	if !ok || got != 64 {
		t.Fatalf("Speed(1) = %d,%v, want 64,true", got, ok)
	}
	// Short address 3, 128-step instruction, 64+1 with the direction bit.
	if p, want := trk.pendingPacket.Payload(), []byte{0x03, 0x3F, 0xC1}; !bytes.Equal(p, want) {
		t.Fatalf("payload = % x, want % x", p, want)
	}
	// Stand in for the waveform generator consuming the staged packet, so
	// the next SchedulePacket does not wait on the slot.
	trk.packetPending.Store(false)

	// cab > 127 uses the two-byte extended address form.
	_, err = trk.SetThrottle(2, 1000, 50, false)
	if err != nil {
		t.Fatalf("SetThrottle(extended): %v", err)
	}
	// 1000 = 0x03E8: high byte 0x03|0xC0, low byte 0xE8; speed 50+1, reverse.
	if p, want := trk.pendingPacket.Payload(), []byte{0xC3, 0xE8, 0x3F, 0x33}; !bytes.Equal(p, want) {
		t.Fatalf("payload = % x, want % x", p, want)
	}
	got, ok = trk.Speed(2)
	if !ok || got != -50 {
		t.Fatalf("Speed(2) = %d,%v, want -50,true", got, ok)
	}
}

func TestSetThrottleOutOfRange(t *testing.T) {
	trk, _ := newTestTrack(1)
	if _, err := trk.SetThrottle(5, 3, 10, true); err != ErrOutOfRange {
		t.Fatalf("SetThrottle(out of range) = %v, want ErrOutOfRange", err)
	}
}

func TestSetAccessoryEncoding(t *testing.T) {
	trk, _ := newTestTrack(1)
	if err := trk.SetAccessory(22, 2, true); err != nil {
		t.Fatalf("SetAccessory: %v", err)
	}
	want0 := byte(22%64) + 128
	if trk.pendingPacket.Bytes[0] != want0 {
		t.Errorf("byte0 = %#x, want %#x", trk.pendingPacket.Bytes[0], want0)
	}
}

func TestCheckPowerTripsAndRetries(t *testing.T) {
	trk, sense := newTestTrack(1)
	trk.PowerOn()
	if trk.Tripped() {
		t.Fatal("track tripped immediately after PowerOn")
	}

	sense.v = 100000 // drive the smoothed reading well above trigger
	base := time.Unix(0, 0)
	for i := 0; i < 2000 && !trk.Tripped(); i++ {
		trk.CheckPower(base.Add(time.Duration(i) * 2 * time.Millisecond))
	}
	if !trk.Tripped() {
		t.Fatal("track did not trip on sustained overcurrent")
	}

	// Let the smoothed reading fall back below the trigger (400 samples,
	// 800ms) while still inside RetryMillis of the trip.
	sense.v = 0
	tripTime := trk.lastTripTime
	for i := 1; i <= 400; i++ {
		trk.CheckPower(tripTime.Add(time.Duration(i) * 2 * time.Millisecond))
	}
	if !trk.Tripped() {
		t.Fatal("track re-armed before RetryMillis elapsed")
	}
	trk.CheckPower(tripTime.Add(2 * time.Second))
	if trk.Tripped() {
		t.Fatal("track did not re-arm after RetryMillis and current recovery")
	}
}

func TestGetLastRead(t *testing.T) {
	trk, sense := newTestTrack(1)
	sense.v = 500
	trk.CheckPower(time.Unix(1, 0))
	if trk.GetLastRead() <= 0 {
		t.Fatalf("GetLastRead() = %v, want > 0 after a sample", trk.GetLastRead())
	}
}
