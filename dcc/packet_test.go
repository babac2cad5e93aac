package dcc

import "testing"

func TestNewPacketChecksum(t *testing.T) {
	cases := []struct {
		payload []byte
		want    byte
	}{
		{[]byte{0x00, 0x00}, 0x00},
		{[]byte{0xFF, 0x00}, 0xFF},
		{[]byte{0x03, 0x3F, 0x42}, 0x03 ^ 0x3F ^ 0x42},
		{[]byte{0xC1, 0x02, 0x3F, 0x81}, 0xC1 ^ 0x02 ^ 0x3F ^ 0x81},
	}
	for _, c := range cases {
		p := NewPacket(c.payload)
		if got := p.Checksum(); got != c.want {
			t.Errorf("NewPacket(%v).Checksum() = %#x, want %#x", c.payload, got, c.want)
		}
		wire := p.Wire()
		if len(wire) != len(c.payload)+1 {
			t.Fatalf("Wire() length = %d, want %d", len(wire), len(c.payload)+1)
		}
		var xor byte
		for _, b := range wire[:len(wire)-1] {
			xor ^= b
		}
		if xor != wire[len(wire)-1] {
			t.Errorf("wire checksum invariant violated: %v", wire)
		}
	}
}

func TestNewPacketTooLong(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for oversized payload")
		}
	}()
	NewPacket(make([]byte, PacketMax+1))
}

func TestWellKnownPackets(t *testing.T) {
	if got := IdlePacket.Wire(); got[0] != 0xFF || got[1] != 0x00 || got[2] != 0xFF {
		t.Errorf("IdlePacket.Wire() = %v, want [FF 00 FF]", got)
	}
	if got := ResetPacket.Wire(); got[0] != 0x00 || got[1] != 0x00 || got[2] != 0x00 {
		t.Errorf("ResetPacket.Wire() = %v, want [00 00 00]", got)
	}
}
