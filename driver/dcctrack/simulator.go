package dcctrack

import "sync/atomic"

// SimPin is a track.Pin that records its level in memory, for bench tests
// and CI environments without real GPIO hardware.
type SimPin struct {
	high atomic.Bool
}

// Set records the pin's level.
func (p *SimPin) Set(high bool) { p.high.Store(high) }

// High reports the pin's last-set level.
func (p *SimPin) High() bool { return p.high.Load() }

// SimCurrentSense is a track.CurrentSense that returns a programmable raw
// reading, for exercising the Power Supervisor and service-mode ACK
// detector without a real track.
type SimCurrentSense struct {
	v atomic.Int64
}

// Read returns the current programmed reading.
func (s *SimCurrentSense) Read() int { return int(s.v.Load()) }

// SetReading programs the value the next Read calls return.
func (s *SimCurrentSense) SetReading(v int) { s.v.Store(int64(v)) }
