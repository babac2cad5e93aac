//go:build !linux

package track

import "time"

// NewPreciseTicker falls back to the portable time.Ticker-based Ticker on
// platforms without a timerfd-backed precision source.
func NewPreciseTicker(period time.Duration) (Ticker, error) {
	return NewTicker(period), nil
}
