package track

import "time"

// Ticker is a half-bit tick source for RunWaveform. NewPreciseTicker
// returns the best implementation available on the current platform; this
// portable fallback wraps time.Ticker and is accurate enough off hardware
// but jittery under real OS scheduling load.
type Ticker interface {
	C() <-chan struct{}
	Stop()
}

// stdTicker adapts a time.Ticker to the Ticker interface, translating its
// timestamped ticks into the bare struct{} signal RunWaveform expects.
type stdTicker struct {
	t    *time.Ticker
	c    chan struct{}
	done chan struct{}
}

// NewTicker builds a Ticker from the standard library's time.Ticker, firing
// every period. Platforms with a precision source override this via
// NewPreciseTicker (see ticker_linux.go).
func NewTicker(period time.Duration) Ticker {
	st := &stdTicker{
		t:    time.NewTicker(period),
		c:    make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go st.pump()
	return st
}

func (s *stdTicker) pump() {
	for {
		select {
		case <-s.t.C:
			select {
			case s.c <- struct{}{}:
			default:
			}
		case <-s.done:
			return
		}
	}
}

func (s *stdTicker) C() <-chan struct{} { return s.c }

func (s *stdTicker) Stop() {
	s.t.Stop()
	close(s.done)
}
