package track

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// timerfdTicker is a Ticker backed by a Linux timerfd, read from a
// dedicated goroutine. It trades the jitter of time.Ticker's runtime-timer
// wheel for the kernel's own high-resolution timer, which is what the
// 58us half-bit period needs in practice on a loaded Pi.
type timerfdTicker struct {
	fd   int
	c    chan struct{}
	done chan struct{}
}

// NewPreciseTicker opens a CLOCK_MONOTONIC timerfd firing every period and
// sends one signal on the Ticker channel per timerfd read; the expiration
// count a read returns is not used, so expirations that pile up between
// reads yield a single tick.
func NewPreciseTicker(period time.Duration) (Ticker, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return nil, fmt.Errorf("track: timerfd_create: %w", err)
	}
	spec := &unix.ItimerSpec{
		Interval: unix.NsecToTimespec(period.Nanoseconds()),
		Value:    unix.NsecToTimespec(period.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, spec, nil); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("track: timerfd_settime: %w", err)
	}
	tt := &timerfdTicker{
		fd:   fd,
		c:    make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go tt.pump()
	return tt, nil
}

func (tt *timerfdTicker) pump() {
	buf := make([]byte, 8)
	for {
		n, err := unix.Read(tt.fd, buf)
		if err != nil || n != 8 {
			select {
			case <-tt.done:
				return
			default:
				continue
			}
		}
		select {
		case tt.c <- struct{}{}:
		default:
		}
		select {
		case <-tt.done:
			return
		default:
		}
	}
}

func (tt *timerfdTicker) C() <-chan struct{} { return tt.c }

func (tt *timerfdTicker) Stop() {
	close(tt.done)
	unix.Close(tt.fd)
}
