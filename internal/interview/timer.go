package interview

import (
	"sync/atomic"
	"time"
)

// Ticker delivers one tick per elapsed second.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func secondTicker() Ticker {
	return realTicker{t: time.NewTicker(time.Second)}
}

// sessionTimer owns the goroutine counting elapsed seconds. It touches only
// the atomic counter, so it can be halted while the session mutex is held.
type sessionTimer struct {
	quit chan struct{}
	done chan struct{}
}

func startTimer(t Ticker, elapsed *atomic.Int64) *sessionTimer {
	st := &sessionTimer{quit: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(st.done)
		defer t.Stop()
		for {
			select {
			case <-st.quit:
				return
			case <-t.C():
				elapsed.Add(1)
			}
		}
	}()
	return st
}

// halt stops the goroutine and waits for it to exit. Safe on nil.
func (st *sessionTimer) halt() {
	if st == nil {
		return
	}
	close(st.quit)
	<-st.done
}
