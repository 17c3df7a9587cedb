package upstream

import (
	"errors"
	"sync"
	"time"
)

// ErrGatewayUnavailable is returned while the breaker holds the gateway
// open after repeated upstream failures.
var ErrGatewayUnavailable = errors.New("upstream gateway unavailable")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker sheds load from a failing upstream endpoint. After
// failureThreshold consecutive failures it rejects calls outright for
// cooldown, then lets a single probe through; the probe's outcome decides
// whether the gateway reopens or the cooldown restarts.
type Breaker struct {
	failureThreshold int
	cooldown         time.Duration

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	probing  bool
}

func NewBreaker(failureThreshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
	}
}

// Do runs fn unless the breaker is open. fn's error is passed through,
// so callers keep dispatching on their own sentinels.
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrGatewayUnavailable
	}

	err := fn()
	b.record(err == nil)
	return err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.probing = true
		return true
	default: // half-open
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.probing = false
		if ok {
			b.state = breakerClosed
			b.failures = 0
		} else {
			b.state = breakerOpen
			b.openedAt = time.Now()
		}
		return
	}

	if ok {
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = breakerOpen
		b.openedAt = time.Now()
	}
}
