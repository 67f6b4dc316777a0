package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
)

// State is the position of the circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// breaker counts consecutive failed exchanges with the quote service.
// MaxFailures in a row open it; after Timeout it lets HalfOpenLimit probes
// through, and that many successes close it again. A failed probe reopens.
type breaker struct {
	cfg config.CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int // in flight while half-open
	passed   int // successful probes
	openedAt time.Time

	onChange func(from, to State)
}

func newBreaker(cfg config.CircuitBreakerConfig, onChange func(from, to State)) *breaker {
	return &breaker{cfg: cfg, now: time.Now, onChange: onChange}
}

// acquire reports whether a request may go out now.
func (b *breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.Timeout {
			return false
		}

		b.move(StateHalfOpen)

		fallthrough
	case StateHalfOpen:
		if b.probes >= b.cfg.HalfOpenLimit {
			return false
		}

		b.probes++

		return true
	default:
		return true
	}
}

// release records the outcome of a request admitted by acquire.
func (b *breaker) release(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if ok {
			b.failures = 0
			return
		}

		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.move(StateOpen)
		}
	case StateHalfOpen:
		if b.probes > 0 {
			b.probes--
		}

		if !ok {
			b.move(StateOpen)
			return
		}

		b.passed++
		if b.passed >= b.cfg.HalfOpenLimit {
			b.move(StateClosed)
		}
	case StateOpen:
		// a request admitted before the breaker opened
	}
}

func (b *breaker) current() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// move must be called with mu held. The callback runs on its own goroutine
// so it may log without holding the lock.
func (b *breaker) move(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.failures, b.probes, b.passed = 0, 0, 0

	if to == StateOpen {
		b.openedAt = b.now()
	}

	if b.onChange != nil {
		go b.onChange(from, to)
	}
}
