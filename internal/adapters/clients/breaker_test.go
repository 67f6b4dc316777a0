package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/config"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testBreaker(maxFailures, halfOpen int) (*breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	b := newBreaker(config.CircuitBreakerConfig{MaxFailures: maxFailures, Timeout: 30 * time.Second, HalfOpenLimit: halfOpen}, nil)
	b.now = clock.now

	return b, clock
}

// fail runs n admitted requests that all fail.
func fail(b *breaker, n int) {
	for range n {
		if b.acquire() {
			b.release(false)
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := testBreaker(3, 1)

	fail(b, 2)
	require.Equal(t, StateClosed, b.current())

	require.True(t, b.acquire())
	b.release(true)
	fail(b, 2)
	assert.Equal(t, StateClosed, b.current(), "a success resets the streak")

	fail(b, 1)
	assert.Equal(t, StateOpen, b.current())
	assert.False(t, b.acquire())
}

func TestBreaker_HalfOpenProbes(t *testing.T) {
	tests := []struct {
		name    string
		results []bool
		want    State
	}{
		{"all probes pass", []bool{true, true}, StateClosed},
		{"first probe fails", []bool{false}, StateOpen},
		{"second probe fails", []bool{true, false}, StateOpen},
		{"one of two passed", []bool{true}, StateHalfOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := testBreaker(1, 2)
			fail(b, 1)
			require.Equal(t, StateOpen, b.current())

			clock.advance(29 * time.Second)
			require.False(t, b.acquire(), "still cooling down")

			clock.advance(time.Second)

			for _, ok := range tt.results {
				require.True(t, b.acquire())
				b.release(ok)
			}

			assert.Equal(t, tt.want, b.current())
		})
	}
}

func TestBreaker_HalfOpenLimitsInFlight(t *testing.T) {
	b, clock := testBreaker(1, 2)
	fail(b, 1)
	clock.advance(time.Minute)

	assert.True(t, b.acquire())
	assert.True(t, b.acquire())
	assert.False(t, b.acquire(), "limit reached while probes are in flight")

	b.release(true)
	assert.True(t, b.acquire(), "a finished probe frees a slot")
}

func TestBreaker_ReopenRestartsCooldown(t *testing.T) {
	b, clock := testBreaker(1, 1)
	fail(b, 1)

	clock.advance(30 * time.Second)
	require.True(t, b.acquire())
	b.release(false)

	clock.advance(10 * time.Second)
	assert.False(t, b.acquire())

	clock.advance(20 * time.Second)
	assert.True(t, b.acquire())
}

func TestBreaker_ReportsTransitions(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		wg   sync.WaitGroup
	)

	wg.Add(3)

	b := newBreaker(config.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Nanosecond, HalfOpenLimit: 1}, func(from, to State) {
		defer wg.Done()

		mu.Lock()
		seen = append(seen, from.String()+">"+to.String())
		mu.Unlock()
	})

	fail(b, 1)
	time.Sleep(time.Millisecond)
	require.True(t, b.acquire())
	b.release(true)

	wg.Wait()

	assert.ElementsMatch(t, []string{"closed>open", "open>half-open", "half-open>closed"}, seen)
}

func TestBreaker_Concurrent(t *testing.T) {
	b, _ := testBreaker(1000, 1)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if b.acquire() {
				b.release(i%2 == 0)
			}

			_ = b.current()
		}()
	}

	wg.Wait()
	assert.Equal(t, StateClosed, b.current())
}
