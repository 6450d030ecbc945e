package dbx

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
)

// GuardSettings configures a Guard.
type GuardSettings struct {
	Name string
	// Timeout bounds every call made through the guard.
	Timeout time.Duration
	// FailureThreshold consecutive unavailability errors open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// OnStateChange is called on breaker transitions; optional.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Guard runs store operations with a per-call deadline behind a circuit
// breaker. Only unavailability counts as a breaker failure: not-found or
// constraint errors are the store working correctly.
type Guard struct {
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[struct{}]
}

func NewGuard(s GuardSettings) *Guard {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 10 * time.Second
	}
	threshold := s.FailureThreshold

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !IsUnavailable(err)
		},
		OnStateChange: s.OnStateChange,
	})

	return &Guard{timeout: s.Timeout, cb: cb}
}

// Do runs fn with a derived, deadline-bounded context. Unavailability
// (deadline, broken connection, open breaker) comes back wrapping
// common.ErrStoreUnavailable; any other error is returned unchanged.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	_, err := g.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return Classify(err)
}

// State exposes the breaker state, mostly for readiness reporting.
func (g *Guard) State() gobreaker.State {
	return g.cb.State()
}
