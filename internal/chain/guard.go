package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig bounds the load put on one node and the time spent on a dead one.
type GuardConfig struct {
	Name string
	// RatePerSec and Burst throttle outgoing calls.
	RatePerSec float64
	Burst      int
	// ConsecutiveFailures trips the breaker; it stays open for OpenTimeout.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	// Logger receives breaker state changes.
	Logger zerolog.Logger
}

// ItemError is a failure the node reported for one address or transaction.
// The node answered, so it does not count against the breaker.
type ItemError struct {
	Err error
}

func (e *ItemError) Error() string { return e.Err.Error() }

func (e *ItemError) Unwrap() error { return e.Err }

// ItemFailure marks err as a failure of a single item.
func ItemFailure(err error) error {
	if err == nil {
		return nil
	}

	return &ItemError{Err: err}
}

func nodeHealthy(err error) bool {
	var item *ItemError
	return err == nil || errors.As(err, &item)
}

// Guard throttles and circuit-breaks calls to an external node.
type Guard struct {
	name    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard returns guard with the given limits. Zero values get defaults.
func NewGuard(c GuardConfig) *Guard {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}

	if c.Burst <= 0 {
		c.Burst = 1
	}

	if c.ConsecutiveFailures == 0 {
		c.ConsecutiveFailures = 5
	}

	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}

	return &Guard{
		name:    c.Name,
		limiter: rate.NewLimiter(rate.Limit(c.RatePerSec), c.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    c.Name,
			Timeout: c.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= c.ConsecutiveFailures
			},
			IsSuccessful: nodeHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.Logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
	}
}

// Do runs fn once the limiter admits it and the breaker is closed.
//
// Every failure is returned wrapped in domain.ErrExternalUnavailable. Only
// failures not marked with ItemFailure trip the breaker.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrExternalUnavailable, g.name, err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrExternalUnavailable, g.name, err)
	}

	return nil
}
