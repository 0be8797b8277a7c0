package listing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the applier circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of probe requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period over which closed-state counts reset.
	Interval time.Duration

	// Timeout is how long the circuit stays open before probing again.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips the
	// circuit.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	def := DefaultBreakerConfig()
	if c.MaxRequests == 0 {
		c.MaxRequests = def.MaxRequests
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	return c
}

// BreakerApplier shields completions from a failing collaborator. After
// FailureThreshold consecutive failures the circuit opens and calls fail
// fast with ErrListingUnavailable until Timeout elapses.
type BreakerApplier struct {
	inner   Applier
	breaker *gobreaker.CircuitBreaker[Outcome]
}

// NewBreakerApplier wraps an applier with a circuit breaker.
func NewBreakerApplier(inner Applier, cfg BreakerConfig, logger *slog.Logger) *BreakerApplier {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalized()

	settings := gobreaker.Settings{
		Name:        "listing-applier",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerApplier{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[Outcome](settings),
	}
}

// Apply forwards to the wrapped applier under breaker protection.
func (a *BreakerApplier) Apply(ctx context.Context, req Request) (Outcome, error) {
	outcome, err := a.breaker.Execute(func() (Outcome, error) {
		return a.inner.Apply(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Outcome{}, ErrListingUnavailable
		}
		return Outcome{}, err
	}
	return outcome, nil
}

// State returns the breaker state for health reporting.
func (a *BreakerApplier) State() string {
	return a.breaker.State().String()
}

var (
	_ Applier = (*BreakerApplier)(nil)
	_ Applier = NoopApplier{}
)
