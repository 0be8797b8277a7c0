package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedApplier struct {
	calls   int
	outcome Outcome
	err     error
}

func (s *scriptedApplier) Apply(context.Context, Request) (Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

func testBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}
}

func TestBreakerApplier(t *testing.T) {
	ctx := context.Background()
	req := Request{DefinitionID: "set-business-hours"}

	t.Run("passes outcomes through while closed", func(t *testing.T) {
		inner := &scriptedApplier{outcome: Outcome{Updated: true, Note: "hours published"}}
		applier := NewBreakerApplier(inner, testBreakerConfig(), nil)

		outcome, err := applier.Apply(ctx, req)

		require.NoError(t, err)
		assert.True(t, outcome.Updated)
		assert.Equal(t, "hours published", outcome.Note)
		assert.Equal(t, "closed", applier.State())
	})

	t.Run("preserves collaborator errors below the threshold", func(t *testing.T) {
		innerErr := errors.New("provider returned 503")
		inner := &scriptedApplier{err: innerErr}
		applier := NewBreakerApplier(inner, testBreakerConfig(), nil)

		_, err := applier.Apply(ctx, req)

		assert.ErrorIs(t, err, innerErr)
		assert.NotErrorIs(t, err, ErrListingUnavailable)
		assert.Equal(t, "closed", applier.State())
	})

	t.Run("opens after consecutive failures and sheds calls", func(t *testing.T) {
		inner := &scriptedApplier{err: errors.New("provider down")}
		applier := NewBreakerApplier(inner, testBreakerConfig(), nil)

		for i := 0; i < 3; i++ {
			_, err := applier.Apply(ctx, req)
			require.Error(t, err)
		}
		assert.Equal(t, "open", applier.State())
		assert.Equal(t, 3, inner.calls)

		_, err := applier.Apply(ctx, req)

		assert.ErrorIs(t, err, ErrListingUnavailable)
		assert.Equal(t, 3, inner.calls, "an open circuit must not reach the collaborator")
	})

	t.Run("a success resets the consecutive failure count", func(t *testing.T) {
		inner := &scriptedApplier{err: errors.New("flaky")}
		applier := NewBreakerApplier(inner, testBreakerConfig(), nil)

		_, _ = applier.Apply(ctx, req)
		_, _ = applier.Apply(ctx, req)

		inner.err = nil
		_, err := applier.Apply(ctx, req)
		require.NoError(t, err)

		inner.err = errors.New("flaky")
		_, _ = applier.Apply(ctx, req)
		_, _ = applier.Apply(ctx, req)

		assert.Equal(t, "closed", applier.State())
		assert.Equal(t, 5, inner.calls)
	})

	t.Run("zero config falls back to defaults", func(t *testing.T) {
		inner := &scriptedApplier{err: errors.New("down")}
		applier := NewBreakerApplier(inner, BreakerConfig{}, nil)

		for i := 0; i < 5; i++ {
			_, _ = applier.Apply(ctx, req)
		}

		assert.Equal(t, "open", applier.State())
		assert.Equal(t, 5, inner.calls)
	})
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig()

	assert.Equal(t, uint32(3), cfg.MaxRequests)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(5), cfg.FailureThreshold)
}
