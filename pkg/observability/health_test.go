package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyChecker() HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}

func failingChecker(err error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: HealthStatusUnhealthy, Message: err.Error()}
	}
}

func TestHealthRegistryCheck(t *testing.T) {
	t.Run("runs all registered checkers", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", healthyChecker())
		registry.Register("redis", healthyChecker())

		results := registry.Check(context.Background())

		require.Len(t, results, 2)
		assert.Contains(t, results, "database")
		assert.Contains(t, results, "redis")
	})

	t.Run("stamps duration and timestamp", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", healthyChecker())

		results := registry.Check(context.Background())

		result := results["database"]
		assert.False(t, result.Timestamp.IsZero())
		assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
	})

	t.Run("empty registry returns no results", func(t *testing.T) {
		registry := NewHealthRegistry()
		assert.Empty(t, registry.Check(context.Background()))
	})
}

func TestHealthRegistryOverallHealth(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", healthyChecker())
		registry.Register("redis", healthyChecker())

		overall := registry.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusHealthy, overall.Status)
		assert.Len(t, overall.Checks, 2)
	})

	t.Run("one unhealthy component dominates", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", failingChecker(errors.New("connection refused")))
		registry.Register("redis", healthyChecker())

		overall := registry.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusUnhealthy, overall.Status)
		assert.Equal(t, "connection refused", overall.Checks["database"].Message)
	})

	t.Run("degraded does not escalate to unhealthy", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("redis", func(ctx context.Context) HealthCheckResult {
			return HealthCheckResult{Status: HealthStatusDegraded, Message: "slow ping"}
		})
		registry.Register("database", healthyChecker())

		overall := registry.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusDegraded, overall.Status)
	})

	t.Run("no checks means healthy", func(t *testing.T) {
		registry := NewHealthRegistry()
		overall := registry.GetOverallHealth(context.Background())
		assert.Equal(t, HealthStatusHealthy, overall.Status)
	})

	t.Run("replacing a checker keeps one result per name", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", failingChecker(errors.New("down")))
		registry.Register("database", healthyChecker())

		overall := registry.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusHealthy, overall.Status)
		assert.Len(t, overall.Checks, 1)
	})
}
