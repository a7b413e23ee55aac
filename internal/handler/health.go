package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) domain.ServiceHealth

// BreakerCheck reports the upstream PPOB API through its circuit breaker:
// closed is healthy, half-open degraded, open unhealthy.
func BreakerCheck(name string, cb *gobreaker.CircuitBreaker) HealthCheck {
	return func(context.Context) domain.ServiceHealth {
		h := domain.ServiceHealth{Name: name, Status: domain.HealthHealthy, Detail: cb.State().String()}
		switch cb.State() {
		case gobreaker.StateHalfOpen:
			h.Status = domain.HealthDegraded
		case gobreaker.StateOpen:
			h.Status = domain.HealthUnhealthy
		}
		return h
	}
}

// RedisCheck pings the credential store.
func RedisCheck(rdb redis.Cmdable) HealthCheck {
	return func(ctx context.Context) domain.ServiceHealth {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		start := time.Now()
		h := domain.ServiceHealth{Name: "redis", Status: domain.HealthHealthy}
		if err := rdb.Ping(ctx).Err(); err != nil {
			h.Status = domain.HealthDegraded
			h.Detail = err.Error()
		}
		h.LatencyMs = time.Since(start).Milliseconds()
		return h
	}
}

func healthzHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "ppob-bfa", Status: domain.HealthHealthy, LastChecked: now},
		}
		for _, check := range checks {
			h := check(r.Context())
			h.LastChecked = now
			services = append(services, h)
		}

		overallStatus := domain.HealthHealthy
		for _, s := range services {
			if s.Status == domain.HealthUnhealthy {
				overallStatus = domain.HealthUnhealthy
				break
			}
			if s.Status == domain.HealthDegraded {
				overallStatus = domain.HealthDegraded
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}
