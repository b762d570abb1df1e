package middleware

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/veriphone/verify-api/internal/api/metrics"
	"github.com/veriphone/verify-api/internal/core/domain"
	"github.com/veriphone/verify-api/internal/core/ports"
)

// RouteClass buckets routes with independent rate-limit windows.
type RouteClass string

const (
	ClassGeneric       RouteClass = "generic"
	ClassLogin         RouteClass = "login"
	ClassSignup        RouteClass = "signup"
	ClassPasswordReset RouteClass = "password_reset"
)

// Quota is a window/max pair for one route class.
type Quota struct {
	Window time.Duration
	Max    int64
}

// tierQuota maps role tiers to their generic-window request quota. Unknown
// roles get the anonymous quota.
func tierQuota(role string) int64 {
	switch role {
	case domain.RoleFreeUser:
		return 50
	case domain.RoleTrialUser:
		return 100
	case domain.RolePaidUser:
		return 200
	case domain.RoleEnterpriseUser:
		return 500
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return 1000
	default:
		return 10
	}
}

// RateLimiter enforces per-(key, route class) quotas over fixed windows.
// Keys are the authenticated user id, or the caller IP for anonymous
// requests; counters live in the shared store so limits are global across
// instances.
type RateLimiter struct {
	store         ports.CounterStore
	genericWindow time.Duration
	classQuotas   map[RouteClass]Quota
	log           zerolog.Logger
}

func NewRateLimiter(store ports.CounterStore, genericWindow time.Duration, classQuotas map[RouteClass]Quota, log zerolog.Logger) *RateLimiter {
	if genericWindow <= 0 {
		genericWindow = 15 * time.Minute
	}
	return &RateLimiter{
		store:         store,
		genericWindow: genericWindow,
		classQuotas:   classQuotas,
		log:           log,
	}
}

// Middleware returns the limiter for one route class. It must run after the
// auth middleware (if any) so authenticated callers are keyed by user id and
// counted against their tier.
func (l *RateLimiter) Middleware(class RouteClass) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)

			key := identity.UserID
			if key == "" {
				key = c.RealIP()
			}

			quota := l.quota(class, identity.Role)
			count, remaining, err := l.store.Incr(
				c.Request().Context(),
				fmt.Sprintf("%s:%s", class, key),
				quota.Window,
			)
			if err != nil {
				return fmt.Errorf("rate limit check: %w", err)
			}

			resetSeconds := int64(math.Ceil(remaining.Seconds()))
			header := c.Response().Header()
			header.Set("RateLimit-Limit", strconv.FormatInt(quota.Max, 10))
			header.Set("RateLimit-Remaining", strconv.FormatInt(max64(quota.Max-count, 0), 10))
			header.Set("RateLimit-Reset", strconv.FormatInt(resetSeconds, 10))

			if count > quota.Max {
				header.Set("Retry-After", strconv.FormatInt(resetSeconds, 10))
				metrics.RateLimitExceededTotal.WithLabelValues(string(class), identity.Role).Inc()
				return domain.ErrTooManyRequests
			}
			return next(c)
		}
	}
}

// quota resolves the window/max pair: fixed per class where configured,
// tier-dependent on the generic window otherwise.
func (l *RateLimiter) quota(class RouteClass, role string) Quota {
	if q, ok := l.classQuotas[class]; ok {
		return q
	}
	return Quota{Window: l.genericWindow, Max: tierQuota(role)}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
