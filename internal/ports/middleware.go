package ports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/videofeed/internal/logging"
	"github.com/Amund211/videofeed/internal/ratelimiting"
	"github.com/Amund211/videofeed/internal/reporting"
)

func NewRateLimitMiddleware(rateLimiter ratelimiting.RequestRateLimiter, onLimitExceeded http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rateLimiter.Consume(r) {
				onLimitExceeded(w, r)
				return
			}

			next(w, r)
		}
	}
}

// NewTimeoutMiddleware bounds how long a handler may wait for the listing
func NewTimeoutMiddleware(timeout time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next(w, r.WithContext(ctx))
		}
	}
}

func newUserIDMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			if userID == "" {
				userID = "<missing>"
			}
			ctx := reporting.SetUserIDInContext(r.Context(), userID)

			next(w, r.WithContext(ctx))
		}
	}
}

func ComposeMiddlewares(middlewares ...func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	if len(middlewares) == 1 {
		return middlewares[0]
	}
	first := middlewares[0]
	rest := ComposeMiddlewares(middlewares[1:]...)
	return func(h http.HandlerFunc) http.HandlerFunc {
		return first(rest(h))
	}
}

type rateLimit struct {
	refill ratelimiting.RefillPerSecond
	burst  ratelimiting.BurstSize
}

// buildPortMiddleware is the chain shared by every endpoint
func buildPortMiddleware(
	port string,
	ipLimit rateLimit,
	userIDLimit rateLimit,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) func(http.HandlerFunc) http.HandlerFunc {
	ipLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(ipLimit.refill, ipLimit.burst)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(ipLimiter, ratelimiting.IPKeyFunc)

	userIDLimiter, _ := ratelimiting.NewTokenBucketRateLimiter(userIDLimit.refill, userIDLimit.burst)
	userIDRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		// NOTE: Rate limiting based on user controlled value
		userIDLimiter,
		ratelimiting.UserIDKeyFunc,
	)

	makeOnLimitExceeded := func(rateLimiter ratelimiting.RequestRateLimiter) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			statusCode := http.StatusTooManyRequests

			logging.FromContext(ctx).InfoContext(
				ctx,
				"Rate limit exceeded",
				"statusCode", statusCode,
				"key", rateLimiter.KeyFor(r),
			)

			writeErrorResponse(ctx, w, "rate limit exceeded", statusCode)
		}
	}

	return ComposeMiddlewares(
		buildMetricsMiddleware(port),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware(port),
		newUserIDMiddleware(),
		BuildCORSMiddleware(allowedOrigins),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		NewRateLimitMiddleware(userIDRateLimiter, makeOnLimitExceeded(userIDRateLimiter)),
	)
}
