package ratelimiting

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Amund211/videofeed/internal/expiry"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type RateLimiter interface {
	Consume(key string) bool
}

type RefillPerSecond float64
type BurstSize int

type tokenBucketRateLimiter struct {
	limiterByKey    *ttlcache.Cache[string, *rate.Limiter]
	refillPerSecond RefillPerSecond
	burstSize       BurstSize
}

func (l *tokenBucketRateLimiter) Consume(key string) bool {
	item, _ := l.limiterByKey.GetOrSet(key, rate.NewLimiter(rate.Limit(l.refillPerSecond), int(l.burstSize)))
	return item.Value().Allow()
}

// NewTokenBucketRateLimiter creates a limiter with one token bucket per key
//
// Buckets for keys that have not been seen for 30 minutes are evicted. Call stop to end the
// eviction loop.
func NewTokenBucketRateLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize) (limiter RateLimiter, stop func()) {
	limiterByKey := ttlcache.New(
		ttlcache.WithTTL[string, *rate.Limiter](30*time.Minute),
		ttlcache.WithDisableTouchOnHit[string, *rate.Limiter](),
	)
	stop = expiry.StartLoop(limiterByKey)

	return &tokenBucketRateLimiter{
		limiterByKey:    limiterByKey,
		refillPerSecond: refillPerSecond,
		burstSize:       burstSize,
	}, stop
}

type RequestRateLimiter interface {
	Consume(r *http.Request) bool
	KeyFor(r *http.Request) string
}

type requestBasedRateLimiter struct {
	limiter RateLimiter
	keyFunc func(r *http.Request) string
}

func (l *requestBasedRateLimiter) Consume(r *http.Request) bool {
	return l.limiter.Consume(l.keyFunc(r))
}

func (l *requestBasedRateLimiter) KeyFor(r *http.Request) string {
	return l.keyFunc(r)
}

func NewRequestBasedRateLimiter(limiter RateLimiter, keyFunc func(r *http.Request) string) RequestRateLimiter {
	return &requestBasedRateLimiter{
		limiter: limiter,
		keyFunc: keyFunc,
	}
}

func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port
		host = r.RemoteAddr
	}

	return fmt.Sprintf("ip: %s", host)
}

func UserIDKeyFunc(r *http.Request) string {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		userID = "<missing>"
	}
	return fmt.Sprintf("user-id: %.50s", userID)
}
