package expiry

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// StartLoop runs the automatic cleanup of the cache in a new goroutine.
//
// The returned stop blocks until the cleanup goroutine has exited. It is safe to call before
// the goroutine has been scheduled, and more than once.
func StartLoop[K comparable, V any](cache *ttlcache.Cache[K, V]) (stop func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Start()
	}()

	return func() {
		for {
			// Stop is a no-op until Start has marked the cache as running
			cache.Stop()
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}
