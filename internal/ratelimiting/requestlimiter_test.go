package ratelimiting_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/Amund211/videofeed/internal/ratelimiting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimitRequestLimiter(t *testing.T) {
	t.Parallel()

	t.Run("limiters don't share state", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			for range 4 {
				l := ratelimiting.NewWindowLimitRequestLimiter(1, time.Hour, time.Now, time.After)
				start := time.Now()
				require.True(t, l.Limit(t.Context(), time.Second, func() {}))
				require.Equal(t, start, time.Now())
			}
		})
	})

	t.Run("concurrent requests > limit", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			start := time.Now()
			l := ratelimiting.NewWindowLimitRequestLimiter(2, 10*time.Second, time.Now, time.After)

			const requests = 20
			mutex := sync.Mutex{}
			startedAt := make([]time.Time, 0, requests)

			wg := sync.WaitGroup{}
			for range requests {
				wg.Go(func() {
					ran := l.Limit(t.Context(), 2*time.Second, func() {
						mutex.Lock()
						startedAt = append(startedAt, time.Now())
						mutex.Unlock()

						time.Sleep(time.Second)
					})
					assert.True(t, ran)
				})
			}
			wg.Wait()

			slices.SortFunc(startedAt, time.Time.Compare)
			require.Len(t, startedAt, requests)
			for i, at := range startedAt {
				// Each batch of two waits for the window after the previous batch finished
				batch := i / 2
				earliestStart := start.Add(time.Duration(batch) * (10*time.Second + time.Second))
				require.GreaterOrEqual(t, at, earliestStart)
			}
		})
	})

	t.Run("request with high timeout waits", func(t *testing.T) {
		t.Parallel()

		for _, timeout := range []time.Duration{
			12*time.Second + time.Millisecond,
			15 * time.Second,
			60 * time.Second,
		} {
			t.Run(timeout.String(), func(t *testing.T) {
				t.Parallel()
				synctest.Test(t, func(t *testing.T) {
					start := time.Now()
					l := ratelimiting.NewWindowLimitRequestLimiter(2, 10*time.Second, time.Now, time.After)

					require.True(t, l.Limit(t.Context(), 2*time.Second, func() {}))
					require.True(t, l.Limit(t.Context(), 2*time.Second, func() {}))

					ctx, cancel := context.WithDeadline(t.Context(), start.Add(timeout))
					defer cancel()

					ran := l.Limit(ctx, 2*time.Second, func() {
						require.Equal(t, start.Add(10*time.Second), time.Now())
					})
					require.True(t, ran)
				})
			})
		}
	})

	t.Run("request with low timeout returns early", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
		nowFunc := func() time.Time {
			return start
		}

		for _, timeout := range []time.Duration{
			time.Second,
			5 * time.Second,
			10 * time.Second,
			11*time.Second + 999*time.Millisecond,
		} {
			t.Run(timeout.String(), func(t *testing.T) {
				t.Parallel()

				afterFunc := func(d time.Duration) <-chan time.Time {
					assert.Fail(t, "After should not be called")
					return nil
				}
				l := ratelimiting.NewWindowLimitRequestLimiter(2, 10*time.Second, nowFunc, afterFunc)

				require.True(t, l.Limit(t.Context(), 2*time.Second, func() {}))
				require.True(t, l.Limit(t.Context(), 2*time.Second, func() {}))

				ctx, cancel := context.WithDeadline(t.Context(), start.Add(timeout))
				defer cancel()

				ran := l.Limit(ctx, 2*time.Second, func() {
					assert.Fail(t, "operation should not be called")
				})
				require.False(t, ran)
			})
		}
	})

	t.Run("canceled request returns while waiting for a slot", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			l := ratelimiting.NewWindowLimitRequestLimiter(1, 10*time.Second, time.Now, time.After)

			release := make(chan struct{})
			done := make(chan struct{})
			go func() {
				defer close(done)
				assert.True(t, l.Limit(t.Context(), time.Second, func() {
					<-release
				}))
			}()
			synctest.Wait()

			ctx, cancel := context.WithCancel(t.Context())
			cancel()
			require.False(t, l.Limit(ctx, time.Second, func() {
				assert.Fail(t, "operation should not be called")
			}))

			close(release)
			<-done
		})
	})

	t.Run("canceled request returns from sleep", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			l := ratelimiting.NewWindowLimitRequestLimiter(1, 10*time.Second, time.Now, time.After)
			require.True(t, l.Limit(t.Context(), time.Second, func() {}))

			ctx, cancel := context.WithCancel(t.Context())
			returned := make(chan bool)
			go func() {
				returned <- l.Limit(ctx, time.Second, func() {
					assert.Fail(t, "operation should not be called")
				})
			}()
			synctest.Wait()

			cancel()
			require.False(t, <-returned)

			// The unused slot is returned, so the next request only waits for the first one
			start := time.Now()
			require.True(t, l.Limit(t.Context(), time.Second, func() {}))
			require.Equal(t, 10*time.Second, time.Since(start))
		})
	})
}
