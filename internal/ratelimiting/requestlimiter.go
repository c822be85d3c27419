package ratelimiting

import (
	"context"
	"slices"
	"sync"
	"time"
)

type RequestLimiter interface {
	// Limit waits until operation may run within the window and then runs it
	//
	// Returns false without running operation if ctx is done while waiting, or if ctx has a deadline
	// that would pass before the wait plus maxOperationTime.
	Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool
}

// windowLimitRequestLimiter allows at most limit operations to finish within any window
type windowLimitRequestLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	// One token per concurrently running operation
	slots chan struct{}

	mutex sync.Mutex
	// Finish times of the last operations, oldest first. Always holds limit entries, minus the ones
	// claimed by running operations.
	finishedAt []time.Time
}

func NewWindowLimitRequestLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *windowLimitRequestLimiter {
	slots := make(chan struct{}, limit)
	finishedAt := make([]time.Time, 0, limit)
	longAgo := nowFunc().Add(-window)
	for range limit {
		slots <- struct{}{}
		finishedAt = append(finishedAt, longAgo)
	}

	return &windowLimitRequestLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		slots:      slots,
		finishedAt: finishedAt,
	}
}

func (l *windowLimitRequestLimiter) Limit(ctx context.Context, maxOperationTime time.Duration, operation func()) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case <-l.slots:
		defer func() {
			l.slots <- struct{}{}
		}()
	case <-ctx.Done():
		return false
	}

	oldest, wait, ok := l.claimOldest(ctx, maxOperationTime)
	if !ok {
		return false
	}

	// The claimed entry is returned unchanged unless the operation runs
	finished := oldest
	defer func() {
		l.release(finished)
	}()

	if wait > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFunc(wait):
		}
	}

	operation()
	finished = l.nowFunc()
	return true
}

func (l *windowLimitRequestLimiter) waitFor(finishedAt time.Time) time.Duration {
	return l.window - l.nowFunc().Sub(finishedAt)
}

func (l *windowLimitRequestLimiter) claimOldest(ctx context.Context, maxOperationTime time.Duration) (time.Time, time.Duration, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	oldest := l.finishedAt[0]
	wait := l.waitFor(oldest)

	if deadline, ok := ctx.Deadline(); ok {
		if max(wait, 0)+maxOperationTime > deadline.Sub(l.nowFunc()) {
			return time.Time{}, 0, false
		}
	}

	l.finishedAt = l.finishedAt[1:]
	return oldest, wait, true
}

func (l *windowLimitRequestLimiter) release(finishedAt time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	i, _ := slices.BinarySearchFunc(l.finishedAt, finishedAt, func(a, b time.Time) int {
		return a.Compare(b)
	})
	l.finishedAt = slices.Insert(l.finishedAt, i, finishedAt)
}
