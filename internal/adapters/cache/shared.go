package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Amund211/videofeed/internal/constants"
	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/logging"
	"github.com/getsentry/sentry-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type subscription[T any] struct {
	callback Callback[T]
}

// fetchCycle is one Empty -> Loading -> Ready|Failed pass
//
// All fields are guarded by the mutex of the cache that created the cycle.
type fetchCycle[T any] struct {
	id uint64

	// owner is the callback of the caller that started the cycle
	owner       *subscription[T]
	subscribers []*subscription[T]
	settled     bool
}

func (f *fetchCycle[T]) subscribe(callback Callback[T]) *subscription[T] {
	sub := &subscription[T]{callback: callback}
	f.subscribers = append(f.subscribers, sub)
	return sub
}

func (f *fetchCycle[T]) remove(sub *subscription[T]) {
	if f.settled {
		return
	}
	if f.owner == sub {
		f.owner = nil
		return
	}
	f.subscribers = slices.DeleteFunc(f.subscribers, func(s *subscription[T]) bool {
		return s == sub
	})
}

// drain returns the callbacks to notify and clears the cycle. Only the first call returns anything.
func (f *fetchCycle[T]) drain() []Callback[T] {
	if f.settled {
		return nil
	}
	f.settled = true

	callbacks := make([]Callback[T], 0, len(f.subscribers)+1)
	if f.owner != nil && f.owner.callback != nil {
		callbacks = append(callbacks, f.owner.callback)
	}
	for _, sub := range f.subscribers {
		if sub.callback != nil {
			callbacks = append(callbacks, sub.callback)
		}
	}

	f.owner = nil
	f.subscribers = nil

	return callbacks
}

type sharedResourceMetricsCollection struct {
	requestCount metric.Int64Counter
	fetchCount   metric.Int64Counter
}

func setupSharedResourceMetrics(meter metric.Meter) (sharedResourceMetricsCollection, error) {
	requestCount, err := meter.Int64Counter(
		"cache/shared_resource/request_count",
		metric.WithDescription("Requests for the shared resource by outcome (hit, join, miss)"),
	)
	if err != nil {
		return sharedResourceMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	fetchCount, err := meter.Int64Counter(
		"cache/shared_resource/fetch_count",
		metric.WithDescription("Settled fetches of the shared resource by status"),
	)
	if err != nil {
		return sharedResourceMetricsCollection{}, fmt.Errorf("failed to create fetch count metric: %w", err)
	}

	return sharedResourceMetricsCollection{
		requestCount: requestCount,
		fetchCount:   fetchCount,
	}, nil
}

// SharedResourceCache holds a single resource that is fetched at most once at a time
//
// Construct one per process and share it between all consumers.
type SharedResourceCache[T any] struct {
	name        string
	credentials CredentialSource
	fetcher     Fetcher[T]
	nowFunc     func() time.Time

	// logger is the base logger of fetches, which are not tied to any single caller
	logger *slog.Logger

	mu        sync.Mutex
	entry     Entry[T]
	current   *fetchCycle[T]
	lastCycle uint64

	metrics sharedResourceMetricsCollection
	tracer  trace.Tracer
}

func NewSharedResourceCache[T any](name string, logger *slog.Logger, credentials CredentialSource, fetcher Fetcher[T], nowFunc func() time.Time) (*SharedResourceCache[T], error) {
	otelName := fmt.Sprintf("videofeed/cache/%s", name)

	metrics, err := setupSharedResourceMetrics(otel.Meter(otelName))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &SharedResourceCache[T]{
		name:        name,
		credentials: credentials,
		fetcher:     fetcher,
		nowFunc:     nowFunc,

		logger: logger.With(slog.String("resource", name)),

		entry: Entry[T]{Status: StatusEmpty},

		metrics: metrics,
		tracer:  otel.Tracer(otelName),
	}, nil
}

type requestOutcome string

const (
	outcomeHit  requestOutcome = "hit"
	outcomeJoin requestOutcome = "join"
	outcomeMiss requestOutcome = "miss"
)

type claimResult[T any] struct {
	entry   Entry[T]
	cycle   *fetchCycle[T]
	sub     *subscription[T]
	outcome requestOutcome
}

func (c *SharedResourceCache[T]) getOrClaim(onSettled Callback[T]) claimResult[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.entry.Status {
	case StatusReady, StatusFailed:
		return claimResult[T]{entry: c.entry, outcome: outcomeHit}
	case StatusLoading:
		sub := c.current.subscribe(onSettled)
		return claimResult[T]{entry: c.entry, cycle: c.current, sub: sub, outcome: outcomeJoin}
	}

	c.lastCycle++
	cycle := &fetchCycle[T]{
		id:    c.lastCycle,
		owner: &subscription[T]{callback: onSettled},
	}
	c.current = cycle
	c.entry = Entry[T]{Status: StatusLoading}

	return claimResult[T]{entry: c.entry, cycle: cycle, sub: cycle.owner, outcome: outcomeMiss}
}

// Request returns the current state of the resource
//
// If the resource is settled (ready or failed) the entry is returned and onSettled is never called.
// Otherwise a loading entry is returned and onSettled is called exactly once, from another
// goroutine, when the in-flight fetch settles. If no fetch is in flight one is started.
//
// The returned function deregisters onSettled. It never cancels the fetch, and is a no-op after
// settlement. onSettled must not block.
func (c *SharedResourceCache[T]) Request(ctx context.Context, onSettled Callback[T]) (Entry[T], func()) {
	result := c.getOrClaim(onSettled)

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Getting shared resource",
		slog.String("resource", c.name),
		slog.String("cache", string(result.outcome)),
		slog.String("status", result.entry.Status.String()),
	)
	c.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", c.name),
		attribute.String("outcome", string(result.outcome)),
	))

	if result.cycle == nil {
		return result.entry, func() {}
	}

	if result.outcome == outcomeMiss {
		// The fetch must outlive the caller that happened to trigger it, so it only keeps a link to its span
		go c.fetch(c.fetchContext(result.cycle), trace.LinkFromContext(ctx), result.cycle)
	}

	return result.entry, c.deregisterFunc(result.cycle, result.sub)
}

func (c *SharedResourceCache[T]) deregisterFunc(cycle *fetchCycle[T], sub *subscription[T]) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		cycle.remove(sub)
	}
}

// Get returns the settled entry, waiting for an in-flight fetch if needed
//
// If ctx is done before settlement the loading entry is returned together with the context error.
func (c *SharedResourceCache[T]) Get(ctx context.Context) (Entry[T], error) {
	settled := make(chan Entry[T], 1)

	entry, deregister := c.Request(ctx, func(entry Entry[T]) {
		settled <- entry
	})
	if entry.Status.Settled() {
		return entry, nil
	}

	select {
	case entry := <-settled:
		return entry, nil
	case <-ctx.Done():
		deregister()
		return entry, fmt.Errorf("context done while waiting for %s: %w", c.name, ctx.Err())
	}
}

// Peek returns the current entry without triggering a fetch
func (c *SharedResourceCache[T]) Peek() Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

// Invalidate resets the resource so the next Request fetches it again
//
// An in-flight fetch is not cancelled. It still notifies its own subscribers when it settles, but
// its result is not stored.
func (c *SharedResourceCache[T]) Invalidate(ctx context.Context) {
	c.mu.Lock()
	detached := c.current != nil
	c.entry = Entry[T]{Status: StatusEmpty}
	c.current = nil
	c.mu.Unlock()

	logging.FromContext(ctx).InfoContext(
		ctx,
		"Invalidated shared resource",
		slog.String("resource", c.name),
		slog.Bool("detachedFetch", detached),
	)
}

func (c *SharedResourceCache[T]) fetchContext(cycle *fetchCycle[T]) context.Context {
	ctx := sentry.SetHubOnContext(context.Background(), sentry.CurrentHub().Clone())
	return logging.AddToContext(ctx, c.logger.With(slog.Uint64("fetchCycle", cycle.id)))
}

func (c *SharedResourceCache[T]) fetch(ctx context.Context, trigger trace.Link, cycle *fetchCycle[T]) {
	ctx, span := c.tracer.Start(
		ctx,
		"SharedResourceCache.fetch",
		trace.WithNewRoot(),
		trace.WithLinks(trigger),
	)
	defer span.End()

	items, err := c.load(ctx)
	c.settle(ctx, cycle, items, err)
}

func (c *SharedResourceCache[T]) load(ctx context.Context) ([]T, error) {
	credential, ok, err := c.credentials.GetCredential(ctx, constants.CREDENTIAL_NAME)
	if err != nil {
		// NOTE: CredentialSource implementations handle their own error reporting
		return nil, fmt.Errorf("%w: failed to read credential: %w", domain.ErrTransportFailure, err)
	}
	if !ok || credential == "" {
		return nil, domain.ErrUnauthenticated
	}

	items, err := c.fetcher.FetchAll(ctx, credential)
	if err != nil {
		// NOTE: Fetcher implementations handle their own error reporting
		return nil, fmt.Errorf("failed to fetch %s: %w", c.name, err)
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *SharedResourceCache[T]) settle(ctx context.Context, cycle *fetchCycle[T], items []T, err error) {
	entry := Entry[T]{
		Status:    StatusReady,
		Items:     items,
		Version:   cycle.id,
		SettledAt: c.nowFunc(),
	}
	if err != nil {
		entry.Status = StatusFailed
		entry.Items = nil
		entry.Err = err
	}

	c.mu.Lock()
	stored := c.current == cycle
	if stored {
		c.entry = entry
		c.current = nil
	}
	callbacks := cycle.drain()
	c.mu.Unlock()

	logger := logging.FromContext(ctx)
	attrs := []any{
		slog.String("status", entry.Status.String()),
		slog.Uint64("version", entry.Version),
		slog.Bool("stored", stored),
		slog.Int("subscribers", len(callbacks)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.WarnContext(ctx, "Shared resource fetch failed", attrs...)
	} else {
		attrs = append(attrs, slog.Int("items", len(items)))
		logger.InfoContext(ctx, "Shared resource fetch settled", attrs...)
	}
	c.metrics.fetchCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", c.name),
		attribute.String("status", entry.Status.String()),
		attribute.Bool("stored", stored),
	))

	for _, callback := range callbacks {
		callback(entry)
	}
}
