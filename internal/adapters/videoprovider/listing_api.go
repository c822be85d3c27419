package videoprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Amund211/videofeed/internal/config"
	"github.com/Amund211/videofeed/internal/constants"
	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/logging"
	"github.com/Amund211/videofeed/internal/ratelimiting"
	"github.com/Amund211/videofeed/internal/reporting"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Upper bound for one listing request, used when waiting for the request limiter
const maxRequestTime = 15 * time.Second

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ListingAPI interface {
	// Fetch every record in the listing, in listing order
	FetchAll(ctx context.Context, credential string) ([]domain.Video, error)
}

type listingAPIMetricsCollection struct {
	requestCount metric.Int64Counter
}

func setupListingAPIMetrics(meter metric.Meter) (listingAPIMetricsCollection, error) {
	requestCount, err := meter.Int64Counter(
		"videoprovider/listing_request_count",
		metric.WithDescription("Requests sent to the listing API by status code"),
	)
	if err != nil {
		return listingAPIMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	return listingAPIMetricsCollection{
		requestCount: requestCount,
	}, nil
}

type listingAPIImpl struct {
	httpClient HttpClient
	url        string
	limiter    ratelimiting.RequestLimiter
	nowFunc    func() time.Time

	metrics listingAPIMetricsCollection
	tracer  trace.Tracer
}

func NewListingAPI(
	httpClient HttpClient,
	url string,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) (ListingAPI, error) {
	const name = "videofeed/videoprovider"

	metrics, err := setupListingAPIMetrics(otel.Meter(name))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	return &listingAPIImpl{
		httpClient: httpClient,
		url:        url,
		// Bounds refetch storms caused by repeated invalidation
		limiter: ratelimiting.NewWindowLimitRequestLimiter(10, 10*time.Second, nowFunc, afterFunc),
		nowFunc: nowFunc,

		metrics: metrics,
		tracer:  otel.Tracer(name),
	}, nil
}

func (l *listingAPIImpl) FetchAll(ctx context.Context, credential string) ([]domain.Video, error) {
	ctx, span := l.tracer.Start(ctx, "ListingAPI.FetchAll")
	defer span.End()

	videos, err := l.fetchAll(ctx, credential)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing")
		return nil, err
	}

	span.SetAttributes(attribute.Int("videos", len(videos)))
	return videos, nil
}

func (l *listingAPIImpl) fetchAll(ctx context.Context, credential string) ([]domain.Video, error) {
	logger := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		err := fmt.Errorf("%w: failed to create request: %w", domain.ErrTransportFailure, err)
		reporting.Report(ctx, err)
		return nil, err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", credential))

	var resp *http.Response
	start := l.nowFunc()
	ran := l.limiter.Limit(ctx, maxRequestTime, func() {
		resp, err = l.httpClient.Do(req)
	})
	if !ran {
		err := fmt.Errorf("%w: request would not complete before the deadline", domain.ErrTransportFailure)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: request not sent: %w", domain.ErrTransportFailure, ctxErr)
		}
		reporting.Report(ctx, err)
		return nil, err
	}
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrTransportFailure, err)
		reporting.Report(ctx, err)
		return nil, err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("%w: failed to read response body: %w", domain.ErrTransportFailure, err)
		reporting.Report(ctx, err)
		return nil, err
	}

	l.metrics.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", resp.StatusCode)))
	logger.InfoContext(
		ctx,
		"Listing request completed",
		slog.Int("status", resp.StatusCode),
		slog.String("duration", l.nowFunc().Sub(start).String()),
	)

	videos, err := videosFromListingResponse(resp.StatusCode, data)
	if err != nil {
		reporting.Report(ctx, err, map[string]string{
			"data":   truncate(string(data), 1000),
			"status": strconv.Itoa(resp.StatusCode),
		})
		return nil, err
	}

	return videos, nil
}

func videosFromListingResponse(statusCode int, data []byte) ([]domain.Video, error) {
	if statusCode < 200 || statusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP error! status: %d", domain.ErrServerError, statusCode)
	}

	var records []*listingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to parse listing: %w", domain.ErrTransportFailure, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: listing is null", domain.ErrTransportFailure)
	}

	videos := make([]domain.Video, 0, len(records))
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("%w: null record at index %d", domain.ErrTransportFailure, i)
		}
		videos = append(videos, record.toDomain())
	}
	return videos, nil
}

func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}

func NewListingAPIOrMock(conf config.Config, httpClient HttpClient) (ListingAPI, error) {
	if conf.ListingURL() != "" {
		return NewListingAPI(httpClient, conf.ListingURL(), time.Now, time.After)
	}
	if conf.IsDevelopment() {
		return NewMockedListingAPI(), nil
	}
	return nil, fmt.Errorf("missing listing URL in non-development environment")
}
