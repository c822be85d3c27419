package ports

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Amund211/videofeed/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type portsMetricsCollection struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func setupPortsMetrics(meter metric.Meter) (portsMetricsCollection, error) {
	requestCount, err := meter.Int64Counter(
		"ports/request_count",
		metric.WithDescription("Total number of requests received"),
	)
	if err != nil {
		return portsMetricsCollection{}, fmt.Errorf("failed to create request count metric: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"ports/request_duration_seconds",
		metric.WithDescription("Processing time for received requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return portsMetricsCollection{}, fmt.Errorf("failed to create request duration metric: %w", err)
	}

	return portsMetricsCollection{
		requestCount:    requestCount,
		requestDuration: requestDuration,
	}, nil
}

// Instruments are created once, after main has installed the meter provider
var getPortsMetrics = sync.OnceValues(func() (portsMetricsCollection, error) {
	return setupPortsMetrics(otel.Meter("videofeed/ports"))
})

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func buildMetricsMiddleware(port string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			metrics, err := getPortsMetrics()
			if err != nil {
				logging.FromContext(r.Context()).Error("Failed to set up ports metrics", "error", err.Error())
				next(w, r)
				return
			}

			start := time.Now()
			ctx := r.Context()

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next(recorder, r)

			attributesOption := metric.WithAttributes(
				attribute.String("port", port),
				attribute.String("method", r.Method),
				attribute.Int("status", recorder.statusCode),
				attribute.String("user_agent", userAgent),
			)

			metrics.requestCount.Add(ctx, 1, attributesOption)
			metrics.requestDuration.Record(ctx, time.Since(start).Seconds(), attributesOption)
		}
	}
}
