package ports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/videofeed/internal/app"
	"github.com/Amund211/videofeed/internal/logging"
)

type listingStatusResponse struct {
	Success   bool       `json:"success"`
	Status    string     `json:"status"`
	Count     int        `json:"count"`
	Version   uint64     `json:"version"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
	Cause     string     `json:"cause,omitempty"`
}

func MakeGetListingStatusHandler(
	getListingStatus app.GetListingStatus,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"listingstatus",
		rateLimit{refill: 4, burst: 120},
		rateLimit{refill: 1, burst: 60},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := getListingStatus(ctx)

		response := listingStatusResponse{
			Success: true,
			Status:  status.Status,
			Count:   status.Count,
			Version: status.Version,
		}
		if !status.SettledAt.IsZero() {
			response.SettledAt = &status.SettledAt
		}
		if status.Err != nil {
			_, response.Cause = errorToResponse(status.Err)
		}

		writeJSON(ctx, w, http.StatusOK, response)
	}

	return middleware(handler)
}

func MakeRefreshListingHandler(
	refreshVideoListing app.RefreshVideoListing,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"listingrefresh",
		rateLimit{refill: 0.2, burst: 10},
		rateLimit{refill: 0.1, burst: 5},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		refreshVideoListing(ctx)
		logging.FromContext(ctx).InfoContext(ctx, "Listing refresh requested")

		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
