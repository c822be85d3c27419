package ports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Amund211/videofeed/internal/app"
	"github.com/Amund211/videofeed/internal/logging"
	"github.com/Amund211/videofeed/internal/reporting"
)

func MakeGetVideosHandler(
	searchVideos app.SearchVideos,
	requestTimeout time.Duration,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildPortMiddleware(
			"videos",
			rateLimit{refill: 8, burst: 480},
			rateLimit{refill: 2, burst: 120},
			allowedOrigins,
			rootLogger,
			sentryMiddleware,
		),
		NewTimeoutMiddleware(requestTimeout),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		query := app.VideoQuery{
			Search:   r.URL.Query().Get("q"),
			Category: r.URL.Query().Get("category"),
			Sort:     r.URL.Query().Get("sort"),
		}
		ctx = logging.AddMetaToContext(ctx,
			slog.String("search", query.Search),
			slog.String("category", query.Category),
			slog.String("sort", query.Sort),
		)
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{
			"search":   query.Search,
			"category": query.Category,
			"sort":     query.Sort,
		})

		videos, err := searchVideos(ctx, query)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, videosToResponse(videos))
	}

	return middleware(handler)
}

func MakeGetRecommendationsHandler(
	getRecommendations app.GetRecommendations,
	requestTimeout time.Duration,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildPortMiddleware(
			"recommendations",
			rateLimit{refill: 8, burst: 480},
			rateLimit{refill: 2, burst: 120},
			allowedOrigins,
			rootLogger,
			sentryMiddleware,
		),
		NewTimeoutMiddleware(requestTimeout),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		channelID := r.PathValue("channelId")

		ctx = logging.AddMetaToContext(ctx, slog.String("channelId", channelID))
		ctx = reporting.AddExtrasToContext(ctx, map[string]string{"channelId": channelID})

		videos, err := getRecommendations(ctx, channelID)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, videosToResponse(videos))
	}

	return middleware(handler)
}

func MakeListCategoriesHandler(
	listCategories app.ListCategories,
	requestTimeout time.Duration,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := ComposeMiddlewares(
		buildPortMiddleware(
			"categories",
			rateLimit{refill: 4, burst: 120},
			rateLimit{refill: 1, burst: 60},
			allowedOrigins,
			rootLogger,
			sentryMiddleware,
		),
		NewTimeoutMiddleware(requestTimeout),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		categories, err := listCategories(ctx)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, struct {
			Success    bool     `json:"success"`
			Categories []string `json:"categories"`
		}{
			Success:    true,
			Categories: categories,
		})
	}

	return middleware(handler)
}
