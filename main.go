package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/videofeed/internal/adapters/cache"
	"github.com/Amund211/videofeed/internal/adapters/credentialstore"
	"github.com/Amund211/videofeed/internal/adapters/database"
	"github.com/Amund211/videofeed/internal/adapters/videoprovider"
	"github.com/Amund211/videofeed/internal/app"
	"github.com/Amund211/videofeed/internal/config"
	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/logging"
	"github.com/Amund211/videofeed/internal/ports"
	"github.com/Amund211/videofeed/internal/reporting"
	"github.com/Amund211/videofeed/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"
)

const credentialTTL = 30 * 24 * time.Hour

func newCredentialStore(ctx context.Context, conf config.Config, logger *slog.Logger) (credentialstore.Store, func(), error) {
	switch conf.CredentialStore() {
	case config.CredentialStoreMemory:
		store, stop := credentialstore.NewMemoryStore(credentialTTL)
		return store, stop, nil
	case config.CredentialStorePostgres:
		logger.Info("Initializing database connection")
		db, err := database.NewCloudsqlPostgresDatabase(conf)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		logger.Info("Initialized database connection")

		schemaName := database.GetSchemaName(!conf.IsProduction())
		err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, schemaName)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		store := credentialstore.NewPostgresStore(db, schemaName, credentialTTL, time.Now)
		return store, func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown credential store %s", conf.CredentialStore())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.New().String()

	fail := func(logger *slog.Logger, msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail(slog.Default(), "Failed to load config", "error", err.Error())
	}

	logger := slog.New(
		logging.NewTracingLogHandler(slog.NewJSONHandler(os.Stdout, nil), conf.GoogleCloudProject()),
	).With("instanceID", instanceID)
	ctx = logging.AddToContext(ctx, logger)

	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	if conf.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, "videofeed")
		if err != nil {
			fail(logger, "Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			if err := shutdownOTel(context.Background()); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail(logger, "Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	httpClient := &http.Client{
		Timeout:   conf.RequestTimeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	listingAPI, err := videoprovider.NewListingAPIOrMock(conf, httpClient)
	if err != nil {
		fail(logger, "Failed to initialize listing API", "error", err.Error())
	}
	logger.Info("Initialized listing API")

	credentialStore, closeStore, err := newCredentialStore(ctx, conf, logger)
	if err != nil {
		fail(logger, "Failed to initialize credential store", "error", err.Error())
	}
	defer closeStore()
	logger.Info("Initialized credential store", "store", string(conf.CredentialStore()))

	listingCache, err := cache.NewSharedResourceCache[domain.Video]("videos", logger.With("component", "listingCache"), credentialStore, listingAPI, time.Now)
	if err != nil {
		fail(logger, "Failed to initialize listing cache", "error", err.Error())
	}

	allowedOrigins, err := ports.NewDomainSuffixes(conf.AllowedOrigins()...)
	if err != nil {
		fail(logger, "Failed to initialize allowed origins", "error", err.Error())
	}

	getVideoListing := app.BuildGetVideoListing(listingCache)
	getListingStatus := app.BuildGetListingStatus(listingCache)
	refreshVideoListing := app.BuildRefreshVideoListing(listingCache)
	searchVideos, err := app.BuildSearchVideos(getVideoListing)
	if err != nil {
		fail(logger, "Failed to initialize search", "error", err.Error())
	}
	listCategories := app.BuildListCategories(getVideoListing)
	getRecommendations := app.BuildGetRecommendations(getVideoListing)
	login := app.BuildLogin(credentialStore, listingCache)
	logout := app.BuildLogout(credentialStore, listingCache)

	mux := http.NewServeMux()
	corsHandler := ports.BuildCORSHandler(allowedOrigins)

	mux.HandleFunc("OPTIONS /v1/videos", corsHandler)
	mux.HandleFunc(
		"GET /v1/videos",
		ports.MakeGetVideosHandler(
			searchVideos,
			conf.RequestTimeout(),
			allowedOrigins,
			logger.With("port", "videos"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/categories", corsHandler)
	mux.HandleFunc(
		"GET /v1/categories",
		ports.MakeListCategoriesHandler(
			listCategories,
			conf.RequestTimeout(),
			allowedOrigins,
			logger.With("port", "categories"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/recommendations/{channelId}", corsHandler)
	mux.HandleFunc(
		"GET /v1/recommendations/{channelId}",
		ports.MakeGetRecommendationsHandler(
			getRecommendations,
			conf.RequestTimeout(),
			allowedOrigins,
			logger.With("port", "recommendations"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/listing/status", corsHandler)
	mux.HandleFunc(
		"GET /v1/listing/status",
		ports.MakeGetListingStatusHandler(
			getListingStatus,
			allowedOrigins,
			logger.With("port", "listingstatus"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/listing/refresh", corsHandler)
	mux.HandleFunc(
		"POST /v1/listing/refresh",
		ports.MakeRefreshListingHandler(
			refreshVideoListing,
			allowedOrigins,
			logger.With("port", "listingrefresh"),
			sentryMiddleware,
		),
	)

	mux.HandleFunc("OPTIONS /v1/session", corsHandler)
	mux.HandleFunc(
		"POST /v1/session",
		ports.MakeLoginHandler(
			login,
			allowedOrigins,
			logger.With("port", "login"),
			sentryMiddleware,
		),
	)
	mux.HandleFunc(
		"DELETE /v1/session",
		ports.MakeLogoutHandler(
			logout,
			allowedOrigins,
			logger.With("port", "logout"),
			sentryMiddleware,
		),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", conf.Port()),
		Handler:           otelhttp.NewHandler(mux, "videofeed"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownComplete := make(chan struct{})
	go func() {
		defer close(shutdownComplete)
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}()

	logger.Info("Init complete")
	err = server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownComplete
		logger.Info("Server shutdown")
	} else {
		fail(logger, "Server error", "error", err.Error())
	}
}
