package ports

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Amund211/videofeed/internal/app"
	"github.com/Amund211/videofeed/internal/logging"
)

const maxSessionBodySize = 8 * 1024

func MakeLoginHandler(
	login app.Login,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"login",
		rateLimit{refill: 0.5, burst: 20},
		rateLimit{refill: 0.2, burst: 10},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer r.Body.Close()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSessionBodySize))
		if err != nil {
			logging.FromContext(ctx).InfoContext(ctx, "Failed to read request body", "error", err.Error())
			writeErrorResponse(ctx, w, "failed to read request body", http.StatusBadRequest)
			return
		}

		request := struct {
			Token string `json:"token"`
		}{}
		if err := json.Unmarshal(body, &request); err != nil {
			writeErrorResponse(ctx, w, "invalid request body", http.StatusBadRequest)
			return
		}

		err = login(ctx, request.Token)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Stored new credential")
		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}

func MakeLogoutHandler(
	logout app.Logout,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildPortMiddleware(
		"logout",
		rateLimit{refill: 0.5, burst: 20},
		rateLimit{refill: 0.2, burst: 10},
		allowedOrigins,
		rootLogger,
		sentryMiddleware,
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := logout(ctx)
		if err != nil {
			writeUseCaseError(ctx, w, err)
			return
		}

		logging.FromContext(ctx).InfoContext(ctx, "Removed credential")
		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
