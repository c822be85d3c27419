package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/reporting"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

type videoResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Uploader     string    `json:"uploader"`
	ChannelID    string    `json:"channelId"`
	Views        int64     `json:"views"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Categories   []string  `json:"categories"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	UploadDate   string    `json:"uploadDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

type videosResponse struct {
	Success bool            `json:"success"`
	Videos  []videoResponse `json:"videos"`
}

func videoToResponse(video domain.Video) videoResponse {
	categories := video.Categories
	if categories == nil {
		categories = []string{}
	}
	return videoResponse{
		ID:           video.ID,
		Title:        video.Title,
		Uploader:     video.Uploader,
		ChannelID:    video.ChannelID,
		Views:        video.Views,
		ThumbnailURL: video.ThumbnailURL,
		Categories:   categories,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		UploadDate:   video.UploadDate,
		CreatedAt:    video.CreatedAt,
	}
}

func videosToResponse(videos []domain.Video) videosResponse {
	converted := make([]videoResponse, 0, len(videos))
	for _, video := range videos {
		converted = append(converted, videoToResponse(video))
	}
	return videosResponse{Success: true, Videos: converted}
}

// Non-standard status for requests abandoned by the client, as used by nginx
const statusClientClosedRequest = 499

// errorToResponse maps a use case error to a status code and a cause safe to show to clients
func errorToResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrServerError):
		return http.StatusBadGateway, "listing server error"
	case errors.Is(err, domain.ErrTransportFailure):
		return http.StatusServiceUnavailable, "listing unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timed out waiting for listing"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "request canceled"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, cause string, statusCode int) {
	writeJSON(ctx, w, statusCode, errorResponse{Success: false, Cause: cause})
}

func writeUseCaseError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode, cause := errorToResponse(err)
	// NOTE: Adapters handle their own error reporting
	writeErrorResponse(ctx, w, cause, statusCode)
}
