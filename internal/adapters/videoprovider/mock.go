package videoprovider

import (
	"context"
	"time"

	"github.com/Amund211/videofeed/internal/domain"
)

type mockedListingAPI struct {
	videos []domain.Video
}

// NewMockedListingAPI returns a listing API serving a small fixed listing, for local development
func NewMockedListingAPI() ListingAPI {
	createdAt := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	return &mockedListingAPI{
		videos: []domain.Video{
			{
				ID:           "65f2c1a0e4b0a1b2c3d4e501",
				Title:        "Building a CLI in Go",
				Uploader:     "Gopher Academy",
				ChannelID:    "channel-gophers",
				Views:        12840,
				ThumbnailURL: "https://picsum.photos/seed/go-cli/640/360",
				Categories:   []string{"Programming", "Go"},
				Description:  "From flag parsing to releases.",
				VideoURL:     "https://videos.example.com/go-cli.mp4",
				UploadDate:   "2 days ago",
				CreatedAt:    createdAt,
			},
			{
				ID:           "65f2c1a0e4b0a1b2c3d4e502",
				Title:        "Sourdough for beginners",
				Uploader:     "Crumb & Co",
				ChannelID:    "channel-bakery",
				Views:        98311,
				ThumbnailURL: "https://picsum.photos/seed/sourdough/640/360",
				Categories:   []string{"Cooking"},
				Description:  "Starter, stretch and fold, bake.",
				VideoURL:     "https://videos.example.com/sourdough.mp4",
				UploadDate:   "1 week ago",
				CreatedAt:    createdAt.Add(-5 * 24 * time.Hour),
			},
			{
				ID:           "65f2c1a0e4b0a1b2c3d4e503",
				Title:        "Concurrency patterns in Go",
				Uploader:     "Gopher Academy",
				ChannelID:    "channel-gophers",
				Views:        40210,
				ThumbnailURL: "https://picsum.photos/seed/go-concurrency/640/360",
				Categories:   []string{"Programming", "Go"},
				Description:  "Pipelines, fan-out and cancellation.",
				VideoURL:     "https://videos.example.com/go-concurrency.mp4",
				UploadDate:   "3 weeks ago",
				CreatedAt:    createdAt.Add(-21 * 24 * time.Hour),
			},
			{
				ID:           "65f2c1a0e4b0a1b2c3d4e504",
				Title:        "Lo-fi beats to debug to",
				Uploader:     "Night Shift",
				ChannelID:    "channel-music",
				Views:        501223,
				ThumbnailURL: "https://picsum.photos/seed/lofi/640/360",
				Categories:   []string{"Music"},
				Description:  "Two hours of calm.",
				VideoURL:     "https://videos.example.com/lofi.mp4",
				UploadDate:   "1 month ago",
				CreatedAt:    createdAt.Add(-30 * 24 * time.Hour),
			},
		},
	}
}

func (m *mockedListingAPI) FetchAll(ctx context.Context, credential string) ([]domain.Video, error) {
	return m.videos, nil
}
