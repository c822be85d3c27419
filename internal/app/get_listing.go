package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Amund211/videofeed/internal/adapters/cache"
	"github.com/Amund211/videofeed/internal/domain"
)

type GetVideoListing func(ctx context.Context) (domain.VideoListing, error)

type GetListingStatus func(ctx context.Context) ListingStatus

type RefreshVideoListing func(ctx context.Context)

type ListingStatus struct {
	Status    string
	Count     int
	Version   uint64
	SettledAt time.Time
	Err       error
}

type videoListingCache interface {
	Get(ctx context.Context) (cache.Entry[domain.Video], error)
	Peek() cache.Entry[domain.Video]
	Invalidate(ctx context.Context)
}

func BuildGetVideoListing(listingCache videoListingCache) GetVideoListing {
	return func(ctx context.Context) (domain.VideoListing, error) {
		entry, err := listingCache.Get(ctx)
		if err != nil {
			return domain.VideoListing{}, fmt.Errorf("failed to wait for video listing: %w", err)
		}

		if entry.Status == cache.StatusFailed {
			// NOTE: The listing API and credential store handle their own error reporting
			return domain.VideoListing{}, fmt.Errorf("video listing unavailable: %w", entry.Err)
		}

		return domain.VideoListing{
			Videos:    entry.Items,
			Version:   entry.Version,
			FetchedAt: entry.SettledAt,
		}, nil
	}
}

func BuildGetListingStatus(listingCache videoListingCache) GetListingStatus {
	return func(ctx context.Context) ListingStatus {
		entry := listingCache.Peek()
		return ListingStatus{
			Status:    entry.Status.String(),
			Count:     len(entry.Items),
			Version:   entry.Version,
			SettledAt: entry.SettledAt,
			Err:       entry.Err,
		}
	}
}

func BuildRefreshVideoListing(listingCache videoListingCache) RefreshVideoListing {
	return func(ctx context.Context) {
		listingCache.Invalidate(ctx)
	}
}
