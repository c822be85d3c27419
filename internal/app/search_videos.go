package app

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Amund211/videofeed/internal/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

const ALL_CATEGORIES = "All"

const (
	SortListing = ""
	SortPopular = "popular"
	SortLatest  = "latest"
	SortOldest  = "oldest"
)

const searchMemoSize = 256

type VideoQuery struct {
	Search   string
	Category string
	Sort     string
}

type SearchVideos func(ctx context.Context, query VideoQuery) ([]domain.Video, error)

func normalizeQuery(query VideoQuery) (VideoQuery, error) {
	normalized := VideoQuery{
		Search:   strings.ToLower(strings.TrimSpace(query.Search)),
		Category: strings.TrimSpace(query.Category),
		Sort:     strings.ToLower(strings.TrimSpace(query.Sort)),
	}
	if normalized.Category == ALL_CATEGORIES {
		normalized.Category = ""
	}

	switch normalized.Sort {
	case SortListing, SortPopular, SortLatest, SortOldest:
	default:
		return VideoQuery{}, fmt.Errorf("%w: unknown sort order %q", domain.ErrInvalidQuery, query.Sort)
	}

	if len(normalized.Search) > 200 {
		return VideoQuery{}, fmt.Errorf("%w: search term too long", domain.ErrInvalidQuery)
	}

	return normalized, nil
}

func matches(video domain.Video, query VideoQuery) bool {
	if query.Category != "" && !video.HasCategory(query.Category) {
		return false
	}
	if query.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(video.Title), query.Search) ||
		strings.Contains(strings.ToLower(video.Uploader), query.Search)
}

func filterVideos(videos []domain.Video, query VideoQuery) []domain.Video {
	result := make([]domain.Video, 0, len(videos))
	for _, video := range videos {
		if matches(video, query) {
			result = append(result, video)
		}
	}

	switch query.Sort {
	case SortPopular:
		slices.SortStableFunc(result, func(a, b domain.Video) int {
			return cmp.Compare(b.Views, a.Views)
		})
	case SortLatest:
		slices.SortStableFunc(result, func(a, b domain.Video) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortOldest:
		slices.SortStableFunc(result, func(a, b domain.Video) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}

	return result
}

type searchMemoKey struct {
	version uint64
	query   VideoQuery
}

// BuildSearchVideos filters and sorts the shared listing
//
// Results are memoized per listing version, so a refetched listing is never served stale results.
// The returned slices are shared and must not be modified.
func BuildSearchVideos(getVideoListing GetVideoListing) (SearchVideos, error) {
	memo, err := lru.New[searchMemoKey, []domain.Video](searchMemoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create search memo: %w", err)
	}

	return func(ctx context.Context, query VideoQuery) ([]domain.Video, error) {
		normalized, err := normalizeQuery(query)
		if err != nil {
			return nil, err
		}

		listing, err := getVideoListing(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get video listing: %w", err)
		}

		key := searchMemoKey{version: listing.Version, query: normalized}
		if videos, ok := memo.Get(key); ok {
			return videos, nil
		}

		videos := filterVideos(listing.Videos, normalized)
		memo.Add(key, videos)
		return videos, nil
	}, nil
}
