package app

import (
	"context"
	"fmt"
)

type ListCategories func(ctx context.Context) ([]string, error)

func BuildListCategories(getVideoListing GetVideoListing) ListCategories {
	return func(ctx context.Context) ([]string, error) {
		listing, err := getVideoListing(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get video listing: %w", err)
		}

		categories := []string{ALL_CATEGORIES}
		seen := map[string]bool{ALL_CATEGORIES: true}
		for _, video := range listing.Videos {
			for _, category := range video.Categories {
				if category == "" || seen[category] {
					continue
				}
				seen[category] = true
				categories = append(categories, category)
			}
		}

		return categories, nil
	}
}
