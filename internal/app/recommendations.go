package app

import (
	"context"
	"fmt"

	"github.com/Amund211/videofeed/internal/domain"
)

const recommendationCount = 5

type GetRecommendations func(ctx context.Context, channelID string) ([]domain.Video, error)

func BuildGetRecommendations(getVideoListing GetVideoListing) GetRecommendations {
	return func(ctx context.Context, channelID string) ([]domain.Video, error) {
		if channelID == "" || len(channelID) > 100 {
			return nil, fmt.Errorf("%w: invalid channel id length", domain.ErrInvalidQuery)
		}

		listing, err := getVideoListing(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get video listing: %w", err)
		}

		recommendations := make([]domain.Video, 0, recommendationCount)
		for _, video := range listing.Videos {
			if video.ChannelID == channelID {
				continue
			}
			recommendations = append(recommendations, video)
			if len(recommendations) == recommendationCount {
				break
			}
		}

		return recommendations, nil
	}
}
