package app_test

import (
	"testing"

	"github.com/Amund211/videofeed/internal/app"
	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestListCategories(t *testing.T) {
	t.Parallel()

	t.Run("unique in first seen order", func(t *testing.T) {
		t.Parallel()

		listing := &staticListing{listing: domain.VideoListing{Videos: searchFixtureVideos(), Version: 1}}
		listCategories := app.BuildListCategories(listing.get)

		categories, err := listCategories(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"All", "Programming", "Cooking", "Advanced"}, categories)
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()

		listing := &staticListing{listing: domain.VideoListing{Videos: []domain.Video{}, Version: 1}}
		listCategories := app.BuildListCategories(listing.get)

		categories, err := listCategories(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"All"}, categories)
	})

	t.Run("All and empty categories are not repeated", func(t *testing.T) {
		t.Parallel()

		listing := &staticListing{listing: domain.VideoListing{
			Videos: []domain.Video{
				domaintest.NewVideoBuilder("a").WithCategories("All", "", "Music").Build(),
			},
			Version: 1,
		}}
		listCategories := app.BuildListCategories(listing.get)

		categories, err := listCategories(t.Context())
		require.NoError(t, err)
		require.Equal(t, []string{"All", "Music"}, categories)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		listing := &staticListing{err: domain.ErrServerError}
		listCategories := app.BuildListCategories(listing.get)

		_, err := listCategories(t.Context())
		require.ErrorIs(t, err, domain.ErrServerError)
	})
}

func TestGetRecommendations(t *testing.T) {
	t.Parallel()

	videos := []domain.Video{
		domaintest.NewVideoBuilder("1").WithChannelID("own").Build(),
		domaintest.NewVideoBuilder("2").WithChannelID("other").Build(),
		domaintest.NewVideoBuilder("3").WithChannelID("other").Build(),
		domaintest.NewVideoBuilder("4").WithChannelID("own").Build(),
		domaintest.NewVideoBuilder("5").WithChannelID("third").Build(),
		domaintest.NewVideoBuilder("6").WithChannelID("third").Build(),
		domaintest.NewVideoBuilder("7").WithChannelID("other").Build(),
		domaintest.NewVideoBuilder("8").WithChannelID("other").Build(),
	}
	listing := &staticListing{listing: domain.VideoListing{Videos: videos, Version: 1}}
	getRecommendations := app.BuildGetRecommendations(listing.get)

	t.Run("at most five from other channels", func(t *testing.T) {
		t.Parallel()

		recommendations, err := getRecommendations(t.Context(), "own")
		require.NoError(t, err)
		require.Equal(t, []string{"2", "3", "5", "6", "7"}, ids(recommendations))
	})

	t.Run("fewer candidates", func(t *testing.T) {
		t.Parallel()

		small := &staticListing{listing: domain.VideoListing{Videos: videos[:4], Version: 1}}
		recommendations, err := app.BuildGetRecommendations(small.get)(t.Context(), "other")
		require.NoError(t, err)
		require.Equal(t, []string{"1", "4"}, ids(recommendations))
	})

	t.Run("invalid channel id", func(t *testing.T) {
		t.Parallel()

		_, err := getRecommendations(t.Context(), "")
		require.ErrorIs(t, err, domain.ErrInvalidQuery)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		failing := &staticListing{err: domain.ErrUnauthenticated}
		_, err := app.BuildGetRecommendations(failing.get)(t.Context(), "own")
		require.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}
