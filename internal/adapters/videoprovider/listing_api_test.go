package videoprovider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/Amund211/videofeed/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "https://listing.example.com/Users"
const credential = "my-credential"

var expectedHeaders = http.Header{
	// NOTE: go's http.Header automatically camelcases the keys
	"User-Agent":    {"videofeed/0.1.0 (+https://github.com/Amund211/videofeed)"},
	"Accept":        {"application/json"},
	"Authorization": {"Bearer " + credential},
}

type mockedHttpClient struct {
	t          *testing.T
	response   *http.Response
	statusCode int
	body       string
	requestErr error

	calls atomic.Int64
}

func (m *mockedHttpClient) Do(req *http.Request) (*http.Response, error) {
	m.calls.Add(1)
	assert.Equal(m.t, http.MethodGet, req.Method)
	assert.Equal(m.t, listingURL, req.URL.String())
	assert.Equal(m.t, expectedHeaders, req.Header)

	if m.requestErr != nil {
		return nil, m.requestErr
	}
	if m.response != nil {
		return m.response, nil
	}

	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

type cantRead struct{}

func (c cantRead) Read(p []byte) (n int, err error) {
	return 0, assert.AnError
}

func (c cantRead) Close() error {
	return nil
}

func newMockedHttpClient(t *testing.T, statusCode int, body string, err error) *mockedHttpClient {
	return &mockedHttpClient{
		t:          t,
		statusCode: statusCode,
		body:       body,
		requestErr: err,
	}
}

func newListingAPI(t *testing.T, httpClient HttpClient) ListingAPI {
	t.Helper()
	api, err := NewListingAPI(httpClient, listingURL, time.Now, time.After)
	require.NoError(t, err)
	return api
}

const twoRecords = `[
	{
		"_id": "id1",
		"title": "First video",
		"uploader": "Alice",
		"channelId": "channel-a",
		"views": 120,
		"thumbnailUrl": "https://img.example.com/1.jpg",
		"categories": ["Music", "Live"],
		"description": "The first one",
		"videos": "https://videos.example.com/1.mp4",
		"uploadDate": "2 days ago",
		"createdAt": "2025-03-14T12:00:00.000Z",
		"__v": 0
	},
	{
		"_id": "id2",
		"title": "Second video",
		"uploader": "Bob",
		"channelId": "channel-b",
		"views": 7,
		"videos": "https://videos.example.com/2.mp4",
		"createdAt": "2025-03-15T08:30:00Z"
	}
]`

func TestFetchAll(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		httpClient := newMockedHttpClient(t, 200, twoRecords, nil)
		videos, err := newListingAPI(t, httpClient).FetchAll(t.Context(), credential)
		require.NoError(t, err)

		require.Equal(t, []domain.Video{
			{
				ID:           "id1",
				Title:        "First video",
				Uploader:     "Alice",
				ChannelID:    "channel-a",
				Views:        120,
				ThumbnailURL: "https://img.example.com/1.jpg",
				Categories:   []string{"Music", "Live"},
				Description:  "The first one",
				VideoURL:     "https://videos.example.com/1.mp4",
				UploadDate:   "2 days ago",
				CreatedAt:    time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC),
			},
			{
				ID:         "id2",
				Title:      "Second video",
				Uploader:   "Bob",
				ChannelID:  "channel-b",
				Views:      7,
				Categories: []string{},
				VideoURL:   "https://videos.example.com/2.mp4",
				CreatedAt:  time.Date(2025, time.March, 15, 8, 30, 0, 0, time.UTC),
			},
		}, videos)
		require.EqualValues(t, 1, httpClient.calls.Load())
	})

	t.Run("empty listing", func(t *testing.T) {
		t.Parallel()

		videos, err := newListingAPI(t, newMockedHttpClient(t, 200, `[]`, nil)).FetchAll(t.Context(), credential)
		require.NoError(t, err)
		require.NotNil(t, videos)
		require.Empty(t, videos)
	})

	for _, statusCode := range []int{400, 401, 403, 404, 500, 502, 503} {
		t.Run(http.StatusText(statusCode), func(t *testing.T) {
			t.Parallel()

			httpClient := newMockedHttpClient(t, statusCode, `{"message":"nope"}`, nil)
			_, err := newListingAPI(t, httpClient).FetchAll(t.Context(), credential)
			require.ErrorIs(t, err, domain.ErrServerError)
			require.ErrorContains(t, err, "HTTP error! status: ")
			require.NotErrorIs(t, err, domain.ErrTransportFailure)
		})
	}

	t.Run("request error", func(t *testing.T) {
		t.Parallel()

		_, err := newListingAPI(t, newMockedHttpClient(t, 200, twoRecords, assert.AnError)).FetchAll(t.Context(), credential)
		require.ErrorIs(t, err, domain.ErrTransportFailure)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("body read error", func(t *testing.T) {
		t.Parallel()

		httpClient := &mockedHttpClient{
			t: t,
			response: &http.Response{
				StatusCode: 200,
				Body:       cantRead{},
			},
		}
		_, err := newListingAPI(t, httpClient).FetchAll(t.Context(), credential)
		require.ErrorIs(t, err, domain.ErrTransportFailure)
		require.ErrorIs(t, err, assert.AnError)
	})

	for name, body := range map[string]string{
		"malformed json": `[{"_id": "id1",`,
		"not a list":     `{"_id": "id1"}`,
		"bad timestamp":  `[{"_id": "id1", "createdAt": "yesterday"}]`,
		"null listing":   `null`,
		"null record":    `[{"_id": "id1"}, null]`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := newListingAPI(t, newMockedHttpClient(t, 200, body, nil)).FetchAll(t.Context(), credential)
			require.ErrorIs(t, err, domain.ErrTransportFailure)
		})
	}

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		httpClient := newMockedHttpClient(t, 200, twoRecords, nil)
		_, err := newListingAPI(t, httpClient).FetchAll(ctx, credential)
		require.ErrorIs(t, err, domain.ErrTransportFailure)
		require.ErrorIs(t, err, context.Canceled)
		require.EqualValues(t, 0, httpClient.calls.Load())
	})

	t.Run("rate limiting", func(t *testing.T) {
		t.Parallel()
		synctest.Test(t, func(t *testing.T) {
			start := time.Now()
			httpClient := newMockedHttpClient(t, 200, `[]`, nil)
			api := newListingAPI(t, httpClient)

			for range 10 {
				_, err := api.FetchAll(t.Context(), credential)
				require.NoError(t, err)
			}
			require.Equal(t, start, time.Now())

			_, err := api.FetchAll(t.Context(), credential)
			require.NoError(t, err)
			require.Equal(t, 10*time.Second, time.Since(start))
			require.EqualValues(t, 11, httpClient.calls.Load())
		})
	})
}

func TestMockedListingAPI(t *testing.T) {
	t.Parallel()

	videos, err := NewMockedListingAPI().FetchAll(t.Context(), "anything")
	require.NoError(t, err)
	require.NotEmpty(t, videos)

	seen := map[string]bool{}
	for _, video := range videos {
		require.NotEmpty(t, video.ID)
		require.False(t, seen[video.ID], "duplicate id %s", video.ID)
		seen[video.ID] = true
	}
}
