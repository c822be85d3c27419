package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Amund211/videofeed/internal/adapters/cache"
	"github.com/Amund211/videofeed/internal/adapters/credentialstore"
	"github.com/Amund211/videofeed/internal/adapters/videoprovider"
	"github.com/Amund211/videofeed/internal/constants"
	"github.com/Amund211/videofeed/internal/domain"
	"github.com/Amund211/videofeed/internal/logging"
	"golang.org/x/sync/errgroup"
)

const consumers = 3

type videoOutput struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Uploader  string    `json:"uploader"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"createdAt"`
}

func main() {
	token := os.Getenv("VIDEOFEED_TOKEN")
	if token == "" {
		log.Fatal("No token provided (VIDEOFEED_TOKEN)")
	}

	listingURL := os.Getenv("LISTING_URL")
	if listingURL == "" {
		log.Fatal("No listing URL provided (LISTING_URL)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, cancel := context.WithTimeout(logging.AddToContext(context.Background(), logger), time.Minute)
	defer cancel()

	store, stop := credentialstore.NewMemoryStore(0)
	defer stop()
	if err := store.SetCredential(ctx, constants.CREDENTIAL_NAME, token); err != nil {
		log.Fatalf("Failed to store token: %v", err)
	}

	listingAPI, err := videoprovider.NewListingAPI(&http.Client{Timeout: 30 * time.Second}, listingURL, time.Now, time.After)
	if err != nil {
		log.Fatalf("Failed to create listing API: %v", err)
	}

	listingCache, err := cache.NewSharedResourceCache[domain.Video]("videos", logger, store, listingAPI, time.Now)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	// Every consumer shares the single fetch
	entries := make([]cache.Entry[domain.Video], consumers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range consumers {
		g.Go(func() error {
			entry, err := listingCache.Get(gctx)
			if err != nil {
				return fmt.Errorf("consumer %d: %w", i, err)
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Failed to get listing: %v", err)
	}

	for i, entry := range entries {
		logger.Info("Consumer settled", "consumer", i, "status", entry.Status.String(), "version", entry.Version)
	}

	entry := entries[0]
	if entry.Status == cache.StatusFailed {
		log.Fatalf("Listing failed: %v", entry.Err)
	}

	output := make([]videoOutput, 0, len(entry.Items))
	for _, video := range entry.Items {
		output = append(output, videoOutput{
			ID:        video.ID,
			Title:     video.Title,
			Uploader:  video.Uploader,
			Views:     video.Views,
			CreatedAt: video.CreatedAt,
		})
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal listing: %v", err)
	}
	fmt.Println(string(data))
}
