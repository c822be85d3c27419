package domain

import (
	"slices"
	"time"
)

type Video struct {
	ID           string
	Title        string
	Uploader     string
	ChannelID    string
	Views        int64
	ThumbnailURL string
	Categories   []string
	Description  string
	VideoURL     string
	UploadDate   string
	CreatedAt    time.Time
}

// HasCategory reports whether the video is tagged with the given category (exact match)
func (v Video) HasCategory(category string) bool {
	return slices.Contains(v.Categories, category)
}

// VideoListing is one settled snapshot of the shared listing
//
// Version identifies the fetch cycle that produced it. Two listings with the same version
// hold the same videos.
type VideoListing struct {
	Videos    []Video
	Version   uint64
	FetchedAt time.Time
}
