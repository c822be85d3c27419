package domaintest

import (
	"fmt"
	"time"

	"github.com/Amund211/videofeed/internal/domain"
)

type videoBuilder struct {
	video *domain.Video
}

func (vb *videoBuilder) WithTitle(title string) *videoBuilder {
	vb.video.Title = title
	return vb
}

func (vb *videoBuilder) WithUploader(uploader string) *videoBuilder {
	vb.video.Uploader = uploader
	return vb
}

func (vb *videoBuilder) WithChannelID(channelID string) *videoBuilder {
	vb.video.ChannelID = channelID
	return vb
}

func (vb *videoBuilder) WithViews(views int64) *videoBuilder {
	vb.video.Views = views
	return vb
}

func (vb *videoBuilder) WithThumbnailURL(thumbnailURL string) *videoBuilder {
	vb.video.ThumbnailURL = thumbnailURL
	return vb
}

func (vb *videoBuilder) WithDescription(description string) *videoBuilder {
	vb.video.Description = description
	return vb
}

func (vb *videoBuilder) WithVideoURL(videoURL string) *videoBuilder {
	vb.video.VideoURL = videoURL
	return vb
}

func (vb *videoBuilder) WithUploadDate(uploadDate string) *videoBuilder {
	vb.video.UploadDate = uploadDate
	return vb
}

func (vb *videoBuilder) WithCategories(categories ...string) *videoBuilder {
	vb.video.Categories = categories
	return vb
}

func (vb *videoBuilder) WithCreatedAt(createdAt time.Time) *videoBuilder {
	vb.video.CreatedAt = createdAt
	return vb
}

func (vb *videoBuilder) Build() domain.Video {
	video := *vb.video
	// Copy so further mutations to the builder don't affect the returned video
	video.Categories = append([]string{}, vb.video.Categories...)
	return video
}

func NewVideoBuilder(id string) *videoBuilder {
	return &videoBuilder{
		video: &domain.Video{
			ID:           id,
			Title:        fmt.Sprintf("Video %s", id),
			Uploader:     "Uploader",
			ChannelID:    "channel",
			ThumbnailURL: fmt.Sprintf("https://img.example.com/%s.jpg", id),
			Categories:   []string{},
			VideoURL:     fmt.Sprintf("https://videos.example.com/%s.mp4", id),
			UploadDate:   "1 day ago",
			CreatedAt:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}
