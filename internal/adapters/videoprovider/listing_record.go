package videoprovider

import (
	"time"

	"github.com/Amund211/videofeed/internal/domain"
)

type listingRecord struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Uploader     string    `json:"uploader"`
	ChannelID    string    `json:"channelId"`
	Views        int64     `json:"views"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Categories   []string  `json:"categories"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videos"`
	UploadDate   string    `json:"uploadDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r listingRecord) toDomain() domain.Video {
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}

	return domain.Video{
		ID:           r.ID,
		Title:        r.Title,
		Uploader:     r.Uploader,
		ChannelID:    r.ChannelID,
		Views:        r.Views,
		ThumbnailURL: r.ThumbnailURL,
		Categories:   categories,
		Description:  r.Description,
		VideoURL:     r.VideoURL,
		UploadDate:   r.UploadDate,
		CreatedAt:    r.CreatedAt,
	}
}
