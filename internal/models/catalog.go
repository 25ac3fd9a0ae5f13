package models

import (
	"encoding/json"
	"math"
)

// UploadResult is the upload endpoint's response.
//
// Duration is kept as the number the endpoint sent so it can be forwarded to the catalog unmodified.
type UploadResult struct {
	VideoURL     string      `json:"video_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Duration     json.Number `json:"duration"`
}

// DurationOrZero returns Duration, substituting 0 when the endpoint omitted it.
func (u *UploadResult) DurationOrZero() json.Number {
	if u == nil || u.Duration == "" {
		return json.Number("0")
	}
	return u.Duration
}

// CatalogEntry is a published video as listed by the catalog endpoint.
type CatalogEntry struct {
	ID            int64       `json:"id"`
	OwnerID       int64       `json:"user_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	VideoURL      string      `json:"video_url"`
	ThumbnailURL  string      `json:"thumbnail_url"`
	Duration      json.Number `json:"duration"`
	Views         int64       `json:"views"`
	ChannelName   string      `json:"channel_name"`
	ChannelAvatar string      `json:"channel_avatar"`
	CreatedAt     string      `json:"created_at"`
}

// Seconds returns the duration rounded to whole seconds; unparsable or negative durations are 0.
func (e CatalogEntry) Seconds() int {
	return numberSeconds(e.Duration)
}

// CatalogEntryRef is the catalog's reply to a create request. The id is always assigned by the server.
type CatalogEntryRef struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	CreatedAt    string `json:"created_at"`
}

func numberSeconds(n json.Number) int {
	if n == "" {
		return 0
	}
	f, err := n.Float64()
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0
	}
	return int(math.Round(f))
}
