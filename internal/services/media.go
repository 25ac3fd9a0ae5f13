package services

import (
	"context"
	"strings"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

// UploadRequest is the upload endpoint's request body. File and Thumbnail are base64 text.
type UploadRequest struct {
	File              string `json:"file"`
	Filename          string `json:"filename"`
	Thumbnail         string `json:"thumbnail,omitempty"`
	ThumbnailFilename string `json:"thumbnail_filename,omitempty"`
}

// MediaService sends encoded media to the upload endpoint.
type MediaService struct {
	api *APIService
	url string
}

// NewMediaService creates a MediaService posting to url.
func NewMediaService(api *APIService, url string) *MediaService {
	return &MediaService{api: api, url: url}
}

// Upload stores the encoded media and returns its playback URL, thumbnail URL and duration.
func (s *MediaService) Upload(ctx context.Context, token string, req UploadRequest) (*models.UploadResult, error) {
	resp, err := s.api.Post(ctx, s.url, token, req)
	if err != nil {
		return nil, stepError(shared.ErrUploadFailed, "upload failed", err)
	}
	if err := checkResponse(resp, shared.ErrUploadFailed, "upload failed", true); err != nil {
		return nil, err
	}

	var result models.UploadResult
	if err := decodeResponse(resp, shared.ErrUploadFailed, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.VideoURL) == "" {
		return nil, shared.NewError(shared.ErrUploadFailed, resp.StatusCode, "upload response is missing video_url", shared.ErrTransport)
	}
	return &result, nil
}
