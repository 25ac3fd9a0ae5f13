package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

// CreateEntryRequest registers uploaded media in the catalog.
//
// Duration is forwarded exactly as the upload endpoint reported it.
type CreateEntryRequest struct {
	Action       string      `json:"action"`
	UserID       *int64      `json:"user_id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	VideoURL     string      `json:"video_url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Duration     json.Number `json:"duration"`
}

// NewCreateEntryRequest builds the create request for an uploaded draft.
func NewCreateEntryRequest(owner *models.Identity, title, description string, uploaded *models.UploadResult) CreateEntryRequest {
	return CreateEntryRequest{
		Action:       "create",
		UserID:       owner.ID,
		Title:        title,
		Description:  description,
		VideoURL:     uploaded.VideoURL,
		ThumbnailURL: uploaded.ThumbnailURL,
		Duration:     uploaded.DurationOrZero(),
	}
}

type viewRequest struct {
	Action  string `json:"action"`
	VideoID int64  `json:"video_id"`
}

// CatalogService lists and registers catalog entries.
type CatalogService struct {
	api *APIService
	url string
}

// NewCatalogService creates a CatalogService for the catalog endpoint at url.
func NewCatalogService(api *APIService, url string) *CatalogService {
	return &CatalogService{api: api, url: url}
}

// List returns the newest catalog entries, or one channel's entries when ownerID is non-nil.
func (s *CatalogService) List(ctx context.Context, ownerID *int64) ([]models.CatalogEntry, error) {
	endpoint := s.url
	if ownerID != nil {
		u, err := url.Parse(s.url)
		if err != nil {
			return nil, shared.NewError(shared.ErrInvalidConfig, 0, "invalid catalog URL", err)
		}
		q := u.Query()
		q.Set("user_id", strconv.FormatInt(*ownerID, 10))
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	resp, err := s.api.Get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp, shared.ErrServiceUnavailable, "could not load videos", false); err != nil {
		return nil, err
	}

	var out struct {
		Videos []models.CatalogEntry `json:"videos"`
	}
	if err := decodeResponse(resp, shared.ErrTransport, &out); err != nil {
		return nil, err
	}
	return out.Videos, nil
}

// Create registers an uploaded video. The returned reference carries the server-assigned id.
func (s *CatalogService) Create(ctx context.Context, token string, req CreateEntryRequest) (*models.CatalogEntryRef, error) {
	req.Action = "create"

	resp, err := s.api.Post(ctx, s.url, token, req)
	if err != nil {
		return nil, stepError(shared.ErrMetadataFailed, "could not register video", err)
	}
	if err := checkResponse(resp, shared.ErrMetadataFailed, "could not register video", true); err != nil {
		return nil, err
	}

	var out struct {
		Video *models.CatalogEntryRef `json:"video"`
	}
	if err := decodeResponse(resp, shared.ErrMetadataFailed, &out); err != nil {
		return nil, err
	}
	if out.Video == nil {
		return nil, shared.NewError(shared.ErrMetadataFailed, resp.StatusCode, "catalog response is missing video", shared.ErrTransport)
	}
	return out.Video, nil
}

// RecordView increments the view counter of a video and returns the new count.
func (s *CatalogService) RecordView(ctx context.Context, videoID int64) (int64, error) {
	if videoID <= 0 {
		return 0, shared.Validationf("video id must be positive")
	}

	resp, err := s.api.Post(ctx, s.url, "", viewRequest{Action: "view", VideoID: videoID})
	if err != nil {
		return 0, err
	}
	if err := checkResponse(resp, shared.ErrServiceUnavailable, "could not record view", false); err != nil {
		return 0, err
	}

	var out struct {
		Views int64 `json:"views"`
	}
	if err := decodeResponse(resp, shared.ErrTransport, &out); err != nil {
		return 0, err
	}
	return out.Views, nil
}
