package tasks

import (
	"context"
	"encoding/base64"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/services"
	"github.com/desertthunder/teltube/internal/shared"
)

// Uploader stores encoded media. Implemented by [services.MediaService].
type Uploader interface {
	Upload(ctx context.Context, token string, req services.UploadRequest) (*models.UploadResult, error)
}

// Registrar registers uploaded media in the catalog. Implemented by [services.CatalogService].
type Registrar interface {
	Create(ctx context.Context, token string, req services.CreateEntryRequest) (*models.CatalogEntryRef, error)
}

// PublishError reports which step of a publish failed.
//
// When Phase is [Register] the media is already stored server-side and Uploaded holds its URLs,
// so the caller can retry with [UploadPipeline.Register] instead of uploading again.
type PublishError struct {
	Phase    Phase
	Uploaded *models.UploadResult
	Err      error
}

func (e *PublishError) Error() string {
	return e.Err.Error()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// CanRegisterOnly reports whether the media was stored and only catalog registration is missing.
func (e *PublishError) CanRegisterOnly() bool {
	return e.Phase == Register && e.Uploaded != nil
}

// PipelineOpts configures an [UploadPipeline].
type PipelineOpts struct {
	SingleFlight bool // reject a publish of a draft that is already being published
	Logger       *log.Logger
}

// UploadPipeline turns a [models.Draft] into a catalog entry: encode, upload, then register.
//
// Registration never starts before the upload succeeded, and nothing is retried. Without
// SingleFlight two publishes of the same draft run two full, independent sagas.
type UploadPipeline struct {
	media        Uploader
	catalog      Registrar
	singleFlight bool
	logger       *log.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewUploadPipeline creates an UploadPipeline over the upload and catalog clients.
func NewUploadPipeline(media Uploader, catalog Registrar, opts PipelineOpts) *UploadPipeline {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &UploadPipeline{
		media:        media,
		catalog:      catalog,
		singleFlight: opts.SingleFlight,
		logger:       logger,
		inFlight:     make(map[string]struct{}),
	}
}

// Publish runs the full saga for draft as session's identity. On success the draft is cleared; on any
// failure it is left as it was and the error is a *[PublishError].
func (p *UploadPipeline) Publish(ctx context.Context, draft *models.Draft, session *models.Session, progress chan<- ProgressUpdate) (*models.CatalogEntryRef, error) {
	snap := draft.Snapshot()
	if err := checkPreconditions(snap, session); err != nil {
		return nil, &PublishError{Phase: Validate, Err: err}
	}
	sendProgress(progress, validateUpdate(snap.Title))

	release, err := p.acquire(snap.ID)
	if err != nil {
		return nil, &PublishError{Phase: Validate, Err: err}
	}
	defer release()

	logger := shared.WithLogger(p.logger, "draft", snap.ID, "title", snap.Title)

	sendProgress(progress, encodeUpdate(snap.Media))
	req := encodeDraft(snap)
	logger.Debug("encoded media", "filename", req.Filename, "raw_bytes", snap.Media.Size(), "encoded_bytes", len(req.File))

	sendProgress(progress, uploadUpdate(req.Filename, len(req.File)))
	uploaded, err := p.media.Upload(ctx, session.Token, req)
	if err != nil {
		logger.Warn("upload failed", "error", err)
		return nil, &PublishError{Phase: Upload, Err: err}
	}
	logger.Info("media uploaded", "video_url", uploaded.VideoURL, "duration", uploaded.Duration)

	return p.register(ctx, draft, snap, session, uploaded, progress, logger)
}

// Register runs only the catalog registration step for media that was already uploaded, typically
// after a [PublishError] with [PublishError.CanRegisterOnly]. On success the draft is cleared.
func (p *UploadPipeline) Register(ctx context.Context, draft *models.Draft, session *models.Session, uploaded *models.UploadResult, progress chan<- ProgressUpdate) (*models.CatalogEntryRef, error) {
	snap := draft.Snapshot()
	if err := checkSession(session); err != nil {
		return nil, &PublishError{Phase: Validate, Uploaded: uploaded, Err: err}
	}
	if snap == nil || snap.Title == "" {
		return nil, &PublishError{Phase: Validate, Uploaded: uploaded, Err: shared.Validationf("title is required")}
	}
	if uploaded == nil || uploaded.VideoURL == "" {
		return nil, &PublishError{Phase: Validate, Err: shared.Validationf("nothing has been uploaded yet")}
	}

	release, err := p.acquire(snap.ID)
	if err != nil {
		return nil, &PublishError{Phase: Validate, Uploaded: uploaded, Err: err}
	}
	defer release()

	logger := shared.WithLogger(p.logger, "draft", snap.ID, "title", snap.Title)
	return p.register(ctx, draft, snap, session, uploaded, progress, logger)
}

func (p *UploadPipeline) register(
	ctx context.Context,
	draft, snap *models.Draft,
	session *models.Session,
	uploaded *models.UploadResult,
	progress chan<- ProgressUpdate,
	logger *log.Logger,
) (*models.CatalogEntryRef, error) {
	sendProgress(progress, registerUpdate(uploaded))

	req := services.NewCreateEntryRequest(session.Identity, snap.Title, snap.Description, uploaded)
	ref, err := p.catalog.Create(ctx, session.Token, req)
	if err != nil {
		logger.Warn("media stored but catalog registration failed", "video_url", uploaded.VideoURL, "error", err)
		return nil, &PublishError{Phase: Register, Uploaded: uploaded, Err: err}
	}

	draft.Clear()
	logger.Info("published", "id", ref.ID)
	sendProgress(progress, doneUpdate(ref))
	return ref, nil
}

// acquire takes the single-flight slot for key when single flight is enabled.
func (p *UploadPipeline) acquire(key string) (func(), error) {
	if !p.singleFlight || key == "" {
		return func() {}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[key]; busy {
		return nil, shared.NewError(shared.ErrPublishInFlight, 0, "this video is already being published", nil)
	}
	p.inFlight[key] = struct{}{}

	return func() {
		p.mu.Lock()
		delete(p.inFlight, key)
		p.mu.Unlock()
	}, nil
}

func checkPreconditions(draft *models.Draft, session *models.Session) error {
	if err := draft.Validate(); err != nil {
		return err
	}
	return checkSession(session)
}

func checkSession(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if !session.Identity.HasID() {
		return shared.Validationf("your account has no user id, sign in again")
	}
	return nil
}

// encodeDraft base64-encodes the media, and the thumbnail when present, fully in memory.
func encodeDraft(d *models.Draft) services.UploadRequest {
	req := services.UploadRequest{
		File:     base64.StdEncoding.EncodeToString(d.Media.Data),
		Filename: d.Media.Filename(),
	}
	if d.Thumbnail != nil && len(d.Thumbnail.Data) > 0 {
		req.Thumbnail = base64.StdEncoding.EncodeToString(d.Thumbnail.Data)
		req.ThumbnailFilename = d.Thumbnail.Name
	}
	return req
}
