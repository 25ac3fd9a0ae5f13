// Package session holds the signed-in identity and token for the life of the process.
//
// A [Controller] is created once by the caller and passed to whatever needs the session. It loads
// persisted credentials on [Controller.Init] without asking the server, mediates login and logout
// between the identity endpoint and the credential store, and runs publishes with the current token.
// An authenticated call rejected with 401/403 signs the user out.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/services"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/desertthunder/teltube/internal/tasks"
)

// Authenticator exchanges credentials for a session. Implemented by [services.IdentityService].
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, email, password, name string) (*models.Session, error)
	GoogleLogin(ctx context.Context, profile *services.GoogleProfile) (*models.Session, error)
}

// CredentialStore persists the session pair. Implemented by [repositories.CredentialRepository].
type CredentialStore interface {
	Save(identity *models.Identity, token string) error
	Load() (*models.Session, bool)
	Clear() error
}

// Publisher runs the upload saga. Implemented by [tasks.UploadPipeline].
type Publisher interface {
	Publish(ctx context.Context, draft *models.Draft, session *models.Session, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error)
	Register(ctx context.Context, draft *models.Draft, session *models.Session, uploaded *models.UploadResult, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error)
}

// Feed lists the catalog. Implemented by [tasks.CatalogFeed].
type Feed interface {
	Refresh(ctx context.Context, ownerID *int64) (*tasks.FeedResult, error)
	Invalidate()
}

// Options wires a [Controller]. Feed and Logger may be nil.
type Options struct {
	Auth     Authenticator
	Store    CredentialStore
	Pipeline Publisher
	Feed     Feed
	Logger   *log.Logger
}

// Controller is the single writer of the session and of the credential store.
type Controller struct {
	auth     Authenticator
	store    CredentialStore
	pipeline Publisher
	feed     Feed
	logger   *log.Logger

	mu      sync.RWMutex
	current *models.Session
	busy    bool
}

// New creates a signed-out Controller. Call [Controller.Init] to adopt persisted credentials.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Controller{
		auth:     opts.Auth,
		store:    opts.Store,
		pipeline: opts.Pipeline,
		feed:     opts.Feed,
		logger:   logger,
	}
}

// Init loads the persisted session, if any, and reports whether one was adopted.
// The token is trusted until an authenticated call is rejected.
func (c *Controller) Init() bool {
	session, ok := c.store.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.current = nil
		return false
	}
	c.current = session
	c.logger.Info("restored session", "user", session.Identity.DisplayName())
	return true
}

// Current returns a copy of the active session, or nil when signed out.
func (c *Controller) Current() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	s := *c.current
	return &s
}

// Identity returns the signed-in identity, or nil.
func (c *Controller) Identity() *models.Identity {
	if s := c.Current(); s != nil {
		return s.Identity
	}
	return nil
}

// Token returns the bearer token, or "" when signed out.
func (c *Controller) Token() string {
	if s := c.Current(); s != nil {
		return s.Token
	}
	return ""
}

// SignedIn reports whether a session is active.
func (c *Controller) SignedIn() bool {
	return c.Current() != nil
}

// CanUpload reports whether the upload action should be offered: identity and token both present.
func (c *Controller) CanUpload() bool {
	s := c.Current()
	return s != nil && s.Identity != nil && s.Token != ""
}

// Busy reports whether a sign-in is outstanding.
func (c *Controller) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

// Login signs in with email and password.
func (c *Controller) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return c.signIn(func() (*models.Session, error) {
		return c.auth.Login(ctx, email, password)
	})
}

// Register creates an account and signs in with it.
func (c *Controller) Register(ctx context.Context, email, password, name string) (*models.Session, error) {
	return c.signIn(func() (*models.Session, error) {
		return c.auth.Register(ctx, email, password, name)
	})
}

// GoogleLogin signs in with a profile obtained from Google.
func (c *Controller) GoogleLogin(ctx context.Context, profile *services.GoogleProfile) (*models.Session, error) {
	return c.signIn(func() (*models.Session, error) {
		return c.auth.GoogleLogin(ctx, profile)
	})
}

// signIn runs one sign-in at a time. On success the new session replaces the old one in memory and
// in the store; a store failure is logged and the in-memory session is kept.
func (c *Controller) signIn(call func() (*models.Session, error)) (*models.Session, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, shared.NewError(shared.ErrBusy, 0, "sign-in already in progress", nil)
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	session, err := call()
	if err != nil {
		return nil, err
	}

	if err := c.store.Save(session.Identity, session.Token); err != nil {
		c.logger.Warn("could not persist session, it will not survive a restart", "error", err)
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.logger.Info("signed in", "user", session.Identity.DisplayName())
	s := *session
	return &s, nil
}

// Logout clears the session in memory and in the store. Memory is always cleared; a store failure is
// returned so the caller can warn that the credentials may reappear on restart.
func (c *Controller) Logout() error {
	c.mu.Lock()
	was := c.current
	c.current = nil
	c.mu.Unlock()

	if was != nil {
		c.logger.Info("signed out", "user", was.Identity.DisplayName())
	}
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("could not clear stored credentials", "error", err)
		return err
	}
	return nil
}

// Publish runs the upload saga for draft with the current session. On success the catalog cache is
// invalidated so the next refresh shows the new entry.
func (c *Controller) Publish(ctx context.Context, draft *models.Draft, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error) {
	session := c.Current()
	ref, err := c.pipeline.Publish(ctx, draft, session, progress)
	return c.afterPublish(session, ref, err)
}

// RegisterUploaded retries catalog registration only, for media a failed publish already stored.
func (c *Controller) RegisterUploaded(ctx context.Context, draft *models.Draft, uploaded *models.UploadResult, progress chan<- tasks.ProgressUpdate) (*models.CatalogEntryRef, error) {
	session := c.Current()
	ref, err := c.pipeline.Register(ctx, draft, session, uploaded, progress)
	return c.afterPublish(session, ref, err)
}

func (c *Controller) afterPublish(session *models.Session, ref *models.CatalogEntryRef, err error) (*models.CatalogEntryRef, error) {
	if err != nil {
		if errors.Is(err, shared.ErrTokenRejected) {
			c.expire(session)
		}
		return nil, err
	}
	if c.feed != nil {
		c.feed.Invalidate()
	}
	return ref, nil
}

// expire signs out after the server rejected session's token. A session that was replaced by a newer
// sign-in in the meantime is left alone.
func (c *Controller) expire(session *models.Session) {
	if session == nil {
		return
	}

	c.mu.Lock()
	if c.current == nil || c.current.Token != session.Token {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.mu.Unlock()

	c.logger.Warn("session token rejected, signing out", "user", session.Identity.DisplayName())
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("could not clear stored credentials", "error", err)
	}
}

// Catalog lists the newest catalog entries.
func (c *Controller) Catalog(ctx context.Context) (*tasks.FeedResult, error) {
	return c.refresh(ctx, nil)
}

// Channel lists one user's entries. A nil ownerID means the signed-in user.
func (c *Controller) Channel(ctx context.Context, ownerID *int64) (*tasks.FeedResult, error) {
	if ownerID == nil {
		identity := c.Identity()
		if identity == nil {
			return nil, shared.NewError(shared.ErrNotAuthenticated, 0, "sign in to view your channel", nil)
		}
		if !identity.HasID() {
			return nil, shared.Validationf("your account has no user id, sign in again")
		}
		id := identity.UserID()
		ownerID = &id
	}
	return c.refresh(ctx, ownerID)
}

func (c *Controller) refresh(ctx context.Context, ownerID *int64) (*tasks.FeedResult, error) {
	if c.feed == nil {
		return nil, shared.NewError(shared.ErrMissingConfig, 0, "catalog is not configured", nil)
	}
	return c.feed.Refresh(ctx, ownerID)
}
