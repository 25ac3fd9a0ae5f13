package repositories

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

const (
	UserKey  = "teltube_user"  // serialized [models.Identity]
	TokenKey = "teltube_token" // raw bearer token
)

// CredentialRepository persists the current session as two key/value entries written and removed together.
type CredentialRepository struct {
	store  KeyValueStore
	logger *log.Logger
}

// NewCredentialRepository creates a CredentialRepository over store. A nil logger discards output.
func NewCredentialRepository(store KeyValueStore, logger *log.Logger) *CredentialRepository {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &CredentialRepository{store: store, logger: logger}
}

// Save writes identity and token as one atomic pair.
func (r *CredentialRepository) Save(identity *models.Identity, token string) error {
	session := models.NewSession(identity, token)
	if session == nil {
		return fmt.Errorf("%w: identity and token are both required", shared.ErrInvalidArgument)
	}

	data, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	return r.store.SetMany(map[string]string{
		UserKey:  string(data),
		TokenKey: session.Token,
	})
}

// Load returns the persisted session, or false when either half is missing or unreadable.
//
// Storage errors are logged and reported as absent.
func (r *CredentialRepository) Load() (*models.Session, bool) {
	rawUser, okUser, err := r.store.Get(UserKey)
	if err != nil {
		r.logger.Warn("credential store unavailable, continuing signed out", "error", err)
		return nil, false
	}

	token, okToken, err := r.store.Get(TokenKey)
	if err != nil {
		r.logger.Warn("credential store unavailable, continuing signed out", "error", err)
		return nil, false
	}

	if !okUser || !okToken {
		if okUser != okToken {
			r.logger.Warn("ignoring half-persisted session", "has_user", okUser, "has_token", okToken)
		}
		return nil, false
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		r.logger.Warn("ignoring unreadable persisted identity", "error", err)
		return nil, false
	}
	if strings.TrimSpace(identity.Email) == "" && strings.TrimSpace(identity.Name) == "" {
		r.logger.Warn("ignoring empty persisted identity")
		return nil, false
	}

	session := models.NewSession(&identity, token)
	return session, session != nil
}

// Clear removes both entries. Clearing an empty store is not an error.
func (r *CredentialRepository) Clear() error {
	return r.store.Delete(UserKey, TokenKey)
}
