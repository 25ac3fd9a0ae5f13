package models

import (
	"strings"

	"github.com/desertthunder/teltube/internal/shared"
)

// Validator is implemented by models that check their own preconditions before any network call.
type Validator interface {
	Validate() error
}

// Identity is the authenticated user's display profile as returned by the identity endpoint.
//
// An Identity is replaced wholesale on re-login and never mutated in place.
type Identity struct {
	ID     *int64 `json:"id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// HasID reports whether the identity carries a numeric user id.
func (i *Identity) HasID() bool {
	return i != nil && i.ID != nil
}

// UserID returns the numeric id or 0 when absent.
func (i *Identity) UserID() int64 {
	if !i.HasID() {
		return 0
	}
	return *i.ID
}

// DisplayName returns the name, falling back to the email.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.Email
}

// Session pairs an [Identity] with its bearer token.
//
// A session is valid only when both halves are present; the two are never set independently.
type Session struct {
	Identity *Identity `json:"user"`
	Token    string    `json:"token"`
}

// NewSession builds a session, returning nil when either half is missing.
func NewSession(identity *Identity, token string) *Session {
	s := &Session{Identity: identity, Token: token}
	if !s.Valid() {
		return nil
	}
	return s
}

// Valid reports whether identity and token are both present.
func (s *Session) Valid() bool {
	return s != nil && s.Identity != nil && strings.TrimSpace(s.Token) != ""
}

// Validate implements [Validator].
func (s *Session) Validate() error {
	if !s.Valid() {
		return shared.NewError(shared.ErrNotAuthenticated, 0, "sign in to continue", nil)
	}
	return nil
}
