package services

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

const (
	actionLogin    = "login"
	actionRegister = "register"
	actionGoogle   = "google"
)

// IdentityService signs users in against the identity endpoint.
//
// It is stateless: a successful call returns a session and persists nothing.
type IdentityService struct {
	api    *APIService
	url    string
	logger *log.Logger
}

// NewIdentityService creates an IdentityService posting to url.
func NewIdentityService(api *APIService, url string, logger *log.Logger) *IdentityService {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &IdentityService{api: api, url: url, logger: logger}
}

type identityRequest struct {
	Action   string `json:"action"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
	GoogleID string `json:"google_id,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type identityResponse struct {
	User  *models.Identity `json:"user"`
	Token string           `json:"token"`
}

// Login exchanges email and password for a session.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return nil, shared.Validationf("email is required")
	case password == "":
		return nil, shared.Validationf("password is required")
	}

	return s.send(ctx, identityRequest{Action: actionLogin, Email: email, Password: password}, "login failed")
}

// Register creates an account and returns its session.
func (s *IdentityService) Register(ctx context.Context, email, password, name string) (*models.Session, error) {
	email, name = strings.TrimSpace(email), strings.TrimSpace(name)
	switch {
	case email == "":
		return nil, shared.Validationf("email is required")
	case password == "":
		return nil, shared.Validationf("password is required")
	case name == "":
		return nil, shared.Validationf("name is required")
	}

	req := identityRequest{Action: actionRegister, Email: email, Password: password, Name: name}
	return s.send(ctx, req, "registration failed")
}

// GoogleLogin signs in with a profile already verified by Google, creating the account on first use.
func (s *IdentityService) GoogleLogin(ctx context.Context, profile *GoogleProfile) (*models.Session, error) {
	if profile == nil || strings.TrimSpace(profile.Sub) == "" {
		return nil, shared.Validationf("google profile is missing its id")
	}
	if strings.TrimSpace(profile.Email) == "" {
		return nil, shared.Validationf("google profile has no email")
	}

	req := identityRequest{
		Action:   actionGoogle,
		GoogleID: profile.Sub,
		Email:    profile.Email,
		Name:     profile.Name,
		Avatar:   profile.Picture,
	}
	return s.send(ctx, req, "google sign-in failed")
}

func (s *IdentityService) send(ctx context.Context, req identityRequest, fallback string) (*models.Session, error) {
	s.logger.Info("contacting identity endpoint", "action", req.Action, "email", req.Email)

	resp, err := s.api.Post(ctx, s.url, "", req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp, shared.ErrAuthFailed, fallback, false); err != nil {
		s.logger.Warn("identity endpoint rejected request", "action", req.Action, "status", resp.StatusCode)
		return nil, err
	}

	var out identityResponse
	if err := decodeResponse(resp, shared.ErrTransport, &out); err != nil {
		return nil, err
	}

	session := models.NewSession(out.User, out.Token)
	if session == nil {
		return nil, shared.NewError(shared.ErrTransport, resp.StatusCode, "identity response is missing user or token", nil)
	}

	if !session.Identity.HasID() {
		if claims, err := shared.ParseTokenClaims(session.Token); err == nil && claims.UserID != 0 {
			id := claims.UserID
			session.Identity.ID = &id
		}
	}
	return session, nil
}
