package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/teltube/internal/shared"
	"golang.org/x/oauth2"
)

const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleEndpoint is Google's OAuth 2.0 authorization-code endpoint.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// GoogleProfile is the subset of the OpenID userinfo document used to sign in.
type GoogleProfile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleService runs the Google OAuth2 flow that yields a [GoogleProfile] for [IdentityService.GoogleLogin].
type GoogleService struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleService creates a GoogleService from configured client credentials.
func NewGoogleService(cfg shared.GoogleConfig, endpoint oauth2.Endpoint, userInfoURL string) (*GoogleService, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google client_id and client_secret are required", shared.ErrMissingConfig)
	}
	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	return &GoogleService{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}, nil
}

// AuthURL returns the consent page URL for state.
func (g *GoogleService) AuthURL(state string) string {
	return g.config.AuthCodeURL(state)
}

// RedirectURL returns the configured OAuth callback URL.
func (g *GoogleService) RedirectURL() string {
	return g.config.RedirectURL
}

// Exchange trades an authorization code for an access token.
func (g *GoogleService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code", shared.ErrMissingArgument)
	}
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, shared.NewError(shared.ErrAuthFailed, 0, "google rejected the authorization code", err)
	}
	return token, nil
}

// Profile fetches the signed-in Google user's profile.
func (g *GoogleService) Profile(ctx context.Context, token *oauth2.Token) (*GoogleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, 0, "could not reach google", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.NewError(shared.ErrAuthFailed, resp.StatusCode, fmt.Sprintf("google userinfo error: status %d", resp.StatusCode), nil)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, shared.NewError(shared.ErrTransport, resp.StatusCode, "unexpected response from google", err)
	}
	return &profile, nil
}
