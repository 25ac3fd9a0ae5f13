package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/teltube/internal/shared"
	tu "github.com/desertthunder/teltube/internal/testing"
	"golang.org/x/oauth2"
)

func TestGoogleService(t *testing.T) {
	cfg := shared.GoogleConfig{ClientID: "cid", ClientSecret: "secret", RedirectURI: "http://localhost:3000/callback"}

	t.Run("Requires Credentials", func(t *testing.T) {
		if _, err := NewGoogleService(shared.GoogleConfig{ClientID: "cid"}, GoogleEndpoint, GoogleUserInfoURL); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("AuthURL", func(t *testing.T) {
		svc, err := NewGoogleService(cfg, GoogleEndpoint, GoogleUserInfoURL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		u, err := url.Parse(svc.AuthURL("state-1"))
		if err != nil {
			t.Fatalf("invalid auth url: %v", err)
		}
		q := u.Query()
		if q.Get("state") != "state-1" || q.Get("client_id") != "cid" {
			t.Errorf("unexpected query %v", q)
		}
		if !strings.Contains(q.Get("scope"), "email") {
			t.Errorf("expected email scope, got %q", q.Get("scope"))
		}
		if svc.RedirectURL() != "http://localhost:3000/callback" {
			t.Errorf("unexpected redirect %s", svc.RedirectURL())
		}
	})

	t.Run("Exchange And Profile", func(t *testing.T) {
		backend := tu.NewBackend(t)
		backend.Handle("/token", func(w http.ResponseWriter, req tu.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "google-access", "token_type": "Bearer", "expires_in": 3600}`))
		})
		backend.Handle("/userinfo", tu.Respond(http.StatusOK, map[string]string{
			"sub": "g-1", "email": "g@b.com", "name": "Gee", "picture": "https://img/g.png",
		}))

		endpoint := oauth2.Endpoint{AuthURL: backend.URL("/auth"), TokenURL: backend.URL("/token"), AuthStyle: oauth2.AuthStyleInParams}
		svc, err := NewGoogleService(cfg, endpoint, backend.URL("/userinfo"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := svc.Exchange(context.Background(), "code-1")
		if err != nil {
			t.Fatalf("Exchange: %v", err)
		}
		if token.AccessToken != "google-access" {
			t.Errorf("unexpected access token %q", token.AccessToken)
		}

		profile, err := svc.Profile(context.Background(), token)
		if err != nil {
			t.Fatalf("Profile: %v", err)
		}
		if profile.Sub != "g-1" || profile.Email != "g@b.com" || profile.Picture != "https://img/g.png" {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("Exchange Without Code", func(t *testing.T) {
		svc, _ := NewGoogleService(cfg, GoogleEndpoint, GoogleUserInfoURL)
		if _, err := svc.Exchange(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Profile Error Status", func(t *testing.T) {
		backend := tu.NewBackend(t)
		backend.Handle("/userinfo", tu.Respond(http.StatusUnauthorized, map[string]string{}))

		svc, _ := NewGoogleService(cfg, GoogleEndpoint, backend.URL("/userinfo"))
		_, err := svc.Profile(context.Background(), &oauth2.Token{AccessToken: "x"})
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})
}
