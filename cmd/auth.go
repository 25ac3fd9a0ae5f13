package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/server"
	"github.com/desertthunder/teltube/internal/services"
	"github.com/desertthunder/teltube/internal/shared"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

const defaultCallbackTimeout = 2 * time.Minute

// AuthLogin signs in with email and password and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or TELTUBE_PASSWORD", shared.ErrMissingArgument)
	}

	controller, err := r.open()
	if err != nil {
		return err
	}

	session, err := controller.Login(ctx, cmd.String("email"), password)
	if err != nil {
		return err
	}
	return r.writeSignedIn(session)
}

// AuthRegister creates an account and stores the resulting session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or TELTUBE_PASSWORD", shared.ErrMissingArgument)
	}

	controller, err := r.open()
	if err != nil {
		return err
	}

	session, err := controller.Register(ctx, cmd.String("email"), password, cmd.String("name"))
	if err != nil {
		return err
	}
	return r.writeSignedIn(session)
}

// AuthGoogle runs the Google authorization-code flow through a local callback server and signs in
// with the resulting profile.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	google, err := services.NewGoogleService(r.config.Credentials.Google, services.GoogleEndpoint, services.GoogleUserInfoURL)
	if err != nil {
		return err
	}

	controller, err := r.open()
	if err != nil {
		return err
	}

	addr, path := r.callbackAddr(google.RedirectURL())
	state := uuid.NewString()
	handler := server.NewOAuthHandler(google, state, path)

	router := server.NewBasicRouter()
	router.Use(server.LogRequests(r.logger))
	router.Handle(http.MethodGet, path, handler)

	srv, err := server.Listen(addr, router, r.logger)
	if err != nil {
		return err
	}
	defer srv.Shutdown()

	authURL := google.AuthURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("could not open a browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	token, err := handler.Wait(waitCtx, srv.Errors())
	if err != nil {
		return err
	}

	profile, err := google.Profile(ctx, token)
	if err != nil {
		return err
	}
	r.logger.Debug("google profile received", "email", profile.Email)

	session, err := controller.GoogleLogin(ctx, profile)
	if err != nil {
		return err
	}
	return r.writeSignedIn(session)
}

// callbackAddr derives the listen address and path from the redirect URL, falling back to the
// configured server address.
func (r *Runner) callbackAddr(redirect string) (addr, path string) {
	addr, path = r.config.Server.Addr(), "/callback"
	u, err := url.Parse(redirect)
	if err != nil {
		return addr, path
	}
	if host, port, err := net.SplitHostPort(u.Host); err == nil && port != "" {
		addr = net.JoinHostPort(host, port)
	}
	if u.Path != "" {
		path = u.Path
	}
	return addr, path
}

// AuthLogout forgets the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.open()
	if err != nil {
		return err
	}

	if err := controller.Logout(); err != nil {
		r.writePlain("Signed out, but stored credentials could not be removed and may return on restart\n")
		return err
	}
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	SignedIn  bool             `json:"signed_in"`
	User      *models.Identity `json:"user,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Expired   bool             `json:"expired,omitempty"`
}

// AuthStatus shows the stored session without contacting the server.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	controller, err := r.open()
	if err != nil {
		return err
	}

	status := authStatus{}
	if s := controller.Current(); s != nil {
		status.SignedIn = true
		status.User = s.Identity
		if claims, err := shared.ParseTokenClaims(s.Token); err != nil {
			r.logger.Debug("token claims unreadable", "error", err)
		} else if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time
			status.ExpiresAt = &exp
			status.Expired = claims.ExpiredAt(time.Now())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.SignedIn {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in as %s\n", status.User.DisplayName())
	r.writePlain("Email: %s\n", status.User.Email)
	if status.User.HasID() {
		r.writePlain("User ID: %d\n", status.User.UserID())
	}
	switch {
	case status.ExpiresAt == nil:
		r.writePlain("Token: no expiry\n")
	case status.Expired:
		r.writePlain("Token: expired %s, sign in again\n", status.ExpiresAt.Local().Format(time.DateTime))
	default:
		r.writePlain("Token: expires %s\n", status.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

func (r *Runner) writeSignedIn(session *models.Session) error {
	if err := r.writePlain("✓ Signed in as %s\n", session.Identity.DisplayName()); err != nil {
		return err
	}
	if !session.Identity.HasID() {
		r.writePlain("Your account has no user id; uploads are unavailable until you sign in again\n")
	}
	return nil
}
