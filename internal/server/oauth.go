package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/teltube/internal/shared"
	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token. Implemented by [services.GoogleService].
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the authorization-code redirect.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	exchanger   Exchanger
	state       string
	path        string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler for path that accepts only callbacks carrying state.
// An empty path defaults to /callback.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		exchanger:  exchanger,
		state:      state,
		path:       path,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP checks the state parameter, exchanges the code and publishes the result.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: shared.NewError(shared.ErrAuthFailed, http.StatusBadRequest, "google sign-in returned an unexpected state", nil)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		msg := fmt.Sprintf("google sign-in was not completed: %s", query.Get("error"))
		if desc := query.Get("error_description"); desc != "" {
			msg += " - " + desc
		}
		h.Send(OAuthResult{err: shared.NewError(shared.ErrAuthFailed, http.StatusBadRequest, msg, nil)})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send publishes the result. Only the first call has any effect.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel. It receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// Wait blocks until the callback arrives, the server fails or ctx is done.
func (h *OAuthHandler) Wait(ctx context.Context, serverErrs <-chan error) (*oauth2.Token, error) {
	select {
	case result := <-h.resultChan:
		if result.err != nil {
			return nil, result.err
		}
		if result.Token == nil {
			return nil, shared.NewError(shared.ErrAuthFailed, 0, "google sign-in returned no token", nil)
		}
		return result.Token, nil
	case err, ok := <-serverErrs:
		if !ok {
			err = http.ErrServerClosed
		}
		return nil, shared.NewError(shared.ErrServiceUnavailable, 0, "callback server stopped", err)
	case <-ctx.Done():
		return nil, shared.NewError(shared.ErrAuthFailed, 0, "timed out waiting for google sign-in", ctx.Err())
	}
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed in to teltube</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #e5484d; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Signed in</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
