// package services implements clients for the remote identity, upload and catalog endpoints
package services

import (
	"net/http"

	"github.com/desertthunder/teltube/internal/shared"
)

// checkResponse converts a non-2xx response into a [shared.Error] of kind.
//
// The server's error message is preferred over fallback. When authenticated is true a 401 or 403
// also carries [shared.ErrTokenRejected] so the session can be dropped.
func checkResponse(resp *APIResponse, kind error, fallback string, authenticated bool) error {
	if resp.OK() {
		return nil
	}

	msg := resp.ErrorMessage()
	if msg == "" {
		msg = fallback
	}

	var cause error
	if authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		cause = shared.ErrTokenRejected
	}
	return shared.NewError(kind, resp.StatusCode, msg, cause)
}

// decodeResponse unmarshals a successful response, reporting a malformed body as kind with [shared.ErrTransport].
func decodeResponse(resp *APIResponse, kind error, out any) error {
	if err := resp.Decode(out); err != nil {
		return shared.NewError(kind, resp.StatusCode, "unexpected response from server", joinTransport(err))
	}
	return nil
}

// stepError keeps kind as the primary classification of a transport failure.
func stepError(kind error, fallback string, err error) error {
	return shared.NewError(kind, shared.StatusOf(err), fallback+": "+shared.UserMessage(err), err)
}

func joinTransport(err error) error {
	return shared.NewError(shared.ErrTransport, 0, "", err)
}
