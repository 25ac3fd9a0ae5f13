package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/teltube/internal/shared"
	"golang.org/x/time/rate"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Auth-Token"

// APIService performs the raw JSON requests shared by every endpoint client.
//
// Requests are paced by an optional [rate.Limiter]. Failures to reach the server or read its reply are
// reported as [shared.ErrTransport]; HTTP error statuses are returned in the [APIResponse] for the caller
// to interpret.
type APIService struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewAPIService creates an APIService. A nil client uses [http.DefaultClient]; ratePerSecond <= 0 disables pacing.
func NewAPIService(client *http.Client, ratePerSecond float64, logger *log.Logger) *APIService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	a := &APIService{httpClient: client, logger: logger}
	if ratePerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorMessage returns the server-supplied {"error": "..."} message, or "".
func (r *APIResponse) ErrorMessage() string {
	obj, ok := r.JSONData.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := obj["error"].(string)
	return msg
}

// Decode unmarshals the body into out.
func (r *APIResponse) Decode(out any) error {
	if !r.IsJSON {
		return fmt.Errorf("response is not JSON (status %d)", r.StatusCode)
	}
	return json.Unmarshal(r.Body, out)
}

// Get performs a GET request to url. token may be empty for unauthenticated calls.
func (a *APIService) Get(ctx context.Context, url, token string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, url, token, nil)
}

// Post marshals payload as JSON and POSTs it to url. token may be empty for unauthenticated calls.
func (a *APIService) Post(ctx context.Context, url, token string, payload any) (*APIResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	a.logger.Debug("request payload", "url", url, "bytes", len(data))
	return a.do(ctx, http.MethodPost, url, token, data)
}

func (a *APIService) do(ctx context.Context, method, url, token string, body []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, shared.NewError(shared.ErrTransport, 0, "request cancelled", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, 0, "invalid endpoint URL", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, 0, "could not reach server", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.NewError(shared.ErrTransport, resp.StatusCode, "failed to read server response", err)
	}
	a.logger.Debug("response", "method", method, "url", url, "status", resp.StatusCode, "bytes", len(data))

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
