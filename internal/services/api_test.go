package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/teltube/internal/shared"
	tu "github.com/desertthunder/teltube/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService(customClient, 0, nil)

			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
			if srv.limiter != nil {
				t.Error("expected no limiter when rate is 0")
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService(nil, 5, nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
			if srv.limiter == nil {
				t.Error("expected limiter when rate is positive")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/videos" {
					t.Errorf("expected path '/videos', got %s", r.URL.Path)
				}
				if got := r.Header.Get(TokenHeader); got != "" {
					t.Errorf("expected no token header, got %q", got)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]any{"videos": []any{}})
			}))
			defer server.Close()

			srv := NewAPIService(nil, 0, nil)
			resp, err := srv.Get(context.Background(), server.URL+"/videos", "")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
		})

		t.Run("Successful Request With Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte("plain text response"))
			}))
			defer server.Close()

			resp, err := NewAPIService(nil, 0, nil).Get(context.Background(), server.URL, "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "plain text response" {
				t.Errorf("unexpected body %q", string(resp.Body))
			}
			if err := resp.Decode(&map[string]any{}); err == nil {
				t.Error("expected Decode to fail on non-JSON body")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService(nil, 0, nil).Get(context.Background(), "://bad-url", "")
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService(client, 0, nil).Get(context.Background(), "http://example.com", "")
			if !errors.Is(err, shared.ErrTransport) {
				t.Fatalf("expected ErrTransport, got %v", err)
			}
			if shared.UserMessage(err) != "could not reach server" {
				t.Errorf("unexpected message %q", shared.UserMessage(err))
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil)}

			_, err := NewAPIService(client, 0, nil).Get(context.Background(), "http://example.com", "")
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(nil, 0, nil).Get(ctx, server.URL, ""); err == nil {
				t.Fatal("expected error with canceled context")
			}
		})

		t.Run("Response Headers Are Preserved", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-Id", "abc")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			resp, err := NewAPIService(nil, 0, nil).Get(context.Background(), server.URL, "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Headers.Get("X-Request-Id") != "abc" {
				t.Errorf("expected header to be preserved, got %q", resp.Headers.Get("X-Request-Id"))
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON And Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected Content-Type application/json, got %s", ct)
				}
				if got := r.Header.Get(TokenHeader); got != "tok" {
					t.Errorf("expected token header 'tok', got %q", got)
				}

				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode body: %v", err)
				}
				if body["action"] != "create" {
					t.Errorf("expected action create, got %v", body["action"])
				}

				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(nil, 0, nil).Post(context.Background(), server.URL, "tok", map[string]string{"action": "create"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() || resp.StatusCode != http.StatusCreated {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Unencodable Payload", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{}`), nil)
			srv := NewAPIService(&http.Client{Transport: rt}, 0, nil)

			if _, err := srv.Post(context.Background(), "http://example.com", "", map[string]any{"bad": make(chan int)}); err == nil {
				t.Error("expected encoding error")
			}
			if rt.Calls() != 0 {
				t.Errorf("expected no request, got %d", rt.Calls())
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			_, err := NewAPIService(client, 0, nil).Post(context.Background(), "http://example.com", "", map[string]string{})
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})
	})

	t.Run("Rate Limit", func(t *testing.T) {
		t.Run("Canceled While Waiting", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(tu.JSONResponse(200, `{}`), nil)
			srv := NewAPIService(&http.Client{Transport: rt}, 0.001, nil)

			if _, err := srv.Get(context.Background(), "http://example.com", ""); err != nil {
				t.Fatalf("first request should use the burst, got %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err := srv.Get(ctx, "http://example.com", "")
			if !errors.Is(err, shared.ErrTransport) {
				t.Errorf("expected ErrTransport from limiter, got %v", err)
			}
			if rt.Calls() != 1 {
				t.Errorf("expected 1 request to reach the server, got %d", rt.Calls())
			}
		})
	})

	t.Run("APIResponse", func(t *testing.T) {
		t.Run("ErrorMessage", func(t *testing.T) {
			tc := []struct {
				name string
				body string
				want string
			}{
				{name: "error field", body: `{"error": "email taken"}`, want: "email taken"},
				{name: "no error field", body: `{"detail": "x"}`, want: ""},
				{name: "non-string error", body: `{"error": 42}`, want: ""},
				{name: "array body", body: `["error"]`, want: ""},
			}

			for _, tt := range tc {
				t.Run(tt.name, func(t *testing.T) {
					var data any
					json.Unmarshal([]byte(tt.body), &data)
					resp := &APIResponse{StatusCode: 409, Body: []byte(tt.body), IsJSON: true, JSONData: data}
					if got := resp.ErrorMessage(); got != tt.want {
						t.Errorf("expected %q, got %q", tt.want, got)
					}
				})
			}
		})
	})
}

func TestCheckResponse(t *testing.T) {
	newResp := func(status int, body string) *APIResponse {
		var data any
		isJSON := json.Unmarshal([]byte(body), &data) == nil
		return &APIResponse{StatusCode: status, Body: []byte(body), IsJSON: isJSON, JSONData: data}
	}

	t.Run("success", func(t *testing.T) {
		if err := checkResponse(newResp(200, `{}`), shared.ErrAuthFailed, "x", true); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("server message wins", func(t *testing.T) {
		err := checkResponse(newResp(409, `{"error": "email taken"}`), shared.ErrAuthFailed, "registration failed", false)
		if !errors.Is(err, shared.ErrAuthFailed) || err.Error() != "email taken" {
			t.Errorf("expected AuthFailed 'email taken', got %v", err)
		}
		if shared.StatusOf(err) != 409 {
			t.Errorf("expected status 409, got %d", shared.StatusOf(err))
		}
	})

	t.Run("fallback message", func(t *testing.T) {
		err := checkResponse(newResp(500, `<html>oops</html>`), shared.ErrUploadFailed, "upload failed", true)
		if err.Error() != "upload failed" {
			t.Errorf("expected fallback, got %q", err.Error())
		}
		if errors.Is(err, shared.ErrTokenRejected) {
			t.Error("500 must not reject the token")
		}
	})

	t.Run("401 on authenticated call rejects token", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			err := checkResponse(newResp(status, `{"error": "invalid token"}`), shared.ErrUploadFailed, "upload failed", true)
			if !errors.Is(err, shared.ErrTokenRejected) || !errors.Is(err, shared.ErrUploadFailed) {
				t.Errorf("status %d: expected ErrTokenRejected and ErrUploadFailed, got %v", status, err)
			}
		}
	})

	t.Run("401 on login is plain auth failure", func(t *testing.T) {
		err := checkResponse(newResp(401, `{"error": "bad password"}`), shared.ErrAuthFailed, "login failed", false)
		if errors.Is(err, shared.ErrTokenRejected) {
			t.Error("unauthenticated call must not reject a token")
		}
		if !strings.Contains(err.Error(), "bad password") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}
