// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	calls    int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.calls++
	return m.response, m.err
}

// Calls returns how many requests reached the round tripper.
func (m *MockRoundTripper) Calls() int { return m.calls }

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// JSONResponse builds an [http.Response] with a JSON body for use with [MockRoundTripper].
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// MemoryStore is an in-memory key/value store. Set Fail to make every call return an error.
type MemoryStore struct {
	mu   sync.Mutex
	Data map[string]string
	Fail bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Data: make(map[string]string)}
}

var ErrStoreDown = errors.New("store unavailable")

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return "", false, ErrStoreDown
	}
	v, ok := m.Data[key]
	return v, ok, nil
}

func (m *MemoryStore) SetMany(pairs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrStoreDown
	}
	for k, v := range pairs {
		m.Data[k] = v
	}
	return nil
}

func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrStoreDown
	}
	for _, k := range keys {
		delete(m.Data, k)
	}
	return nil
}

// Request is one request received by a [Backend].
type Request struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   map[string]any // decoded with UseNumber so numbers keep their literal form
}

// HandlerFunc answers a [Backend] request.
type HandlerFunc func(w http.ResponseWriter, req Request)

// Backend is a fake of the remote endpoints that records every request it receives.
type Backend struct {
	Server   *httptest.Server
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	requests []Request
}

// NewBackend starts a Backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{handlers: make(map[string]HandlerFunc)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// Handle registers h for path. Unregistered paths answer 404.
func (b *Backend) Handle(path string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[path] = h
}

// URL returns the absolute URL of path on the backend.
func (b *Backend) URL(path string) string {
	return b.Server.URL + path
}

// Requests returns the recorded requests to path, or all requests when path is empty.
func (b *Backend) Requests(path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Request
	for _, r := range b.requests {
		if path == "" || r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Calls returns the number of requests to path, or all requests when path is empty.
func (b *Backend) Calls(path string) int {
	return len(b.Requests(path))
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Token:  r.Header.Get("X-Auth-Token"),
	}
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var body map[string]any
		if err := dec.Decode(&body); err == nil {
			req.Body = body
		}
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	h, ok := b.handlers[req.Path]
	b.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h(w, req)
}

// WriteJSON writes v as a JSON response with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Respond returns a handler that always answers status with v.
func Respond(status int, v any) HandlerFunc {
	return func(w http.ResponseWriter, _ Request) { WriteJSON(w, status, v) }
}

func MustWriteFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
