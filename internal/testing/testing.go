// package testing contains shared testing utilities
package testing

import (
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
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
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

// GraphQLRequest is a request received by [Backend].
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`

	Authorization string `json:"-"`
	RequestID     string `json:"-"`
}

// Var returns a string variable, or "" if missing.
func (r GraphQLRequest) Var(name string) string {
	s, _ := r.Variables[name].(string)
	return s
}

// GraphQLError is a single entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// GraphQLReply scripts the backend's answer to one request.
//
// Raw, when set, is written verbatim instead of the JSON envelope.
type GraphQLReply struct {
	Status int
	Data   any
	Errors []GraphQLError
	Raw    string
}

// Data is a convenience for a successful reply.
func Data(data any) GraphQLReply {
	return GraphQLReply{Data: data}
}

// Errors is a convenience for a reply carrying only GraphQL errors.
func Errors(errs ...GraphQLError) GraphQLReply {
	return GraphQLReply{Errors: errs}
}

// Handler computes the reply for a request. It may block, e.g. on a channel, to reorder responses.
type Handler func(GraphQLRequest) GraphQLReply

// Backend is a scripted GraphQL server keyed by operation name.
//
// Unscripted operations get a GraphQL error. The server is closed when the test ends.
type Backend struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	requests []GraphQLRequest
}

// NewBackend starts a [Backend] on a local listener.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{handlers: make(map[string]Handler)}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

// Handle scripts an operation with a handler.
func (b *Backend) Handle(operation string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[operation] = h
}

// Reply scripts an operation with a fixed reply.
func (b *Backend) Reply(operation string, reply GraphQLReply) {
	b.Handle(operation, func(GraphQLRequest) GraphQLReply { return reply })
}

// Requests returns every request received so far, in arrival order.
func (b *Backend) Requests() []GraphQLRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]GraphQLRequest(nil), b.requests...)
}

// Count returns how many requests named operation were received.
func (b *Backend) Count(operation string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.OperationName == operation {
			n++
		}
	}
	return n
}

// Last returns the most recent request named operation.
func (b *Backend) Last(operation string) (GraphQLRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].OperationName == operation {
			return reqs[i], true
		}
	}
	return GraphQLRequest{}, false
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	req.Authorization = r.Header.Get("Authorization")
	req.RequestID = r.Header.Get("X-Request-ID")

	b.mu.Lock()
	b.requests = append(b.requests, req)
	h, ok := b.handlers[req.OperationName]
	b.mu.Unlock()

	reply := GraphQLReply{Errors: []GraphQLError{{Message: "unknown operation " + req.OperationName}}}
	if ok {
		reply = h(req)
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if reply.Raw != "" {
		io.WriteString(w, reply.Raw)
		return
	}

	envelope := map[string]any{"data": reply.Data}
	if len(reply.Errors) > 0 {
		envelope["errors"] = reply.Errors
	}
	json.NewEncoder(w).Encode(envelope)
}
