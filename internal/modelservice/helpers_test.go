package modelservice

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"adaptivealerting/aad/internal/retry"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testUser         = "aa-detector-build"
	testDetectorUUID = "4fdc4ad0-9e8a-4e6b-9c2f-7a3f4f3f9a11"
)

// recordedRequest captures what the fake model service received.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
	At     time.Time
}

// fakeModelService is an httptest server that routes by "METHOD /path"
// patterns and records every request it sees.
type fakeModelService struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeModelService(t *testing.T, routes map[string]http.HandlerFunc) *fakeModelService {
	t.Helper()
	f := &fakeModelService{t: t}

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
			At:     time.Now(),
		})
		f.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

// requestsTo returns the recorded requests matching method and path.
func (f *fakeModelService) requestsTo(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// newTestClient creates a Client pointed at the fake service with fast
// polling so create tests finish quickly.
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, User: testUser})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.pollInterval = 10 * time.Millisecond
	c.createTimeout = 2 * time.Second
	c.readRetry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	return c
}

// newObservedClient is newTestClient with a zap observer attached.
func newObservedClient(t *testing.T, baseURL string) (*Client, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New(Config{BaseURL: baseURL, User: testUser, Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.pollInterval = 10 * time.Millisecond
	c.createTimeout = 2 * time.Second
	c.readRetry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	return c, logs
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode test response: %v", err)
	}
}

// decodeBody decodes a recorded JSON body into a generic map.
func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("request body is not a JSON object: %v\n%s", err, body)
	}
	return m
}

// testDetectorJSON returns a constant-detector as the service serves it.
func testDetectorJSON(uuid string) map[string]any {
	return map[string]any{
		"uuid": uuid,
		"type": "constant-detector",
		"detectorConfig": map[string]any{
			"hyperparams": map[string]any{
				"strategy":          "sigma",
				"weak_multiplier":   3.0,
				"strong_multiplier": 5.0,
			},
			"params": map[string]any{
				"type": "TWO_TAILED",
				"thresholds": map[string]any{
					"upperWeak":   110.0,
					"lowerWeak":   90.0,
					"upperStrong": 120.0,
					"lowerStrong": 80.0,
				},
			},
		},
		"enabled":             true,
		"trusted":             false,
		"createdBy":           testUser,
		"lastUpdateTimestamp": "2020-03-25 18:15:43",
		"training_interval":   "7d",
		"meta": map[string]any{
			"createdBy":   testUser,
			"dateCreated": "2020-03-25 18:15:43",
		},
	}
}
