// Package modelservice is the client for the model service's detector and
// detector-mapping endpoints.
//
// Every call blocks until the service answers or the per-call timeout
// elapses. The one multi-request operation is CreateDetector, which polls
// until the service's read path can see the detector it just accepted.
package modelservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/retry"

	"go.uber.org/zap"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultPollInterval  = 1 * time.Second
	defaultCreateTimeout = 60 * time.Second

	// maxErrorBody caps how much of a failed response is kept in errors.
	maxErrorBody = 512
	maxBody      = 8 << 20
)

// Config holds everything a Client needs. BaseURL and User are required;
// the CLI resolves them from flags, environment and the config file before
// constructing the client.
type Config struct {
	// BaseURL is the model service root, e.g. "http://modelservice:8008".
	BaseURL string

	// User is the acting user recorded as createdBy and as mapping owner.
	User string

	// Token, when set, is sent as a bearer token on every request.
	Token string

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration

	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client

	// Logger receives warnings and debug traces. Defaults to a no-op logger.
	Logger *zap.Logger

	// PollInterval and CreateTimeout control how CreateDetector waits for a
	// new detector. They default to 1s and 60s.
	PollInterval  time.Duration
	CreateTimeout time.Duration
}

// Client talks to the model service. It holds only immutable configuration
// and is safe for concurrent use.
type Client struct {
	baseURL string
	user    string
	token   string
	client  *http.Client
	logger  *zap.Logger

	pollInterval  time.Duration
	createTimeout time.Duration
	readRetry     retry.Policy
}

// New validates cfg and returns a Client. A missing base URL or user fails
// with domain.ErrConfiguration.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: model service url not found (set --model-service-url, AAD_MODEL_SERVICE_URL or 'aad config set model-service-url')", domain.ErrConfiguration)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid model service url %q: %v", domain.ErrConfiguration, cfg.BaseURL, err)
	}
	user := strings.TrimSpace(cfg.User)
	if user == "" {
		return nil, fmt.Errorf("%w: model service user not found (set --model-service-user, AAD_MODEL_SERVICE_USER or 'aad config set model-service-user')", domain.ErrConfiguration)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	createTimeout := cfg.CreateTimeout
	if createTimeout <= 0 {
		createTimeout = defaultCreateTimeout
	}

	return &Client{
		baseURL:       baseURL,
		user:          user,
		token:         cfg.Token,
		client:        httpClient,
		logger:        logger.Named("modelservice"),
		pollInterval:  pollInterval,
		createTimeout: createTimeout,
		readRetry:     retry.DefaultPolicy(),
	}, nil
}

// User returns the acting user.
func (c *Client) User() string { return c.user }

// BaseURL returns the model service root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// --- HTTP helpers ---

// do sends a request and returns the response body. Any transport failure
// or non-2xx status is returned as a *domain.TransportError. GETs that fail
// transiently are retried; other methods are sent once. State-changing GETs
// must call send directly.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if method != http.MethodGet {
		return c.send(ctx, method, path, query, payload)
	}

	var data []byte
	err := retry.Do(ctx, c.readRetry, retry.IsTransient, func() error {
		var err error
		data, err = c.send(ctx, method, path, query, payload)
		return err
	})
	return data, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &domain.TransportError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return nil, &domain.TransportError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: msg}
	}

	return data, nil
}

// doJSON encodes in (when non-nil) as the request body and decodes the
// response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	data, err := c.do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
