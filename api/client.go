package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/telnyx/telnyx-cli/config"
)

// KeyResolver resolves the API key for a profile. An empty key with a nil
// error means nothing is configured. *config.Store satisfies it.
type KeyResolver interface {
	APIKey(profile string) (string, error)
}

// Options are the per-call settings every command forwards.
type Options struct {
	Profile string
	Verbose bool
}

// Client issues authenticated requests against the Telnyx APIs.
type Client struct {
	keys       KeyResolver
	httpClient *http.Client
	trace      *slog.Logger
	endpoints  config.Endpoints
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTrace sets the logger that receives verbose request/response lines.
func WithTrace(logger *slog.Logger) Option {
	return func(c *Client) {
		c.trace = logger
	}
}

// WithEndpoints overrides the base URLs.
func WithEndpoints(e config.Endpoints) Option {
	return func(c *Client) {
		c.endpoints = e
	}
}

// New creates a Client that resolves keys through keys.
func New(keys KeyResolver, opts ...Option) *Client {
	c := &Client{
		keys:       keys,
		httpClient: &http.Client{},
		trace:      slog.New(slog.DiscardHandler),
		endpoints: config.Endpoints{
			APIURL:        config.DefaultAPIURL,
			TenDLCURL:     config.DefaultTenDLCURL,
			StorageURL:    config.DefaultStorageURL,
			StorageRegion: config.DefaultStorageRegion,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.endpoints.APIURL = strings.TrimSuffix(c.endpoints.APIURL, "/")
	c.endpoints.TenDLCURL = strings.TrimSuffix(c.endpoints.TenDLCURL, "/")
	c.endpoints.StorageURL = strings.TrimSuffix(c.endpoints.StorageURL, "/")

	return c
}

// Endpoints returns the base URLs the client talks to.
func (c *Client) Endpoints() config.Endpoints {
	return c.endpoints
}

// apiKey resolves the key or fails with ErrNoAPIKey.
func (c *Client) apiKey(profile string) (string, error) {
	key, err := c.keys.APIKey(profile)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// Do sends one request to baseURL+path and decodes the JSON response into out
// (which may be nil). path already contains any query string. A non-2xx
// response is returned as *APIError. No retries are performed.
func (c *Client) Do(ctx context.Context, baseURL, method, path string, body any, opts Options, out any) error {
	resp, elapsed, err := c.send(ctx, baseURL, method, path, body, opts, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.traceResponse(opts, resp.StatusCode, elapsed)

	if !isJSONResponse(resp) {
		data = []byte("{}")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// send resolves the key, builds the request and executes it.
func (c *Client) send(ctx context.Context, baseURL, method, path string, body any, opts Options, accept string) (*http.Response, time.Duration, error) {
	key, err := c.apiKey(opts.Profile)
	if err != nil {
		return nil, 0, err
	}

	url := baseURL + path

	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, 0, fmt.Errorf("encode request body: %w", marshalErr)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	c.traceRequest(opts, method, url, body)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	return resp, time.Since(start), nil
}

func (c *Client) traceRequest(opts Options, method, url string, body any) {
	if !opts.Verbose {
		return
	}
	c.trace.Debug(method + " " + url)
	if body != nil {
		pretty, err := json.MarshalIndent(body, "", "  ")
		if err == nil {
			c.trace.Debug("Body: " + string(pretty))
		}
	}
}

func (c *Client) traceResponse(opts Options, status int, elapsed time.Duration) {
	if !opts.Verbose {
		return
	}
	c.trace.Debug(fmt.Sprintf("Response: %d (%dms)", status, elapsed.Milliseconds()))
}

// isJSONResponse reports whether the body should be decoded as JSON.
func isJSONResponse(resp *http.Response) bool {
	if resp.StatusCode == http.StatusNoContent {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return strings.Contains(resp.Header.Get("Content-Type"), "application/json")
	}
	return mediaType == "application/json"
}

// parseServerError classifies a non-2xx response body.
func parseServerError(statusCode int, body []byte) error {
	var env errorEnvelope
	// A malformed body falls back to the status-derived error.
	_ = json.Unmarshal(body, &env)
	return newAPIError(statusCode, env)
}
