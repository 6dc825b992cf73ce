package fragments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

const (
	// fragmentsPath is the versioned collection path of the service.
	fragmentsPath = "/v1/fragments"

	contentTypeJSON = "application/json"
	contentTypeAny  = "*/*"

	// DefaultContentType is used for create and update calls that don't name
	// a type.
	DefaultContentType = "text/plain"
)

// Client is an authenticated client for the fragments REST API. It asks its
// token source for the current identity token on every call.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     hclog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client built from the Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a fragments API client. tokens supplies the bearer token
// for each request; it is typically an *auth.Client.
func NewClient(cfg *Config, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fragments client config: %w", err)
	}

	c := &Client{
		config: cfg,
		tokens: tokens,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = cfg.NewHTTPClient()
	}
	c.logger = c.logger.Named("fragments-client")

	return c, nil
}

// request describes one API call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	contentType string
	body        []byte
}

// response is a successful (2xx) response with its body fully read.
type response struct {
	status      int
	contentType string
	data        []byte
}

// noContent reports whether the response carries no body by status.
func (r *response) noContent() bool {
	return r.status == http.StatusNoContent
}

// do sends one authenticated request and normalizes failures into the
// package's error types. A nil error means the status was 2xx.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	// Resolve the token first; without one nothing is sent.
	token, err := c.tokens.Token()
	if err != nil {
		return nil, &AuthenticationError{Op: r.op, Err: fmt.Errorf("%w: %v", ErrNoToken, err)}
	}
	if token == nil || !token.Valid() {
		return nil, &AuthenticationError{Op: r.op, Err: ErrNoToken}
	}

	endpoint := c.buildURL(r.path, r.query)

	var bodyReader io.Reader
	if r.body != nil {
		bodyReader = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, bodyReader)
	if err != nil {
		return nil, &NetworkError{Op: r.op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	token.SetAuthHeader(req)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	start := time.Now()
	c.logger.Debug("sending request", "op", r.op, "method", r.method, "path", r.path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", r.op, "error", err)
		return nil, &NetworkError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: r.op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("received response",
		"op", r.op,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start))

	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode == http.StatusUnauthorized {
		rawBody := parseRawBody(contentType, data)
		return nil, &AuthenticationError{
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: errorMessage(rawBody, statusText(resp)),
			RawBody: rawBody,
			Err:     ErrSessionInvalid,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rawBody := parseRawBody(contentType, data)
		return nil, &APIError{
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: errorMessage(rawBody, statusText(resp)),
			RawBody: rawBody,
		}
	}

	return &response{
		status:      resp.StatusCode,
		contentType: contentType,
		data:        data,
	}, nil
}

// buildURL constructs the request URL with query parameters.
func (c *Client) buildURL(path string, query url.Values) string {
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// payload normalizes a successful response. A 204 yields nil.
func payload(op string, res *response) (*Payload, error) {
	if res.noContent() {
		return nil, nil
	}

	p := &Payload{
		Status:      res.status,
		ContentType: res.contentType,
		Data:        res.data,
	}
	if isJSONMediaType(mediaType(res.contentType)) && len(bytes.TrimSpace(res.data)) > 0 {
		if err := json.Unmarshal(res.data, &p.JSON); err != nil {
			return nil, invalidJSON(op, res, err)
		}
	}
	return p, nil
}

func invalidJSON(op string, res *response, err error) *APIError {
	return &APIError{
		Op:      op,
		Status:  res.status,
		Message: fmt.Sprintf("invalid JSON response: %v", err),
		RawBody: string(res.data),
	}
}

// parseRawBody returns the parsed JSON body when the response declared JSON
// and parsed cleanly, the body text otherwise, or nil for an empty body.
func parseRawBody(contentType string, data []byte) any {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if isJSONMediaType(mediaType(contentType)) {
		var parsed any
		if err := json.Unmarshal(data, &parsed); err == nil {
			return parsed
		}
	}
	return string(data)
}

// errorMessage extracts error.message from a parsed error body.
func errorMessage(rawBody any, fallback string) string {
	body, ok := rawBody.(map[string]any)
	if !ok {
		return fallback
	}
	switch e := body["error"].(type) {
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	case string:
		if e != "" {
			return e
		}
	}
	return fallback
}

// statusText returns the reason phrase of the response status line.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return text
}
