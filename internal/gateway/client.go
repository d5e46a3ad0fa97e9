package gateway

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

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docportal/internal/model"
)

// TokenSource supplies the bearer token attached to every request.
// An empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type clientConfig struct {
	baseURL    string
	timeout    time.Duration
	userAgent  string
	tokens     TokenSource
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

func WithBaseURL(u string) ClientOption {
	return func(c *clientConfig) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) { c.timeout = d }
}

func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *clientConfig) { c.tokens = ts }
}

// WithHTTPClient replaces the traced default client. The timeout option is ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) { c.httpClient = hc }
}

func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) { c.userAgent = ua }
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *clientConfig) { c.log = l }
}

// Client talks to the document REST API. Every JSON response is decoded
// through the ApiResponse envelope.
type Client struct {
	cfg  clientConfig
	http *http.Client
}

// NewClient builds a Client. Without WithHTTPClient requests go through an
// otelhttp transport.
func NewClient(opts ...ClientOption) *Client {
	cfg := clientConfig{
		baseURL:   "http://localhost:8080/api",
		timeout:   30 * time.Second,
		userAgent: "ged/1.0",
		tokens:    StaticToken(""),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   cfg.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{cfg: cfg, http: hc}
}

// doRequest sends one request. Transport failures are reported as ErrNetwork.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.cfg.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.userAgent != "" {
		req.Header.Set("User-Agent", c.cfg.userAgent)
	}
	if tok := c.cfg.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.cfg.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request_failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &networkError{err: err}
	}
	c.cfg.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")
	return resp, nil
}

// doJSON marshals in (when non-nil), sends the request, and returns the raw response.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.doRequest(ctx, method, path, query, body, contentType)
}

// call performs a JSON round trip and unwraps the envelope payload.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, in any) (T, error) {
	var zero T
	resp, err := c.doJSON(ctx, method, path, query, in)
	if err != nil {
		return zero, err
	}
	return decode[T](resp)
}

func decode[T any](resp *http.Response) (T, error) {
	var zero T
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return zero, responseError(resp)
	}

	var env model.ApiResponse[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return zero, &ServerError{
			StatusCode: resp.StatusCode,
			Code:       env.ErrorCode,
			Message:    env.Message,
			RequestID:  env.RequestID,
		}
	}
	return env.Data, nil
}

// responseError builds a *ServerError from a non-2xx response. Bodies that
// are not an envelope still produce an error carrying the status.
func responseError(resp *http.Response) error {
	se := &ServerError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return se
	}

	var env model.ApiResponse[json.RawMessage]
	if json.Unmarshal(body, &env) == nil {
		se.Code = env.ErrorCode
		se.Message = env.Message
		if env.RequestID != "" {
			se.RequestID = env.RequestID
		}
		var fields map[string]string
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &fields) == nil && len(fields) > 0 {
			se.Fields = fields
		}
	}
	return se
}
