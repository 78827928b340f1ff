// Package request is the shared HTTP client for the admin API. It attaches the
// session's bearer token, maps failures to typed errors and user notifications,
// and recovers from expired access tokens with a single refresh.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/circuitbreaker"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/notify"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/retry"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/session"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single HTTP exchange
	DefaultTimeout = 30 * time.Second

	// DefaultRefreshPath is the token refresh endpoint
	DefaultRefreshPath = "/api/admin/auth/refresh/"

	// LoginPath is where the navigator is sent once the session is gone
	LoginPath = "/login"

	// RequestIDHeader carries the per-call correlation id
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 10 << 20
)

// Navigator performs a full navigation to an application route
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

// Navigate calls f(path)
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Client sends authenticated requests to the admin API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	session     *session.Session
	notifier    notify.Notifier
	navigator   Navigator
	logger      logrus.FieldLogger
	limiter     *rate.Limiter
	retry       retry.Policy
	breaker     *circuitbreaker.Breaker
	refreshPath string

	refreshGroup singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-exchange timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithNotifier sets the user notification channel
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithNavigator sets where the client sends the user on session loss
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit throttles outgoing requests; r <= 0 disables the limit
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithRetry sets the policy used for GET requests that fail in transport
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// WithCircuitBreaker guards every exchange with b
func WithCircuitBreaker(b *circuitbreaker.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithRefreshPath overrides the refresh endpoint
func WithRefreshPath(path string) Option {
	return func(c *Client) { c.refreshPath = path }
}

// New creates a client for the API at baseURL
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if sess == nil {
		return nil, errors.New("session is required")
	}

	c := &Client{
		baseURL:     strings.TrimRight(u.String(), "/"),
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		session:     sess,
		notifier:    notify.Nop{},
		navigator:   NavigatorFunc(func(string) {}),
		logger:      logrus.StandardLogger(),
		retry:       retry.None(),
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the session context the client authenticates with
func (c *Client) Session() *session.Session {
	return c.session
}

// BaseURL returns the API root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded, or sent as form fields when Files is not empty
	Body  any
	Files []File

	// Silent suppresses user notifications for this call
	Silent bool

	// Anonymous requests carry no bearer token and a 401 never touches the session
	Anonymous bool
}

// Get decodes the response of GET path into out
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post sends body with POST and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put sends body with PUT and decodes the response into out
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch sends body with PATCH and decodes the response into out
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues DELETE path
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

// Do performs req and decodes a 200/201 payload into out when out is not nil.
// A 204 response succeeds without touching out. Every failure is returned as
// an *APIError and, unless the request is silent, reported to the notifier.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	err := c.do(ctx, req, out)
	if err != nil && !req.Silent {
		c.report(ctx, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, req *Request, out any) error {
	requestID := uuid.NewString()

	var token string
	if !req.Anonymous {
		var err error
		token, err = c.session.AccessToken(ctx)
		if err != nil {
			return c.configError(req, fmt.Errorf("failed to read access token: %w", err))
		}
	}

	body, err := c.send(ctx, req, token, requestID)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized {
		if req.Anonymous {
			apiErr.Message = bodyMessage(apiErr.Details)
			return apiErr
		}
		body, err = c.reauthenticate(ctx, req, token, requestID, apiErr)
	}
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{
			Kind:    KindDecode,
			Status:  http.StatusOK,
			Method:  req.Method,
			Path:    req.Path,
			Message: MsgInvalidResponse,
			Err:     err,
		}
	}
	return nil
}

// reauthenticate handles a 401: refresh once, replay once, otherwise end the session
func (c *Client) reauthenticate(ctx context.Context, req *Request, staleToken, requestID string, unauthorized *APIError) ([]byte, error) {
	access, err := c.refresh(ctx, staleToken)
	if err != nil {
		c.logger.WithError(err).WithField("request_id", requestID).Warn("Token refresh failed")
		c.endSession(ctx)
		return nil, unauthorized
	}

	body, err := c.send(ctx, req, access, requestID)
	if IsKind(err, KindUnauthorized) {
		c.endSession(ctx)
	}
	return body, err
}

func (c *Client) endSession(ctx context.Context) {
	if err := c.session.Invalidate(ctx, session.ReasonUnauthorized); err != nil {
		c.logger.WithError(err).Error("Failed to clear session")
	}
	c.navigator.Navigate(LoginPath)
}

// send runs one logical exchange through the rate limiter, breaker and retry policy
func (c *Client) send(ctx context.Context, req *Request, token, requestID string) ([]byte, error) {
	policy := retry.None()
	if req.Method == http.MethodGet {
		policy = c.retry
		policy.Retryable = retryable
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			c.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"attempt":    attempt,
				"wait":       wait,
			}).WithError(err).Debug("Retrying request")
		}
	}

	body, err := retry.DoValue(ctx, policy, func(ctx context.Context) ([]byte, error) {
		return c.exchange(ctx, req, token, requestID)
	})
	if err != nil {
		// unwrap the retry envelope so callers always see the APIError
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, &APIError{
			Kind:    KindTransport,
			Method:  req.Method,
			Path:    req.Path,
			Message: MsgNetworkFailed,
			Err:     err,
		}
	}
	return body, nil
}

func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Kind == KindTransport {
		return !errors.Is(err, circuitbreaker.ErrOpen) &&
			!errors.Is(err, circuitbreaker.ErrProbeInFlight) &&
			!errors.Is(err, context.Canceled)
	}
	switch apiErr.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// exchange performs a single HTTP round trip
func (c *Client) exchange(ctx context.Context, req *Request, token, requestID string) ([]byte, error) {
	httpReq, err := c.build(ctx, req, token, requestID)
	if err != nil {
		return nil, c.configError(req, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(req, err)
		}
	}

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, c.transportError(req, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.recordBreaker(err)
		c.logger.WithFields(logrus.Fields{
			"method":     req.Method,
			"path":       req.Path,
			"latency":    time.Since(start),
			"request_id": requestID,
		}).WithError(err).Warn("Request failed without response")
		return nil, c.transportError(req, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordBreaker(err)
		return nil, c.transportError(req, fmt.Errorf("failed to read response: %w", err))
	}

	fields := logrus.Fields{
		"method":     req.Method,
		"path":       req.Path,
		"status":     resp.StatusCode,
		"latency":    time.Since(start),
		"request_id": requestID,
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		c.recordBreaker(nil)
		c.logger.WithFields(fields).Debug("Request completed")
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		return body, nil
	}

	apiErr := statusError(req.Method, req.Path, resp.StatusCode, body)
	if apiErr.Kind == KindServer {
		c.recordBreaker(apiErr)
	} else {
		c.recordBreaker(nil)
	}
	c.logger.WithFields(fields).Info("Request returned error status")
	return nil, apiErr
}

func (c *Client) recordBreaker(err error) {
	if c.breaker != nil {
		c.breaker.Record(err)
	}
}

func (c *Client) build(ctx context.Context, req *Request, token, requestID string) (*http.Request, error) {
	if req.Method == "" {
		return nil, errors.New("method is required")
	}

	target := c.URL(req.Path, req.Query)
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case len(req.Files) > 0:
		buf, ct, err := encodeMultipart(req.Body, req.Files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// URL joins path and query onto the base URL
func (c *Client) URL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (c *Client) configError(req *Request, err error) *APIError {
	return &APIError{Kind: KindConfig, Method: req.Method, Path: req.Path, Message: MsgConfigError, Err: err}
}

func (c *Client) transportError(req *Request, err error) *APIError {
	return &APIError{Kind: KindTransport, Method: req.Method, Path: req.Path, Message: MsgNetworkFailed, Err: err}
}

// report sends the user-facing message for err
func (c *Client) report(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.notifier.Error(ctx, apiErr.Message)
		return
	}
	c.notifier.Error(ctx, MsgRequestFailed)
}
