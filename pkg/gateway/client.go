package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/auth"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// Client talks to the notification REST service.
// Zero value is not usable; use New.
type Client struct {
	base    *url.URL
	baseErr error
	tokens  auth.TokenProvider

	http      *http.Client
	timeout   time.Duration
	userAgent string
	headers   http.Header
	breaker   *CircuitBreaker
	logger    *slog.Logger
}

var _ notifications.Gateway = (*Client)(nil)

// New builds a client rooted at baseURL (e.g. "https://host/api").
// An invalid baseURL is reported by every call as ErrInvalidURL.
func New(baseURL string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		tokens:    tokens,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
		headers:   make(http.Header),
		logger:    slog.Default(),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	c.base, c.baseErr = parseBase(baseURL)
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("gateway"))
	return c
}

func parseBase(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// List fetches one page of history, newest first.
func (c *Client) List(ctx context.Context, page, limit int) (notifications.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out notifications.Page
	if err := c.do(ctx, http.MethodGet, "/notifications", q, &out); err != nil {
		return notifications.Page{}, err
	}
	if out.CurrentPage == 0 {
		out.CurrentPage = page
	}
	return out, nil
}

// ListUnread fetches every unread notification.
func (c *Client) ListUnread(ctx context.Context) ([]notifications.Notification, error) {
	var out []notifications.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications/unread", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAsRead persists the read flag and returns the server's copy.
func (c *Client) MarkAsRead(ctx context.Context, id string) (notifications.Notification, error) {
	if id == "" {
		return notifications.Notification{}, ErrEmptyID
	}
	var out notifications.Notification
	if err := c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, &out); err != nil {
		return notifications.Notification{}, err
	}
	return out, nil
}

// MarkAllAsRead returns how many notifications the server flipped.
func (c *Client) MarkAllAsRead(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodPut, "/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Delete removes one notification. Any 2xx response, including 204, is success.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

// DeleteRead removes every read notification.
func (c *Client) DeleteRead(ctx context.Context) (notifications.DeleteResult, error) {
	var out notifications.DeleteResult
	if err := c.do(ctx, http.MethodDelete, "/notifications/read", nil, &out); err != nil {
		return notifications.DeleteResult{}, err
	}
	return out, nil
}

// do sends one request and decodes a JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.baseErr != nil {
		return c.baseErr
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return ErrCircuitOpen
	}

	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	endpoint := *c.base
	endpoint.Path += path
	endpoint.RawQuery = query.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", auth.BearerHeader(token))
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// a caller that gave up says nothing about the service
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, ctx.Err())
		}
		c.recordFailure()
		c.logger.LogAttrs(ctx, slog.LevelWarn, "gateway request failed",
			slog.String("method", method),
			slog.String("path", path),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrRequestFailed, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.LogAttrs(ctx, slog.LevelDebug, "gateway request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		if resp.StatusCode >= 500 {
			c.recordFailure()
		} else {
			c.recordSuccess()
		}
		return apiErr
	}
	c.recordSuccess()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", ErrMissingToken
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", errors.Join(ErrMissingToken, err)
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.Success()
	}
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.Failure()
	}
}

// errorMessage pulls a human-readable message out of an error body.
func errorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	msg := strings.ReplaceAll(string(body), "\n", " ")
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
