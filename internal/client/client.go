// Package client is the HTTP request wrapper every screen talks to the API
// through.
//
// Every call returns either a successful *Envelope or nil. A nil result has
// already been reported to the user through the notifier exactly once;
// callers do not inspect errors further.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atinyakov/bizops/internal/metrics"
	"github.com/atinyakov/bizops/internal/notify"
)

// Messages shown when the server gives none.
const (
	MsgSomethingWrong = "Something went wrong"
	MsgSendError      = "Error sending data"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 10 << 20

// TokenSource provides the stored JWT, or "" when logged out.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is relative to the base URL, e.g. "api/employee/all-list".
	Path string
	// Body is JSON-encoded for non-GET requests when non-nil.
	Body any
	// RequiresAuth attaches the bearer token when one is stored.
	RequiresAuth bool
}

// Config holds client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Notifier   notify.Notifier
	Logger     *zap.Logger
	// Limiter optionally throttles outgoing requests.
	Limiter *rate.Limiter
}

// Client is the API request wrapper.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	notifier   notify.Notifier
	log        *zap.Logger
	limiter    *rate.Limiter
}

// New creates a new Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     cfg.Tokens,
		notifier:   cfg.Notifier,
		log:        log,
		limiter:    cfg.Limiter,
	}, nil
}

// URL returns the absolute URL for a relative API path.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// PostWithToken POSTs body to path with the stored bearer token.
func (c *Client) PostWithToken(ctx context.Context, path string, body any) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, RequiresAuth: true})
}

// PostWithoutToken POSTs body to path without credentials (OTP and other
// pre-auth flows).
func (c *Client) PostWithoutToken(ctx context.Context, path string, body any) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Get fetches path with the stored bearer token.
func (c *Client) Get(ctx context.Context, path string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, RequiresAuth: true})
}

// Put sends body to path with PUT and the stored bearer token.
func (c *Client) Put(ctx context.Context, path string, body any) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, RequiresAuth: true})
}

// Delete sends a DELETE to path with the stored bearer token.
func (c *Client) Delete(ctx context.Context, path string) *Envelope {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, RequiresAuth: true})
}

// Do performs req and normalizes every outcome into an Envelope or nil.
func (c *Client) Do(ctx context.Context, req Request) *Envelope {
	start := time.Now()
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	log := c.log.With(zap.String("method", method), zap.String("path", req.Path))

	finish := func(outcome string) {
		metrics.ObserveClientRequest(method, outcome, time.Since(start))
	}
	fail := func(outcome, msg string, err error) *Envelope {
		// A cancelled caller is gone; a deadline is still a failure to report.
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Debug("request abandoned", zap.Error(ctx.Err()))
			finish(metrics.OutcomeCancelled)
			return nil
		}
		log.Warn("request failed", zap.String("outcome", outcome), zap.String("message", msg), zap.Error(err))
		finish(outcome)
		notify.Error(c.notifier, msg)
		return nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(metrics.OutcomeTransport, MsgSendError, err)
		}
	}

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fail(metrics.OutcomeTransport, MsgSendError, fmt.Errorf("marshal body: %w", err))
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path), body)
	if err != nil {
		return fail(metrics.OutcomeTransport, MsgSendError, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.RequiresAuth && c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fail(metrics.OutcomeTransport, MsgSendError, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fail(metrics.OutcomeTransport, MsgSendError, fmt.Errorf("read body: %w", err))
	}

	env, parsed := parseEnvelope(raw)

	if resp.StatusCode != http.StatusOK {
		msg := MsgSomethingWrong
		if parsed && env.Message != "" {
			msg = env.Message
		}
		return fail(metrics.OutcomeHTTPError, msg, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if !parsed {
		return fail(metrics.OutcomeTransport, MsgSendError, fmt.Errorf("response is not a JSON object"))
	}
	if !env.Status {
		msg := env.Message
		if msg == "" {
			msg = MsgSomethingWrong
		}
		return fail(metrics.OutcomeRejected, msg, nil)
	}

	log.Debug("request succeeded", zap.Duration("took", time.Since(start)))
	finish(metrics.OutcomeOK)
	return env
}
