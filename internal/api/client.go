package api

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
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/httpclient"
	"github.com/Salisuili/rest-frontend/pkg/logger"
	"github.com/Salisuili/rest-frontend/pkg/validator"
)

// CorrelationHeader carries the per-call correlation ID.
const CorrelationHeader = "X-Correlation-ID"

// TokenSource yields the bearer credential to attach, or "" for none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client is the single gateway to the backend REST API. Every call is one
// attempt: no retries, no caching and no deduplication. All failures are
// returned as *apperrors.AppError with a display-ready message.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	logger  *slog.Logger

	mu     sync.RWMutex
	tokens TokenSource

	Auth       *AuthAPI
	Menu       *MenuAPI
	Categories *CategoriesAPI
	MenuItems  *MenuItemsAPI
	Orders     *OrdersAPI
	Users      *UsersAPI
	Admin      *AdminAPI
	Upload     *UploadAPI
}

// New creates a client for the backend at baseURL, e.g.
// "http://localhost:5000". Resources are addressed as {baseURL}/api/{path}.
func New(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
	}
	c.Auth = &AuthAPI{c: c}
	c.Menu = &MenuAPI{c: c}
	c.Categories = &CategoriesAPI{c: c}
	c.MenuItems = &MenuItemsAPI{c: c}
	c.Orders = &OrdersAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	c.Upload = &UploadAPI{c: c}
	return c
}

// UseTokens sets where the bearer credential is read from on each call.
func (c *Client) UseTokens(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// call describes one API operation.
type call struct {
	group    string
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	out      any
	fallback string

	// raw replaces body for non-JSON payloads such as multipart uploads.
	raw         io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	status := "network"
	defer func() {
		apiRequestsTotal.WithLabelValues(cl.group, cl.op, status).Inc()
		apiRequestDuration.WithLabelValues(cl.group, cl.op).Observe(time.Since(start).Seconds())
	}()

	if logger.CorrelationIDFromContext(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	}
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		status = "error"
		return apperrors.Internal(fmt.Errorf("build %s request: %w", cl.op, err))
	}
	log := logger.WithContext(ctx, c.logger).With(
		slog.String("api_group", cl.group),
		slog.String("operation", cl.op),
	)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			status = "circuit_open"
		}
		log.WarnContext(ctx, "api request failed", slog.String("error", err.Error()))
		return apperrors.Network(cl.fallback, err)
	}
	status = strconv.Itoa(resp.StatusCode)

	if !httpclient.IsSuccess(resp.StatusCode) {
		appErr := httpclient.ParseResponseError(resp, cl.fallback)
		log.WarnContext(ctx, "api request rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
		)
		return appErr
	}
	defer func() { _ = resp.Body.Close() }()

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.DebugContext(ctx, "api request completed", slog.Int("status", resp.StatusCode))
		return nil
	}
	if err := validator.DecodeAndValidate(resp.Body, cl.out); err != nil {
		log.WarnContext(ctx, "api response malformed", slog.String("error", err.Error()))
		return apperrors.BadResponse(cl.fallback, err)
	}
	log.DebugContext(ctx, "api request completed", slog.Int("status", resp.StatusCode))
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL + "/api" + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	contentType := cl.contentType
	switch {
	case cl.raw != nil:
		body = cl.raw
	case cl.body != nil:
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	req.Header.Set(CorrelationHeader, logger.CorrelationIDFromContext(ctx))

	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func escape(id fmt.Stringer) string {
	return url.PathEscape(id.String())
}
