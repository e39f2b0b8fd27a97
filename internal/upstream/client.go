// Package upstream is the REST client for the IntelliWealth backend.
package upstream

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

	appErrors "github.com/fatali-fataliyev/intelliwealth/customErrors"
	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/fatali-fataliyev/intelliwealth/internal/finance"
	"github.com/fatali-fataliyev/intelliwealth/logging"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest is the single place where the bearer token and trace header are attached.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	traceID := contextutil.TraceIDFromContext(ctx)
	if traceID == "unknown-trace-id" {
		traceID = uuid.New().String()
	}
	req.Header.Set(HeaderRequestID, traceID)

	if token := contextutil.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs the request and returns the response with a 2xx status. Any other outcome
// is mapped into the error taxonomy; the caller owns closing the body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	traceID := contextutil.TraceIDFromContext(ctx)

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		logging.Logger.Warnf("[TraceID=%s] | upstream %s %s unreachable | Error: %v", traceID, method, path, err)
		return nil, fmt.Errorf("%s %s: %w", method, path, appErrors.ErrorResponse{
			Code:    appErrors.ErrTransport,
			Message: "Backend is unreachable, try again later.",
		})
	}
	logging.Logger.Debugf("[TraceID=%s] | upstream %s %s -> %d in %s", traceID, method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s %s: %w", method, path, appErrors.FromStatus(resp.StatusCode, raw))
	}
	return resp, nil
}

// call performs a JSON request and decodes the response body into generic JSON values.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	v, err := finance.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (any, error) {
	return c.call(ctx, http.MethodGet, path, query, nil)
}

// Stream performs a GET and hands back the raw body, for binary downloads.
func (c *Client) Stream(ctx context.Context, path string) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodGet, "/", nil, nil)
	var appErr appErrors.ErrorResponse
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return nil
	}
	return err
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q
}
