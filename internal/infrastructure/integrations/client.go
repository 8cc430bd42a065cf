// Package integrations holds the HTTP plumbing shared by the third-party API clients.
package integrations

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

	"github.com/investorcrm/backend/internal/infrastructure/telemetry"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 8 << 20

// ErrResponseTooLarge is returned when a provider response exceeds the read limit
var ErrResponseTooLarge = errors.New("response body too large")

// APIError is a non-2xx response from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the call may succeed if repeated later
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client sends requests to one provider and returns parsed JSON
type Client struct {
	provider   string
	httpClient *http.Client
}

// NewClient creates a client with the given timeout
func NewClient(provider string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Provider returns the provider name used in errors and spans
func (c *Client) Provider() string {
	return c.provider
}

// Do executes req and parses the JSON response body
func (c *Client) Do(ctx context.Context, operation string, req *http.Request) (result gjson.Result, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, c.provider, operation,
		"http.method", req.Method,
		"http.host", req.URL.Host,
	)
	defer telemetry.End(span, &err)

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %s: %w", c.provider, operation, err)
	}
	defer resp.Body.Close()
	telemetry.SetAttributes(span, "http.status_code", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: read response: %w", c.provider, err)
	}
	if len(body) > maxResponseBytes {
		return gjson.Result{}, fmt.Errorf("%s: %w", c.provider, ErrResponseTooLarge)
	}

	if resp.StatusCode >= 300 {
		return gjson.Result{}, &APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: %s: invalid JSON response", c.provider, operation)
	}
	return gjson.ParseBytes(body), nil
}

// JSON sends body encoded as JSON. A nil body sends no payload.
func (c *Client) JSON(ctx context.Context, operation, method, rawURL string, header http.Header, body any) (gjson.Result, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%s: encode request: %w", c.provider, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, operation, req)
}

// Form posts an url-encoded form
func (c *Client) Form(ctx context.Context, operation, rawURL string, form url.Values) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, operation, req)
}

// Bearer returns an Authorization header for token
func Bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

// errorMessage pulls a readable message out of the common provider error shapes
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "error_description", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "...(truncated)"
	}
	if msg == "" {
		return "empty response"
	}
	return msg
}
