// Package remote is the HTTP client for the plan generation endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ashureev/eventplanner/internal/domain"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d: %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// GenerateRequest is the POST body. The draft is omitted for follow-ups.
type GenerateRequest struct {
	*domain.EventDraft
	Prompt        string          `json:"prompt,omitempty"`
	ChatType      domain.ChatType `json:"chatType"`
	UserID        string          `json:"userId,omitempty"`
	ChatSessionID string          `json:"chatSessionId"`
	FollowUp      string          `json:"followUp,omitempty"`
	PrevPrompt    string          `json:"prevPrompt,omitempty"`
	PrevResponse  string          `json:"prevResponse,omitempty"`
}

// GenerateResponse is the POST response body.
type GenerateResponse struct {
	Result string `json:"result"`
}

// ListResponse is the GET response body.
type ListResponse struct {
	Sessions []domain.SessionRecord `json:"sessions"`
}

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Client talks to one endpoint URL.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 150 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate posts req and returns the generated text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out GenerateResponse
	if err := c.do(httpReq, &out); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out.Result, nil
}

// ListSessions fetches every recorded session for userID.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	u, err := c.urlWith(url.Values{"userId": {userID}})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out ListResponse
	if err := c.do(httpReq, &out); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out.Sessions, nil
}

// DeleteSession removes one recorded session.
func (c *Client) DeleteSession(ctx context.Context, userID, chatSessionID string) error {
	u, err := c.urlWith(url.Values{"userId": {userID}, "chatSessionId": {chatSessionID}})
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if err := c.do(httpReq, nil); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (c *Client) urlWith(q url.Values) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	existing := u.Query()
	for k, v := range q {
		existing[k] = v
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}

// do sends req and decodes a 2xx JSON body into out (skipped when out is nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
