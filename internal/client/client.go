// Package client talks to the bingo session API over HTTP.
package client

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

	"bingo/internal/models"
	"bingo/internal/session"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status           int
	Message          string
	RequiresPassword bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status back onto the session error it came from, so
// callers can use errors.Is with the session sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return session.ErrValidation
	case http.StatusUnauthorized:
		return session.ErrAuthRequired
	case http.StatusForbidden:
		return session.ErrAuthInvalid
	case http.StatusNotFound:
		return session.ErrNotFound
	case http.StatusConflict:
		return session.ErrConflict
	}
	return nil
}

// Client is a session API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL. A nil httpClient gets a
// default with a 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Create uploads tiles as a new session and returns its code.
func (c *Client) Create(ctx context.Context, tiles []models.Tile) (string, error) {
	var out struct {
		SessionCode string `json:"sessionCode"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/session/create", map[string]any{"tiles": tiles}, &out); err != nil {
		return "", err
	}
	return out.SessionCode, nil
}

// Load fetches a session.
func (c *Client) Load(ctx context.Context, code string) (models.Session, error) {
	var out models.Session
	if err := c.do(ctx, http.MethodGet, sessionPath(code, ""), nil, &out); err != nil {
		return models.Session{}, err
	}
	return out, nil
}

// Save replaces the session's tiles. An empty password is not sent.
func (c *Client) Save(ctx context.Context, code string, tiles []models.Tile, password string) error {
	body := map[string]any{"tiles": tiles}
	if password != "" {
		body["password"] = password
	}
	return c.do(ctx, http.MethodPost, sessionPath(code, "/save"), body, nil)
}

// Claim protects the session with password.
func (c *Client) Claim(ctx context.Context, code, password string) error {
	return c.do(ctx, http.MethodPost, sessionPath(code, "/claim"), map[string]any{"password": password}, nil)
}

func sessionPath(code, suffix string) string {
	return "/api/session/" + url.PathEscape(code) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var payload struct {
			Error            string `json:"error"`
			RequiresPassword bool   `json:"requiresPassword"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.RequiresPassword = payload.RequiresPassword
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
