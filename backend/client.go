/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package backend

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
)

var (
	ErrInvalidConfig = errors.New("backend: invalid configuration")
	ErrInvalidAnswer = errors.New("backend: answer must be YES, NO or UNKNOWN")
)

// APIError is a non-2xx response from the game backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d - %s", e.StatusCode, e.Body)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client talks to the game backend, which owns sessions, questions and
// candidate elimination.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base url scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Start(ctx context.Context) (*StartResponse, error) {
	var out StartResponse
	if err := c.do(ctx, http.MethodPost, "/api/game/start", struct{}{}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Answer(ctx context.Context, sessionID string, answer Answer) (*StepResponse, error) {
	if !answer.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnswer, answer)
	}

	var out StepResponse
	path := "/api/game/" + url.PathEscape(sessionID) + "/answer"
	if err := c.do(ctx, http.MethodPost, path, answerRequest{Answer: answer}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) Candidates(ctx context.Context, sessionID string) (*CandidatesResponse, error) {
	var out CandidatesResponse
	path := "/api/game/" + url.PathEscape(sessionID) + "/candidates"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("backend: decode %s: %w", path, err)
	}

	return nil
}
