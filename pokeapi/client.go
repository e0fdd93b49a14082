/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://pokeapi.co/api/v2"

// ErrNotFound is returned when PokeAPI has no pokemon under the requested
// name. Many labels do not map cleanly, so callers treat this as a normal
// outcome.
var ErrNotFound = errors.New("pokeapi: pokemon not found")

type StatusError struct {
	StatusCode int
	Name       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pokeapi: pokemon %q: HTTP %d", e.Name, e.StatusCode)
}

// Client looks up pokemon records. Concurrent lookups of the same name share
// a single request; results are not cached here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration

	group singleflight.Group
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout bounds a shared lookup independently of the callers waiting
// on it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "pokenator",
		timeout:    10 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Pokemon fetches a pokemon by slug or numeric id. The request is shared by
// every caller asking for the same name, so it outlives any one caller's
// context; a caller whose context ends stops waiting without aborting it.
func (c *Client) Pokemon(ctx context.Context, nameOrID string) (*Pokemon, error) {
	name := strings.ToLower(strings.TrimSpace(nameOrID))
	if name == "" {
		return nil, ErrNotFound
	}

	ch := c.group.DoChan(name, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		return c.fetch(fetchCtx, name)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*Pokemon), nil
	}
}

func (c *Client) fetch(ctx context.Context, name string) (*Pokemon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pokemon/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pokeapi: pokemon %q: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Name: name}
	}

	var p Pokemon
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("pokeapi: decode %q: %w", name, err)
	}

	return &p, nil
}
