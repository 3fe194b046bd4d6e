// Package client calls a running keepsake API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/papercomputeco/keepsake/api"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/utils"
)

const defaultTimeout = 30 * time.Second

// ErrStatus is wrapped by every error for a non-2xx reply.
var ErrStatus = errors.New("unexpected API status")

// Client talks to one keepsake API server.
type Client struct {
	target *url.URL
	http   *http.Client
}

// New parses apiTarget, a full URL such as http://localhost:8765.
func New(apiTarget string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API target URL %q: scheme and host are required", apiTarget)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{target: u, http: httpClient}, nil
}

// Record posts one exchange.
func (c *Client) Record(ctx context.Context, userID string, req api.RecordRequest) (*memory.RecordResult, error) {
	var out memory.RecordResult
	return &out, c.do(ctx, http.MethodPost, c.userPath(userID, "interactions"), nil, req, &out)
}

// Context fetches the assembled context, focused on message when non-empty.
func (c *Client) Context(ctx context.Context, userID, message string) (*api.ContextResponse, error) {
	q := url.Values{}
	if message != "" {
		q.Set("message", message)
	}
	var out api.ContextResponse
	return &out, c.do(ctx, http.MethodGet, c.userPath(userID, "context"), q, nil, &out)
}

// Search fetches up to limit memories matching query.
func (c *Client) Search(ctx context.Context, userID, query string, limit int) (*api.SearchResponse, error) {
	q := url.Values{}
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out api.SearchResponse
	return &out, c.do(ctx, http.MethodGet, c.userPath(userID, "memories"), q, nil, &out)
}

// UpdateProfile merges traits into the user's profile.
func (c *Client) UpdateProfile(ctx context.Context, userID string, traits map[string]any) (*memory.UserStats, error) {
	var out memory.UserStats
	return &out, c.do(ctx, http.MethodPatch, c.userPath(userID, "profile"), nil, api.ProfileRequest{Traits: traits}, &out)
}

// UserStats fetches the user's counters.
func (c *Client) UserStats(ctx context.Context, userID string) (*memory.UserStats, error) {
	var out memory.UserStats
	return &out, c.do(ctx, http.MethodGet, c.userPath(userID, ""), nil, nil, &out)
}

// Export fetches everything held for the user.
func (c *Client) Export(ctx context.Context, userID string) (*memory.Export, error) {
	var out memory.Export
	return &out, c.do(ctx, http.MethodGet, c.userPath(userID, "export"), nil, nil, &out)
}

// Clear removes the user's memory. A partially failed clear returns the
// result together with an error.
func (c *Client) Clear(ctx context.Context, userID string) (*memory.ClearResult, error) {
	var out memory.ClearResult
	err := c.do(ctx, http.MethodDelete, c.userPath(userID, ""), nil, nil, &out)
	return &out, err
}

// Stats fetches the server-wide stats.
func (c *Client) Stats(ctx context.Context) (*memory.Stats, error) {
	var out memory.Stats
	return &out, c.do(ctx, http.MethodGet, "/stats", nil, nil, &out)
}

func (c *Client) userPath(userID, rest string) string {
	p := "/users/" + url.PathEscape(userID)
	if rest != "" {
		p += "/" + rest
	}
	return p
}

// do sends body as JSON and decodes the reply into out. Non-2xx replies are
// still decoded into out when possible.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.target
	u.RawPath = path
	u.Path, _ = url.PathUnescape(path)
	u.RawQuery = query.Encode()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to keepsake API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w: %s %s (HTTP %d): %s", ErrStatus, method, path, resp.StatusCode, e.Error)
		}
		_ = json.Unmarshal(respBody, out)
		return fmt.Errorf("%w: %s %s (HTTP %d)", ErrStatus, method, path, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
