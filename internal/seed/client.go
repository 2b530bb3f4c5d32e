package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/housecup/internal/adapters/http/api"
)

// Outcome of a single submission.
type Outcome int

// Submission outcomes.
const (
	Created Outcome = iota
	Duplicate
	Failed
)

// Client talks to the housecup HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Submit posts one event with its idempotency key.
func (c *Client) Submit(ctx context.Context, it Item) (string, Outcome, error) {
	body, err := json.Marshal(it.Draft)
	if err != nil {
		return "", Failed, fmt.Errorf("marshal event: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/events", body, it.Key)
	if err != nil {
		return "", Failed, err
	}
	defer func() { _ = resp.Body.Close() }()

	var out createResponse
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", Failed, fmt.Errorf("decode create response: %w", err)
		}
		if out.Duplicate {
			return out.ID, Duplicate, nil
		}
		return out.ID, Created, nil
	case http.StatusConflict:
		// The first request with this key is still in flight.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", Duplicate, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", Failed, fmt.Errorf("%w: create status %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// Events fetches the served collection.
func (c *Client) Events(ctx context.Context) (EventsPage, error) {
	var out EventsPage
	return out, c.getJSON(ctx, "/events", &out)
}

// Standings fetches the served house table.
func (c *Client) Standings(ctx context.Context) (StandingsPage, error) {
	var out StandingsPage
	return out, c.getJSON(ctx, "/standings", &out)
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s status %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, key string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(api.IdempotencyHeader, key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
