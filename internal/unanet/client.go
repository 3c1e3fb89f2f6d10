package unanet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/table"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	loginPath        = "/platform/rest/login"
	projectPath      = "/platform/rest/projects/%d"
	plannedTimePath  = "/platform/rest/planning/time/%d"
	invoicePath      = "/platform/rest/invoices/%d"
	fixedPricePath   = "/platform/rest/projects/%d/fixed-price-items?page=1&pageSize=1500"
	leaveRequestPath = "/platform/rest/leave-requests"
	peoplePath       = "/platform/rest/people"
)

// Record is one decoded JSON object.
type Record = table.Record

// Config holds everything a [Client] needs. There is no package level state.
type Config struct {
	BaseURL           string
	Username          string
	Password          string
	RequestsPerSecond float64      // Zero or less disables pacing
	HTTPClient        *http.Client // Defaults to [http.DefaultClient]
}

// ConfigFrom builds a [Config] from the application config.
func ConfigFrom(c shared.UnanetConfig) Config {
	return Config{
		BaseURL:           c.BaseURL,
		Username:          c.Username,
		Password:          c.Password,
		RequestsPerSecond: c.RequestsPerSecond,
		HTTPClient:        &http.Client{Timeout: c.Timeout()},
	}
}

// Client talks to one Unanet tenant.
type Client struct {
	baseURL  string
	username string
	password string
	base     *http.Client
	limiter  *rate.Limiter

	mu     sync.RWMutex
	authed *http.Client
}

// NewClient validates cfg and returns an unauthenticated client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: unanet base URL", shared.ErrMissingConfig)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		base:     cfg.HTTPClient,
		limiter:  rate.NewLimiter(limit, 1),
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type itemsResponse struct {
	Items []Record `json:"items"`
}

// Authenticate logs in and attaches the returned token to every later request.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.username == "" || c.password == "" {
		return fmt.Errorf("%w: unanet username and password", shared.ErrMissingCredentials)
	}

	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAuthFailed, err)
	}
	if login.Token == "" {
		return fmt.Errorf("%w: no token in response", shared.ErrAuthFailed)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: login.Token, TokenType: "Bearer"})
	authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.base), src)
	authed.Timeout = c.base.Timeout

	c.mu.Lock()
	c.authed = authed
	c.mu.Unlock()
	return nil
}

// Authenticated reports whether [Client.Authenticate] has succeeded.
func (c *Client) Authenticated() bool {
	return c.session() != nil
}

func (c *Client) session() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authed
}

// doRequest performs an authenticated GET and decodes the JSON body into result.
func (c *Client) doRequest(ctx context.Context, path string, result any) error {
	authed := c.session()
	if authed == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := authed.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", shared.ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s: status %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, path string) (Record, error) {
	var rec Record
	if err := c.doRequest(ctx, path, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) items(ctx context.Context, path string) ([]Record, error) {
	var resp itemsResponse
	if err := c.doRequest(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Project retrieves a project by key.
func (c *Client) Project(ctx context.Context, id int) (Record, error) {
	return c.record(ctx, fmt.Sprintf(projectPath, id))
}

// PlannedTime retrieves the planned time of a project.
func (c *Client) PlannedTime(ctx context.Context, projectID int) (Record, error) {
	return c.record(ctx, fmt.Sprintf(plannedTimePath, projectID))
}

// Invoice retrieves an invoice by key.
func (c *Client) Invoice(ctx context.Context, id int) (Record, error) {
	return c.record(ctx, fmt.Sprintf(invoicePath, id))
}

// FixedPriceItems retrieves the first page (up to 1500) of a project's fixed price items.
func (c *Client) FixedPriceItems(ctx context.Context, projectID int) ([]Record, error) {
	return c.items(ctx, fmt.Sprintf(fixedPricePath, projectID))
}

// LeaveRequests searches leave requests. query is a raw URL query string.
func (c *Client) LeaveRequests(ctx context.Context, query string) ([]Record, error) {
	return c.items(ctx, withQuery(leaveRequestPath, query))
}

// People searches people. query is a raw URL query string.
func (c *Client) People(ctx context.Context, query string) ([]Record, error) {
	return c.items(ctx, withQuery(peoplePath, query))
}

func withQuery(path, query string) string {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return path
	}
	return path + "?" + query
}
