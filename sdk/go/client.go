package graphconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the GraphConnect client.
type Config struct {
	// BaseURL is the root URL of the GraphConnect server.
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// APIKey is sent as X-API-Key on every request. Send needs the server's
	// mail key, ListSent its audit key.
	APIKey string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
}

// Client calls the GraphConnect HTTP API.
type Client struct {
	cfg Config
}

// NewClient creates a new GraphConnect client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// Send sends a mail using the server's application credentials. The client
// must be configured with the server's mail API key.
func (c *Client) Send(ctx context.Context, req SendRequest) error {
	return c.SendAs(ctx, req, "")
}

// SendAs sends a mail from the mailbox of the user owning accessToken,
// a delegated Microsoft Graph token. An empty token behaves like Send.
func (c *Client) SendAs(ctx context.Context, req SendRequest, accessToken string) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("graphconnect: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/mail/send", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("graphconnect: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	_, err = c.do(httpReq)
	return err
}

// ListSent returns recent mail audit entries, newest first. limit <= 0 uses the server default.
func (c *Client) ListSent(ctx context.Context, limit int) ([]SentMail, error) {
	endpoint := c.cfg.BaseURL + "/mail/sent"
	if limit > 0 {
		endpoint += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("graphconnect: failed to create request: %w", err)
	}
	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var resp listSentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("graphconnect: failed to parse response: %w", err)
	}
	return resp.Items, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphconnect: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("graphconnect: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return body, nil
}
