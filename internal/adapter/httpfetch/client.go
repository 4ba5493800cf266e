package httpfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps the response body kept on a StatusError.
const maxErrorBody = 4 << 10

// StatusError reports a non-2xx answer. Body keeps the start of the response body so
// callers can read a provider's error message.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// ClientConfig holds HTTP client configuration.
type ClientConfig struct {
	// Timeout bounds every single call, on top of the caller's context.
	Timeout  time.Duration
	MaxBytes int64
}

// DefaultConfig returns default HTTP client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Timeout:  15 * time.Second,
		MaxBytes: 20 << 20,
	}
}

// Client performs the outbound calls of the service: asset downloads and JSON APIs.
type Client struct {
	client *http.Client
	agents *AgentManager
	config ClientConfig
}

// NewClient creates a new HTTP client. Requests go through the proxies of agents.
func NewClient(config ClientConfig, agents *AgentManager) *Client {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = def.MaxBytes
	}
	if agents == nil {
		agents = NewAgentManager(nil)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = agents.Proxy
	return &Client{
		client: &http.Client{Transport: transport},
		agents: agents,
		config: config,
	}
}

// NewClientWithHTTP wraps an existing http.Client, e.g. one from httptest.
func NewClientWithHTTP(hc *http.Client, config ClientConfig) *Client {
	c := NewClient(config, nil)
	c.client = hc
	return c
}

// GetBytes downloads the whole body of url.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > c.config.MaxBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", c.config.MaxBytes)
	}
	return data, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// PostJSON posts body as JSON and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, c.config.MaxBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends req and turns non-2xx answers into a *StatusError. The caller closes the body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if ua := c.agents.UserAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return resp, nil
}
