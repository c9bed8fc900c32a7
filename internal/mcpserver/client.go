// Package mcpserver exposes the BotBay API as MCP tools so assistants
// can manage bot activations and inspect usage conversationally.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the BotBay engine.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// BotBayClient is a pure HTTP client for the BotBay API.
type BotBayClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewBotBayClient creates a new client for the BotBay engine.
func NewBotBayClient(cfg Config) *BotBayClient {
	return &BotBayClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the engine.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the engine and returns the response body.
func (c *BotBayClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// GetPlan returns the account plan and remaining quota.
func (c *BotBayClient) GetPlan(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/plan", nil, nil)
}

// ListBots returns all activation records.
func (c *BotBayClient) ListBots(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/bots", nil, nil)
}

// ActivateBot activates (or re-arms) a bot's trial window.
func (c *BotBayClient) ActivateBot(ctx context.Context, botID int64, botName string) (json.RawMessage, error) {
	path := "/v1/bots/" + strconv.FormatInt(botID, 10) + "/activate"
	body := map[string]string{"botName": botName}
	return c.doRequest(ctx, http.MethodPost, path, nil, body)
}

// DeactivateBot removes a bot's activation record and clears its usage.
func (c *BotBayClient) DeactivateBot(ctx context.Context, botID int64) (json.RawMessage, error) {
	path := "/v1/bots/" + strconv.FormatInt(botID, 10)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// GetBotStatus returns a bot's activation record with derived status.
func (c *BotBayClient) GetBotStatus(ctx context.Context, botID int64) (json.RawMessage, error) {
	path := "/v1/bots/" + strconv.FormatInt(botID, 10) + "/status"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// GetBotStats returns a bot's usage counters.
func (c *BotBayClient) GetBotStats(ctx context.Context, botID int64) (json.RawMessage, error) {
	path := "/v1/bots/" + strconv.FormatInt(botID, 10) + "/stats"
	return c.doRequest(ctx, http.MethodGet, path, nil, nil)
}

// GetDashboard returns the full dashboard snapshot.
func (c *BotBayClient) GetDashboard(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/dashboard", nil, nil)
}
