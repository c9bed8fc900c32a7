package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *BotBayClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *BotBayClient) *Handlers {
	return &Handlers{client: client}
}

// HandleGetPlan returns the account plan and remaining quota.
func (h *Handlers) HandleGetPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetPlan(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get plan: %v", err)), nil
	}

	text, err := formatPlan(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse plan: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListBots lists all activation records.
func (h *Handlers) HandleListBots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ListBots(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list bots: %v", err)), nil
	}

	text, err := formatBotList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse bots: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleActivateBot activates or re-arms a bot.
func (h *Handlers) HandleActivateBot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	botID, ok := requireBotID(req)
	if !ok {
		return mcp.NewToolResultError("bot_id is required"), nil
	}
	botName := req.GetString("bot_name", "")
	if botName == "" {
		return mcp.NewToolResultError("bot_name is required"), nil
	}

	raw, err := h.client.ActivateBot(ctx, botID, botName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Activation failed: %v", err)), nil
	}

	var resp struct {
		Bot map[string]any `json:"bot"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Bot == nil {
		return mcp.NewToolResultText(formatJSON(raw)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Bot %s (id %d) activated.\n"+
			"Window: %s until %s\n"+
			"Status: %s",
		botName, botID,
		getString(resp.Bot, "activatedAt"),
		getString(resp.Bot, "expiresAt"),
		getString(resp.Bot, "status"))), nil
}

// HandleDeactivateBot removes a bot's activation record.
func (h *Handlers) HandleDeactivateBot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	botID, ok := requireBotID(req)
	if !ok {
		return mcp.NewToolResultError("bot_id is required"), nil
	}

	if _, err := h.client.DeactivateBot(ctx, botID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Deactivation failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Bot %d deactivated. Its usage counters were cleared and one quota slot was freed.",
		botID)), nil
}

// HandleCheckBotStatus returns a bot's activation state.
func (h *Handlers) HandleCheckBotStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	botID, ok := requireBotID(req)
	if !ok {
		return mcp.NewToolResultError("bot_id is required"), nil
	}

	raw, err := h.client.GetBotStatus(ctx, botID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get status: %v", err)), nil
	}

	text, err := formatBotStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse status: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetBotStats returns a bot's usage counters.
func (h *Handlers) HandleGetBotStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	botID, ok := requireBotID(req)
	if !ok {
		return mcp.NewToolResultError("bot_id is required"), nil
	}

	raw, err := h.client.GetBotStats(ctx, botID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get stats: %v", err)), nil
	}

	text, err := formatBotStats(botID, raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse stats: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetDashboard returns the dashboard snapshot.
func (h *Handlers) HandleGetDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetDashboard(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get dashboard: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// --- Formatting helpers ---

func requireBotID(req mcp.CallToolRequest) (int64, bool) {
	id := req.GetInt("bot_id", -1)
	if id < 0 {
		return 0, false
	}
	return int64(id), true
}

func formatPlan(raw json.RawMessage) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Account Plan:\n")
	sb.WriteString(fmt.Sprintf("  Plan: %s\n", getString(m, "plan")))
	if unlimited, ok := m["unlimited"].(bool); ok && unlimited {
		sb.WriteString("  Limit: unlimited\n")
	} else if v, ok := getFloat(m, "limit"); ok {
		sb.WriteString(fmt.Sprintf("  Limit: %.0f concurrent bots\n", v))
	}
	if v, ok := getFloat(m, "activeBots"); ok {
		sb.WriteString(fmt.Sprintf("  Active: %.0f\n", v))
	}
	if v, ok := getFloat(m, "remaining"); ok {
		sb.WriteString(fmt.Sprintf("  Remaining slots: %.0f\n", v))
	}
	return sb.String(), nil
}

func formatBotList(raw json.RawMessage) (string, error) {
	var resp struct {
		Bots []map[string]any `json:"bots"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unexpected bots response format")
	}

	if len(resp.Bots) == 0 {
		return "No bots activated.", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d bot(s):\n\n", len(resp.Bots)))
	for i, b := range resp.Bots {
		sb.WriteString(fmt.Sprintf("%d. %s (id %s)\n", i+1, getString(b, "botName"), getString(b, "botId")))
		sb.WriteString(fmt.Sprintf("   Status: %s | Expires: %s\n", getString(b, "status"), getString(b, "expiresAt")))
	}
	return sb.String(), nil
}

func formatBotStatus(raw json.RawMessage) (string, error) {
	var resp struct {
		Bot    map[string]any `json:"bot"`
		Active bool           `json:"active"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Bot == nil {
		return "", fmt.Errorf("unexpected status response format")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Bot %s (%s):\n", getString(resp.Bot, "botId"), getString(resp.Bot, "botName")))
	if resp.Active {
		sb.WriteString("  Status: active\n")
	} else {
		sb.WriteString("  Status: expired\n")
	}
	sb.WriteString(fmt.Sprintf("  Activated: %s\n", getString(resp.Bot, "activatedAt")))
	sb.WriteString(fmt.Sprintf("  Expires:   %s\n", getString(resp.Bot, "expiresAt")))
	return sb.String(), nil
}

func formatBotStats(botID int64, raw json.RawMessage) (string, error) {
	var resp struct {
		Stats map[string]any `json:"stats"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Stats == nil {
		return "", fmt.Errorf("unexpected stats response format")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Usage for bot %d:\n", botID))
	if v, ok := getFloat(resp.Stats, "userCount"); ok {
		sb.WriteString(fmt.Sprintf("  Users: %.0f\n", v))
	}
	if v, ok := getFloat(resp.Stats, "messageCount"); ok {
		sb.WriteString(fmt.Sprintf("  Messages: %.0f\n", v))
	}
	if v := getString(resp.Stats, "lastActiveLabel"); v != "" {
		sb.WriteString(fmt.Sprintf("  Last active: %s\n", v))
	}
	if v, ok := getFloat(resp.Stats, "performance"); ok {
		sb.WriteString(fmt.Sprintf("  Performance: %.0f/100\n", v))
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

// getString extracts a string value from a map, trying multiple key names.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%g", f)
			}
		}
	}
	return ""
}

// getFloat extracts a float64 value from a map, trying multiple key names.
func getFloat(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
