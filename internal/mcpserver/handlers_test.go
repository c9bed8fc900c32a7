package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewBotBayClient(Config{APIURL: ts.URL})
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "quota_exceeded",
			"message": "plan free allows 1 active bot(s)",
		})
	}))
	defer ts.Close()

	client := NewBotBayClient(Config{APIURL: ts.URL})
	_, err := client.ActivateBot(context.Background(), 2, "Bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "plan free allows 1 active bot(s)")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewBotBayClient(Config{APIURL: ts.URL})
	_, err := client.GetPlan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewBotBayClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.GetPlan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_DoRequest_CancelledContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Second)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := NewBotBayClient(Config{APIURL: ts.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately
	_, err := client.GetPlan(ctx)
	require.Error(t, err)
}

func TestClient_ActivateBot_PathAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bots/42/activate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Helper", body["botName"])

		_, _ = w.Write([]byte(`{"bot":{"botId":42,"status":"active"}}`))
	}))
	defer ts.Close()

	client := NewBotBayClient(Config{APIURL: ts.URL})
	_, err := client.ActivateBot(context.Background(), 42, "Helper")
	require.NoError(t, err)
}

func TestClient_DeactivateBot_UsesDelete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bots/7", r.URL.Path)
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`{"deactivated":7}`))
	}))
	defer ts.Close()

	client := NewBotBayClient(Config{APIURL: ts.URL})
	_, err := client.DeactivateBot(context.Background(), 7)
	require.NoError(t, err)
}

// ============================================================
// Handler tests
// ============================================================

func TestHandleGetPlan(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/plan", r.URL.Path)
		_, _ = w.Write([]byte(`{"plan":"optimal","limit":5,"unlimited":false,"activeBots":2,"remaining":3}`))
	}))
	defer done()

	result, err := h.HandleGetPlan(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "optimal")
	assert.Contains(t, text, "Limit: 5 concurrent bots")
	assert.Contains(t, text, "Remaining slots: 3")
}

func TestHandleGetPlan_Unlimited(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plan":"partner","limit":0,"unlimited":true,"activeBots":12}`))
	}))
	defer done()

	result, err := h.HandleGetPlan(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Limit: unlimited")
}

func TestHandleListBots(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bots":[
			{"botId":1,"botName":"Support","status":"active","expiresAt":"2026-03-04T00:00:00Z"},
			{"botId":2,"botName":"Sales","status":"expired","expiresAt":"2026-02-01T00:00:00Z"}
		],"count":2}`))
	}))
	defer done()

	result, err := h.HandleListBots(context.Background(), makeRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 bot(s)")
	assert.Contains(t, text, "Support")
	assert.Contains(t, text, "expired")
}

func TestHandleListBots_Empty(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bots":[],"count":0}`))
	}))
	defer done()

	result, err := h.HandleListBots(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No bots activated")
}

func TestHandleActivateBot(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bot":{"botId":5,"botName":"Helper","activatedAt":"2026-03-01T00:00:00Z","expiresAt":"2026-03-04T00:00:00Z","status":"active"}}`))
	}))
	defer done()

	result, err := h.HandleActivateBot(context.Background(), makeRequest(map[string]any{
		"bot_id":   5,
		"bot_name": "Helper",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Helper")
	assert.Contains(t, text, "2026-03-04T00:00:00Z")
	assert.Contains(t, text, "active")
}

func TestHandleActivateBot_MissingArgs(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach the API")
	}))
	defer done()

	result, err := h.HandleActivateBot(context.Background(), makeRequest(map[string]any{"bot_name": "X"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = h.HandleActivateBot(context.Background(), makeRequest(map[string]any{"bot_id": 1}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleActivateBot_QuotaError(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "quota_exceeded",
			"message": "plan free allows 1 active bot(s)",
		})
	}))
	defer done()

	result, err := h.HandleActivateBot(context.Background(), makeRequest(map[string]any{
		"bot_id":   2,
		"bot_name": "Second",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "plan free allows 1 active bot(s)")
}

func TestHandleDeactivateBot(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deactivated":3}`))
	}))
	defer done()

	result, err := h.HandleDeactivateBot(context.Background(), makeRequest(map[string]any{"bot_id": 3}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Bot 3 deactivated")
	assert.Contains(t, text, "quota slot")
}

func TestHandleCheckBotStatus(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bots/9/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"bot":{"botId":9,"botName":"Niner","activatedAt":"2026-03-01T00:00:00Z","expiresAt":"2026-03-04T00:00:00Z","status":"active"},"active":true}`))
	}))
	defer done()

	result, err := h.HandleCheckBotStatus(context.Background(), makeRequest(map[string]any{"bot_id": 9}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Niner")
	assert.Contains(t, text, "Status: active")
}

func TestHandleCheckBotStatus_NotFound(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "not_found",
			"message": "No activation record for this bot",
		})
	}))
	defer done()

	result, err := h.HandleCheckBotStatus(context.Background(), makeRequest(map[string]any{"bot_id": 99}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "No activation record")
}

func TestHandleGetBotStats(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bots/4/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{"botId":4,"stats":{"userCount":3,"messageCount":17,"lastActiveLabel":"5 minutes ago","performance":67}}`))
	}))
	defer done()

	result, err := h.HandleGetBotStats(context.Background(), makeRequest(map[string]any{"bot_id": 4}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Users: 3")
	assert.Contains(t, text, "Messages: 17")
	assert.Contains(t, text, "5 minutes ago")
	assert.Contains(t, text, "67/100")
}

func TestHandleGetDashboard(t *testing.T) {
	h, done := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/dashboard", r.URL.Path)
		_, _ = w.Write([]byte(`{"plan":"free","activeBots":1,"bots":[]}`))
	}))
	defer done()

	result, err := h.HandleGetDashboard(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), `"plan": "free"`)
}
