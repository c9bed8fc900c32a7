package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/botbay/botbay/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "development",
		LogLevel:          "error",
		Plan:              "optimal",
		TrialDuration:     config.DefaultTrialDuration,
		ReconcileInterval: config.DefaultReconcileInterval,
		RefreshInterval:   config.DefaultRefreshInterval,
	}
}

// newTestServer creates a server with in-memory storage
func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(testConfig())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/health/live", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

func TestReadinessEndpoint_NotReadyBeforeRun(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before Run, got %d", w.Code)
	}

	s.ready.Store(true)
	w = doRequest(s, "GET", "/health/ready", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 when ready, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "botbay_") {
		t.Error("Expected botbay metrics in output")
	}
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["name"] != "BotBay" {
		t.Errorf("Expected BotBay, got %v", resp["name"])
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}
}

func TestActivateAndDashboardFlow(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "POST", "/v1/bots/1/activate", `{"botName":"Support Bot"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, "POST", "/v1/bots/1/messages", `{"actorId":"u1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(s, "GET", "/v1/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var snap DashboardSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Failed to parse dashboard: %v", err)
	}
	if snap.Plan != "optimal" {
		t.Errorf("Expected optimal plan, got %s", snap.Plan)
	}
	if snap.ActiveBots != 1 || snap.TotalBots != 1 {
		t.Errorf("Expected 1 active/total bot, got %d/%d", snap.ActiveBots, snap.TotalBots)
	}
	if snap.TotalMessages != 1 {
		t.Errorf("Expected 1 total message, got %d", snap.TotalMessages)
	}
	if len(snap.Bots) != 1 || snap.Bots[0].BotName != "Support Bot" {
		t.Errorf("Unexpected bots: %+v", snap.Bots)
	}
}

func TestDeactivateClearsUsage(t *testing.T) {
	s := newTestServer(t)

	doRequest(s, "POST", "/v1/bots/2/activate", `{"botName":"Bot"}`)
	doRequest(s, "POST", "/v1/bots/2/messages", `{"actorId":"u1"}`)

	w := doRequest(s, "DELETE", "/v1/bots/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = doRequest(s, "GET", "/v1/bots/2/stats", "")
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse stats: %v", err)
	}
	stats := resp["stats"].(map[string]any)
	if stats["lastActiveLabel"] != "never" {
		t.Errorf("Expected usage cleared after deactivation, got %v", stats)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, "GET", "/v1/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
