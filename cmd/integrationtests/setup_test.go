package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	engine "zecbay-auction/internal/auctionEngine"
	"zecbay-auction/internal/repository"
	"zecbay-auction/internal/scheduler"
	"zecbay-auction/internal/server"
	"zecbay-auction/internal/stream"

	"github.com/gin-gonic/gin"
)

// TestApp bundles the fully wired application for end-to-end tests.
type TestApp struct {
	Router    *gin.Engine
	Store     *repository.MemoryStore
	Engine    *engine.AuctionEngine
	Scheduler *scheduler.Scheduler
}

// SetupTestApp initializes the router with the in-memory store for
// integration testing. The rebid cooldown is disabled so bid ping-pong
// between exporters does not need wall-clock waits; the countdown is
// driven by explicit scheduler sweeps instead of a background ticker.
func SetupTestApp() *TestApp {
	return SetupTestAppWithThresholds(engine.Thresholds{
		EditLockWindow: 115 * time.Minute,
		RebidCooldown:  0,
	})
}

// SetupTestAppWithThresholds is SetupTestApp with explicit bid timing windows.
func SetupTestAppWithThresholds(th engine.Thresholds) *TestApp {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryStore()
	eng := engine.NewAuctionEngine(store, th)
	hub := stream.NewHub()
	sched := scheduler.NewScheduler(eng, store, hub, time.Second)
	router := server.SetupRouter(eng, hub)
	return &TestApp{
		Router:    router,
		Store:     store,
		Engine:    eng,
		Scheduler: sched,
	}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data extracts the "data" object from a response envelope.
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return d
}
