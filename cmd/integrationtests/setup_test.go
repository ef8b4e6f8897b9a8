package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auction "position-auction/internal/auctionService"
	"position-auction/internal/chat"
	"position-auction/internal/ledger"
	"position-auction/internal/notify"
	"position-auction/internal/repository"
	"position-auction/internal/server"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// TestEnv bundles a full in-memory server with handles to its internals so
// tests can advance time and credit accounts.
type TestEnv struct {
	Router *gin.Engine
	Store  *repository.MemoryStore
	Ledger *ledger.MemoryLedger
	Clock  *fakeClock
	Hub    *notify.Hub
}

// SetupTestEnv wires the whole stack against in-memory dependencies.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore()
	ledg := ledger.NewMemoryLedger(ledger.WithDefaultBalance(decimal.NewFromInt(100_000)))
	hub := notify.NewHub()

	auctionSvc := auction.NewAuctionService(store, ledg, hub, auction.Config{}, auction.WithClock(clock.Now))
	chatSvc := chat.NewChatService(store, store, hub, chat.WithClock(clock.Now))

	return &TestEnv{
		Router: server.SetupRouter(auctionSvc, chatSvc, hub),
		Store:  store,
		Ledger: ledg,
		Clock:  clock,
		Hub:    hub,
	}
}

// ExecuteRequest executes an HTTP request as the given caller and parses the
// response envelope.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, caller string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-User-ID", caller)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// Data extracts the data object from a response envelope.
func Data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return data
}

// CreateActivePosition creates and activates a position owned by owner,
// returning its id.
func CreateActivePosition(t *testing.T, env *TestEnv, owner string, duration time.Duration) string {
	t.Helper()

	resp, w := ExecuteRequest(t, env.Router, "POST", "/positions", owner, map[string]any{
		"category":    "homepage-banner",
		"start_time":  env.Clock.Now().Format(time.RFC3339),
		"duration_ms": duration.Milliseconds(),
		"start_price": "100",
	})
	if w.Code != 201 {
		t.Fatalf("create position failed: %d %s", w.Code, w.Body.String())
	}
	positionID := Data(t, resp)["position_id"].(string)

	_, w = ExecuteRequest(t, env.Router, "POST", "/positions/"+positionID+"/activate", owner, nil)
	if w.Code != 200 {
		t.Fatalf("activate position failed: %d %s", w.Code, w.Body.String())
	}
	return positionID
}
