package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/luckywheel"
	"github.com/zintix-labs/luckywheel/sdk/core"
	"github.com/zintix-labs/luckywheel/server/identity"
	"github.com/zintix-labs/luckywheel/server/netsvr"
	"github.com/zintix-labs/luckywheel/server/svrcfg"
	"github.com/zintix-labs/luckywheel/spec"
	"github.com/zintix-labs/luckywheel/store"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	ss := &spec.SpinSetting{
		Name:        "daily",
		BigWinEvery: 5,
		Cooldown:    "24h",
		Prizes: []spec.Prize{
			{Value: decimal.NewFromInt(1), Label: "1 coin", Weight: 9},
			{Value: decimal.NewFromInt(50), Label: "Jackpot", Weight: 1, IsBig: true},
		},
	}
	w, err := luckywheel.New(core.Default(), ss, store.NewMemory(), luckywheel.WithSeed(7), luckywheel.WithPoolSize(4))
	if err != nil {
		t.Fatalf("new wheel: %v", err)
	}
	t.Cleanup(w.Close)

	sCfg := &svrcfg.SvrCfg{Wheel: w, Clock: func() time.Time { return testNow }}
	if err := sCfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return svr.Handler()
}

func spin(h http.Handler, path, device string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if device != "" {
		req.Header.Set(identity.HeaderDeviceID, device)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSpinThenCooldown(t *testing.T) {
	h := newTestHandler(t)

	rec := spin(h, "/spin", "dev-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("first spin: %d %s", rec.Code, rec.Body.String())
	}
	var ok struct {
		OK         bool   `json:"ok"`
		SpinID     string `json:"spinId"`
		ServerTime int64  `json:"serverTime"`
		CooldownMs int64  `json:"cooldownMs"`
		Prize      struct {
			Label string `json:"label"`
		} `json:"prize"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ok.OK || ok.SpinID == "" || ok.ServerTime != testNow.UnixMilli() || ok.CooldownMs != (24*time.Hour).Milliseconds() {
		t.Fatalf("unexpected body: %+v", ok)
	}

	rec = spin(h, "/v1/spin", "dev-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second spin: %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "86400" {
		t.Fatalf("unexpected Retry-After: %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"reason":"COOLDOWN"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	// 不同裝置各自冷卻
	if rec = spin(h, "/spin", "dev-2"); rec.Code != http.StatusOK {
		t.Fatalf("other device: %d", rec.Code)
	}
}

func TestConcurrentSameDevice(t *testing.T) {
	h := newTestHandler(t)
	const n = 32
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = spin(h, "/spin", "racer").Code
		}(i)
	}
	wg.Wait()
	oks, denied := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			oks++
		case http.StatusTooManyRequests:
			denied++
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	if oks != 1 || denied != n-1 {
		t.Fatalf("want exactly one success, got ok=%d denied=%d", oks, denied)
	}
}

func TestAnonymousFallback(t *testing.T) {
	h := newTestHandler(t)
	if rec := spin(h, "/spin", ""); rec.Code != http.StatusOK {
		t.Fatalf("anonymous first: %d", rec.Code)
	}
	if rec := spin(h, "/spin", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("anonymous bucket should be shared, got %d", rec.Code)
	}
}

func TestSpinRejectsBodyFields(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/spin", strings.NewReader(`{"deviceId":"x"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestSpinMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spin", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestPrizesAndHealthz(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/prizes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("prizes: %d", rec.Code)
	}
	var list struct {
		BigWinEvery int `json:"bigWinEvery"`
		Prizes      []struct {
			Chance json.Number `json:"chance"`
		} `json:"prizes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.BigWinEvery != 5 || len(list.Prizes) != 2 || list.Prizes[0].Chance.String() != "90" {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
	}
}
