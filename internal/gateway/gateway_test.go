package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"synapse-analytics/internal/metrics"
	"synapse-analytics/internal/series"
	"synapse-analytics/internal/synth"
)

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
}

func TestHealth(t *testing.T) {
	h := NewServer().Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status    string `json:"status"`
		WSClients int    `json:"ws_clients"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.WSClients != 0 {
		t.Errorf("unexpected health %+v", body)
	}
}

func TestPreflight(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/backtest", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestIndicators(t *testing.T) {
	h := NewServer().Handler()
	rec := post(t, h, "/api/indicators", `{"name":"sma","params":{"period":3},"close":[1,2,3,4,5]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp IndicatorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	got := resp.Series["value"]
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("value[%d] = %v, want undefined", i, got[i])
			}
			continue
		}
		assertClose(t, "value", got[i], want[i], 1e-12)
	}
}

func TestIndicators_BadRequests(t *testing.T) {
	h := NewServer().Handler()
	tests := []struct {
		name string
		body string
	}{
		{"unknown indicator", `{"name":"nope","close":[1,2,3]}`},
		{"missing close", `{"name":"sma"}`},
		{"misaligned high", `{"name":"atr","close":[1,2,3],"high":[1,2]}`},
		{"invalid json", `{"name":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/api/indicators", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegression(t *testing.T) {
	h := NewServer().Handler()
	rec := post(t, h, "/api/regression", `{"data":[1,2,3,4,5],"steps":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp RegressionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Best != "linear" || resp.PredictedWith != "linear" {
		t.Errorf("best = %q, predicted with %q", resp.Best, resp.PredictedWith)
	}
	assertClose(t, "slope", float64(resp.Linear.Coefficients["slope"]), 1, 1e-9)
	if len(resp.Prediction) != 2 {
		t.Fatalf("prediction = %v", resp.Prediction)
	}
	assertClose(t, "prediction[0]", resp.Prediction[0], 6, 1e-9)
	assertClose(t, "prediction[1]", resp.Prediction[1], 7, 1e-9)

	if rec := post(t, h, "/api/regression", `{"data":[1,2],"fit":"cubic"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown fit: status = %d", rec.Code)
	}
}

func TestRegression_StepsBounded(t *testing.T) {
	h := NewServer().Handler()
	for _, body := range []string{
		`{"data":[1,2,3],"steps":1000000000}`,
		`{"data":[1,2,3],"steps":10001}`,
		`{"data":[1,2,3],"steps":-1}`,
	} {
		if rec := post(t, h, "/api/regression", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
	if rec := post(t, h, "/api/regression", `{"data":[1,2,3],"steps":10000}`); rec.Code != http.StatusOK {
		t.Errorf("steps at the limit: status = %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	h := NewServer().Handler()
	rec := post(t, h, "/api/stats", `{"data":[1,2,3,4],"benchmark":[2,4,6,8]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	assertClose(t, "mean", float64(resp.Summary.Mean), 2.5, 1e-12)
	assertClose(t, "max drawdown", float64(resp.MaxDrawdown), 0, 1e-12)
	// Doubling every price leaves the returns unchanged.
	if resp.Beta == nil || resp.Correlation == nil {
		t.Fatal("benchmark statistics missing")
	}
	assertClose(t, "beta", float64(*resp.Beta), 1, 1e-9)
	assertClose(t, "correlation", float64(*resp.Correlation), 1, 1e-9)
}

func TestBacktest(t *testing.T) {
	h := NewServer().Handler()
	rec := post(t, h, "/api/backtest", `{"close":[100,110,100],"signals":[0,1,-1]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp BacktestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != "signals" || resp.Result.Metrics.TotalTrades != 2 {
		t.Errorf("strategy=%q trades=%d", resp.Strategy, resp.Result.Metrics.TotalTrades)
	}
	if len(resp.Result.EquityCurve) != 4 || resp.Result.EquityCurve[0] != 10000 {
		t.Errorf("equity curve = %v", resp.Result.EquityCurve)
	}
	assertClose(t, "final equity", resp.Result.EquityCurve[3], 9050.074926182366, 1e-6)
}

func TestBacktest_PartialConfigAndStrategy(t *testing.T) {
	h := NewServer().Handler()
	closes := synth.Closes(synth.Params{Bars: 120, Seed: 3})
	body, _ := json.Marshal(map[string]any{
		"close":    closes,
		"strategy": "ma_crossover",
		"params":   map[string]float64{"fast": 5, "slow": 20},
		"config":   map[string]any{"initial_capital": 5000},
	})
	rec := post(t, h, "/api/backtest", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp BacktestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != "ma_crossover" || resp.Result.EquityCurve[0] != 5000 {
		t.Errorf("strategy=%q initial=%v", resp.Strategy, resp.Result.EquityCurve[0])
	}

	for _, bad := range []string{
		`{"close":[1,2,3],"strategy":"martingale"}`,
		`{"close":[1,2,3],"signals":[1]}`,
		`{}`,
	} {
		if rec := post(t, h, "/api/backtest", bad); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestCacheAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	cache := &memCache{data: map[string][]byte{}}
	h := NewServer(WithCache(cache), WithMetrics(m)).Handler()

	body := `{"name":"ema","params":{"period":2},"close":[1,2,3,4]}`
	first := post(t, h, "/api/indicators", body)
	second := post(t, h, "/api/indicators", body)

	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("cached body differs from computed body")
	}
	if got := testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("indicators", "200")); got != 2 {
		t.Errorf("requests counted = %v, want 2", got)
	}
	// The cached request never reaches the indicator code.
	if n := testutil.CollectAndCount(m.IndicatorComputeDur); n != 1 {
		t.Errorf("compute series = %d, want 1", n)
	}

	// Errors are not cached.
	post(t, h, "/api/indicators", `{"name":"nope","close":[1]}`)
	if len(cache.data) != 1 {
		t.Errorf("cache holds %d entries, want 1", len(cache.data))
	}
}

func TestDemo_BadParams(t *testing.T) {
	h := NewServer().Handler()
	for _, query := range []string{
		"interval_ms=0",
		"sma=1000000000",
		"ema=1001",
		"rsi=5000",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/demo?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestDemo_StreamsBarsWithIndicators(t *testing.T) {
	srv := httptest.NewServer(NewServer().Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/demo?seed=7&bars=3&interval_ms=1&sma=2&ema=2&rsi=2&symbol=TEST"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	want := synth.Generate(synth.Params{Symbol: "TEST", Seed: 7, Bars: 3})
	for i := 0; i < 3; i++ {
		var f DemoFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.Type != "bar" || f.Seq != int64(i+1) || f.Bar == nil {
			t.Fatalf("frame %d = %+v", i, f)
		}
		if f.Bar.Close != want[i].Close || f.Bar.Symbol != "TEST" {
			t.Errorf("bar %d close = %v, want %v", i, f.Bar.Close, want[i].Close)
		}
		if len(f.Indicators) != 3 {
			t.Fatalf("frame %d has %d readings", i, len(f.Indicators))
		}
		names := []string{f.Indicators[0].Name, f.Indicators[1].Name, f.Indicators[2].Name}
		if strings.Join(names, ",") != "SMA_2,EMA_2,RSI_2" {
			t.Errorf("names = %v", names)
		}
		sma := f.Indicators[0]
		switch i {
		case 0:
			if sma.Ready || !series.IsUndefined(float64(sma.Value)) {
				t.Errorf("SMA ready on the first bar: %+v", sma)
			}
		case 1:
			assertClose(t, "SMA_2", float64(sma.Value), (want[0].Close+want[1].Close)/2, 1e-9)
		}
	}

	var done DemoFrame
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatalf("done frame: %v", err)
	}
	if done.Type != "done" || done.Seq != 3 {
		t.Errorf("done frame = %+v", done)
	}

	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close, got %v", err)
	}
}
