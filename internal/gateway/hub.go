package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/metrics"
	"synapse-analytics/internal/synth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// maxDemoPeriod caps the streaming indicator periods; SMA keeps a window of
// that size per client.
const maxDemoPeriod = 1000

// DemoParams configures one client's synthetic stream.
type DemoParams struct {
	Symbol     string
	Seed       int64
	Volatility float64
	Trend      float64
	Interval   time.Duration // wall time between frames
	Bars       int           // 0 streams until the client leaves
	SMA        int
	EMA        int
	RSI        int
}

// parseDemoParams reads the /ws/demo query string. Every parameter is
// optional.
func parseDemoParams(r *http.Request) (DemoParams, error) {
	q := r.URL.Query()
	p := DemoParams{
		Symbol:   q.Get("symbol"),
		Seed:     time.Now().UnixNano(),
		Interval: time.Second,
		SMA:      20,
		EMA:      20,
		RSI:      14,
	}

	ints := []struct {
		key string
		dst *int
	}{{"bars", &p.Bars}, {"sma", &p.SMA}, {"ema", &p.EMA}, {"rsi", &p.RSI}}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return p, fmt.Errorf("%s must be a non-negative integer", f.key)
			}
			if f.key != "bars" && n > maxDemoPeriod {
				return p, fmt.Errorf("%s must be at most %d", f.key, maxDemoPeriod)
			}
			*f.dst = n
		}
	}
	if v := q.Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, fmt.Errorf("seed must be an integer")
		}
		p.Seed = n
	}
	if v := q.Get("interval_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 1 {
			return p, fmt.Errorf("interval_ms must be a positive integer")
		}
		p.Interval = time.Duration(ms) * time.Millisecond
	}
	for key, dst := range map[string]*float64{"volatility": &p.Volatility, "trend": &p.Trend} {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return p, fmt.Errorf("%s must be a number", key)
			}
			*dst = f
		}
	}
	return p, nil
}

// indicatorConfigs lists the streaming indicators enabled by p. A zero
// period disables that indicator.
func (p DemoParams) indicatorConfigs() []indicator.IndicatorConfig {
	var cfgs []indicator.IndicatorConfig
	for _, c := range []indicator.IndicatorConfig{{Type: "SMA", Period: p.SMA}, {Type: "EMA", Period: p.EMA}, {Type: "RSI", Period: p.RSI}} {
		if c.Period > 0 {
			cfgs = append(cfgs, c)
		}
	}
	return cfgs
}

func (p DemoParams) walkParams() synth.Params {
	return synth.Params{Symbol: p.Symbol, Seed: p.Seed, Volatility: p.Volatility, Trend: p.Trend}
}

// Hub tracks connected demo stream clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHub creates a hub. m may be nil.
func NewHub(m *metrics.Metrics, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]bool),
		metrics: m,
		log:     log,
	}
}

// HandleDemo upgrades the request and starts a synthetic stream for it.
func (h *Hub) HandleDemo(w http.ResponseWriter, r *http.Request) {
	params, err := parseDemoParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade error", slog.Any("err", err))
		return
	}
	conn.EnableWriteCompression(true)

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    h,
		cancel: cancel,
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
	go client.stream(ctx, params)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	h.log.Info("ws client connected", slog.Int("total", count))
}

// RemoveClient removes a client from the hub and stops its stream.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	c.cancel()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	h.log.Info("ws client disconnected", slog.Int("total", count))
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops every stream; each client then receives a close frame.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.cancel()
	}
}
