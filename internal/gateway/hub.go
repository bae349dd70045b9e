// Package gateway serves the live dashboard over WebSocket. Feed events
// arrive from Redis through the PubSubRouter, are merged into a hub-wide
// store and fanned out to per-connection sessions, which render their own
// tables.
package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/logger"
	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/metrics"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
	"indicator-dashboard/internal/notify"
)

// HubConfig wires the hub's collaborators. Metrics, Health and Alerts may
// be nil.
type HubConfig struct {
	Catalog        *normalize.Catalog
	RenderInterval time.Duration
	Metrics        *metrics.Metrics
	Health         *metrics.HealthStatus
	Alerts         *notify.CrossDetector
}

// Hub tracks WebSocket clients and dispatches feed events to them.
//   - state: hub-wide ingestor holding the latest data for every symbol,
//     used for REST rendering and to seed new selections
//   - Broadcaster: envelope construction + per-session fan-out
//   - Latency: dispatch latency window reported on /health
type Hub struct {
	catalog        *normalize.Catalog
	renderInterval time.Duration
	metrics        *metrics.Metrics
	health         *metrics.HealthStatus
	alerts         *notify.CrossDetector
	started        time.Time

	state *ingest.Ingestor

	mu      sync.RWMutex
	clients map[*Client]bool

	Broadcaster *Broadcaster
	Latency     *LatencyWindow
}

// NewHub creates a Hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.Catalog == nil {
		cfg.Catalog = normalize.DefaultCatalog()
	}
	if cfg.RenderInterval <= 0 {
		cfg.RenderInterval = 500 * time.Millisecond
	}
	h := &Hub{
		catalog:        cfg.Catalog,
		renderInterval: cfg.RenderInterval,
		metrics:        cfg.Metrics,
		health:         cfg.Health,
		alerts:         cfg.Alerts,
		started:        time.Now(),
		state:          ingest.New(mergestore.New()),
		clients:        make(map[*Client]bool),
		Latency:        NewLatencyWindow(4096),
	}
	h.Broadcaster = NewBroadcaster(h)
	return h
}

// Store returns the hub-wide merge store.
func (h *Hub) Store() *mergestore.Store { return h.state.Store() }

// Catalog returns the indicator catalog used for rendering.
func (h *Hub) Catalog() *normalize.Catalog { return h.catalog }

// Levels returns the latest manual level list.
func (h *Hub) Levels() []model.ManualLevel { return h.state.Levels() }

// SetLevels replaces the manual level list for the hub and every session,
// e.g. when loading persisted levels at startup.
func (h *Hub) SetLevels(levels []model.ManualLevel) {
	h.state.SetLevels(levels)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.session.SetLevels(levels)
	}
}

// Dispatch applies one raw feed event to the hub state and forwards it to
// the sessions that selected its symbol. Level snapshots go to everyone.
// Malformed events are counted and dropped.
func (h *Hub) Dispatch(raw []byte) ingest.Result {
	start := time.Now()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		res := ingest.Result{Kind: ingest.Dropped, Reason: ingest.ReasonInvalidJSON}
		h.metrics.ObserveEvent(res.Kind.String(), res.Reason)
		return res
	}

	res := h.state.Apply(fields)
	h.metrics.ObserveEvent(res.Kind.String(), res.Reason)
	if h.health != nil {
		h.health.SetLastEventTime(start)
	}
	if res.Kind == ingest.Dropped {
		return res
	}
	if res.Kind == ingest.PriceTick && h.alerts != nil {
		h.alerts.Observe(res.Symbol, res.Price.Price, h.state.Levels())
	}

	h.Broadcaster.Broadcast(raw, fields, res)
	h.Latency.Observe(time.Since(start))
	return res
}

// ServeClient registers conn as a new client and starts its pumps.
func (h *Hub) ServeClient(conn *websocket.Conn) *Client {
	c := newClient(h, conn)
	c.session.SetLevels(h.state.Levels())

	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.ClientConnected(1)

	logger.FromContext(c.ctx).Info("ws client connected", "clients", count)

	go c.writePump()
	go c.sessionLoop()
	go c.readPump()
	return c
}

// RemoveClient unregisters c. Safe to call more than once.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.metrics.ClientConnected(-1)
	c.close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Render builds the table for symbol from the hub-wide store.
func (h *Hub) Render(symbol string, timeframes []model.Timeframe) normalize.Table {
	start := time.Now()
	store := h.state.Store()
	mp, _ := store.Price(symbol)
	table := normalize.Build(h.catalog, symbol, store.Snapshot(symbol), mp, timeframes)
	table.Levels = levelsFor(h.state.Levels(), symbol)
	h.metrics.ObserveRender(time.Since(start))
	return table
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
	log.Printf("[gateway] closed %d ws clients", len(clients))
}
