package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// TimeframeInfo is the REST response item for /api/timeframes.
type TimeframeInfo struct {
	Value model.Timeframe `json:"value"`
	Label string          `json:"label"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[gateway] encode response: %v", err)
	}
}

// RegisterRoutes mounts the WebSocket and dashboard REST routes.
func RegisterRoutes(r *mux.Router, hub *Hub) {
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.ServeClient(conn)
	})

	// Table for one symbol from the hub-wide store.
	// Optional ?timeframes=1m,5m restricts and orders the columns.
	r.HandleFunc("/api/dashboard/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		symbol := mux.Vars(req)["symbol"]
		var tfs []model.Timeframe
		if raw := req.URL.Query().Get("timeframes"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				tf, ok := model.ParseTimeframe(part)
				if !ok {
					writeJSON(w, http.StatusBadRequest, map[string]interface{}{
						"success": false,
						"message": "unknown timeframe " + `"` + strings.TrimSpace(part) + `"`,
					})
					return
				}
				tfs = append(tfs, tf)
			}
		}
		writeJSON(w, http.StatusOK, hub.Render(symbol, tfs))
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/symbols/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": hub.Store().Symbols()})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/timeframes", func(w http.ResponseWriter, _ *http.Request) {
		all := model.AllTimeframes()
		out := make([]TimeframeInfo, len(all))
		for i, tf := range all {
			out[i] = TimeframeInfo{Value: tf, Label: tf.Label()}
		}
		writeJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/catalog", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, hub.Catalog())
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]interface{}{
			"status":       "ok",
			"ws_clients":   hub.ClientCount(),
			"uptime_sec":   int64(time.Since(hub.started).Seconds()),
			"events_sent":  hub.Broadcaster.Seq(),
			"dispatch_lat": hub.Latency.Summary(),
			"ts":           time.Now().UTC().Format(time.RFC3339Nano),
		}
		code := http.StatusOK
		if hub.health != nil {
			report, c := hub.health.Report()
			body["status"] = report.Status
			body["checks"] = report
			code = c
		}
		writeJSON(w, code, body)
	}).Methods(http.MethodGet)
}
