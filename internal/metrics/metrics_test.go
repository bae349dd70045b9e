package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvent("indicator", "")
	m.ClientConnected(1)
	m.SendDropped()
	m.ObserveRender(time.Millisecond)
	m.ObserveHTTP("/symbols", "GET", 200, time.Millisecond)
	m.PublishFailed("live-data-all")
}

func TestMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveEvent("indicator", "")
	m.ObserveEvent("indicator", "")
	m.ObserveEvent("dropped", "missing_symbol")
	m.ClientConnected(1)
	m.ClientConnected(1)
	m.ClientConnected(-1)
	m.SendDropped()
	m.ObserveHTTP("/symbols", "POST", 400, time.Millisecond)
	m.PublishFailed("config:emission")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("indicator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DroppedEvents.WithLabelValues("missing_symbol")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSSendDrops))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/symbols", "POST", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishErrors.WithLabelValues("config:emission")))
	assert.Greater(t, testutil.ToFloat64(m.LastEventTS), 0.0)
}

func TestHealth_Report(t *testing.T) {
	h := NewHealthStatus()

	r, code := h.Report()
	assert.Equal(t, "unhealthy", r.Status)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.mu.Lock()
	h.RedisConnected = true
	h.mu.Unlock()
	r, _ = h.Report()
	assert.Equal(t, "degraded", r.Status)

	h.mu.Lock()
	h.SQLiteOK = true
	h.mu.Unlock()
	h.SetFeedSubscribed(true)
	h.SetLastEventTime(time.Now())
	r, code = h.Report()
	assert.Equal(t, "healthy", r.Status)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, r.EventAge)
}

func TestHealth_ChecksDeps(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	defer db.Close()

	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()

	h := NewHealthStatus()
	h.CheckDeps(context.Background(), rdb, db)

	r, _ := h.Report()
	assert.True(t, r.SQLiteOK)
	assert.False(t, r.RedisConnected)
	assert.NotEmpty(t, r.LastCheckAt)
}

func TestServer_Routes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveEvent("price", "")

	h := NewHealthStatus()
	srv := NewServer(":0", h, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `dashboard_feed_events_total{kind="price"} 1`))

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}
