package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

func fields(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestSession_SelectSeedsFromHubState(t *testing.T) {
	hub := mergestore.New()
	hub.Merge("NIFTY", model.TF5m, map[string]json.RawMessage{"EMA50": json.RawMessage(`{"value":22000}`)})
	hub.SetMarketPrice("NIFTY", 22010, 500)
	hub.Merge("BANKNIFTY", model.TF5m, map[string]json.RawMessage{"EMA50": json.RawMessage(`{"value":48000}`)})

	s := NewSession(normalize.DefaultCatalog())
	syms, active := s.Select(" NIFTY ", hub, 0)
	assert.Equal(t, []string{"NIFTY"}, syms)
	assert.Equal(t, "NIFTY", active)
	assert.True(t, s.Wants("NIFTY"))
	assert.False(t, s.Wants("BANKNIFTY"))

	table, ok := s.Render()
	require.True(t, ok)
	assert.Equal(t, "22010.00", table.Price)
	assert.Equal(t, "500.00", table.Volume)
	c, _ := table.Cell("EMA50", model.TF5m)
	assert.Equal(t, "22000.00", c.String())

	// Only the selected symbol is copied.
	assert.Empty(t, s.in.Store().Snapshot("BANKNIFTY"))

	_, ok = s.Render()
	assert.False(t, ok, "nothing changed since last render")
}

func TestSession_DirtyOnlyForActiveSymbol(t *testing.T) {
	s := NewSession(normalize.DefaultCatalog())
	s.Select("B", nil, 0)
	s.Select("A", nil, 0)
	s.Render()

	res := s.Apply(fields(t, `{"symbol":"B","timeframe":"1m","RSI":{"value":40}}`))
	assert.Equal(t, ingest.IndicatorTick, res.Kind)
	_, ok := s.Render()
	assert.False(t, ok)

	s.Apply(fields(t, `{"symbol":"A","price":101.5}`))
	table, ok := s.Render()
	require.True(t, ok)
	assert.Equal(t, "101.50", table.Price)

	s.Apply(fields(t, `{"symbols":[]}`))
	_, ok = s.Render()
	assert.True(t, ok, "level snapshots always re-render")
}

func TestSession_DeselectMovesActive(t *testing.T) {
	s := NewSession(normalize.DefaultCatalog())
	s.Select("C", nil, 0)
	s.Select("B", nil, 0)
	s.Select("A", nil, 0)

	syms, active := s.Deselect("A")
	assert.Equal(t, []string{"B", "C"}, syms)
	assert.Equal(t, "B", active)

	syms, active = s.Deselect("C")
	assert.Equal(t, []string{"B"}, syms)
	assert.Equal(t, "B", active)

	syms, active = s.Deselect("B")
	assert.Empty(t, syms)
	assert.Equal(t, "", active)
	_, ok := s.Render()
	assert.False(t, ok)
}

func TestSession_LevelsForActiveSymbol(t *testing.T) {
	s := NewSession(normalize.DefaultCatalog())
	s.SetLevels([]model.ManualLevel{
		{ID: "1", Symbol: "nifty", EntryPrice: 21900, Side: model.SideBuy},
		{ID: "2", Symbol: "BANKNIFTY", EntryPrice: 48000, Side: model.SideSell},
		{ID: "3", Symbol: "NIFTY", EntryPrice: 22100, Side: model.SideSell},
	})
	s.Select("NIFTY", nil, 0)

	table, ok := s.Render()
	require.True(t, ok)
	require.Len(t, table.Levels, 2)
	assert.Equal(t, "3", table.Levels[0].ID)
	assert.Equal(t, "1", table.Levels[1].ID)
}

func TestSession_CloseDiscardsState(t *testing.T) {
	s := NewSession(normalize.DefaultCatalog())
	s.Select("A", nil, 0)
	s.Apply(fields(t, `{"symbol":"A","timeframe":"1h","EMA50":{"value":1}}`))
	s.Close()

	assert.Equal(t, "", s.Active())
	assert.False(t, s.Wants("A"))
	assert.Empty(t, s.in.Store().Symbols())
	assert.Empty(t, s.in.Levels())
}

func TestSession_ReselectSkipsEventsAlreadyInSeed(t *testing.T) {
	hub := mergestore.New()
	hub.Merge("NIFTY", model.TF5m, map[string]json.RawMessage{"EMA50": json.RawMessage(`{"value":1}`)})

	s := NewSession(normalize.DefaultCatalog())
	s.Select("NIFTY", hub, 1)
	s.Deselect("NIFTY")

	// Seq 2 is still queued when the symbol is picked again from newer state.
	hub.Merge("NIFTY", model.TF5m, map[string]json.RawMessage{"EMA50": json.RawMessage(`{"value":3}`)})
	s.Select("NIFTY", hub, 3)

	res := s.ApplyAt(fields(t, `{"symbol":"NIFTY","timeframe":"5m","EMA50":{"value":2}}`), 2)
	assert.Equal(t, ingest.Dropped, res.Kind)
	assert.Equal(t, ingest.ReasonStale, res.Reason)
	table, ok := s.Render()
	require.True(t, ok)
	c, _ := table.Cell("EMA50", model.TF5m)
	assert.Equal(t, "3.00", c.String())

	res = s.ApplyAt(fields(t, `{"symbol":"NIFTY","timeframe":"5m","EMA50":{"value":4}}`), 4)
	assert.Equal(t, ingest.IndicatorTick, res.Kind)
	table, ok = s.Render()
	require.True(t, ok)
	c, _ = table.Cell("EMA50", model.TF5m)
	assert.Equal(t, "4.00", c.String())

	// Other symbols and unsequenced events are unaffected.
	assert.Equal(t, ingest.IndicatorTick, s.ApplyAt(fields(t, `{"symbol":"B","timeframe":"1m","RSI":{"value":40}}`), 1).Kind)
	assert.Equal(t, ingest.IndicatorTick, s.Apply(fields(t, `{"symbol":"NIFTY","timeframe":"5m","EMA50":{"value":5}}`)).Kind)

	s.Close()
	assert.Equal(t, ingest.IndicatorTick, s.ApplyAt(fields(t, `{"symbol":"NIFTY","timeframe":"5m","EMA50":{"value":6}}`), 2).Kind)
}
