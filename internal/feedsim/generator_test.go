package feedsim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Symbols: []string{"A"}, Timeframes: []model.Timeframe{"7m"}})
	assert.Error(t, err)

	_, err = New(Config{Symbols: []string{"A"}, SentinelRate: 1.5})
	assert.Error(t, err)

	g, err := New(Config{Symbols: []string{"A"}, Seed: 1})
	require.NoError(t, err)
	assert.Len(t, g.cfg.Timeframes, 4)
}

func TestStep_BarCadence(t *testing.T) {
	g, err := New(Config{Symbols: []string{"A", "B"}, Timeframes: []model.Timeframe{model.TF1m, model.TF5m}, Seed: 7})
	require.NoError(t, err)

	// 1m closes every step, 5m every third step.
	assert.Len(t, g.Step(), 4)
	assert.Len(t, g.Step(), 4)
	assert.Len(t, g.Step(), 6)
}

func TestStep_Deterministic(t *testing.T) {
	cfg := Config{Symbols: []string{"A"}, Seed: 42, SentinelRate: 0.1, Live: true}
	g1, err := New(cfg)
	require.NoError(t, err)
	g2, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		assert.Equal(t, g1.Step(), g2.Step())
	}
}

func TestStep_PriceEventShape(t *testing.T) {
	g, err := New(Config{Symbols: []string{"NIFTY"}, StartPrices: map[string]float64{"NIFTY": 22000}, Timeframes: []model.Timeframe{model.TF1h}, Seed: 3})
	require.NoError(t, err)

	events := g.Step()
	require.Len(t, events, 1)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(events[0], &ev))
	assert.Equal(t, "NIFTY", ev["symbol"])
	assert.InDelta(t, 22000, ev["marketPrice"], 22000*0.003)
	assert.NotContains(t, ev, "timeframe")
}

func TestStep_SentinelRateOne(t *testing.T) {
	g, err := New(Config{Symbols: []string{"A"}, Timeframes: []model.Timeframe{model.TF1m}, SentinelRate: 1, Seed: 9})
	require.NoError(t, err)

	var last []byte
	for i := 0; i < 60; i++ {
		events := g.Step()
		last = events[len(events)-1]
	}
	var ev struct {
		EMA50 struct {
			Value float64 `json:"value"`
		} `json:"EMA50"`
	}
	require.NoError(t, json.Unmarshal(last, &ev))
	assert.Equal(t, 1e100, ev.EMA50.Value)
}

func TestGeneratedFeed_RendersThroughPipeline(t *testing.T) {
	g, err := New(Config{Symbols: []string{"BTCUSDT"}, Timeframes: []model.Timeframe{model.TF1m, model.TF5m}, Live: true, Seed: 11})
	require.NoError(t, err)

	store := mergestore.New()
	in := ingest.New(store)
	for i := 0; i < 260; i++ {
		for _, ev := range g.Step() {
			res := in.Handle(ev)
			require.NotEqual(t, ingest.Dropped, res.Kind, "dropped %s: %s", res.Reason, ev)
		}
	}

	price, ok := store.Price("BTCUSDT")
	require.True(t, ok)
	table := normalize.Build(normalize.DefaultCatalog(), "BTCUSDT", store.Snapshot("BTCUSDT"), price, nil)
	assert.Equal(t, []model.Timeframe{model.TF1m, model.TF5m}, table.Timeframes)

	for _, key := range []string{"EMA50", "EMA200", "RSI", "MACD", "BB", "Candlestick", "NWLux", "PivotHighLow"} {
		c, ok := table.Cell(key, model.TF1m)
		require.True(t, ok, key)
		assert.False(t, c.IsPlaceholder(), "%s should render on 1m", key)
	}

	c, _ := table.Cell("PivotHighLow", model.TF1m)
	current := 0
	for _, r := range c.Rows {
		if r.Current {
			current++
		}
	}
	assert.Equal(t, 1, current)

	// EMA200 on 5m needs 200 closed 5m bars; 260 steps give 86.
	c, _ = table.Cell("EMA200", model.TF5m)
	assert.True(t, c.IsPlaceholder())
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	g, err := New(Config{Symbols: []string{"A"}, Timeframes: []model.Timeframe{model.TF1m}, Seed: 5})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got [][]byte
	publish := func(_ context.Context, ev []byte) error {
		got = append(got, ev)
		if len(got) >= 6 {
			cancel()
		}
		if len(got)%3 == 0 {
			return errors.New("redis down")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, time.Millisecond, publish) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.GreaterOrEqual(t, len(got), 6)

	assert.Error(t, g.Run(context.Background(), 0, publish))
}
