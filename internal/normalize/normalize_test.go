package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/model"
)

func raw(kv ...string) map[string]json.RawMessage {
	m := make(map[string]json.RawMessage, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = json.RawMessage(kv[i+1])
	}
	return m
}

func TestBuild_FromStoreSnapshot(t *testing.T) {
	s := mergestore.New()
	s.Merge("NIFTY", model.TF1d, raw("EMA50", `{"value":22000}`))
	s.Merge("NIFTY", model.TF15m, raw(
		"EMA50", `{"value":22100.5}`,
		"Candlestick", `{"Doji":1,"$time":1}`,
		"SRv2", `[{"value":22200},{"value":21900}]`,
	))
	s.SetMarketPrice("NIFTY", 22050, 0)

	price, _ := s.Price("NIFTY")
	table := Build(DefaultCatalog(), "NIFTY", s.Snapshot("NIFTY"), price, nil)

	assert.Equal(t, "NIFTY", table.Symbol)
	assert.Equal(t, "22050.00", table.Price)
	assert.Equal(t, Placeholder, table.Volume)
	assert.Equal(t, []model.Timeframe{model.TF15m, model.TF1d}, table.Timeframes)
	require.Len(t, table.Rows, len(DefaultCatalog().Entries))

	for i, e := range DefaultCatalog().Entries {
		assert.Equal(t, e.Key, table.Rows[i].Key)
		assert.Len(t, table.Rows[i].Cells, 2)
	}

	c, ok := table.Cell("EMA50", model.TF15m)
	require.True(t, ok)
	assert.Equal(t, "22100.50", c.String())

	c, _ = table.Cell("EMA50", model.TF1d)
	assert.Equal(t, "22000.00", c.String())

	c, _ = table.Cell("Candlestick", model.TF1d)
	assert.True(t, c.IsPlaceholder())

	c, _ = table.Cell("SRv2Resistance", model.TF15m)
	assert.Equal(t, "22200.00 | Current Price = 22050.00", c.String())
	c, _ = table.Cell("SRv2Support", model.TF15m)
	assert.Equal(t, "Current Price = 22050.00 | 21900.00", c.String())
}

func TestBuild_ExplicitTimeframes(t *testing.T) {
	snap := map[model.Timeframe]model.Bag{
		model.TF1h: {Symbol: "X", Timeframe: model.TF1h, Indicators: raw("EMA200", `1e100`, "RSI", `null`)},
	}
	table := Build(DefaultCatalog(), "X", snap, model.MarketPrice{}, []model.Timeframe{model.TF5m, model.TF1h})

	assert.Equal(t, Placeholder, table.Price)
	for _, r := range table.Rows {
		for i, c := range r.Cells {
			assert.True(t, c.IsPlaceholder(), "%s/%s", r.Key, table.Timeframes[i])
		}
	}
	_, ok := table.Cell("EMA200", model.TF1w)
	assert.False(t, ok)
	_, ok = table.Row("Nope")
	assert.False(t, ok)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	table := Build(DefaultCatalog(), "X", nil, model.MarketPrice{Price: 10, Volume: 5}, nil)
	assert.Empty(t, table.Timeframes)
	assert.Equal(t, "10.00", table.Price)
	assert.Equal(t, "5.00", table.Volume)
	require.Len(t, table.Rows, len(DefaultCatalog().Entries))
	assert.Empty(t, table.Rows[0].Cells)
}
