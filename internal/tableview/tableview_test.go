package tableview

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

func TestWrite_Grid(t *testing.T) {
	snap := map[model.Timeframe]model.Bag{
		model.TF5m: {Indicators: map[string]json.RawMessage{"EMA50": json.RawMessage(`{"value":22000}`)}},
		model.TF1h: {Indicators: map[string]json.RawMessage{"MACD": json.RawMessage(`{"macd":1.5,"signal":0.5,"histogram":1}`)}},
	}
	table := normalize.Build(normalize.DefaultCatalog(), "NIFTY", snap,
		model.MarketPrice{Price: 22010, Volume: 10}, nil)
	table.Levels = []model.ManualLevel{{ID: "abc", Symbol: "NIFTY", EntryPrice: 21950, Side: model.SideBuy}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, table))
	out := buf.String()

	assert.Contains(t, out, "NIFTY  price 22010.00  volume 10.00")
	assert.Contains(t, out, "5 Min")
	assert.Contains(t, out, "1 Hour")
	assert.Contains(t, out, "22000.00")
	assert.Contains(t, out, "macd: 1.50")
	assert.Contains(t, out, "BUY")
	assert.Contains(t, out, "21950.00")
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, normalize.Table{Symbol: "X", Price: "-", Volume: "-"}))
	assert.Equal(t, "X  price -  volume -\nno indicator data\n", buf.String())
}
