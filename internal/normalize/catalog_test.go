package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NotEmpty(t, c.Entries)
	assert.Equal(t, "EMA50", c.Entries[0].Key)

	sr, ok := c.Entry("SRv2Support")
	require.True(t, ok)
	assert.Equal(t, "SRv2", sr.Source)
	assert.Equal(t, ViewSupport, sr.View)
	assert.True(t, sr.CurrentPrice)

	ema, _ := c.Entry("EMA50")
	assert.Equal(t, ViewAll, ema.View)
	assert.Equal(t, "EMA50", ema.Source)

	sources := c.Sources()
	assert.Contains(t, sources, "SRv2")
	assert.Contains(t, sources, "PivotPointsStandard")
	assert.NotContains(t, sources, "SRv2Support")
	assert.True(t, c.HasSource("NWLux"))
	assert.False(t, c.HasSource("Ichimoku"))

	p, ok := c.Param("RSI", "overbought")
	require.True(t, ok)
	assert.Equal(t, 70.0, p.Default)
	assert.Len(t, c.Params("SRv2"), 2)
	assert.Empty(t, c.Params("Candlestick"))
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":                `indicators: []`,
		"no key":               "indicators:\n  - kind: scalar\n",
		"duplicate":            "indicators:\n  - {key: A, kind: scalar}\n  - {key: A, kind: scalar}\n",
		"bad kind":             "indicators:\n  - {key: A, kind: heatmap}\n",
		"bad view":             "indicators:\n  - {key: A, kind: support_resistance, view: sideways}\n",
		"pivot view on scalar": "indicators:\n  - {key: A, kind: scalar, view: pivot}\n",
		"min above max":        "indicators:\n  - key: A\n    kind: scalar\n    params: [{name: n, min: 5, max: 1, default: 3}]\n",
		"default out of range": "indicators:\n  - key: A\n    kind: scalar\n    params: [{name: n, min: 1, max: 5, default: 9}]\n",
		"params twice": "indicators:\n" +
			"  - {key: A, source: X, kind: scalar, params: [{name: n, min: 1, max: 5, default: 2}]}\n" +
			"  - {key: B, source: X, kind: scalar, params: [{name: n, min: 1, max: 5, default: 2}]}\n",
		"not yaml": "indicators: [",
	}
	for name, doc := range cases {
		_, err := ParseCatalog([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Same(t, DefaultCatalog(), c)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("indicators:\n  - {key: EMA9, kind: scalar, fields: [value]}\n"), 0o644))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Entries, 1)
	assert.Equal(t, "EMA9", c.Entries[0].Label)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
