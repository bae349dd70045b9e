package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want Timeframe
		ok   bool
	}{
		{"15m", TF15m, true},
		{" 1H ", TF1h, true},
		{"60", TF1h, true},
		{"240", TF4h, true},
		{"D", TF1d, true},
		{"daily", TF1d, true},
		{"W", TF1w, true},
		{"", "", false},
		{"7m", "", false},
	}
	for _, c := range cases {
		got, ok := ParseTimeframe(c.in)
		assert.Equal(t, c.ok, ok, "ParseTimeframe(%q) ok", c.in)
		assert.Equal(t, c.want, got, "ParseTimeframe(%q)", c.in)
	}
}

func TestSortTimeframes(t *testing.T) {
	tfs := []Timeframe{TF1w, TF5m, TF1d, TF1m, TF1h}
	SortTimeframes(tfs)
	assert.Equal(t, []Timeframe{TF1m, TF5m, TF1h, TF1d, TF1w}, tfs)
}

func TestTimeframeLabel(t *testing.T) {
	assert.Equal(t, "15 Min", TF15m.Label())
	assert.Equal(t, "Weekly", TF1w.Label())
	assert.Equal(t, "weird", Timeframe("weird").Label())
	assert.Equal(t, -1, Timeframe("weird").Rank())
}

func TestAccessSatisfies(t *testing.T) {
	assert.True(t, AccessAdmin.Satisfies(AccessUser))
	assert.True(t, AccessUser.Satisfies(AccessUser))
	assert.False(t, AccessUser.Satisfies(AccessAdmin))
	assert.False(t, Access("").Satisfies(AccessUser))
}

func TestParseSide(t *testing.T) {
	s, ok := ParseSide("BUY")
	assert.True(t, ok)
	assert.Equal(t, SideBuy, s)

	s, ok = ParseSide("short")
	assert.True(t, ok)
	assert.Equal(t, SideSell, s)

	_, ok = ParseSide("hold")
	assert.False(t, ok)
}
