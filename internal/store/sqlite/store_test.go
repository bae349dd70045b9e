package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLevels(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	levels, err := s.ListLevels(ctx)
	require.NoError(t, err)
	assert.Empty(t, levels)
	assert.NotNil(t, levels)

	require.NoError(t, s.CreateLevel(ctx, model.ManualLevel{ID: "a", Symbol: "NIFTY", EntryPrice: 22000, Side: model.SideBuy}))
	require.NoError(t, s.CreateLevel(ctx, model.ManualLevel{ID: "b", Symbol: "BANKNIFTY", EntryPrice: 48000.5, Side: model.SideSell}))
	assert.Error(t, s.CreateLevel(ctx, model.ManualLevel{ID: "a", Symbol: "DUP"}))
	assert.Error(t, s.CreateLevel(ctx, model.ManualLevel{Symbol: "NOID"}))

	require.NoError(t, s.UpdateLevel(ctx, model.ManualLevel{ID: "a", Symbol: "NIFTY", EntryPrice: 22100, Side: model.SideSell}))
	assert.ErrorIs(t, s.UpdateLevel(ctx, model.ManualLevel{ID: "zz"}), model.ErrNotFound)

	levels, err = s.ListLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.ManualLevel{
		{ID: "a", Symbol: "NIFTY", EntryPrice: 22100, Side: model.SideSell},
		{ID: "b", Symbol: "BANKNIFTY", EntryPrice: 48000.5, Side: model.SideSell},
	}, levels)

	require.NoError(t, s.DeleteLevel(ctx, "a"))
	assert.ErrorIs(t, s.DeleteLevel(ctx, "a"), model.ErrNotFound)

	levels, err = s.ListLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "b", levels[0].ID)
}

func TestIndicatorSettings(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	got, err := s.GetIndicatorSettings(ctx, "NIFTY", model.TF5m)
	require.NoError(t, err)
	assert.Empty(t, got.Settings)
	assert.Equal(t, model.TF5m, got.Timeframe)

	require.NoError(t, s.SaveIndicatorSettings(ctx, model.IndicatorSettings{
		Symbol:    "NIFTY",
		Timeframe: model.TF5m,
		Settings: map[string]map[string]float64{
			"EMA": {"length": 50},
			"RSI": {"length": 14, "overbought": 70},
		},
	}))
	// Second save only touches RSI; EMA keeps its row.
	require.NoError(t, s.SaveIndicatorSettings(ctx, model.IndicatorSettings{
		Symbol:    "NIFTY",
		Timeframe: model.TF5m,
		Settings:  map[string]map[string]float64{"RSI": {"length": 21}},
	}))

	got, err = s.GetIndicatorSettings(ctx, "NIFTY", model.TF5m)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"EMA": {"length": 50},
		"RSI": {"length": 21},
	}, got.Settings)

	other, err := s.GetIndicatorSettings(ctx, "NIFTY", model.TF1h)
	require.NoError(t, err)
	assert.Empty(t, other.Settings)
}

func TestEmissionSettings(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.GetEmissionSettings(ctx, "NIFTY")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, s.SaveEmissionSettings(ctx, model.EmissionSettings{Symbol: "NIFTY"}))
	got, err := s.GetEmissionSettings(ctx, "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Indicators)
	assert.Equal(t, []model.Timeframe{}, got.Timeframes)

	want := model.EmissionSettings{
		Symbol:     "NIFTY",
		Indicators: []string{"RSI", "MACD"},
		Timeframes: []model.Timeframe{model.TF1m, model.TF1d},
	}
	require.NoError(t, s.SaveEmissionSettings(ctx, want))
	got, err = s.GetEmissionSettings(ctx, "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUsers(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "a@x.io")
	assert.ErrorIs(t, err, model.ErrNotFound)

	u := model.User{Email: "a@x.io", PasswordHash: "h1", Access: model.AccessUser}
	require.NoError(t, s.UpsertUser(ctx, u))
	got, err := s.GetUser(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	u.Access = model.AccessAdmin
	u.TOTPSecret = "JBSWY3DPEHPK3PXP"
	require.NoError(t, s.UpsertUser(ctx, u))
	got, err = s.GetUser(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateLevel(ctx, model.ManualLevel{ID: "a", Symbol: "X", EntryPrice: 1, Side: model.SideBuy}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	levels, err := s.ListLevels(ctx)
	require.NoError(t, err)
	assert.Len(t, levels, 1)
}
