package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indicator-dashboard/internal/auth"
	"indicator-dashboard/internal/gateway"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/store/sqlite"
)

func TestUserAdd(t *testing.T) {
	db := filepath.Join(t.TempDir(), "users.db")

	var out bytes.Buffer
	cmd := userCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"add", " Admin@X.io ", "--password", "pw", "--access", "admin", "--totp", "--db", db})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "saved admin@x.io (admin-access)")
	assert.Contains(t, out.String(), "otpauth://totp/")

	store, err := sqlite.Open(db)
	require.NoError(t, err)
	defer store.Close()
	u, err := store.GetUser(context.Background(), "admin@x.io")
	require.NoError(t, err)
	assert.Equal(t, model.AccessAdmin, u.Access)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "pw"))
	assert.NotEmpty(t, u.TOTPSecret)
}

func TestUserAdd_Rejects(t *testing.T) {
	db := filepath.Join(t.TempDir(), "users.db")
	for _, args := range [][]string{
		{"add", "nobody", "--password", "pw", "--db", db},
		{"add", "a@x.io", "--password", "pw", "--access", "root", "--db", db},
		{"add", "a@x.io", "--db", db},
	} {
		cmd := userCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "%v", args)
	}
}

func TestParseTimeframes(t *testing.T) {
	tfs, err := parseTimeframes("1m, 60 ,1d")
	require.NoError(t, err)
	assert.Equal(t, []model.Timeframe{model.TF1m, model.TF1h, model.TF1d}, tfs)

	tfs, err = parseTimeframes("")
	require.NoError(t, err)
	assert.Nil(t, tfs)

	_, err = parseTimeframes("1m,7m")
	assert.EqualError(t, err, `unknown timeframe "7m"`)
}

func TestRender(t *testing.T) {
	hub := gateway.NewHub(gateway.HubConfig{})
	hub.Dispatch([]byte(`{"symbol":"NIFTY","timeframe":"15m","RSI":{"value":55.5}}`))
	hub.Dispatch([]byte(`{"symbol":"NIFTY","marketPrice":22000}`))
	r := mux.NewRouter()
	gateway.RegisterRoutes(r, hub)
	srv := httptest.NewServer(r)
	defer srv.Close()

	var out bytes.Buffer
	cmd := renderCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"NIFTY", "--server", srv.URL, "--timeframes", "15m"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "NIFTY  price 22000.00")
	assert.Contains(t, out.String(), "15 Min")
	assert.Contains(t, out.String(), "55.50")

	cmd = renderCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"NIFTY", "--server", srv.URL, "--timeframes", "9m"})
	assert.Error(t, cmd.Execute())
}
