// Package sqlite persists manual levels, indicator settings, emission
// settings and users in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"indicator-dashboard/internal/model"
)

// Store implements model.LevelStore, model.SettingsStore and model.UserStore.
type Store struct {
	db *sql.DB
}

var (
	_ model.LevelStore    = (*Store)(nil)
	_ model.SettingsStore = (*Store)(nil)
	_ model.UserStore     = (*Store)(nil)
)

// Open opens (or creates) the database with WAL mode and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", path)
	return &Store{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS manual_levels (
			id          TEXT    PRIMARY KEY,
			symbol      TEXT    NOT NULL,
			entry_price REAL    NOT NULL,
			side        TEXT    NOT NULL,
			created_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS indicator_settings (
			symbol     TEXT    NOT NULL,
			timeframe  TEXT    NOT NULL,
			indicator  TEXT    NOT NULL,
			params     TEXT    NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, timeframe, indicator)
		);

		CREATE TABLE IF NOT EXISTS emission_settings (
			symbol     TEXT    PRIMARY KEY,
			indicators TEXT    NOT NULL,
			timeframes TEXT    NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			email         TEXT    PRIMARY KEY,
			password_hash TEXT    NOT NULL,
			access        TEXT    NOT NULL,
			totp_secret   TEXT    NOT NULL DEFAULT '',
			created_at    INTEGER NOT NULL
		);
	`)
	return err
}

// ── Manual levels ──

func (s *Store) ListLevels(ctx context.Context) ([]model.ManualLevel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, entry_price, side FROM manual_levels ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	levels := []model.ManualLevel{}
	for rows.Next() {
		var l model.ManualLevel
		var side string
		if err := rows.Scan(&l.ID, &l.Symbol, &l.EntryPrice, &side); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		l.Side = model.Side(side)
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (s *Store) CreateLevel(ctx context.Context, l model.ManualLevel) error {
	if l.ID == "" {
		return errors.New("create level: empty id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_levels (id, symbol, entry_price, side, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Symbol, l.EntryPrice, string(l.Side), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

func (s *Store) UpdateLevel(ctx context.Context, l model.ManualLevel) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE manual_levels SET symbol = ?, entry_price = ?, side = ? WHERE id = ?`,
		l.Symbol, l.EntryPrice, string(l.Side), l.ID)
	if err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) DeleteLevel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM manual_levels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ── Indicator settings ──

func (s *Store) GetIndicatorSettings(ctx context.Context, symbol string, tf model.Timeframe) (model.IndicatorSettings, error) {
	out := model.IndicatorSettings{
		Symbol:    symbol,
		Timeframe: tf,
		Settings:  map[string]map[string]float64{},
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT indicator, params FROM indicator_settings WHERE symbol = ? AND timeframe = ?`,
		symbol, string(tf))
	if err != nil {
		return out, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return out, fmt.Errorf("scan settings: %w", err)
		}
		params := map[string]float64{}
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return out, fmt.Errorf("decode settings %s: %w", name, err)
		}
		out.Settings[name] = params
	}
	return out, rows.Err()
}

// SaveIndicatorSettings upserts all indicators of st in one transaction.
func (s *Store) SaveIndicatorSettings(ctx context.Context, st model.IndicatorSettings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indicator_settings (symbol, timeframe, indicator, params, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timeframe, indicator)
		DO UPDATE SET params = excluded.params, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for name, params := range st.Settings {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode settings %s: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, st.Symbol, string(st.Timeframe), name, string(raw), now); err != nil {
			return fmt.Errorf("save settings %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// ── Emission settings ──

func (s *Store) GetEmissionSettings(ctx context.Context, symbol string) (model.EmissionSettings, error) {
	var inds, tfs string
	err := s.db.QueryRowContext(ctx,
		`SELECT indicators, timeframes FROM emission_settings WHERE symbol = ?`, symbol).Scan(&inds, &tfs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmissionSettings{}, model.ErrNotFound
	}
	if err != nil {
		return model.EmissionSettings{}, fmt.Errorf("get emission settings: %w", err)
	}

	out := model.EmissionSettings{Symbol: symbol}
	if err := json.Unmarshal([]byte(inds), &out.Indicators); err != nil {
		return out, fmt.Errorf("decode emission indicators: %w", err)
	}
	if err := json.Unmarshal([]byte(tfs), &out.Timeframes); err != nil {
		return out, fmt.Errorf("decode emission timeframes: %w", err)
	}
	return out, nil
}

func (s *Store) SaveEmissionSettings(ctx context.Context, st model.EmissionSettings) error {
	inds, err := json.Marshal(nonNil(st.Indicators))
	if err != nil {
		return err
	}
	tfs := st.Timeframes
	if tfs == nil {
		tfs = []model.Timeframe{}
	}
	tfsRaw, err := json.Marshal(tfs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emission_settings (symbol, indicators, timeframes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol)
		DO UPDATE SET indicators = excluded.indicators, timeframes = excluded.timeframes, updated_at = excluded.updated_at
	`, st.Symbol, string(inds), string(tfsRaw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save emission settings: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ── Users ──

func (s *Store) GetUser(ctx context.Context, email string) (model.User, error) {
	var u model.User
	var access string
	err := s.db.QueryRowContext(ctx,
		`SELECT email, password_hash, access, totp_secret FROM users WHERE email = ?`, email).
		Scan(&u.Email, &u.PasswordHash, &access, &u.TOTPSecret)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Access = model.Access(access)
	return u, nil
}

func (s *Store) UpsertUser(ctx context.Context, u model.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, access, totp_secret, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email)
		DO UPDATE SET password_hash = excluded.password_hash, access = excluded.access, totp_secret = excluded.totp_secret
	`, u.Email, u.PasswordHash, string(u.Access), u.TOTPSecret, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
