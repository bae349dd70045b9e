package model

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ── Storage Port Interfaces ──
// These interfaces decouple the HTTP layer from the concrete storage
// implementation (SQLite). Tests substitute in-memory fakes.

// LevelStore persists manual buy/sell levels.
type LevelStore interface {
	ListLevels(ctx context.Context) ([]ManualLevel, error)

	// CreateLevel stores lvl; lvl.ID must already be set.
	CreateLevel(ctx context.Context, lvl ManualLevel) error

	// UpdateLevel replaces the level with lvl.ID. Returns ErrNotFound if absent.
	UpdateLevel(ctx context.Context, lvl ManualLevel) error

	// DeleteLevel removes a level. Returns ErrNotFound if absent.
	DeleteLevel(ctx context.Context, id string) error
}

// SettingsStore persists indicator parameter sets and emission toggles.
type SettingsStore interface {
	// GetIndicatorSettings returns the stored parameters; an empty Settings
	// map (not an error) when nothing was saved yet.
	GetIndicatorSettings(ctx context.Context, symbol string, tf Timeframe) (IndicatorSettings, error)

	// SaveIndicatorSettings upserts every indicator present in s.Settings.
	SaveIndicatorSettings(ctx context.Context, s IndicatorSettings) error

	// GetEmissionSettings returns ErrNotFound if the symbol has none.
	GetEmissionSettings(ctx context.Context, symbol string) (EmissionSettings, error)

	SaveEmissionSettings(ctx context.Context, s EmissionSettings) error
}

// UserStore persists dashboard accounts.
type UserStore interface {
	// GetUser returns ErrNotFound for unknown emails.
	GetUser(ctx context.Context, email string) (User, error)

	UpsertUser(ctx context.Context, u User) error
}
