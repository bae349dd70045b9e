// Package ingest routes live-data-all feed events into a merge store.
//
// The feed is best-effort: malformed events are dropped without surfacing an
// error, and nothing is retried.
package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/model"
)

// Kind classifies what an event did.
type Kind int

const (
	Dropped Kind = iota
	LevelSnapshot
	PriceTick
	IndicatorTick
)

func (k Kind) String() string {
	switch k {
	case LevelSnapshot:
		return "levels"
	case PriceTick:
		return "price"
	case IndicatorTick:
		return "indicator"
	default:
		return "dropped"
	}
}

// Drop reasons, used as metric labels.
const (
	ReasonInvalidJSON      = "invalid_json"
	ReasonInvalidLevels    = "invalid_levels"
	ReasonMissingSymbol    = "missing_symbol"
	ReasonUnknownTimeframe = "unknown_timeframe"
	ReasonEmpty            = "empty"
	ReasonStale            = "stale"
)

// Result describes the outcome of one event.
type Result struct {
	Kind      Kind
	Symbol    string
	Timeframe model.Timeframe
	Price     model.MarketPrice // set for PriceTick
	Reason    string            // set for Dropped
}

// Ingestor applies events to a Store and keeps the latest manual level list.
type Ingestor struct {
	store *mergestore.Store

	mu     sync.RWMutex
	levels []model.ManualLevel
}

// New creates an Ingestor writing into store.
func New(store *mergestore.Store) *Ingestor {
	return &Ingestor{store: store}
}

// Store returns the underlying merge store.
func (in *Ingestor) Store() *mergestore.Store { return in.store }

// Levels returns a copy of the latest manual level snapshot.
func (in *Ingestor) Levels() []model.ManualLevel {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]model.ManualLevel, len(in.levels))
	copy(out, in.levels)
	return out
}

// SetLevels replaces the manual level snapshot.
func (in *Ingestor) SetLevels(levels []model.ManualLevel) {
	cp := make([]model.ManualLevel, len(levels))
	copy(cp, levels)
	in.mu.Lock()
	in.levels = cp
	in.mu.Unlock()
}

// Handle decodes and applies one raw feed event.
func (in *Ingestor) Handle(raw []byte) Result {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Result{Kind: Dropped, Reason: ReasonInvalidJSON}
	}
	return in.Apply(fields)
}

// Apply routes an already-decoded event object.
func (in *Ingestor) Apply(fields map[string]json.RawMessage) Result {
	if raw, ok := fields["symbols"]; ok {
		var levels []model.ManualLevel
		if err := json.Unmarshal(raw, &levels); err != nil {
			return Result{Kind: Dropped, Reason: ReasonInvalidLevels}
		}
		in.SetLevels(levels)
		return Result{Kind: LevelSnapshot}
	}

	symbol := decodeString(fields["symbol"])
	if symbol == "" {
		return Result{Kind: Dropped, Reason: ReasonMissingSymbol}
	}

	indicators := make(map[string]json.RawMessage, len(fields))
	for name, payload := range fields {
		if model.IsReservedEventKey(name) || mergestore.IsAbsent(payload) {
			continue
		}
		indicators[name] = payload
	}

	if len(indicators) == 0 {
		price, hasPrice := decodeNumber(fields["marketPrice"])
		if !hasPrice {
			price, hasPrice = decodeNumber(fields["price"])
		}
		volume, hasVolume := decodeNumber(fields["volume"])
		if !hasPrice && !hasVolume {
			return Result{Kind: Dropped, Symbol: symbol, Reason: ReasonEmpty}
		}
		mp := in.store.SetMarketPrice(symbol, price, volume)
		return Result{Kind: PriceTick, Symbol: symbol, Price: mp}
	}

	tf, ok := model.ParseTimeframe(decodeString(fields["timeframe"]))
	if !ok {
		return Result{Kind: Dropped, Symbol: symbol, Reason: ReasonUnknownTimeframe}
	}
	in.store.Merge(symbol, tf, indicators)
	return Result{Kind: IndicatorTick, Symbol: symbol, Timeframe: tf}
}

// EventSymbol returns the symbol a decoded event is keyed by, "" if it has
// none.
func EventSymbol(fields map[string]json.RawMessage) string {
	return decodeString(fields["symbol"])
}

// decodeString accepts a JSON string or a bare number (some producers send
// numeric timeframes like 15).
func decodeString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeNumber accepts a JSON number or a numeric string.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || mergestore.IsAbsent(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
