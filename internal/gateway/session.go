package gateway

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/mergestore"
	"indicator-dashboard/internal/model"
	"indicator-dashboard/internal/normalize"
)

// Session is the dashboard state owned by one WebSocket connection: its own
// merge store, the symbols it selected and the one it is looking at.
// Nothing here is shared with other sessions.
type Session struct {
	catalog *normalize.Catalog
	in      *ingest.Ingestor

	mu       sync.Mutex
	selected map[string]bool
	seeded   map[string]int64 // broadcast seq each symbol was last seeded at
	active   string
	dirty    bool
}

// NewSession creates an empty session.
func NewSession(cat *normalize.Catalog) *Session {
	return &Session{
		catalog:  cat,
		in:       ingest.New(mergestore.New()),
		selected: make(map[string]bool),
		seeded:   make(map[string]int64),
	}
}

// Select subscribes to symbol, makes it the active symbol and seeds the
// session store from seed (the hub-wide store). asOf is the broadcast seq
// read before the seed was taken; queued events for symbol at or below it
// are already in the seed and ApplyAt skips them. Returns the selection.
func (s *Session) Select(symbol string, seed *mergestore.Store, asOf int64) ([]string, string) {
	symbol = strings.TrimSpace(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[symbol] = true
	s.active = symbol
	s.dirty = true

	if seed != nil {
		s.seeded[symbol] = asOf
		store := s.in.Store()
		for tf, bag := range seed.Snapshot(symbol) {
			store.Merge(symbol, tf, bag.Indicators)
		}
		if mp, ok := seed.Price(symbol); ok {
			store.SetMarketPrice(symbol, mp.Price, mp.Volume)
		}
	}
	return s.selectionLocked()
}

// Deselect drops symbol. If it was active, the alphabetically first
// remaining symbol becomes active.
func (s *Session) Deselect(symbol string) ([]string, string) {
	symbol = strings.TrimSpace(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, symbol)
	if s.active == symbol {
		s.active = ""
		syms, _ := s.selectionLocked()
		if len(syms) > 0 {
			s.active = syms[0]
			s.dirty = true
		}
	}
	return s.selectionLocked()
}

// Wants reports whether events for symbol should reach this session.
func (s *Session) Wants(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[symbol]
}

// Active returns the active symbol ("" if none).
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetLevels replaces the manual level list.
func (s *Session) SetLevels(levels []model.ManualLevel) {
	s.in.SetLevels(levels)
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Apply merges one decoded feed event. The table is marked dirty when the
// event touches the active symbol or replaces the level list.
func (s *Session) Apply(fields map[string]json.RawMessage) ingest.Result {
	return s.ApplyAt(fields, 0)
}

// ApplyAt is Apply for an event broadcast with sequence number seq. Events
// for a symbol that was seeded at or after seq are dropped as stale. A zero
// seq is never stale.
func (s *Session) ApplyAt(fields map[string]json.RawMessage, seq int64) ingest.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq > 0 {
		if symbol := ingest.EventSymbol(fields); symbol != "" && seq <= s.seeded[symbol] {
			return ingest.Result{Kind: ingest.Dropped, Symbol: symbol, Reason: ingest.ReasonStale}
		}
	}

	res := s.in.Apply(fields)
	switch res.Kind {
	case ingest.LevelSnapshot:
		s.dirty = true
	case ingest.PriceTick, ingest.IndicatorTick:
		if res.Symbol == s.active {
			s.dirty = true
		}
	}
	return res
}

// Render builds the table for the active symbol if anything changed since
// the last render. ok is false when there is nothing to send.
func (s *Session) Render() (table normalize.Table, ok bool) {
	s.mu.Lock()
	if !s.dirty || s.active == "" {
		s.mu.Unlock()
		return normalize.Table{}, false
	}
	s.dirty = false
	symbol := s.active
	s.mu.Unlock()

	store := s.in.Store()
	mp, _ := store.Price(symbol)
	table = normalize.Build(s.catalog, symbol, store.Snapshot(symbol), mp, nil)
	table.Levels = levelsFor(s.in.Levels(), symbol)
	return table, true
}

// Close discards the session state.
func (s *Session) Close() {
	s.in.Store().Reset()
	s.in.SetLevels(nil)
	s.mu.Lock()
	s.selected = make(map[string]bool)
	s.seeded = make(map[string]int64)
	s.active = ""
	s.dirty = false
	s.mu.Unlock()
}

func (s *Session) selectionLocked() ([]string, string) {
	out := make([]string, 0, len(s.selected))
	for sym := range s.selected {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, s.active
}

// levelsFor filters levels by symbol (case-insensitive), highest price first.
func levelsFor(levels []model.ManualLevel, symbol string) []model.ManualLevel {
	var out []model.ManualLevel
	for _, l := range levels {
		if strings.EqualFold(l.Symbol, symbol) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryPrice > out[j].EntryPrice })
	return out
}
