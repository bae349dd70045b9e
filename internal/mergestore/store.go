// Package mergestore holds the per-session indicator state: the latest merged
// indicator bag for every (symbol, timeframe) and the latest market price for
// every symbol.
//
// Merging is shallow per indicator name: an incoming payload for a name
// replaces the previous payload for that name wholesale, and names absent from
// an update keep their previous value. A payload update is therefore atomic
// per indicator while different indicators update independently.
package mergestore

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"sync"

	"indicator-dashboard/internal/model"
)

// Store is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	bags   map[string]map[model.Timeframe]*model.Bag
	prices map[string]model.MarketPrice
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		bags:   make(map[string]map[model.Timeframe]*model.Bag),
		prices: make(map[string]model.MarketPrice),
	}
}

// Merge folds incoming indicator payloads into the bag for (symbol, tf).
// Absent payloads (missing, empty or JSON null) never clobber a stored value.
func (s *Store) Merge(symbol string, tf model.Timeframe, incoming map[string]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTF, ok := s.bags[symbol]
	if !ok {
		byTF = make(map[model.Timeframe]*model.Bag)
		s.bags[symbol] = byTF
	}
	bag, ok := byTF[tf]
	if !ok {
		bag = &model.Bag{
			Symbol:     symbol,
			Timeframe:  tf,
			Indicators: make(map[string]json.RawMessage),
		}
		byTF[tf] = bag
	}

	for name, raw := range incoming {
		if IsAbsent(raw) {
			continue
		}
		// Copy: callers may reuse their decode buffers.
		cp := make(json.RawMessage, len(raw))
		copy(cp, raw)
		bag.Indicators[name] = cp
	}
}

// SetMarketPrice records the latest price/volume for symbol. A zero or NaN
// incoming value keeps the previously known value.
func (s *Store) SetMarketPrice(symbol string, price, volume float64) model.MarketPrice {
	s.mu.Lock()
	defer s.mu.Unlock()

	mp := s.prices[symbol]
	if price != 0 && !math.IsNaN(price) {
		mp.Price = price
	}
	if volume != 0 && !math.IsNaN(volume) {
		mp.Volume = volume
	}
	s.prices[symbol] = mp
	return mp
}

// Price returns the latest market price for symbol.
func (s *Store) Price(symbol string) (model.MarketPrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mp, ok := s.prices[symbol]
	return mp, ok
}

// Bag returns a copy of the bag for (symbol, tf).
func (s *Store) Bag(symbol string, tf model.Timeframe) (model.Bag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bag, ok := s.bags[symbol][tf]
	if !ok {
		return model.Bag{}, false
	}
	return bag.Clone(), true
}

// Snapshot returns copies of every bag stored for symbol, keyed by timeframe.
// The stored raw payloads are shared; they are never mutated after Merge.
func (s *Store) Snapshot(symbol string) map[model.Timeframe]model.Bag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTF := s.bags[symbol]
	out := make(map[model.Timeframe]model.Bag, len(byTF))
	for tf, bag := range byTF {
		out[tf] = bag.Clone()
	}
	return out
}

// Timeframes returns the timeframes known for symbol in display order.
func (s *Store) Timeframes(symbol string) []model.Timeframe {
	s.mu.RLock()
	tfs := make([]model.Timeframe, 0, len(s.bags[symbol]))
	for tf := range s.bags[symbol] {
		tfs = append(tfs, tf)
	}
	s.mu.RUnlock()

	model.SortTimeframes(tfs)
	return tfs
}

// Symbols returns every symbol with indicator or price data, sorted.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	seen := make(map[string]bool, len(s.bags)+len(s.prices))
	for sym := range s.bags {
		seen[sym] = true
	}
	for sym := range s.prices {
		seen[sym] = true
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Reset discards all state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.bags = make(map[string]map[model.Timeframe]*model.Bag)
	s.prices = make(map[string]model.MarketPrice)
	s.mu.Unlock()
}

var jsonNull = []byte("null")

// IsAbsent reports whether raw carries no value: empty, null or an object
// without fields.
func IsAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return true
	}
	if trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' {
		return len(bytes.TrimSpace(trimmed[1:len(trimmed)-1])) == 0
	}
	return false
}
