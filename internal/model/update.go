package model

import "encoding/json"

// Bag is the merged indicator state for one (symbol, timeframe) key.
// Payloads are kept as raw JSON: their shape varies per indicator name and
// they are only ever replaced wholesale, never edited in place.
type Bag struct {
	Symbol     string                     `json:"symbol"`
	Timeframe  Timeframe                  `json:"timeframe"`
	Indicators map[string]json.RawMessage `json:"indicators"`
}

// Clone returns a copy of b whose Indicators map can be mutated independently.
func (b Bag) Clone() Bag {
	cp := Bag{
		Symbol:     b.Symbol,
		Timeframe:  b.Timeframe,
		Indicators: make(map[string]json.RawMessage, len(b.Indicators)),
	}
	for k, v := range b.Indicators {
		cp.Indicators[k] = v
	}
	return cp
}

// MarketPrice is the latest known price/volume for a symbol.
type MarketPrice struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// IndicatorUpdate is one decoded indicator tick from the live feed.
type IndicatorUpdate struct {
	Symbol     string
	Timeframe  Timeframe
	Indicators map[string]json.RawMessage
}

// Reserved top-level keys of a live-data-all event; everything else is an
// indicator payload.
var reservedEventKeys = map[string]bool{
	"symbol":      true,
	"timeframe":   true,
	"marketPrice": true,
	"price":       true,
	"volume":      true,
}

// IsReservedEventKey reports whether key is envelope data rather than an
// indicator name.
func IsReservedEventKey(key string) bool {
	return reservedEventKeys[key]
}
