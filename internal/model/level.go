package model

import "strings"

// Side of a manual price level.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts buy/sell in any case (also long/short).
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return SideBuy, true
	case "sell", "short":
		return SideSell, true
	}
	return "", false
}

// ManualLevel is a user-entered buy/sell price level for a symbol.
type ManualLevel struct {
	ID         string  `json:"_id"`
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entryPrice"`
	Side       Side    `json:"side"`
}

// LevelSnapshot is the feed event carrying the full manual level list.
type LevelSnapshot struct {
	Symbols []ManualLevel `json:"symbols"`
}
