package model

import (
	"sort"
	"strings"
)

// Timeframe is a fixed aggregation bucket for indicator data.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
)

// timeframeOrder is the display order, shortest bucket first.
var timeframeOrder = []Timeframe{TF1m, TF3m, TF5m, TF15m, TF30m, TF1h, TF2h, TF4h, TF1d, TF1w}

var timeframeLabels = map[Timeframe]string{
	TF1m:  "1 Min",
	TF3m:  "3 Min",
	TF5m:  "5 Min",
	TF15m: "15 Min",
	TF30m: "30 Min",
	TF1h:  "1 Hour",
	TF2h:  "2 Hours",
	TF4h:  "4 Hours",
	TF1d:  "Daily",
	TF1w:  "Weekly",
}

// Feed producers are not consistent about timeframe codes; these are the
// spellings seen in the wild (minute counts, TradingView resolutions, words).
var timeframeAliases = map[string]Timeframe{
	"1": TF1m, "1min": TF1m,
	"3": TF3m, "3min": TF3m,
	"5": TF5m, "5min": TF5m,
	"15": TF15m, "15min": TF15m,
	"30": TF30m, "30min": TF30m,
	"60": TF1h, "1hr": TF1h, "60m": TF1h, "hourly": TF1h,
	"120": TF2h, "2hr": TF2h, "120m": TF2h,
	"240": TF4h, "4hr": TF4h, "240m": TF4h,
	"d": TF1d, "1day": TF1d, "day": TF1d, "daily": TF1d,
	"w": TF1w, "1week": TF1w, "week": TF1w, "weekly": TF1w,
}

// ParseTimeframe normalizes a feed timeframe code. Returns false for codes
// outside the fixed enumeration.
func ParseTimeframe(s string) (Timeframe, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	tf := Timeframe(s)
	if _, ok := timeframeLabels[tf]; ok {
		return tf, true
	}
	if tf, ok := timeframeAliases[s]; ok {
		return tf, true
	}
	return "", false
}

// Valid reports whether tf is part of the enumeration.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeLabels[tf]
	return ok
}

// Label returns a human-readable label, e.g. "15 Min".
func (tf Timeframe) Label() string {
	if l, ok := timeframeLabels[tf]; ok {
		return l
	}
	return string(tf)
}

// Rank returns the position of tf in display order, or -1 if unknown.
func (tf Timeframe) Rank() int {
	for i, t := range timeframeOrder {
		if t == tf {
			return i
		}
	}
	return -1
}

// AllTimeframes returns the full enumeration in display order.
func AllTimeframes() []Timeframe {
	out := make([]Timeframe, len(timeframeOrder))
	copy(out, timeframeOrder)
	return out
}

// SortTimeframes orders tfs in place by display order.
func SortTimeframes(tfs []Timeframe) {
	sort.SliceStable(tfs, func(i, j int) bool {
		return tfs[i].Rank() < tfs[j].Rank()
	})
}
