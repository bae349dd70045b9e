// Package normalize turns merged indicator payloads into display tables.
//
// Every formatter is a pure function of (payload, market price, catalog
// entry). Tables are rebuilt from a store snapshot on each render; nothing
// here keeps state between calls.
package normalize

import (
	"encoding/json"

	"indicator-dashboard/internal/model"
)

type formatter func(n *node, price float64, e Entry) Cell

var formatters = map[Kind]formatter{
	KindScalar:            formatScalar,
	KindCandlestick:       formatCandlestick,
	KindBandLines:         formatBandLines,
	KindSupportResistance: formatSupportResistance,
	KindPivotHighLow:      formatPivotHighLow,
	KindPivotStandard:     formatPivotStandard,
}

// TableRow is one catalog entry rendered across timeframes; Cells is
// index-aligned with Table.Timeframes.
type TableRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Cells []Cell `json:"cells"`
}

// Table is the display-ready dashboard for one symbol.
type Table struct {
	Symbol     string              `json:"symbol"`
	Price      string              `json:"price"`
	Volume     string              `json:"volume"`
	Timeframes []model.Timeframe   `json:"timeframes"`
	Rows       []TableRow          `json:"rows"`
	Levels     []model.ManualLevel `json:"levels,omitempty"`
}

// FormatCell renders a single payload for a catalog entry. Absent, null or
// undecodable payloads render as the placeholder.
func FormatCell(raw json.RawMessage, price float64, e Entry) Cell {
	if len(raw) == 0 {
		return placeholderCell()
	}
	n, err := parseNode(raw)
	if err != nil || n.kind == nullNode {
		return placeholderCell()
	}
	f, ok := formatters[e.Kind]
	if !ok {
		return placeholderCell()
	}
	return f(n, price, e)
}

// Build renders every catalog entry for every timeframe. A nil timeframes
// slice means the timeframes present in snap, in display order.
func Build(cat *Catalog, symbol string, snap map[model.Timeframe]model.Bag, mp model.MarketPrice, timeframes []model.Timeframe) Table {
	if timeframes == nil {
		timeframes = make([]model.Timeframe, 0, len(snap))
		for tf := range snap {
			timeframes = append(timeframes, tf)
		}
		model.SortTimeframes(timeframes)
	}

	t := Table{
		Symbol:     symbol,
		Price:      FormatNumber(mp.Price),
		Volume:     FormatNumber(mp.Volume),
		Timeframes: timeframes,
		Rows:       make([]TableRow, 0, len(cat.Entries)),
	}
	if mp.Price == 0 {
		t.Price = Placeholder
	}
	if mp.Volume == 0 {
		t.Volume = Placeholder
	}

	// Each payload is shared by several rows (SRv2 support and resistance);
	// decode it once per timeframe.
	parsed := make(map[model.Timeframe]map[string]*node, len(timeframes))
	for _, tf := range timeframes {
		bag, ok := snap[tf]
		if !ok {
			continue
		}
		m := make(map[string]*node, len(bag.Indicators))
		for name, raw := range bag.Indicators {
			if n, err := parseNode(raw); err == nil && n.kind != nullNode {
				m[name] = n
			}
		}
		parsed[tf] = m
	}

	for _, e := range cat.Entries {
		row := TableRow{Key: e.Key, Label: e.Label, Cells: make([]Cell, len(timeframes))}
		f := formatters[e.Kind]
		for i, tf := range timeframes {
			n, ok := parsed[tf][e.Source]
			if !ok || f == nil {
				row.Cells[i] = placeholderCell()
				continue
			}
			row.Cells[i] = f(n, mp.Price, e)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Row looks up a rendered row by catalog key.
func (t Table) Row(key string) (TableRow, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return TableRow{}, false
}

// Cell returns the cell of row key at timeframe tf.
func (t Table) Cell(key string, tf model.Timeframe) (Cell, bool) {
	r, ok := t.Row(key)
	if !ok {
		return Cell{}, false
	}
	for i, x := range t.Timeframes {
		if x == tf {
			return r.Cells[i], true
		}
	}
	return Cell{}, false
}
