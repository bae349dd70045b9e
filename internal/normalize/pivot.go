package normalize

import "sort"

// priceTolerance is how close a level must be to count as "at" the price.
const priceTolerance = 0.01

// formatPivotHighLow orders pivot points around the current price:
// points at or above the price (descending toward it), one synthesized
// "Current Price" row, then points below (descending away from it).
// Ordering uses each point's numeric value carried alongside its row.
func formatPivotHighLow(n *node, price float64, e Entry) Cell {
	items, ok := n.list("points", "pivots")
	if !ok {
		return placeholderCell()
	}

	rows := make([]Row, 0, len(items)+1)
	for _, item := range items {
		v, ok := item.first("value", "price", "y").number()
		if !ok || IsNoData(v) {
			continue
		}
		rows = append(rows, Row{
			Label: item.first("type", "label", "name").text(),
			Value: FormatNumber(v),
			Level: v,
		})
	}
	if len(rows) == 0 {
		return placeholderCell()
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Level > rows[j].Level
	})

	if !e.CurrentPrice || price <= 0 || IsNoData(price) {
		return Cell{Rows: rows}
	}

	// Points within tolerance of the price sit above the Current Price row.
	cut := sort.Search(len(rows), func(i int) bool {
		return rows[i].Level < price-priceTolerance
	})
	out := make([]Row, 0, len(rows)+1)
	out = append(out, rows[:cut]...)
	out = append(out, currentPriceRow(price))
	out = append(out, rows[cut:]...)
	return Cell{Rows: out}
}
