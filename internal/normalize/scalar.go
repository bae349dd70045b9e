package normalize

import "strconv"

// formatScalar renders moving averages, oscillators, MACD triples and band
// sets: project the allow-listed fields, drop sentinel fields, format numbers
// and booleans.
func formatScalar(n *node, _ float64, e Entry) Cell {
	switch n.kind {
	case numberNode:
		if isSentinel(n) {
			return placeholderCell()
		}
		return Cell{Text: FormatNumber(n.num)}
	case boolNode, stringNode:
		return Cell{Text: formatValue(n)}
	case arrayNode:
		if len(n.items) == 0 {
			return placeholderCell()
		}
		if !isObjectList(n.items) {
			return formatScalar(n.items[len(n.items)-1], 0, e)
		}
		rows := make([]Row, 0, len(n.items))
		for i, item := range n.items {
			v := formatObject(item, e.Fields)
			if v == Placeholder {
				continue
			}
			rows = append(rows, Row{Label: "#" + strconv.Itoa(i+1), Value: v})
		}
		if len(rows) == 0 {
			return placeholderCell()
		}
		return Cell{Rows: rows}
	case objectNode:
		keys := e.Fields
		if len(keys) == 0 {
			keys = n.keys
		}
		rows := make([]Row, 0, len(keys))
		for _, k := range keys {
			v := n.get(k)
			if v == nil || v.kind == nullNode || isSentinel(v) {
				continue
			}
			rows = append(rows, Row{Label: k, Value: formatValue(v)})
		}
		if len(rows) == 0 {
			return placeholderCell()
		}
		if len(rows) == 1 && len(keys) == 1 {
			// Single-value indicators (EMA, plain RSI) render as bare text.
			return Cell{Text: rows[0].Value}
		}
		return Cell{Rows: rows}
	}
	return placeholderCell()
}
