package normalize

import "strings"

// formatCandlestick lists the pattern names flagged 1, in input key order.
// Keys starting with "$" ($time and friends) are metadata.
func formatCandlestick(n *node, _ float64, _ Entry) Cell {
	if n.kind != objectNode {
		return placeholderCell()
	}
	var hits []string
	for _, k := range n.keys {
		if strings.HasPrefix(k, "$") {
			continue
		}
		if flagged(n.fields[k]) {
			hits = append(hits, k)
		}
	}
	if len(hits) == 0 {
		return Cell{Text: "None"}
	}
	return Cell{Text: strings.Join(hits, ", ")}
}

func flagged(v *node) bool {
	switch v.kind {
	case boolNode:
		return v.b
	case numberNode:
		return v.num == 1
	case stringNode:
		return strings.TrimSpace(v.str) == "1"
	}
	return false
}
