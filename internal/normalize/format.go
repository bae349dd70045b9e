package normalize

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is rendered for absent data and the no-data sentinel.
const Placeholder = "-"

// sentinel is the upstream feed's "value not available" marker.
const sentinel = 1e100

// maxPlausible bounds real prices; anything larger is treated as no data.
const maxPlausible = 1e10

// IsNoData reports whether v must render as the placeholder.
func IsNoData(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v == sentinel || math.Abs(v) > maxPlausible
}

// FormatNumber renders v with two decimal places, or "-" for no data.
func FormatNumber(v float64) string {
	if IsNoData(v) {
		return Placeholder
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatBool renders Yes/No.
func FormatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatValue renders any decoded payload value as display text.
func formatValue(n *node) string {
	if n == nil {
		return Placeholder
	}
	switch n.kind {
	case numberNode:
		return FormatNumber(n.num)
	case boolNode:
		return FormatBool(n.b)
	case stringNode:
		if s := strings.TrimSpace(n.str); s != "" {
			return s
		}
		return Placeholder
	case arrayNode:
		if len(n.items) == 0 {
			return Placeholder
		}
		if isObjectList(n.items) {
			parts := make([]string, 0, len(n.items))
			for _, item := range n.items {
				parts = append(parts, formatObject(item, nil))
			}
			return strings.Join(parts, "; ")
		}
		return formatValue(n.items[len(n.items)-1])
	case objectNode:
		return formatObject(n, nil)
	}
	return Placeholder
}

// formatObject renders "k: v, k: v" for the allowed keys (all keys, in input
// order, when allow is empty). Sentinel fields are dropped.
func formatObject(n *node, allow []string) string {
	keys := allow
	if len(keys) == 0 {
		keys = n.keys
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := n.get(k)
		if v == nil || v.kind == nullNode || isSentinel(v) {
			continue
		}
		parts = append(parts, k+": "+formatValue(v))
	}
	if len(parts) == 0 {
		return Placeholder
	}
	return strings.Join(parts, ", ")
}

func isSentinel(n *node) bool {
	return n != nil && n.kind == numberNode && n.num == sentinel
}

func isObjectList(items []*node) bool {
	for _, it := range items {
		if it.kind != objectNode {
			return false
		}
	}
	return len(items) > 0
}
