package normalize

import (
	"regexp"
	"sort"
	"strings"
)

type levelClass int

const (
	classUnknown levelClass = iota
	classSupport
	classResistance
	classPivot
)

var (
	resistanceHint = regexp.MustCompile(`^r\d`)
	supportHint    = regexp.MustCompile(`^s\d`)
)

// classifyLabel reads the text hint of a level label.
func classifyLabel(label string) levelClass {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return classUnknown
	case strings.Contains(l, "resist") || resistanceHint.MatchString(l):
		return classResistance
	case strings.Contains(l, "support") || supportHint.MatchString(l):
		return classSupport
	case l == "p" || l == "pp" || strings.Contains(l, "pivot"):
		return classPivot
	}
	return classUnknown
}

type level struct {
	label string
	value float64
	class levelClass
}

// readLevels accepts either a list of level objects or an object mapping
// label to price. Map form keeps input key order.
func readLevels(n *node) []level {
	var out []level
	if items, ok := n.list("levels", "lines"); ok {
		for _, item := range items {
			v, ok := item.first("value", "price", "y", "level").number()
			if !ok || IsNoData(v) {
				continue
			}
			label := item.first("label", "text", "name", "title", "type").text()
			out = append(out, level{label: label, value: v})
		}
		return out
	}
	if n.kind != objectNode {
		return nil
	}
	for _, k := range n.keys {
		if strings.HasPrefix(k, "$") {
			continue
		}
		v, ok := n.fields[k].number()
		if !ok || IsNoData(v) {
			continue
		}
		out = append(out, level{label: k, value: v})
	}
	return out
}

// classify resolves every level to support, resistance or pivot. Text hints
// win; otherwise a level at or below the price is support and one above is
// resistance. Levels that cannot be placed are dropped.
func classify(levels []level, price float64) []level {
	havePrice := price > 0 && !IsNoData(price)
	out := levels[:0]
	for _, l := range levels {
		l.class = classifyLabel(l.label)
		if l.class == classUnknown {
			if !havePrice {
				continue
			}
			if l.value <= price {
				l.class = classSupport
			} else {
				l.class = classResistance
			}
		}
		out = append(out, l)
	}
	return out
}

func (v View) admits(c levelClass) bool {
	switch v {
	case ViewSupport:
		return c == classSupport
	case ViewResistance:
		return c == classResistance
	case ViewPivot:
		return c == classPivot
	}
	return true
}

// formatLevels is shared by the S/R v2 and standard pivot rows: classify,
// filter to the entry's view, optionally splice the current price, sort
// descending by level.
func formatLevels(n *node, price float64, e Entry) Cell {
	levels := classify(readLevels(n), price)

	rows := make([]Row, 0, len(levels)+1)
	for _, l := range levels {
		if !e.View.admits(l.class) {
			continue
		}
		rows = append(rows, Row{Label: l.label, Value: FormatNumber(l.value), Level: l.value})
	}
	if len(rows) == 0 {
		return placeholderCell()
	}

	if e.CurrentPrice && e.View != ViewPivot && price > 0 && !IsNoData(price) {
		rows = append(rows, currentPriceRow(price))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Level != rows[j].Level {
			return rows[i].Level > rows[j].Level
		}
		return rows[i].Current && !rows[j].Current
	})
	return Cell{Rows: rows}
}

func formatSupportResistance(n *node, price float64, e Entry) Cell {
	return formatLevels(n, price, e)
}

// formatPivotStandard renders the standard pivot table. P/PP labels only
// ever match the pivot view.
func formatPivotStandard(n *node, price float64, e Entry) Cell {
	return formatLevels(n, price, e)
}
