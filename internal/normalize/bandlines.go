package normalize

import (
	"math"
	"sort"
)

var bandLabels = []string{"Upper Band", "Lower Band"}

type bandLine struct {
	y1, y2 float64
	has1   bool
	has2   bool
	top    float64
}

// formatBandLines labels envelope lines by position after sorting them
// descending by max(y1, y2): the first is the upper band, the second the
// lower band. Any further lines stay unlabelled.
func formatBandLines(n *node, _ float64, _ Entry) Cell {
	items, ok := n.list("lines", "bands")
	if !ok {
		return placeholderCell()
	}

	lines := make([]bandLine, 0, len(items))
	for _, item := range items {
		var l bandLine
		if v, ok := item.get("y1").number(); ok && !IsNoData(v) {
			l.y1, l.has1 = v, true
		}
		if v, ok := item.get("y2").number(); ok && !IsNoData(v) {
			l.y2, l.has2 = v, true
		}
		switch {
		case l.has1 && l.has2:
			l.top = math.Max(l.y1, l.y2)
		case l.has1:
			l.top = l.y1
		case l.has2:
			l.top = l.y2
		default:
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return placeholderCell()
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].top > lines[j].top
	})

	rows := make([]Row, len(lines))
	for i, l := range lines {
		r := Row{Value: l.text(), Level: l.top}
		if i < len(bandLabels) {
			r.Label = bandLabels[i]
		}
		rows[i] = r
	}
	return Cell{Rows: rows}
}

func (l bandLine) text() string {
	a, b := Placeholder, Placeholder
	if l.has1 {
		a = FormatNumber(l.y1)
	}
	if l.has2 {
		b = FormatNumber(l.y2)
	}
	return a + " / " + b
}
