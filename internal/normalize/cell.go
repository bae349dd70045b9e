package normalize

import "strings"

// Row is one rendered line inside a cell. Level keeps the numeric price the
// row was derived from so ordering never depends on the rendered text.
type Row struct {
	Label   string  `json:"label,omitempty"`
	Value   string  `json:"value"`
	Level   float64 `json:"level,omitempty"`
	Current bool    `json:"current,omitempty"`
}

// Text renders the row as a single line.
func (r Row) Text() string {
	if r.Current {
		return currentPriceLabel + " = " + r.Value
	}
	if r.Label == "" {
		return r.Value
	}
	return r.Label + ": " + r.Value
}

// Cell is the rendered value of one indicator for one timeframe: either a
// single text or a list of rows.
type Cell struct {
	Text string `json:"text,omitempty"`
	Rows []Row  `json:"rows,omitempty"`
}

const currentPriceLabel = "Current Price"

func placeholderCell() Cell { return Cell{Text: Placeholder} }

// IsPlaceholder reports whether the cell carries no data.
func (c Cell) IsPlaceholder() bool {
	return len(c.Rows) == 0 && (c.Text == "" || c.Text == Placeholder)
}

// String renders the cell on one line, rows joined with " | ".
func (c Cell) String() string {
	if len(c.Rows) == 0 {
		if c.Text == "" {
			return Placeholder
		}
		return c.Text
	}
	parts := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		parts[i] = r.Text()
	}
	return strings.Join(parts, " | ")
}

func currentPriceRow(price float64) Row {
	return Row{Label: currentPriceLabel, Value: FormatNumber(price), Level: price, Current: true}
}
