// Package tableview prints dashboard tables to a terminal.
package tableview

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"indicator-dashboard/internal/normalize"
)

// Write renders t as a header line, the indicator grid and, when present,
// the manual levels.
func Write(w io.Writer, t normalize.Table) error {
	if _, err := fmt.Fprintf(w, "%s  price %s  volume %s\n", t.Symbol, t.Price, t.Volume); err != nil {
		return err
	}
	if len(t.Timeframes) == 0 {
		_, err := fmt.Fprintln(w, "no indicator data")
		return err
	}

	grid := tablewriter.NewWriter(w)
	header := []string{"Indicator"}
	for _, tf := range t.Timeframes {
		header = append(header, tf.Label())
	}
	grid.SetHeader(header)
	grid.SetAutoWrapText(false)
	grid.SetAutoFormatHeaders(false)
	grid.SetRowLine(true)
	for _, row := range t.Rows {
		line := make([]string, 0, len(row.Cells)+1)
		line = append(line, row.Label)
		for _, c := range row.Cells {
			line = append(line, cellText(c))
		}
		grid.Append(line)
	}
	grid.Render()

	if len(t.Levels) == 0 {
		return nil
	}
	levels := tablewriter.NewWriter(w)
	levels.SetHeader([]string{"Side", "Entry", "ID"})
	levels.SetAutoFormatHeaders(false)
	levels.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, l := range t.Levels {
		levels.Append([]string{strings.ToUpper(string(l.Side)), normalize.FormatNumber(l.EntryPrice), l.ID})
	}
	levels.Render()
	return nil
}

// cellText puts each row of a multi-row cell on its own line.
func cellText(c normalize.Cell) string {
	if len(c.Rows) == 0 {
		return c.String()
	}
	lines := make([]string, len(c.Rows))
	for i, r := range c.Rows {
		lines[i] = r.Text()
	}
	return strings.Join(lines, "\n")
}
