package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// TextFormatter renders Tabular results as a borderless table and falls
// back to fmt for everything else.
type TextFormatter struct{}

// Write outputs the data as human-readable text.
func (f *TextFormatter) Write(w io.Writer, data any) error {
	t, ok := data.(Tabular)
	if !ok {
		_, err := fmt.Fprintln(w, data)
		return err
	}

	rows := t.Rows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Header())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
	return nil
}
