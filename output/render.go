package output

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"
)

// Options controls a single Render call.
type Options struct {
	Format Format
	// IDField is the record key printed by the ids format. Defaults to the first column.
	IDField string
	// Raw, when set, is printed as-is by the json and yaml formats instead of
	// the records, so scripts see the full upstream document.
	Raw any
}

// Render writes records in the selected format.
func Render(w io.Writer, records []Record, columns []Column, opts Options) error {
	format := opts.Format
	if format == "" {
		format = Table
	}

	if opts.Raw != nil {
		switch format {
		case JSON:
			return writeJSON(w, opts.Raw)
		case YAML:
			return writeYAML(w, opts.Raw)
		}
	}

	p, err := NewPrinter(format, opts.IDField)
	if err != nil {
		return err
	}
	return p.Print(w, records, columns)
}

// RenderDetail writes a single record. The table format prints one aligned
// "Header:  value" line per column; the other formats print a one-record set.
func RenderDetail(w io.Writer, record Record, columns []Column, opts Options) error {
	format := opts.Format
	if format == "" {
		format = Table
	}

	switch format {
	case Table:
		return writeDetail(w, record, columns)
	case JSON:
		if opts.Raw != nil {
			return writeJSON(w, opts.Raw)
		}
		return writeJSON(w, record)
	case YAML:
		if opts.Raw != nil {
			return writeYAML(w, opts.Raw)
		}
		return writeYAML(w, record)
	default:
		return Render(w, []Record{record}, columns, Options{Format: format, IDField: opts.IDField})
	}
}

func writeDetail(w io.Writer, record Record, columns []Column) error {
	width := 0
	for _, col := range columns {
		if n := runewidth.StringWidth(col.Header) + 1; n > width {
			width = n
		}
	}
	for _, col := range columns {
		label := runewidth.FillRight(col.Header+":", width)
		if _, err := fmt.Fprintf(w, "%s  %s\n", label, record.Get(col.Key)); err != nil {
			return err
		}
	}
	return nil
}

// Truncate shortens s to at most n display columns, ending in "..." when cut.
func Truncate(s string, n int) string {
	if n <= 0 || runewidth.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return runewidth.Truncate(s, n, "")
	}
	return runewidth.Truncate(s, n, "...")
}

// OrDash returns "-" for an empty value.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
