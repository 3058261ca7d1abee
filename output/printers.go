package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// NoResults is printed by the table printer for an empty record set.
const NoResults = "No results found"

// Printer renders a homogeneous record set.
type Printer interface {
	Print(w io.Writer, records []Record, columns []Column) error
}

// NewPrinter returns the printer for format. idField is used by the ids
// printer and defaults to the first column.
func NewPrinter(format Format, idField string) (Printer, error) {
	switch format {
	case Table:
		return tablePrinter{}, nil
	case JSON:
		return jsonPrinter{}, nil
	case YAML:
		return yamlPrinter{}, nil
	case CSV:
		return delimitedPrinter{sep: ",", escape: escapeCSV}, nil
	case TSV:
		return delimitedPrinter{sep: "\t", escape: escapeTSV}, nil
	case IDs:
		return idsPrinter{field: idField}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// tablePrinter pads each column to the widest of its header and values.
type tablePrinter struct{}

func (tablePrinter) Print(w io.Writer, records []Record, columns []Column) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, NoResults)
		return err
	}

	widths := ColumnWidths(records, columns)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}
	if err := writeRow(w, headers, widths); err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			cells[i] = rec.Get(col.Key)
		}
		if err := writeRow(w, cells, widths); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, cells []string, widths []int) error {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	_, err := fmt.Fprintln(w, strings.Join(padded, "  "))
	return err
}

// ColumnWidths returns, per column, the display width of the header or the
// widest value, whichever is larger.
func ColumnWidths(records []Record, columns []Column) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col.Header)
		for _, rec := range records {
			if n := runewidth.StringWidth(rec.Get(col.Key)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

type jsonPrinter struct{}

func (jsonPrinter) Print(w io.Writer, records []Record, _ []Column) error {
	if records == nil {
		records = []Record{}
	}
	return writeJSON(w, records)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

type yamlPrinter struct{}

func (yamlPrinter) Print(w io.Writer, records []Record, _ []Column) error {
	if records == nil {
		records = []Record{}
	}
	return writeYAML(w, records)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// delimitedPrinter writes a header row and one row per record.
// Nothing is written for an empty record set.
type delimitedPrinter struct {
	sep    string
	escape func(string) string
}

func (p delimitedPrinter) Print(w io.Writer, records []Record, columns []Column) error {
	if len(records) == 0 {
		return nil
	}

	cells := make([]string, len(columns))
	for i, col := range columns {
		cells[i] = p.escape(col.Header)
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, p.sep)); err != nil {
		return err
	}

	for _, rec := range records {
		for i, col := range columns {
			cells[i] = p.escape(rec.Get(col.Key))
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, p.sep)); err != nil {
			return err
		}
	}
	return nil
}

// escapeCSV quotes values containing a comma or double quote, doubling
// embedded quotes.
func escapeCSV(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// escapeTSV replaces tabs with spaces; TSV has no escaping mechanism.
func escapeTSV(s string) string {
	return strings.ReplaceAll(s, "\t", " ")
}

// idsPrinter writes one id per line.
type idsPrinter struct {
	field string
}

func (p idsPrinter) Print(w io.Writer, records []Record, columns []Column) error {
	field := p.field
	if field == "" && len(columns) > 0 {
		field = columns[0].Key
	}
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, rec.Get(field)); err != nil {
			return err
		}
	}
	return nil
}
