package output

import (
	"fmt"
	"strings"
)

// Format selects how records are rendered.
type Format string

// Supported formats.
const (
	Table Format = "table"
	JSON  Format = "json"
	CSV   Format = "csv"
	TSV   Format = "tsv"
	IDs   Format = "ids"
	YAML  Format = "yaml"
)

// SupportedFormats returns the accepted --output values.
func SupportedFormats() []string {
	return []string{string(Table), string(JSON), string(CSV), string(TSV), string(IDs), string(YAML)}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Table, JSON, CSV, TSV, IDs, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, s, strings.Join(SupportedFormats(), ", "))
	}
}

// Resolve applies the selection precedence: an explicit output selector wins,
// then the json flag, then table.
func Resolve(output string, json bool) (Format, error) {
	if output != "" {
		return ParseFormat(output)
	}
	if json {
		return JSON, nil
	}
	return Table, nil
}

// IsStructured reports whether f prints whole documents rather than rows.
func (f Format) IsStructured() bool {
	return f == JSON || f == YAML
}
