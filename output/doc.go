// Package output renders command results as a table, JSON, YAML, CSV, TSV or a
// bare list of ids.
//
// Commands build one Record per result with its values already formatted for
// display, declare the columns to show and hand both to Render:
//
//	records := []output.Record{
//		output.NewRecord("number", "+12025551234", "status", "active"),
//	}
//	cols := output.Columns("number", "NUMBER", "status", "STATUS")
//	err := output.Render(os.Stdout, records, cols, output.Options{Format: output.Table})
//
// The table printer never truncates; use Truncate before building the record.
package output
