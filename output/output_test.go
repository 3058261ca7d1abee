package output_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/telnyx/telnyx-cli/output"
)

var numberColumns = output.Columns(
	"number", "NUMBER",
	"status", "STATUS",
	"tags", "TAGS",
)

func numberRecords() []output.Record {
	return []output.Record{
		output.NewRecord("number", "+12025551234", "status", "active", "tags", "sales"),
		output.NewRecord("number", "+13125550000", "status", "pending"),
	}
}

func render(t *testing.T, format output.Format, records []output.Record, cols []output.Column) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, output.Render(&buf, records, cols, output.Options{Format: format}))
	return buf.String()
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		output string
		json   bool
		want   output.Format
	}{
		{"default", "", false, output.Table},
		{"json flag", "", true, output.JSON},
		{"explicit wins over json flag", "csv", true, output.CSV},
		{"case insensitive", "TSV", false, output.TSV},
		{"ids", "ids", false, output.IDs},
		{"yaml", "yaml", false, output.YAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := output.Resolve(tt.output, tt.json)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := output.Resolve("xml", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, output.ErrUnknownFormat)
}

func TestRecord(t *testing.T) {
	rec := output.NewRecord("b", "2", "a", "1")
	rec.Set("c", "3")
	rec.Set("b", "two")

	assert.Equal(t, []string{"b", "a", "c"}, rec.Keys())
	assert.Equal(t, "two", rec.Get("b"))
	assert.Equal(t, "", rec.Get("missing"))
	assert.Equal(t, 3, rec.Len())

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"two","a":"1","c":"3"}`, string(data))

	var zero output.Record
	zero.Set("x", "y")
	assert.Equal(t, "y", zero.Get("x"))
}

func TestRender_Table(t *testing.T) {
	got := render(t, output.Table, numberRecords(), numberColumns)

	want := "" +
		"NUMBER        STATUS   TAGS \n" +
		"+12025551234  active   sales\n" +
		"+13125550000  pending       \n"
	assert.Equal(t, want, got)
}

func TestRender_TableEmpty(t *testing.T) {
	got := render(t, output.Table, nil, numberColumns)
	assert.Equal(t, "No results found\n", got)
}

func TestRender_JSON(t *testing.T) {
	got := render(t, output.JSON, numberRecords(), numberColumns)

	assert.True(t, strings.HasPrefix(got, "[\n  {\n    \"number\": \"+12025551234\","), got)

	var decoded []map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "pending", decoded[1]["status"])
}

func TestRender_JSONEmpty(t *testing.T) {
	assert.Equal(t, "[]\n", render(t, output.JSON, nil, numberColumns))
	assert.Equal(t, "[]\n", render(t, output.JSON, []output.Record{}, numberColumns))
}

func TestRender_Raw(t *testing.T) {
	raw := []map[string]any{{"phone_number": "+12025551234", "tags": []string{"a", "b"}}}

	var buf bytes.Buffer
	require.NoError(t, output.Render(&buf, numberRecords(), numberColumns, output.Options{Format: output.JSON, Raw: raw}))
	assert.Contains(t, buf.String(), `"phone_number": "+12025551234"`)
	assert.NotContains(t, buf.String(), `"status"`)

	buf.Reset()
	require.NoError(t, output.Render(&buf, numberRecords(), numberColumns, output.Options{Format: output.Table, Raw: raw}))
	assert.Contains(t, buf.String(), "NUMBER", "raw is ignored by row formats")
}

func TestRender_YAML(t *testing.T) {
	records := []output.Record{output.NewRecord("id", "123", "name", "first")}
	got := render(t, output.YAML, records, nil)

	assert.Equal(t, "- id: \"123\"\n  name: first\n", got)

	var decoded []map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, "123", decoded[0]["id"])

	assert.Equal(t, "[]\n", render(t, output.YAML, nil, nil))
}

func TestRender_CSV(t *testing.T) {
	records := []output.Record{
		output.NewRecord("name", "plain", "note", "a,b"),
		output.NewRecord("name", `say "hi"`, "note", ""),
	}
	cols := output.Columns("name", "NAME", "note", "NOTE")

	got := render(t, output.CSV, records, cols)
	want := "NAME,NOTE\n" +
		"plain,\"a,b\"\n" +
		"\"say \"\"hi\"\"\",\n"
	assert.Equal(t, want, got)

	assert.Empty(t, render(t, output.CSV, nil, cols))
}

func TestRender_TSV(t *testing.T) {
	records := []output.Record{output.NewRecord("name", "tab\there", "note", `a,"b"`)}
	cols := output.Columns("name", "NAME", "note", "NOTE")

	got := render(t, output.TSV, records, cols)
	assert.Equal(t, "NAME\tNOTE\ntab here\ta,\"b\"\n", got)

	assert.Empty(t, render(t, output.TSV, nil, cols))
}

func TestRender_IDs(t *testing.T) {
	assert.Equal(t, "+12025551234\n+13125550000\n", render(t, output.IDs, numberRecords(), numberColumns))

	var buf bytes.Buffer
	require.NoError(t, output.Render(&buf, numberRecords(), numberColumns, output.Options{Format: output.IDs, IDField: "status"}))
	assert.Equal(t, "active\npending\n", buf.String())

	assert.Empty(t, render(t, output.IDs, nil, numberColumns))
}

func TestRenderDetail(t *testing.T) {
	rec := output.NewRecord("id", "abc", "phone", "+12025551234")
	cols := output.Columns("id", "ID", "phone", "Phone Number")

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.RenderDetail(&buf, rec, cols, output.Options{}))
		assert.Equal(t, "ID:            abc\nPhone Number:  +12025551234\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.RenderDetail(&buf, rec, cols, output.Options{Format: output.JSON}))
		assert.Equal(t, "{\n  \"id\": \"abc\",\n  \"phone\": \"+12025551234\"\n}\n", buf.String())
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.RenderDetail(&buf, rec, cols, output.Options{Format: output.CSV}))
		assert.Equal(t, "ID,Phone Number\nabc,+12025551234\n", buf.String())
	})

	t.Run("ids", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, output.RenderDetail(&buf, rec, cols, output.Options{Format: output.IDs}))
		assert.Equal(t, "abc\n", buf.String())
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", output.Truncate("short", 10))
	assert.Equal(t, "exactly10!", output.Truncate("exactly10!", 10))
	assert.Equal(t, "this is...", output.Truncate("this is too long", 10))
	assert.Equal(t, "ab", output.Truncate("abcdef", 2))
	assert.Equal(t, "unchanged", output.Truncate("unchanged", 0))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", output.OrDash(""))
	assert.Equal(t, "x", output.OrDash("x"))
}
