package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/telnyx/telnyx-cli/api"
	"github.com/telnyx/telnyx-cli/output"
)

// pageMeta is the pagination block of v2 list responses.
type pageMeta struct {
	PageNumber   int `json:"page_number"`
	PageSize     int `json:"page_size"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// listResult is a decoded list response. Raw keeps the upstream items for
// the json and yaml formats.
type listResult[T any] struct {
	Items []T
	Raw   any
	Meta  *pageMeta
}

// fetchList GETs path and decodes the array under field ("data" for v2,
// "records" for 10DLC).
func fetchList[T any](ctx context.Context, svc *api.Service, path, field string, opts api.Options) (*listResult[T], error) {
	var body json.RawMessage
	if err := svc.Get(ctx, path, opts, &body); err != nil {
		return nil, err
	}
	return decodeList[T](body, field)
}

func decodeList[T any](body []byte, field string) (*listResult[T], error) {
	res := &listResult[T]{}

	if items := gjson.GetBytes(body, field); items.IsArray() {
		if err := json.Unmarshal([]byte(items.Raw), &res.Items); err != nil {
			return nil, fmt.Errorf("parse %s: %w", field, err)
		}
		var raw []any
		if err := json.Unmarshal([]byte(items.Raw), &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", field, err)
		}
		if raw == nil {
			raw = []any{}
		}
		res.Raw = raw
	}

	if meta := gjson.GetBytes(body, "meta"); meta.IsObject() {
		var m pageMeta
		if err := json.Unmarshal([]byte(meta.Raw), &m); err != nil {
			return nil, fmt.Errorf("parse meta: %w", err)
		}
		res.Meta = &m
	}
	return res, nil
}

// decodeData decodes the object under "data" into out and returns it in raw form.
func decodeData(body []byte, out any) (any, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, fmt.Errorf("parse response: missing data")
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return data.Value(), nil
}

// renderList renders items and, in table format, the pagination footer.
func renderList[T any](a *app, res *listResult[T], columns []output.Column, toRecord func(T) output.Record) error {
	records := make([]output.Record, 0, len(res.Items))
	for _, item := range res.Items {
		records = append(records, toRecord(item))
	}

	if err := a.render(records, columns, res.Raw); err != nil {
		return err
	}

	if a.tableOnly() && res.Meta != nil && len(records) > 0 {
		a.linef("")
		a.linef("Page %d of %d (%d total)", res.Meta.PageNumber, res.Meta.TotalPages, res.Meta.TotalResults)
	}
	return nil
}

// pageQuery builds the page[size]/page[number] query shared by v2 list endpoints.
func pageQuery(limit, page int) url.Values {
	q := url.Values{}
	q.Set("page[size]", strconv.Itoa(limit))
	q.Set("page[number]", strconv.Itoa(page))
	return q
}

// withQuery appends q to path.
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// pathSegment escapes s for use as one path segment. "+" is escaped too so
// E.164 numbers survive servers that decode it as a space.
func pathSegment(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "+", "%2B")
}

// formatTime renders an RFC 3339 timestamp in local time.
func formatTime(s string) string {
	if s == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// check renders a boolean as a mark.
func check(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}

// shortID truncates long identifiers for table columns.
func shortID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n] + "..."
}
