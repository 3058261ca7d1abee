package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrNoAPIKey is returned before any network call when no API key can be resolved.
var ErrNoAPIKey = errors.New("No API key configured.\n\n" +
	"To fix this, either:\n" +
	"  1. Run: telnyx auth setup\n" +
	"  2. Set environment variable: export TELNYX_API_KEY=KEY_xxx\n\n" +
	"Get your API key from: https://portal.telnyx.com/#/app/api-keys")

// hints maps upstream error codes to remediation advice.
var hints = map[string]string{
	"10001": "Check that your API key is valid and has the required permissions.",
	"10002": "The requested resource was not found. Verify the ID is correct.",
	"10003": "Invalid request parameters. Check your input values.",
	"10004": "Rate limit exceeded. Wait a moment and try again.",
	"10005": `Insufficient funds. Check your account balance with "telnyx billing balance".`,
	"40001": "Invalid phone number format. Use E.164 format (e.g., +12025551234).",
	"40002": "Phone number not found. Check the number is correct.",
	"40300": "Number not available for purchase. Try a different number.",
	"40301": `Number already owned. Check your numbers with "telnyx number list".`,
	"50000": "Internal server error. Try again later or contact support.",
}

// HintFor returns the remediation hint for an upstream error code, if any.
func HintFor(code string) string {
	return hints[code]
}

// errorEntry is a single upstream error object.
type errorEntry struct {
	Code   string         `json:"code"`
	Title  string         `json:"title"`
	Detail string         `json:"detail,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// errorEnvelope covers both the {"errors":[...]} and {"error":{...}} shapes.
type errorEnvelope struct {
	Errors []errorEntry `json:"errors"`
	Error  *errorEntry  `json:"error"`
}

func (e errorEnvelope) first() (errorEntry, bool) {
	if len(e.Errors) > 0 {
		return e.Errors[0], true
	}
	if e.Error != nil {
		return *e.Error, true
	}
	return errorEntry{}, false
}

// APIError is a non-2xx response from the Telnyx API.
type APIError struct {
	Code       string
	Title      string
	Detail     string
	Hint       string
	StatusCode int
}

// newAPIError builds an APIError from the response envelope, or synthesizes
// one from the status line when the body carries no error entry.
func newAPIError(statusCode int, env errorEnvelope) *APIError {
	entry, ok := env.first()
	if !ok || (entry.Code == "" && entry.Title == "") {
		title := http.StatusText(statusCode)
		if title == "" {
			title = "Request failed"
		}
		entry = errorEntry{
			Code:  "HTTP_" + strconv.Itoa(statusCode),
			Title: title,
		}
	}

	return &APIError{
		Code:       entry.Code,
		Title:      entry.Title,
		Detail:     entry.Detail,
		Hint:       HintFor(entry.Code),
		StatusCode: statusCode,
	}
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Title)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Hint != "" {
		b.WriteString("\n\nHint: ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the key lacks permission (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}

	// ErrRateLimited is returned when the account is being throttled (429).
	ErrRateLimited = &APIError{StatusCode: http.StatusTooManyRequests}
)
