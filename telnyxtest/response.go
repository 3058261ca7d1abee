package telnyxtest

import (
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"
)

// ErrorEntry is one element of a Telnyx error envelope.
type ErrorEntry struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is the Telnyx error envelope.
type ErrorResponse struct {
	Errors []ErrorEntry `json:"errors"`
}

// WriteError writes a Telnyx-style JSON error response.
func WriteError(w http.ResponseWriter, status int, code, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Errors: []ErrorEntry{{Code: code, Title: title, Detail: detail}},
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// s3Error is the S3 XML error document.
type s3Error struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource,omitempty"`
	RequestID string   `xml:"RequestId"`
}

// writeS3Error writes an S3-style XML error response.
func writeS3Error(w http.ResponseWriter, status int, code, message, resource string) {
	writeXML(w, status, s3Error{
		Code:      code,
		Message:   message,
		Resource:  resource,
		RequestID: "telnyxtest",
	})
}

func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode xml response", "error", err)
	}
}
