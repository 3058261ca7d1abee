package telnyxtest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

// authMiddleware rejects requests whose bearer token is not key.
func authMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token != key {
				WriteError(w, http.StatusUnauthorized, "10001", "Authentication failed", "The API key is invalid.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sigV4Middleware rejects S3 requests that do not carry a valid SigV4 signature.
func sigV4Middleware(verifier *SignatureVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r); err != nil {
				code := "AccessDenied"
				if errors.Is(err, ErrSignatureMismatch) {
					code = "SignatureDoesNotMatch"
				}
				if errors.Is(err, ErrUnknownAccessKey) {
					code = "InvalidAccessKeyId"
				}
				writeS3Error(w, http.StatusForbidden, code, err.Error(), r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recordMiddleware captures every request before it reaches the handlers.
func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "10015", "Bad request", err.Error())
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.record(Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		next.ServeHTTP(w, r)
	})
}
