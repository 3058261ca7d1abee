// Package telnyxtest provides a fake Telnyx upstream for tests.
//
// A Server answers the general REST API under /v2, the 10DLC API under /10dlc
// and an in-memory S3-compatible storage backend on a second listener. REST
// routes are registered per test; unregistered routes answer with a Telnyx
// not-found error. Every REST request is recorded for later assertions.
package telnyxtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/telnyx/telnyx-cli/config"
)

// DefaultAPIKey is the key accepted by a Server unless WithAPIKey is given.
const DefaultAPIKey = "KEYtelnyxtest0123456789"

// Region is the storage region the fake S3 backend verifies signatures against.
const Region = config.DefaultStorageRegion

// Request is a recorded REST request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a running fake upstream.
type Server struct {
	apiKey string

	router  chi.Router
	rest    *httptest.Server
	storage *httptest.Server
	objects *objectStore

	mu       sync.Mutex
	requests []Request
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey sets the API key the server accepts.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// New starts a Server and registers its shutdown with t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		apiKey:  DefaultAPIKey,
		objects: newObjectStore(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "10002", "Not found", "No route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "10015", "Method not allowed", r.Method+" "+r.URL.Path)
	})
	s.router = r
	// The chain wraps the router rather than being installed with r.Use: chi
	// skips its middleware stack for requests that match no route.
	s.rest = httptest.NewServer(chi.Chain(s.recordMiddleware, authMiddleware(s.apiKey)).Handler(r))

	verifier := NewSignatureVerifier(Region, func(accessKey string) (string, bool) {
		if accessKey != s.apiKey {
			return "", false
		}
		return s.apiKey, true
	})
	s.storage = httptest.NewServer(s.objects.routes(verifier))

	t.Cleanup(func() {
		s.rest.Close()
		s.storage.Close()
	})
	return s
}

// APIKey returns the key the server accepts.
func (s *Server) APIKey() string {
	return s.apiKey
}

// URL returns the root URL of the REST listener.
func (s *Server) URL() string {
	return s.rest.URL
}

// Endpoints returns base URLs pointing at this server.
func (s *Server) Endpoints() config.Endpoints {
	return config.Endpoints{
		APIURL:        s.rest.URL + "/v2",
		TenDLCURL:     s.rest.URL + "/10dlc",
		StorageURL:    s.storage.URL,
		StorageRegion: Region,
	}
}

// Handle registers h for method and pattern, a chi route relative to the
// listener root such as "/v2/phone_numbers/{id}". Routes must be registered
// before the first request is sent.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	s.router.MethodFunc(method, pattern, h)
}

// Reply registers a route that always answers with status and body encoded as JSON.
// A nil body sends an empty response.
func (s *Server) Reply(method, pattern string, status int, body any) {
	s.Handle(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		if body == nil {
			w.WriteHeader(status)
			return
		}
		_ = WriteJSON(w, status, body)
	})
}

// ReplyError registers a route that always answers with a Telnyx error envelope.
func (s *Server) ReplyError(method, pattern string, status int, code, title, detail string) {
	s.Handle(method, pattern, func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, status, code, title, detail)
	})
}

// Requests returns a copy of the recorded REST requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent REST request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// AddBucket creates an empty bucket in the storage backend.
func (s *Server) AddBucket(name string) {
	s.objects.addBucket(name)
}

// Object returns a stored object.
func (s *Server) Object(bucket, key string) (StoredObject, bool) {
	return s.objects.object(bucket, key)
}

// PutObject stores data directly in the storage backend.
func (s *Server) PutObject(bucket, key string, data []byte) {
	s.objects.addBucket(bucket)
	s.objects.mu.Lock()
	defer s.objects.mu.Unlock()
	b := s.objects.buckets[bucket]
	b.objects[key] = StoredObject{
		Key:          key,
		Data:         append([]byte(nil), data...),
		ETag:         `"` + key + `"`,
		LastModified: s.objects.now(),
	}
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}
