package telnyxtest

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const s3TimeFormat = "2006-01-02T15:04:05.000Z"

// StoredObject is an object held by the fake storage backend.
type StoredObject struct {
	Key          string
	Data         []byte
	ContentType  string
	ACL          string
	ETag         string
	LastModified time.Time
}

type bucket struct {
	created time.Time
	objects map[string]StoredObject
}

// objectStore is an in-memory S3 subset: bucket CRUD and object put, get,
// list and delete.
type objectStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func newObjectStore() *objectStore {
	return &objectStore{
		buckets: make(map[string]*bucket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *objectStore) routes(verifier *SignatureVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(sigV4Middleware(verifier))

	r.Get("/", s.listBuckets)
	r.Put("/{bucket}", s.createBucket)
	r.Delete("/{bucket}", s.deleteBucket)
	r.Get("/{bucket}", s.listObjects)
	r.Put("/{bucket}/*", s.putObject)
	r.Get("/{bucket}/*", s.getObject)
	r.Delete("/{bucket}/*", s.deleteObject)

	return r
}

type xmlBucket struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type listBucketsResult struct {
	XMLName xml.Name    `xml:"ListAllMyBucketsResult"`
	Buckets []xmlBucket `xml:"Buckets>Bucket"`
}

func (s *objectStore) listBuckets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	result := listBucketsResult{Buckets: make([]xmlBucket, 0, len(names))}
	for _, name := range names {
		result.Buckets = append(result.Buckets, xmlBucket{
			Name:         name,
			CreationDate: s.buckets[name].created.Format(s3TimeFormat),
		})
	}
	s.mu.Unlock()

	writeXML(w, http.StatusOK, result)
}

func (s *objectStore) createBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.buckets[name]; exists {
		writeS3Error(w, http.StatusConflict, "BucketAlreadyOwnedByYou", "bucket already exists", "/"+name)
		return
	}
	s.buckets[name] = &bucket{created: s.now(), objects: make(map[string]StoredObject)}
	w.WriteHeader(http.StatusOK)
}

func (s *objectStore) deleteBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", "/"+name)
		return
	}
	if len(b.objects) > 0 {
		writeS3Error(w, http.StatusConflict, "BucketNotEmpty", "The bucket you tried to delete is not empty", "/"+name)
		return
	}
	delete(s.buckets, name)
	w.WriteHeader(http.StatusNoContent)
}

type xmlObject struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type listObjectsResult struct {
	XMLName     xml.Name    `xml:"ListBucketResult"`
	Name        string      `xml:"Name"`
	Prefix      string      `xml:"Prefix"`
	KeyCount    int         `xml:"KeyCount"`
	MaxKeys     int         `xml:"MaxKeys"`
	IsTruncated bool        `xml:"IsTruncated"`
	Contents    []xmlObject `xml:"Contents"`
}

func (s *objectStore) listObjects(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	prefix := r.URL.Query().Get("prefix")

	maxKeys := 1000
	if v := r.URL.Query().Get("max-keys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeS3Error(w, http.StatusBadRequest, "InvalidArgument", "invalid max-keys", "/"+name)
			return
		}
		maxKeys = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", "/"+name)
		return
	}

	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	result := listObjectsResult{Name: name, Prefix: prefix, MaxKeys: maxKeys}
	if len(keys) > maxKeys {
		keys = keys[:maxKeys]
		result.IsTruncated = true
	}
	for _, key := range keys {
		obj := b.objects[key]
		result.Contents = append(result.Contents, xmlObject{
			Key:          obj.Key,
			LastModified: obj.LastModified.Format(s3TimeFormat),
			ETag:         obj.ETag,
			Size:         int64(len(obj.Data)),
			StorageClass: "STANDARD",
		})
	}
	result.KeyCount = len(result.Contents)

	writeXML(w, http.StatusOK, result)
}

func (s *objectStore) putObject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeS3Error(w, http.StatusBadRequest, "IncompleteBody", err.Error(), "/"+name+"/"+key)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", "/"+name)
		return
	}

	sum := md5.Sum(data)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	b.objects[key] = StoredObject{
		Key:          key,
		Data:         data,
		ContentType:  r.Header.Get("Content-Type"),
		ACL:          r.Header.Get("X-Amz-Acl"),
		ETag:         etag,
		LastModified: s.now(),
	}

	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
}

func (s *objectStore) getObject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	obj, status, code := s.lookup(name, key)
	if status != http.StatusOK {
		writeS3Error(w, status, code, "The specified resource does not exist", "/"+name+"/"+key)
		return
	}

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("ETag", obj.ETag)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Last-Modified", obj.LastModified.Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Data)
}

func (s *objectStore) deleteObject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	key := chi.URLParam(r, "*")

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist", "/"+name)
		return
	}
	delete(b.objects, key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *objectStore) lookup(name, key string) (StoredObject, int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return StoredObject{}, http.StatusNotFound, "NoSuchBucket"
	}
	obj, ok := b.objects[key]
	if !ok {
		return StoredObject{}, http.StatusNotFound, "NoSuchKey"
	}
	return obj, http.StatusOK, ""
}

func (s *objectStore) addBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[name]; !ok {
		s.buckets[name] = &bucket{created: s.now(), objects: make(map[string]StoredObject)}
	}
}

func (s *objectStore) object(name, key string) (StoredObject, bool) {
	obj, status, _ := s.lookup(name, key)
	return obj, status == http.StatusOK
}
