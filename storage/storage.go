// Package storage talks to Telnyx Cloud Storage through its S3-compatible API.
//
// Requests are signed with SigV4 using the Telnyx API key as both the access key
// and the secret, against a path-style endpoint.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/telnyx/telnyx-cli/api"
)

// ErrNotFound is returned when a bucket or object does not exist.
var ErrNotFound = errors.New("not found")

// Bucket is a storage bucket.
type Bucket struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Object is an entry in a bucket listing.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// ListResult is one page of a bucket listing.
type ListResult struct {
	Objects   []Object `json:"objects"`
	Truncated bool     `json:"truncated"`
}

// PutOptions configures an upload.
type PutOptions struct {
	ContentType string
	// Public grants anonymous read access to the object.
	Public bool
}

// Client performs bucket and object operations.
type Client struct {
	s3       *s3.Client
	endpoint string
}

type options struct {
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// New creates a Client for the endpoint and key pair in creds.
func New(_ context.Context, creds api.StorageCredentials, opts ...Option) (*Client, error) {
	o := options{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}

	if creds.Endpoint == "" {
		return nil, errors.New("storage endpoint is not set")
	}

	// The config is built by hand so that AWS_* variables and shared config
	// files on the user's machine never change how Telnyx storage is reached.
	cfg := aws.Config{
		Region: creds.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			"",
		)),
		HTTPClient: o.httpClient,
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		so.BaseEndpoint = aws.String(creds.Endpoint)
		so.UsePathStyle = true
		so.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		so.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &Client{s3: client, endpoint: creds.Endpoint}, nil
}

// ObjectURL returns the path-style URL of an object.
func (c *Client) ObjectURL(bucket, key string) string {
	return c.endpoint + "/" + bucket + "/" + key
}

// ListBuckets returns every bucket owned by the account.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	out, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, wrapError("list buckets", err)
	}

	buckets := make([]Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		buckets = append(buckets, Bucket{
			Name:      aws.ToString(b.Name),
			CreatedAt: aws.ToTime(b.CreationDate),
		})
	}
	return buckets, nil
}

// CreateBucket creates a bucket.
func (c *Client) CreateBucket(ctx context.Context, name string) error {
	if _, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)}); err != nil {
		return wrapError("create bucket", err)
	}
	return nil
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, name string) error {
	if _, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(name)}); err != nil {
		return wrapError("delete bucket", err)
	}
	return nil
}

// ListObjects returns up to limit objects under prefix. A limit of 0 uses the server default.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string, limit int32) (*ListResult, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if limit > 0 {
		in.MaxKeys = aws.Int32(limit)
	}

	out, err := c.s3.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, wrapError("list objects", err)
	}

	result := &ListResult{
		Objects:   make([]Object, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
	}
	for _, obj := range out.Contents {
		result.Objects = append(result.Objects, Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         aws.ToString(obj.ETag),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return result, nil
}

// PutObject uploads body to bucket/key. body must be seekable so the payload
// can be signed over plain HTTP endpoints.
func (c *Client) PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, opts PutOptions) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.Public {
		in.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := c.s3.PutObject(ctx, in); err != nil {
		return wrapError("put object", err)
	}
	return nil
}

// GetObject opens bucket/key for reading. The caller must close the reader.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapError("get object", err)
	}
	return out.Body, nil
}

// DeleteObject removes bucket/key.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if _, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return wrapError("delete object", err)
	}
	return nil
}

// wrapError adds the operation name and maps missing-resource codes to ErrNotFound.
func wrapError(op string, err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch apiErr.ErrorCode() {
	case "NoSuchBucket", "NoSuchKey", "NotFound":
		return fmt.Errorf("%s: %w: %s", op, ErrNotFound, describe(apiErr))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func describe(apiErr smithy.APIError) string {
	if msg := apiErr.ErrorMessage(); msg != "" {
		return apiErr.ErrorCode() + ": " + msg
	}
	return apiErr.ErrorCode()
}
