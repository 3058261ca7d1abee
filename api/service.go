package api

import (
	"context"
	"net/http"
)

// Service binds a fixed base URL to the HTTP verbs.
type Service struct {
	client  *Client
	baseURL string
}

// V2 returns the general API (https://api.telnyx.com/v2).
func (c *Client) V2() *Service {
	return &Service{client: c, baseURL: c.endpoints.APIURL}
}

// TenDLC returns the 10DLC API (https://api.telnyx.com/10dlc).
func (c *Client) TenDLC() *Service {
	return &Service{client: c, baseURL: c.endpoints.TenDLCURL}
}

// BaseURL returns the base URL requests are sent to.
func (s *Service) BaseURL() string {
	return s.baseURL
}

// Get issues a GET request.
func (s *Service) Get(ctx context.Context, path string, opts Options, out any) error {
	return s.client.Do(ctx, s.baseURL, http.MethodGet, path, nil, opts, out)
}

// Post issues a POST request with a JSON body.
func (s *Service) Post(ctx context.Context, path string, body any, opts Options, out any) error {
	return s.client.Do(ctx, s.baseURL, http.MethodPost, path, body, opts, out)
}

// Put issues a PUT request with a JSON body.
func (s *Service) Put(ctx context.Context, path string, body any, opts Options, out any) error {
	return s.client.Do(ctx, s.baseURL, http.MethodPut, path, body, opts, out)
}

// Patch issues a PATCH request with a JSON body.
func (s *Service) Patch(ctx context.Context, path string, body any, opts Options, out any) error {
	return s.client.Do(ctx, s.baseURL, http.MethodPatch, path, body, opts, out)
}

// Delete issues a DELETE request.
func (s *Service) Delete(ctx context.Context, path string, opts Options, out any) error {
	return s.client.Do(ctx, s.baseURL, http.MethodDelete, path, nil, opts, out)
}

// StorageCredentials are the S3 credentials for the object storage endpoint.
// Telnyx accepts the API key as both access key and secret.
type StorageCredentials struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// StorageCredentials resolves the storage endpoint and credentials for a profile.
func (c *Client) StorageCredentials(profile string) (StorageCredentials, error) {
	key, err := c.apiKey(profile)
	if err != nil {
		return StorageCredentials{}, err
	}
	return StorageCredentials{
		Endpoint:        c.endpoints.StorageURL,
		Region:          c.endpoints.StorageRegion,
		AccessKeyID:     key,
		SecretAccessKey: key,
	}, nil
}
