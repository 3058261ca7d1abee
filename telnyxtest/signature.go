package telnyxtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	sigV4Algorithm  = "AWS4-HMAC-SHA256"
	amzDateFormat   = "20060102T150405Z"
	headerAmzDate   = "X-Amz-Date"
	headerAmzSHA256 = "X-Amz-Content-Sha256"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrMalformedCredential  = errors.New("malformed credential")
	ErrUnknownAccessKey     = errors.New("unknown access key")
	ErrSignatureMismatch    = errors.New("signature does not match")
)

// SignatureVerifier checks SigV4 Authorization headers the way S3 does.
type SignatureVerifier struct {
	Region  string
	Service string
	// AccessKeyLookup returns the secret for an access key.
	AccessKeyLookup func(accessKey string) (string, bool)

	signer *v4.Signer
}

// NewSignatureVerifier creates a verifier for S3 requests in region.
func NewSignatureVerifier(region string, lookup func(string) (string, bool)) *SignatureVerifier {
	return &SignatureVerifier{
		Region:          region,
		Service:         "s3",
		AccessKeyLookup: lookup,
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			o.DisableURIPathEscaping = true
		}),
	}
}

type authHeader struct {
	accessKey     string
	date          string
	region        string
	service       string
	signedHeaders []string
	signature     string
}

// Verify re-signs r with the secret of its access key and compares the result
// against the Authorization header it carried.
func (v *SignatureVerifier) Verify(r *http.Request) error {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return ErrMissingAuthorization
	}

	auth, err := parseAuthHeader(raw)
	if err != nil {
		return err
	}
	if auth.region != v.Region || auth.service != v.Service {
		return fmt.Errorf("%w: scope %s/%s", ErrMalformedCredential, auth.region, auth.service)
	}

	secret, ok := v.AccessKeyLookup(auth.accessKey)
	if !ok {
		return ErrUnknownAccessKey
	}

	signingTime, err := time.Parse(amzDateFormat, r.Header.Get(headerAmzDate))
	if err != nil {
		return fmt.Errorf("%w: invalid %s", ErrMalformedCredential, headerAmzDate)
	}
	if signingTime.Format("20060102") != auth.date {
		return fmt.Errorf("%w: date mismatch", ErrMalformedCredential)
	}

	resigned, err := v.resign(r, auth, secret, signingTime)
	if err != nil {
		return err
	}
	if resigned != raw {
		return ErrSignatureMismatch
	}
	return nil
}

// resign builds a copy of r carrying only the signed headers and signs it.
func (v *SignatureVerifier) resign(r *http.Request, auth authHeader, secret string, signingTime time.Time) (string, error) {
	u, err := url.Parse("http://" + r.Host + r.RequestURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	clone, err := http.NewRequestWithContext(context.Background(), r.Method, u.String(), nil)
	if err != nil {
		return "", err
	}
	clone.Host = r.Host
	clone.ContentLength = r.ContentLength

	for _, name := range auth.signedHeaders {
		switch name {
		case "host", "content-length":
			continue
		}
		for _, value := range r.Header.Values(name) {
			clone.Header.Add(name, value)
		}
	}

	creds := aws.Credentials{AccessKeyID: auth.accessKey, SecretAccessKey: secret}
	payloadHash := r.Header.Get(headerAmzSHA256)
	if err := v.signer.SignHTTP(context.Background(), creds, clone, payloadHash, v.Service, v.Region, signingTime); err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return clone.Header.Get("Authorization"), nil
}

func parseAuthHeader(raw string) (authHeader, error) {
	var auth authHeader

	algorithm, rest, ok := strings.Cut(raw, " ")
	if !ok || algorithm != sigV4Algorithm {
		return auth, fmt.Errorf("%w: unsupported algorithm", ErrMalformedCredential)
	}

	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return auth, fmt.Errorf("%w: %q", ErrMalformedCredential, part)
		}
		switch key {
		case "Credential":
			scope := strings.Split(value, "/")
			if len(scope) != 5 || scope[4] != "aws4_request" {
				return auth, fmt.Errorf("%w: invalid credential scope", ErrMalformedCredential)
			}
			auth.accessKey = scope[0]
			auth.date = scope[1]
			auth.region = scope[2]
			auth.service = scope[3]
		case "SignedHeaders":
			auth.signedHeaders = strings.Split(value, ";")
		case "Signature":
			auth.signature = value
		}
	}

	if auth.accessKey == "" || auth.signature == "" || len(auth.signedHeaders) == 0 {
		return auth, fmt.Errorf("%w: incomplete authorization header", ErrMalformedCredential)
	}
	return auth, nil
}
