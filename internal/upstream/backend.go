// Package upstream holds the gateway's two collaborator clients: the media
// backend that validates grants and mints presigned URLs, and the object store
// those URLs point at. Neither client retains any state between requests.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// StatusStaleCache is the backend's signal that it answered from a cache entry
// whose presigned URL has already expired. The only recovery is to repeat the
// identical call once.
const StatusStaleCache = 209

// Grant carries the opaque access parameters the caller attached to its request.
// The gateway forwards them to the backend without inspecting them.
type Grant struct {
	Key       string
	Expiry    string
	Signature string
}

// Valid reports whether all grant fields are present.
func (g Grant) Valid() bool {
	return g.Key != "" && g.Expiry != "" && g.Signature != ""
}

// PresignedOperation is the backend's answer to an init or fetch call: a one-shot
// presigned URL plus, for fetches, the stored object's declared content type.
type PresignedOperation struct {
	URL  string `json:"Url"`
	Type string `json:"Type,omitempty"`
}

// Backend calls the media backend over its authenticated JSON contract.
type Backend struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewBackend returns a client for the backend at baseURL, authenticating every
// call with the shared secret.
func NewBackend(baseURL, secret string) *Backend {
	return &Backend{
		baseURL: baseURL,
		secret:  secret,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// InitFileUpload asks the backend to authorize a file upload into guild id and
// returns the presigned PUT operation.
func (b *Backend) InitFileUpload(ctx context.Context, id string, grant Grant) (*PresignedOperation, error) {
	path := fmt.Sprintf("/guild/%s/init?k=%s&ex=%s&s=%s",
		url.PathEscape(id),
		url.QueryEscape(grant.Key), url.QueryEscape(grant.Expiry), url.QueryEscape(grant.Signature))
	return b.get(ctx, path, false)
}

// InitIconUpload authorizes an icon upload under the content hash, declaring the
// sniffed image type so the backend stores it with the right metadata.
func (b *Backend) InitIconUpload(ctx context.Context, id, hash string, grant Grant, imageType string) (*PresignedOperation, error) {
	path := fmt.Sprintf("/icon/%s/%s/init?k=%s&ex=%s&s=%s&type=%s",
		url.PathEscape(id), url.PathEscape(hash),
		url.QueryEscape(grant.Key), url.QueryEscape(grant.Expiry), url.QueryEscape(grant.Signature),
		url.QueryEscape(imageType))
	return b.get(ctx, path, false)
}

// FetchFile resolves a stored file to a presigned GET operation. A stale-cache
// answer is retried once.
func (b *Backend) FetchFile(ctx context.Context, id, filename string) (*PresignedOperation, error) {
	path := fmt.Sprintf("/guild/%s/%s", url.PathEscape(id), url.PathEscape(filename))
	return b.get(ctx, path, true)
}

// FetchIcon resolves a stored icon to a presigned GET operation. A stale-cache
// answer is retried once.
func (b *Backend) FetchIcon(ctx context.Context, id, hash string) (*PresignedOperation, error) {
	path := fmt.Sprintf("/icon/%s/%s", url.PathEscape(id), url.PathEscape(hash))
	return b.get(ctx, path, true)
}

// get performs one authenticated backend call. With retryStale set, a 209 answer
// triggers exactly one repeat of the identical call; whatever the second attempt
// returns is final.
func (b *Backend) get(ctx context.Context, path string, retryStale bool) (*PresignedOperation, error) {
	attempts := 1
	if retryStale {
		attempts = 2
	}

	var (
		status int
		body   []byte
	)
	for i := 0; i < attempts; i++ {
		var err error
		status, body, err = b.do(ctx, path)
		if err != nil {
			return nil, err
		}
		if status != StatusStaleCache {
			break
		}
	}

	if status != http.StatusOK {
		return nil, &Error{Status: status, Body: body}
	}

	var op PresignedOperation
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, fmt.Errorf("decode backend response: %w", err)
	}
	return &op, nil
}

func (b *Backend) do(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Authorization", b.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read backend response: %w", err)
	}
	return resp.StatusCode, body, nil
}
