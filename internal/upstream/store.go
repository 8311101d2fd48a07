package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Store moves bytes through the presigned URLs the backend mints. Each URL is
// good for exactly one call; the proxy never inspects or rewrites it.
type Store struct {
	client *http.Client
}

// NewStore returns an object-store proxy with a bounded request timeout.
func NewStore() *Store {
	return &Store{client: &http.Client{Timeout: 60 * time.Second}}
}

// Put uploads data with a single PUT against the presigned URL. The request
// carries the exact byte length of the payload as its Content-Length.
func (s *Store) Put(ctx context.Context, presignedURL string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build store request: %w", err)
	}
	req.ContentLength = int64(len(data))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("put to store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &Error{Status: resp.StatusCode, Body: body}
	}
	return nil
}

// Get downloads the object behind the presigned URL and returns its raw bytes.
func (s *Store) Get(ctx context.Context, presignedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, presignedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build store request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get from store: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}
