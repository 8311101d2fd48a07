package icon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Converter delegates format transcoding to the remote convert collaborator.
// Every mismatched fetch pays a full round trip; converted variants are not
// cached here.
type Converter struct {
	baseURL string
	client  *http.Client
}

// NewConverter returns a client for the convert service at baseURL.
func NewConverter(baseURL string) *Converter {
	return &Converter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type convertRequest struct {
	File string `json:"File"`
	To   string `json:"To"`
}

type convertResponse struct {
	File string `json:"File"`
}

// Convert transcodes data to the target format and returns the converted bytes.
func (c *Converter) Convert(ctx context.Context, data []byte, to string) ([]byte, error) {
	payload, err := json.Marshal(convertRequest{
		File: base64.StdEncoding.EncodeToString(data),
		To:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("encode convert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call convert service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read convert response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("convert service returned %d: %s", resp.StatusCode, body)
	}

	var out convertResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode convert response: %w", err)
	}

	converted, err := base64.StdEncoding.DecodeString(out.File)
	if err != nil {
		return nil, fmt.Errorf("decode converted file: %w", err)
	}
	return converted, nil
}
