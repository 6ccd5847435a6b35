package store

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPBlobStore uploads objects to a bucket-style storage endpoint and
// derives a public URL from the returned object path, matching the
// upload-then-getPublicUrl flow of managed object storage.
type HTTPBlobStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPBlobStore(baseURL, apiKey string) *HTTPBlobStore {
	return &HTTPBlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores the object and returns its publicly resolvable URL.
func (b *HTTPBlobStore) Upload(bucket, name string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", b.baseURL, bucket, name)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob upload failed: status %d: %s", resp.StatusCode, body)
	}

	return b.PublicURL(bucket, name), nil
}

// PublicURL returns the public address of an object in a bucket.
func (b *HTTPBlobStore) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.baseURL, bucket, name)
}
