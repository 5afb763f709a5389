package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds settings for an S3-compatible object store endpoint.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
}

// Store uploads raw document bytes to an S3-compatible HTTP endpoint.
// Object keys follow the convention {orgID}/{documentID}/{filename}.
type Store struct {
	cfg        Config
	httpClient *http.Client
}

func NewStore(cfg Config) *Store {
	return &Store{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether a bucket is set up. When false, Put returns a
// placeholder URL instead of failing, so uploads without an object store
// still complete.
func (s *Store) Configured() bool {
	return strings.TrimSpace(s.cfg.Endpoint) != "" && strings.TrimSpace(s.cfg.Bucket) != ""
}

// ObjectKey builds the canonical storage key for a document.
func ObjectKey(orgID, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", orgID, documentID, filename)
}

// Put uploads the object and returns its URL.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if !s.Configured() {
		return "blob://unconfigured/" + key, nil
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build blob request failed: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.cfg.AccessKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AccessKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("blob upload status %d: %s", resp.StatusCode, string(raw))
	}
	return url, nil
}
