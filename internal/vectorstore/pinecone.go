package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// PineconeConfig holds API settings for a Pinecone-compatible vector index.
type PineconeConfig struct {
	Host   string
	APIKey string
}

// PineconeIndex talks to a Pinecone-compatible HTTP API. When the index is
// unconfigured or unreachable, Upsert becomes a no-op and Query returns no
// matches: chat stays available with empty retrieved context instead of
// failing the whole turn. Degraded calls are logged, never raised.
type PineconeIndex struct {
	cfg        PineconeConfig
	httpClient *http.Client
}

func NewPineconeIndex(cfg PineconeConfig) *PineconeIndex {
	return &PineconeIndex{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether the index backend is configured at all.
func (p *PineconeIndex) Enabled() bool {
	return strings.TrimSpace(p.cfg.Host) != "" && strings.TrimSpace(p.cfg.APIKey) != ""
}

type pineconeVector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// Upsert writes one vector into the organization's namespace.
func (p *PineconeIndex) Upsert(ctx context.Context, orgID, vectorID string, embedding []float32, meta Metadata) error {
	if !p.Enabled() {
		log.Printf("vector index not configured, skipping upsert for org %s", orgID)
		return nil
	}
	reqBody := struct {
		Vectors   []pineconeVector `json:"vectors"`
		Namespace string           `json:"namespace"`
	}{
		Vectors:   []pineconeVector{{ID: vectorID, Values: embedding, Metadata: meta}},
		Namespace: Namespace(orgID),
	}

	if err := p.post(ctx, "/vectors/upsert", reqBody, nil); err != nil {
		log.Printf("vector upsert degraded to no-op for org %s: %v", orgID, err)
	}
	return nil
}

// Query returns at most topK matches from the organization's namespace,
// ordered by descending similarity score.
func (p *PineconeIndex) Query(ctx context.Context, orgID string, embedding []float32, topK int) ([]Match, error) {
	if !p.Enabled() {
		return nil, nil
	}
	reqBody := struct {
		Vector          []float32 `json:"vector"`
		TopK            int       `json:"topK"`
		Namespace       string    `json:"namespace"`
		IncludeMetadata bool      `json:"includeMetadata"`
	}{
		Vector:          embedding,
		TopK:            topK,
		Namespace:       Namespace(orgID),
		IncludeMetadata: true,
	}

	var parsed struct {
		Matches []struct {
			ID       string   `json:"id"`
			Score    float32  `json:"score"`
			Metadata Metadata `json:"metadata"`
		} `json:"matches"`
	}
	if err := p.post(ctx, "/query", reqBody, &parsed); err != nil {
		log.Printf("vector query degraded to empty result for org %s: %v", orgID, err)
		return nil, nil
	}

	matches := make([]Match, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		matches = append(matches, Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (p *PineconeIndex) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal index request failed: %w", err)
	}

	url := strings.TrimRight(p.cfg.Host, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build index request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.cfg.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read index response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("index response status %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse index json failed: %w", err)
		}
	}
	return nil
}
