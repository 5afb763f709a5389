package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"axel-advisor/internal/vectorstore"
)

// DefaultTopK is the number of passages retrieved per query.
const DefaultTopK = 3

// Embedder is the embedding provider adapter used by ingestion and
// retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Configured() bool
}

// RetrievalService embeds a query and fetches the top-k matching snippets
// from the organization's namespace. It never fails a chat turn: every
// provider or index problem degrades to an empty context.
type RetrievalService struct {
	embedder Embedder
	index    vectorstore.Index
	topK     int
}

func NewRetrievalService(embedder Embedder, index vectorstore.Index, topK int) *RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalService{embedder: embedder, index: index, topK: topK}
}

// Retrieve returns snippets relevant to the query, scoped to orgID, ordered
// by descending similarity. Content from another organization's namespace
// can never appear here. With no embedding provider configured, retrieval
// is disabled entirely: searching with a zero vector would rank every
// document equidistant, so an empty context is the honest answer.
func (s *RetrievalService) Retrieve(ctx context.Context, orgID, query string) []string {
	if orgID == "" || strings.TrimSpace(query) == "" {
		return nil
	}
	if !s.embedder.Configured() {
		return nil
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("query embedding failed, retrieving nothing for org %s: %v", orgID, err)
		return nil
	}

	matches, err := s.index.Query(ctx, orgID, embedding, s.topK)
	if err != nil {
		log.Printf("vector query failed, retrieving nothing for org %s: %v", orgID, err)
		return nil
	}

	docs := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.Snippet != "" {
			docs = append(docs, m.Metadata.Snippet)
			continue
		}
		name := m.Metadata.Filename
		if name == "" {
			name = "unknown"
		}
		docs = append(docs, fmt.Sprintf("Content from %s", name))
	}
	return docs
}

// JoinContext assembles retrieved snippets into a single context block with
// a blank-line separator.
func JoinContext(docs []string) string {
	return strings.Join(docs, "\n\n")
}
