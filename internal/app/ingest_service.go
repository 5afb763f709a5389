package app

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"axel-advisor/internal/blob"
	"axel-advisor/internal/model"
	"axel-advisor/internal/vectorstore"
)

// SnippetLimit bounds the text stored as index metadata. Only the first
// SnippetLimit runes are kept for display and context assembly; the full
// text is still used for the embedding.
const SnippetLimit = 2000

type documentStore interface {
	Create(doc *model.Document) error
}

type blobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// IngestService turns an uploaded document into a durable Document record
// plus one vector in the owning organization's namespace.
type IngestService struct {
	docs     documentStore
	blobs    blobStore
	embedder Embedder
	index    vectorstore.Index
}

func NewIngestService(docs documentStore, blobs blobStore, embedder Embedder, index vectorstore.Index) *IngestService {
	return &IngestService{docs: docs, blobs: blobs, embedder: embedder, index: index}
}

// IngestInput describes one uploaded document. Text is the extracted plain
// text; Raw holds the original bytes for the blob store and may be nil.
type IngestInput struct {
	OrgID       string
	Filename    string
	Text        string
	Raw         []byte
	ContentType string
}

// Ingest creates the Document record, uploads the raw bytes, and indexes
// the text in the organization's namespace. The Document record is created
// unconditionally, before indexing: an unusable embedding provider or a
// degraded index must never lose an upload, it only leaves the document
// unsearchable.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	if input.OrgID == "" || strings.TrimSpace(input.Filename) == "" {
		return nil, ErrInvalidInput
	}

	doc := &model.Document{
		ID:         uuid.NewString(),
		OrgID:      input.OrgID,
		Filename:   strings.TrimSpace(input.Filename),
		UploadedAt: time.Now(),
	}

	if s.blobs != nil && len(input.Raw) > 0 {
		contentType := input.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		url, err := s.blobs.Put(ctx, blob.ObjectKey(doc.OrgID, doc.ID, doc.Filename), input.Raw, contentType)
		if err != nil {
			return nil, err
		}
		doc.BlobURL = url
	}

	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	s.indexDocument(ctx, doc, input.Text)
	return doc, nil
}

func (s *IngestService) indexDocument(ctx context.Context, doc *model.Document, text string) {
	if !s.embedder.Configured() {
		log.Printf("embedding provider not configured, document %s stays unsearchable", doc.ID)
		return
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("embed document %s failed, skipping indexing: %v", doc.ID, err)
		return
	}

	meta := vectorstore.Metadata{
		OrgID:    doc.OrgID,
		Filename: doc.Filename,
		Snippet:  Snippet(text),
	}
	if err := s.index.Upsert(ctx, doc.OrgID, doc.ID, embedding, meta); err != nil {
		log.Printf("index document %s failed: %v", doc.ID, err)
	}
}

// Snippet returns the bounded display snippet for the given text.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLimit {
		return text
	}
	return string(runes[:SnippetLimit])
}
