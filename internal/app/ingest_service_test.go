package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestIndexesDocument(t *testing.T) {
	docs := &memDocStore{}
	blobs := &stubBlobStore{}
	embedder := &stubEmbedder{configured: true}
	index := newMemIndex()
	svc := NewIngestService(docs, blobs, embedder, index)

	doc, err := svc.Ingest(context.Background(), IngestInput{
		OrgID:       "org-a",
		Filename:    "plan.txt",
		Text:        "Q3 revenue target is $500k",
		Raw:         []byte("Q3 revenue target is $500k"),
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "org-a", doc.OrgID)
	assert.Equal(t, "https://blobs.test/org-a/"+doc.ID+"/plan.txt", doc.BlobURL)

	require.Len(t, docs.docs, 1)
	require.Equal(t, 1, index.count("org-a"))

	stored := index.namespaces["org_org-a"][0]
	assert.Equal(t, doc.ID, stored.id)
	assert.Equal(t, "org-a", stored.meta.OrgID)
	assert.Equal(t, "plan.txt", stored.meta.Filename)
	assert.Equal(t, "Q3 revenue target is $500k", stored.meta.Snippet)
}

func TestIngestSnippetBounded(t *testing.T) {
	embedder := &stubEmbedder{configured: true}
	index := newMemIndex()
	svc := NewIngestService(&memDocStore{}, nil, embedder, index)

	long := strings.Repeat("é", SnippetLimit+500)
	_, err := svc.Ingest(context.Background(), IngestInput{
		OrgID:    "org-a",
		Filename: "long.txt",
		Text:     long,
	})
	require.NoError(t, err)

	stored := index.namespaces["org_org-a"][0]
	assert.Len(t, []rune(stored.meta.Snippet), SnippetLimit)
	assert.Equal(t, string([]rune(long)[:SnippetLimit]), stored.meta.Snippet)
}

func TestIngestWithoutEmbedderStillCreatesRecord(t *testing.T) {
	docs := &memDocStore{}
	embedder := &stubEmbedder{configured: false}
	index := newMemIndex()
	svc := NewIngestService(docs, nil, embedder, index)

	doc, err := svc.Ingest(context.Background(), IngestInput{
		OrgID:    "org-a",
		Filename: "plan.txt",
		Text:     "content",
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, docs.docs, 1, "upload survives a missing embedding provider")
	assert.Zero(t, index.count("org-a"), "nothing indexed without embeddings")
}

func TestIngestEmbeddingFailureStillCreatesRecord(t *testing.T) {
	docs := &memDocStore{}
	embedder := &stubEmbedder{configured: true, err: errBoom}
	svc := NewIngestService(docs, nil, embedder, newMemIndex())

	doc, err := svc.Ingest(context.Background(), IngestInput{
		OrgID:    "org-a",
		Filename: "plan.txt",
		Text:     "content",
	})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Len(t, docs.docs, 1)
}

func TestIngestBlobFailureAborts(t *testing.T) {
	docs := &memDocStore{}
	blobs := &stubBlobStore{err: errBoom}
	svc := NewIngestService(docs, blobs, &stubEmbedder{configured: true}, newMemIndex())

	_, err := svc.Ingest(context.Background(), IngestInput{
		OrgID:    "org-a",
		Filename: "plan.txt",
		Text:     "content",
		Raw:      []byte("content"),
	})
	require.Error(t, err)
	assert.Empty(t, docs.docs, "no record when the raw upload fails")
}

func TestIngestValidation(t *testing.T) {
	svc := NewIngestService(&memDocStore{}, nil, &stubEmbedder{configured: true}, newMemIndex())

	_, err := svc.Ingest(context.Background(), IngestInput{Filename: "a.txt"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Ingest(context.Background(), IngestInput{OrgID: "org-a", Filename: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))
	exact := strings.Repeat("a", SnippetLimit)
	assert.Equal(t, exact, Snippet(exact))
}
