package vectorstore

import (
	"context"
	"fmt"
)

// Metadata is the closed set of fields stored alongside a vector. Keeping
// this a struct instead of an open map catches missing-field bugs at
// compile time.
type Metadata struct {
	OrgID    string `json:"org_id"`
	Filename string `json:"filename"`
	Snippet  string `json:"text_snippet"`
}

// Match is one similarity hit returned by a query, highest score first.
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Index is a vector similarity index partitioned by organization. Both
// operations are scoped to the owning organization's namespace; no call can
// observe or affect another organization's vectors.
type Index interface {
	Upsert(ctx context.Context, orgID, vectorID string, embedding []float32, meta Metadata) error
	Query(ctx context.Context, orgID string, embedding []float32, topK int) ([]Match, error)
}

// Namespace derives the index partition key for an organization. It is a
// fixed prefix plus the organization ID and is never built from
// request-supplied data, so identifier confusion cannot cross tenants.
func Namespace(orgID string) string {
	return fmt.Sprintf("org_%s", orgID)
}
