// Package store implements the Database collaborator contract:
// collections of JSON documents with secondary indices, edge collections
// with _from/_to, a parameterized query surface, ANN cosine search over an
// indexed field, and named search views with declared analyzers.
//
// PostgresStore (documents.go, edges.go, views.go, postgres.go) is the
// concrete document/edge/view backend. QdrantIndex (qdrant.go) is the
// concrete ANN backend. Nothing above this package talks to pgx or Qdrant
// directly; other packages use the interfaces below for documents, edges and
// views, and *QdrantIndex for ANN search.
package store

import (
	"context"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// DocumentFilter narrows a document listing/count by collection membership.
type DocumentFilter struct {
	Collection string
	Tags       []string
	RequireAll bool
	IDs        []string
	Limit      int
	Offset     int
}

// DocumentStore is the document-collection half of the Database contract.
type DocumentStore interface {
	HasCollection(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, collection string, edge bool) error

	Insert(ctx context.Context, doc *models.Document) error
	InsertMany(ctx context.Context, docs []*models.Document) error
	Get(ctx context.Context, collection, key string) (*models.Document, error)
	Has(ctx context.Context, collection, key string) (bool, error)
	Update(ctx context.Context, doc *models.Document) error
	Replace(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, collection, key string) error

	List(ctx context.Context, filter DocumentFilter) ([]*models.Document, error)
	Count(ctx context.Context, collection string) (int64, error)

	// ListForStats returns every document in collection, used by the
	// document_stats audit; callers are expected to page in batches for
	// very large collections (not required at this scale).
	ListForStats(ctx context.Context, collection string) ([]*models.Document, error)
}

// EdgeFilter narrows an edge listing by endpoints/type/activity.
type EdgeFilter struct {
	Collection         string
	From               string
	To                 string
	Type               string
	IncludeInvalidated bool
	AttributeEquals    map[string]interface{}
}

// EdgeStore is the edge-collection half of the Database contract. Collection
// existence/creation is shared with DocumentStore (same registry, kind flag
// distinguishes document vs. edge collections).
type EdgeStore interface {
	InsertEdge(ctx context.Context, e *models.Edge) error
	GetEdge(ctx context.Context, collection, key string) (*models.Edge, error)
	UpdateEdge(ctx context.Context, e *models.Edge) error

	ListEdges(ctx context.Context, filter EdgeFilter) ([]*models.Edge, error)
	ListAllByType(ctx context.Context, collection, questionType string) ([]*models.Edge, error)
}

// ViewStore manages named ArangoSearch-style views.
type ViewStore interface {
	HasView(ctx context.Context, name string) (bool, error)
	CreateView(ctx context.Context, view *models.SearchView) error
	UpdateView(ctx context.Context, view *models.SearchView) error
	GetView(ctx context.Context, name string) (*models.SearchView, error)
}

// VectorIndexRegistry records which (collection, field) pairs have a vector
// index, independent of the physical ANN backend, so ensure_vector_index
// can be idempotent without round-tripping to Qdrant every call.
type VectorIndexRegistry interface {
	HasVectorIndex(ctx context.Context, collection, field string) (bool, error)
	RecordVectorIndex(ctx context.Context, collection, field string, dimension int, metric string) error
}

// Database bundles every collaborator surface this package exposes, mirroring
// a single "Database" collaborator.
type Database interface {
	DocumentStore
	EdgeStore
	ViewStore
	VectorIndexRegistry

	Ping(ctx context.Context) error
	Close() error
}

// Clock abstracts the wall clock behind an interface; RealClock is its
// time.Now implementation.
type Clock interface {
	Now() time.Time
}

// RealClock returns the wall clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }
