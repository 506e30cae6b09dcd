package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks kbqa/internal/vectorstore VectorStore

import "context"

// Payload keys written with every chunk point.
const (
	KeyKBID       = "kb_id"
	KeySourceID   = "source_id"
	KeyChunkIndex = "chunk_index"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// Filter scopes a search or delete. Empty fields do not constrain.
type Filter struct {
	KBID      string
	SourceIDs []string
	IDs       []string // restrict to these point IDs
}

// SearchRequest is a nearest-neighbour query.
type SearchRequest struct {
	Vector []float32
	Limit  int
	// MinScore, when non-nil, drops points scoring below it.
	MinScore *float32
	Filter   Filter
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search scoped by the request filter.
	Search(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByFilter removes every point matching the filter.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error
}
