package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"kbqa/internal/contextutil"
	"kbqa/internal/retrieval"
)

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// grpcAddress derives the gRPC host and port from the HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
		}

		if len(point.Meta) > 0 {
			qdrantPoint.Payload = qdrant.NewValueMap(point.Meta)
		}

		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a similarity search scoped by req.Filter.
func (s *QdrantStore) Search(ctx context.Context, collection string, req SearchRequest) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	limit := uint64(req.Limit)
	queryReq := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(req.Vector...),
		Limit:          &limit,
		ScoreThreshold: req.MinScore,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(req.Filter),
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "limit", req.Limit, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, result := range scoredPoints {
		pointID := ""
		if result.Id != nil {
			pointID = result.Id.GetUuid()
		}

		results = append(results, SearchResult{
			PointID: pointID,
			Score:   result.Score,
			Meta:    payloadMeta(result.Payload),
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "limit", req.Limit, "results", len(results))
	return results, nil
}

// buildFilter turns a Filter into Qdrant must-conditions. It returns nil when
// nothing constrains the query.
func buildFilter(f Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.KBID != "" {
		must = append(must, qdrant.NewMatch(KeyKBID, f.KBID))
	}
	if len(f.SourceIDs) > 0 {
		must = append(must, qdrant.NewMatchKeywords(KeySourceID, f.SourceIDs...))
	}
	if len(f.IDs) > 0 {
		ids := make([]*qdrant.PointId, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = qdrant.NewID(id)
		}
		must = append(must, qdrant.NewHasID(ids...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// Delete removes points by their IDs.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewID(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// DeleteByFilter removes every point matching filter. An empty filter is
// rejected so a missing scope can never wipe the collection.
func (s *QdrantStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	logger := contextutil.LoggerFromContext(ctx)

	qf := buildFilter(filter)
	if qf == nil || filter.KBID == "" {
		return fmt.Errorf("delete filter must name a knowledge base")
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(qf),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points by filter", "collection", collection, "kb_id", filter.KBID, "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection creates the collection with keyword indexes on the scope
// keys, or checks that an existing collection has the expected vector size.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		info, err := s.client.GetCollectionInfo(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to get collection info: %w", err)
		}
		actual := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if actual == 0 {
			return fmt.Errorf("could not determine vector size of collection %s", collection)
		}
		if int(actual) != vectorSize {
			return &retrieval.DimensionError{Expected: vectorSize, Got: int(actual), Where: "collection " + collection}
		}
		logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	for _, field := range []string{KeyKBID, KeySourceID} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create payload index on %s: %w", field, err)
		}
	}
	return nil
}

// payloadMeta flattens a point payload into plain Go values. Integers come
// back as int64.
func payloadMeta(payload map[string]*qdrant.Value) map[string]any {
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		if v != nil {
			meta[k] = plainValue(v)
		}
	}
	return meta
}

func plainValue(v *qdrant.Value) any {
	switch kind := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		out := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			out = append(out, plainValue(item))
		}
		return out
	case *qdrant.Value_StructValue:
		return payloadMeta(kind.StructValue.GetFields())
	}
	return nil
}
