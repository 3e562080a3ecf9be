package store

import (
	"context"
	"fmt"

	qd "github.com/qdrant/go-client/qdrant"

	"github.com/grahama1970/arangodb-sub000/internal/config"
)

// QdrantIndex is the concrete ANN backend for semantic search and
// ensure_vector_index. One Qdrant collection is used per (engine
// collection, field) pair that has vectors.
type QdrantIndex struct {
	client *qd.Client
}

// NewQdrantIndex dials the Qdrant gRPC endpoint described by cfg.
func NewQdrantIndex(cfg *config.QdrantConfig) (*QdrantIndex, error) {
	client, err := qd.NewClient(&qd.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &QdrantIndex{client: client}, nil
}

// Close releases the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// qdrantCollectionName derives a stable Qdrant collection name from an
// engine (collection, field) pair so multiple vector fields on the same
// logical collection don't collide.
func qdrantCollectionName(collection, field string) string {
	return collection + "__" + field
}

// EnsureCollection creates the backing Qdrant collection for (collection,
// field) if it does not already exist, sized to dimension with cosine
// distance, matching ensure_vector_index.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, collection, field string, dimension int) error {
	name := qdrantCollectionName(collection, field)
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check qdrant collection %s: %w", name, err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: name,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     uint64(dimension),
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection %s: %w", name, err)
	}
	return nil
}

// Upsert writes or overwrites a single point's vector and key payload field.
func (q *QdrantIndex) Upsert(ctx context.Context, collection, field, docKey string, vector []float32) error {
	name := qdrantCollectionName(collection, field)
	wait := true
	_, err := q.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points: []*qd.PointStruct{
			{
				Id: &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: docKey}},
				Vectors: &qd.Vectors{
					VectorsOptions: &qd.Vectors_Vector{Vector: &qd.Vector{Data: vector}},
				},
				Payload: map[string]*qd.Value{
					"doc_key": {Kind: &qd.Value_StringValue{StringValue: docKey}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert point into %s: %w", name, err)
	}
	return nil
}

// Delete removes a point by document key.
func (q *QdrantIndex) Delete(ctx context.Context, collection, field, docKey string) error {
	name := qdrantCollectionName(collection, field)
	wait := true
	_, err := q.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: name,
		Wait:           &wait,
		Points: &qd.PointsSelector{
			PointsSelectorOneOf: &qd.PointsSelector_Points{
				Points: &qd.PointsIdsList{
					Ids: []*qd.PointId{{PointIdOptions: &qd.PointId_Uuid{Uuid: docKey}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete point from %s: %w", name, err)
	}
	return nil
}

// Match is one ranked result from a vector search: a document key and its
// cosine similarity score.
type Match struct {
	DocKey string
	Score  float32
}

// Search runs an ANN cosine search over (collection, field) and returns the
// topK nearest document keys, feeding the semantic search stage.
func (q *QdrantIndex) Search(ctx context.Context, collection, field string, queryVector []float32, topK int) ([]Match, error) {
	name := qdrantCollectionName(collection, field)
	limit := uint64(topK)
	resp, err := q.client.Query(ctx, &qd.QueryPoints{
		CollectionName: name,
		Query:          qd.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}

	matches := make([]Match, 0, len(resp))
	for _, point := range resp {
		key := ""
		if v, ok := point.Payload["doc_key"]; ok {
			key = v.GetStringValue()
		}
		matches = append(matches, Match{DocKey: key, Score: point.Score})
	}
	return matches, nil
}
