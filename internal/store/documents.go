package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// HasCollection reports whether collection has been registered.
func (s *PostgresStore) HasCollection(ctx context.Context, collection string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM engine_collections WHERE name = $1)`, collection,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", collection, err)
	}
	return exists, nil
}

// CreateCollection registers a document or edge collection, a no-op if it
// already exists.
func (s *PostgresStore) CreateCollection(ctx context.Context, collection string, edge bool) error {
	kind := "document"
	if edge {
		kind = "edge"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO engine_collections (name, kind) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`, collection, kind)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	return nil
}

// Insert stores a new document, assigning Key if unset.
func (s *PostgresStore) Insert(ctx context.Context, doc *models.Document) error {
	if doc.Key == "" {
		doc.Key = uuid.New().String()
	}
	if doc.ID == "" {
		doc.ID = doc.Collection + "/" + doc.Key
	}
	attrs, err := attributesJSON(doc.Attributes)
	if err != nil {
		return err
	}

	var embModel *string
	var embDims *int
	if doc.EmbeddingMetadata != nil {
		embModel = &doc.EmbeddingMetadata.Model
		embDims = &doc.EmbeddingMetadata.Dimensions
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO engine_documents
			(collection, id, key, type, text, tags, embedding, embedding_model, embedding_dimensions, embedding_created_at, attributes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,
			CASE WHEN $10::timestamptz IS NULL THEN NULL ELSE $10 END, $11)
		ON CONFLICT (collection, key) DO UPDATE SET
			type = EXCLUDED.type, text = EXCLUDED.text, tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding, embedding_model = EXCLUDED.embedding_model,
			embedding_dimensions = EXCLUDED.embedding_dimensions,
			embedding_created_at = EXCLUDED.embedding_created_at,
			attributes = EXCLUDED.attributes`,
		doc.Collection, doc.ID, doc.Key, doc.Type, doc.Text, pgTextArray(doc.Tags),
		pgFloatArray(doc.Embedding), embModel, embDims, embeddingCreatedAt(doc), attrs,
	)
	if err != nil {
		return fmt.Errorf("insert document %s/%s: %w", doc.Collection, doc.Key, err)
	}
	return nil
}

// InsertMany inserts a batch of documents; each is inserted individually
// inside one transaction.
func (s *PostgresStore) InsertMany(ctx context.Context, docs []*models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, doc := range docs {
		if doc.Key == "" {
			doc.Key = uuid.New().String()
		}
		if doc.ID == "" {
			doc.ID = doc.Collection + "/" + doc.Key
		}
		attrs, err := attributesJSON(doc.Attributes)
		if err != nil {
			return err
		}
		var embModel *string
		var embDims *int
		if doc.EmbeddingMetadata != nil {
			embModel = &doc.EmbeddingMetadata.Model
			embDims = &doc.EmbeddingMetadata.Dimensions
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO engine_documents
				(collection, id, key, type, text, tags, embedding, embedding_model, embedding_dimensions, embedding_created_at, attributes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (collection, key) DO NOTHING`,
			doc.Collection, doc.ID, doc.Key, doc.Type, doc.Text, pgTextArray(doc.Tags),
			pgFloatArray(doc.Embedding), embModel, embDims, embeddingCreatedAt(doc), attrs,
		)
		if err != nil {
			return fmt.Errorf("bulk insert document %s: %w", doc.Key, err)
		}
	}
	return tx.Commit(ctx)
}

// Get retrieves a single document by key.
func (s *PostgresStore) Get(ctx context.Context, collection, key string) (*models.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, key, type, text, tags, embedding, embedding_model, embedding_dimensions, embedding_created_at, attributes
		FROM engine_documents WHERE collection = $1 AND key = $2`, collection, key)
	return scanDocument(row, collection)
}

// Has reports whether a document with key exists.
func (s *PostgresStore) Has(ctx context.Context, collection, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM engine_documents WHERE collection = $1 AND key = $2)`,
		collection, key).Scan(&exists)
	return exists, err
}

// Update merges fields into an existing document (full-document semantics
// here since the engine always reads-modifies-writes whole documents).
func (s *PostgresStore) Update(ctx context.Context, doc *models.Document) error {
	return s.Insert(ctx, doc)
}

// Replace overwrites a document entirely.
func (s *PostgresStore) Replace(ctx context.Context, doc *models.Document) error {
	return s.Insert(ctx, doc)
}

// Delete removes a document.
func (s *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM engine_documents WHERE collection = $1 AND key = $2`, collection, key)
	if err != nil {
		return fmt.Errorf("delete document %s/%s: %w", collection, key, err)
	}
	return nil
}

// List returns documents matching filter.
func (s *PostgresStore) List(ctx context.Context, filter DocumentFilter) ([]*models.Document, error) {
	query := `SELECT id, key, type, text, tags, embedding, embedding_model, embedding_dimensions, embedding_created_at, attributes
		FROM engine_documents WHERE collection = $1`
	args := []interface{}{filter.Collection}
	argN := 2

	if len(filter.IDs) > 0 {
		query += fmt.Sprintf(" AND key = ANY($%d)", argN)
		args = append(args, filter.IDs)
		argN++
	}
	if len(filter.Tags) > 0 {
		if filter.RequireAll {
			query += fmt.Sprintf(" AND tags @> $%d", argN)
		} else {
			query += fmt.Sprintf(" AND tags && $%d", argN)
		}
		args = append(args, pgTextArray(filter.Tags))
		argN++
	}
	query += " ORDER BY key"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", filter.Collection, err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows, filter.Collection)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of documents in collection.
func (s *PostgresStore) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM engine_documents WHERE collection = $1`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents in %s: %w", collection, err)
	}
	return n, nil
}

// ListForStats returns every document in collection for the embedding audit pass.
func (s *PostgresStore) ListForStats(ctx context.Context, collection string) ([]*models.Document, error) {
	return s.List(ctx, DocumentFilter{Collection: collection})
}

func attributesJSON(attrs map[string]interface{}) ([]byte, error) {
	if attrs == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}
	return b, nil
}

func embeddingCreatedAt(doc *models.Document) interface{} {
	if doc.EmbeddingMetadata == nil {
		return nil
	}
	return doc.EmbeddingMetadata.CreatedAt
}

func pgTextArray(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func pgFloatArray(fs []float32) []float32 {
	if fs == nil {
		return nil
	}
	return fs
}

// rowScanner abstracts pgx.Row vs pgx.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner, collection string) (*models.Document, error) {
	doc, err := scanDocumentCommon(row, collection)
	if err != nil {
		return nil, fmt.Errorf("get document in %s: %w", collection, err)
	}
	return doc, nil
}

func scanDocumentRows(row rowScanner, collection string) (*models.Document, error) {
	return scanDocumentCommon(row, collection)
}

func scanDocumentCommon(row rowScanner, collection string) (*models.Document, error) {
	var doc models.Document
	var tags []string
	var embedding []float32
	var embModel *string
	var embDims *int
	var embCreated *time.Time
	var attrsRaw []byte

	if err := row.Scan(&doc.ID, &doc.Key, &doc.Type, &doc.Text, &tags, &embedding, &embModel, &embDims, &embCreated, &attrsRaw); err != nil {
		return nil, err
	}
	doc.Collection = collection
	doc.Tags = tags
	doc.Embedding = embedding
	if embModel != nil && embDims != nil {
		meta := &models.EmbeddingMetadata{Model: *embModel, Dimensions: *embDims}
		if embCreated != nil {
			meta.CreatedAt = *embCreated
		}
		doc.EmbeddingMetadata = meta
	}
	if len(attrsRaw) > 0 {
		attrs := make(map[string]interface{})
		if err := json.Unmarshal(attrsRaw, &attrs); err == nil {
			doc.Attributes = attrs
		}
	}
	return &doc, nil
}
