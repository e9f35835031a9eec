package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository persists embedded security chunks in Postgres with
// pgvector. Chunks are append-only; a corrected source is re-ingested by
// deleting its chunks and inserting the new set.
type ChunkRepository struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewChunkRepository(pool *pgxpool.Pool, dimensions int) *ChunkRepository {
	return &ChunkRepository{pool: pool, dimensions: dimensions}
}

// Insert stores a batch of embedded chunks in a single transaction. All
// chunks are validated up front; one bad chunk rejects the whole batch.
func (r *ChunkRepository) Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for i := range chunks {
		if err := domain.ValidateEmbeddedChunk(&chunks[i], r.dimensions); err != nil {
			return err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range chunks {
		c := &chunks[i]
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO security_chunks
				(id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata, embedding, degraded, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			c.ID,
			c.Content,
			c.Index,
			c.TotalChunks,
			c.TokenCount,
			c.Language,
			c.Category,
			c.Type,
			c.Severity,
			c.Source,
			c.Metadata,
			pgvector.NewVector(c.Embedding),
			c.Degraded,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Search ranks stored chunks by cosine similarity to the query vector,
// applying the filter before ranking. Results come back in descending
// score order; equal scores keep insertion order. A language filter also
// matches chunks tagged "all".
func (r *ChunkRepository) Search(ctx context.Context, queryVector []float32, filter domain.RetrievalFilter, k int) ([]domain.ScoredChunk, error) {
	if len(queryVector) != r.dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			fmt.Sprintf("query vector has %d dimensions, expected %d", len(queryVector), r.dimensions), nil)
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata,
		        1 - (embedding <=> $1) AS score
		 FROM security_chunks
		 WHERE ($2::text = '' OR $2::text = 'all' OR language = $2 OR language = 'all')
		   AND ($3::text = '' OR category = $3)
		 ORDER BY score DESC, position ASC
		 LIMIT $4`,
		pgvector.NewVector(queryVector), filter.Language, filter.Category, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.Content, &sc.Chunk.Index, &sc.Chunk.TotalChunks, &sc.Chunk.TokenCount,
			&sc.Chunk.Language, &sc.Chunk.Category, &sc.Chunk.Type, &sc.Chunk.Severity, &sc.Chunk.Source,
			&sc.Chunk.Metadata, &sc.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

// ListWithCursor pages through stored chunks newest first. Source narrows
// the listing to one document when non-empty.
func (r *ChunkRepository) ListWithCursor(ctx context.Context, source string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.EmbeddedChunk], error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata, degraded, created_at
			 FROM security_chunks
			 WHERE ($1::text = '' OR source = $1) AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			source, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata, degraded, created_at
			 FROM security_chunks
			 WHERE ($1::text = '' OR source = $1)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			source, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanChunkRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore {
		nextCursor = pagination.CreateNextCursor(items, limit,
			func(c domain.EmbeddedChunk) string { return c.ID },
			func(c domain.EmbeddedChunk) time.Time { return c.CreatedAt })
	}

	return &pagination.PageResult[domain.EmbeddedChunk]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

// ListDegraded returns the oldest chunks still carrying fallback vectors,
// for the re-embedding worker to repair.
func (r *ChunkRepository) ListDegraded(ctx context.Context, limit int) ([]domain.EmbeddedChunk, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata, degraded, created_at
		 FROM security_chunks
		 WHERE degraded
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunkRows(rows)
}

// UpdateEmbedding replaces a chunk's vector and clears its degraded flag.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	if len(embedding) != r.dimensions {
		return domain.NewDomainErrorWithCause(domain.ErrCodeDimensionMismatch,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(embedding), r.dimensions), nil)
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE security_chunks SET embedding = $1, degraded = FALSE WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

// DeleteBySource removes all chunks of one document, returning how many
// rows went away. Re-ingesting a source calls this first.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, source string) (int64, error) {
	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM security_chunks WHERE source = $1`,
		source,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

// GetByID fetches a single chunk without its vector.
func (r *ChunkRepository) GetByID(ctx context.Context, id string) (*domain.EmbeddedChunk, error) {
	var c domain.EmbeddedChunk
	err := r.pool.QueryRow(ctx,
		`SELECT id, content, chunk_index, total_chunks, token_count, language, category, practice_type, severity, source, metadata, degraded, created_at
		 FROM security_chunks WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.Content, &c.Index, &c.TotalChunks, &c.TokenCount,
		&c.Language, &c.Category, &c.Type, &c.Severity, &c.Source,
		&c.Metadata, &c.Degraded, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Count returns the total number of stored chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM security_chunks`).Scan(&n)
	return n, err
}

func scanChunkRows(rows pgx.Rows) ([]domain.EmbeddedChunk, error) {
	var results []domain.EmbeddedChunk
	for rows.Next() {
		var c domain.EmbeddedChunk
		if err := rows.Scan(
			&c.ID, &c.Content, &c.Index, &c.TotalChunks, &c.TokenCount,
			&c.Language, &c.Category, &c.Type, &c.Severity, &c.Source,
			&c.Metadata, &c.Degraded, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
