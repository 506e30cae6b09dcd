package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SourceRepo stores document metadata per knowledge base.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Upsert inserts a source or updates its title and type.
func (r *SourceRepo) Upsert(ctx context.Context, src *SourceRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (kb_id, source_id, title, source_type, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (kb_id, source_id) DO UPDATE SET
		 title = excluded.title, source_type = excluded.source_type, updated_at = CURRENT_TIMESTAMP`,
		src.KBID, src.SourceID, src.Title, src.SourceType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// Delete removes a source and its chunks in one transaction. The chunk
// delete does not rely on the cascade so a connection opened without foreign
// keys cannot leave orphaned rows behind.
func (r *SourceRepo) Delete(ctx context.Context, kbID, sourceID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE kb_id = ? AND source_id = ?", kbID, sourceID); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sources WHERE kb_id = ? AND source_id = ?", kbID, sourceID); err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit source delete: %w", err)
	}
	return nil
}
