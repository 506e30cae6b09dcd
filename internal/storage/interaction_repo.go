package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_interaction_store.go -package=mocks kbqa/internal/storage InteractionStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InteractionStore records answered questions.
type InteractionStore interface {
	Record(ctx context.Context, rec *InteractionRecord) error
}

// InteractionRepo implements InteractionStore on SQLite.
type InteractionRepo struct {
	db *sql.DB
}

// NewInteractionRepo creates a new InteractionRepo.
func NewInteractionRepo(db *sql.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

// Record stores an interaction. ID and CreatedAt are filled in when empty.
func (r *InteractionRepo) Record(ctx context.Context, rec *InteractionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interactions (id, kb_id, conversation_id, question, answer_mode, evidence_count,
		 top_similarity, confidence, quality_label, embedding_ms, retrieval_ms, generation_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.KBID, rec.ConversationID, rec.Question, rec.AnswerMode, rec.EvidenceCount,
		rec.TopSimilarity, rec.Confidence, rec.QualityLabel, rec.EmbeddingMS, rec.RetrievalMS, rec.GenerationMS,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// ListByKB returns the latest interactions for a knowledge base, newest first.
func (r *InteractionRepo) ListByKB(ctx context.Context, kbID string, limit int) ([]InteractionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kb_id, conversation_id, question, answer_mode, evidence_count, top_similarity,
		 confidence, quality_label, embedding_ms, retrieval_ms, generation_ms, created_at
		 FROM interactions WHERE kb_id = ? ORDER BY created_at DESC LIMIT ?`,
		kbID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []InteractionRecord
	for rows.Next() {
		var rec InteractionRecord
		if err := rows.Scan(&rec.ID, &rec.KBID, &rec.ConversationID, &rec.Question, &rec.AnswerMode,
			&rec.EvidenceCount, &rec.TopSimilarity, &rec.Confidence, &rec.QualityLabel,
			&rec.EmbeddingMS, &rec.RetrievalMS, &rec.GenerationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
