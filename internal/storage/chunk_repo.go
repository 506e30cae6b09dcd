package storage

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"kbqa/internal/textutil"
)

const chunkColumns = `c.id, c.kb_id, c.source_id, c.chunk_index, c.content, c.content_hash,
	c.page, c.start_char, c.end_char, c.token_count, s.title, s.source_type`

// ChunkRepo provides methods for chunk text operations.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertIfAbsent inserts chunks in one transaction, skipping any whose
// (kb_id, source_id, content_hash) already exists. It returns the IDs that
// were actually inserted, so a retried batch never duplicates content.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) InsertIfAbsent(ctx context.Context, chunks []ChunkRecord) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, kb_id, source_id, chunk_index, content, content_hash, search_text, page, start_char, end_char, token_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (kb_id, source_id, content_hash) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	var inserted []string
	for _, c := range chunks {
		res, err := stmt.ExecContext(ctx,
			c.ID, c.KBID, c.SourceID, c.ChunkIndex, c.Content, c.ContentHash,
			textutil.Normalize(c.Content), c.Page, c.StartChar, c.EndChar, c.TokenCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted = append(inserted, c.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return inserted, nil
}

// DeleteByIDs removes chunks by ID. Used to roll back rows whose vectors
// could not be written.
func (r *ChunkRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "DELETE FROM chunks WHERE id IN (" + placeholders(len(ids)) + ")"
	if _, err := r.db.ExecContext(ctx, query, stringArgs(ids)...); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// ExistingHashes returns the content hashes stored for a source.
func (r *ChunkRepo) ExistingHashes(ctx context.Context, kbID, sourceID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT content_hash FROM chunks WHERE kb_id = ? AND source_id = ?",
		kbID, sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query content hashes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan content hash: %w", err)
		}
		hashes[h] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return hashes, nil
}

// GetByIDs returns the chunks with the given IDs keyed by ID. Missing IDs are
// absent from the map.
func (r *ChunkRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*ChunkRecord, error) {
	out := make(map[string]*ChunkRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := "SELECT " + chunkColumns + ` FROM chunks c
		JOIN sources s ON s.kb_id = c.kb_id AND s.source_id = c.source_id
		WHERE c.id IN (` + placeholders(len(ids)) + ")"
	chunks, err := r.query(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		out[c.ID] = c
	}
	return out, nil
}

// KeywordCandidates returns up to limit chunks in a knowledge base whose
// normalized content contains any of terms, best lexical match first. Terms
// are matched against text folded the same way as the query, so case and
// width differences outside ASCII still match. sourceIDs, when non-empty,
// restricts the search.
func (r *ChunkRepo) KeywordCandidates(ctx context.Context, kbID string, sourceIDs, terms []string, limit int) ([]*ChunkRecord, error) {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := textutil.Normalize(term); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 || limit <= 0 {
		return nil, nil
	}

	var sb strings.Builder
	args := []any{kbID}
	sb.WriteString("SELECT " + chunkColumns + ` FROM chunks c
		JOIN sources s ON s.kb_id = c.kb_id AND s.source_id = c.source_id
		WHERE c.kb_id = ?`)
	if len(sourceIDs) > 0 {
		sb.WriteString(" AND c.source_id IN (" + placeholders(len(sourceIDs)) + ")")
		args = append(args, stringArgs(sourceIDs)...)
	}
	sb.WriteString(" AND (")
	for i, term := range normalized {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString(`c.search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(term)+"%")
	}
	sb.WriteString(") ORDER BY c.source_id, c.chunk_index")

	matches, err := r.query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}

	// Every match is scored before the cut; the row order only breaks ties.
	scores := make(map[string]float64, len(matches))
	for _, c := range matches {
		scores[c.ID] = textutil.LexicalScore(normalized, c.Content)
	}
	slices.SortStableFunc(matches, func(a, b *ChunkRecord) int {
		return cmp.Compare(scores[b.ID], scores[a.ID])
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *ChunkRepo) query(ctx context.Context, query string, args ...any) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []*ChunkRecord
	for rows.Next() {
		var c ChunkRecord
		var page sql.NullInt64
		if err := rows.Scan(&c.ID, &c.KBID, &c.SourceID, &c.ChunkIndex, &c.Content, &c.ContentHash,
			&page, &c.StartChar, &c.EndChar, &c.TokenCount, &c.SourceTitle, &c.SourceType); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if page.Valid {
			p := int(page.Int64)
			c.Page = &p
		}
		chunks = append(chunks, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
