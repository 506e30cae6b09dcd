package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks kbqa/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStore defines the interface for conversation history.
type MessageStore interface {
	// Append stores a message. ID and CreatedAt are filled in when empty.
	Append(ctx context.Context, msg *MessageRecord) error
	// Recent returns up to limit latest messages of a conversation, oldest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error)
}

// MessageRepo provides methods for message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db, now: time.Now}
}

// Append stores a message.
func (r *MessageRepo) Append(ctx context.Context, msg *MessageRecord) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, kb_id, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.KBID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Recent returns the latest messages of a conversation in chronological order.
func (r *MessageRepo) Recent(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, kb_id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var msgs []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.KBID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	// newest first from the query; callers want oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
