package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolara/scolara-api/internal/models"
)

const messageViewColumns = `m.id, m.sender_id, m.recipient_id, m.subject, m.body, m.read_at, m.created_at,
s.full_name AS sender_name, r.full_name AS recipient_name`

const messageViewJoins = `FROM messages m
JOIN users s ON s.id = m.sender_id
JOIN users r ON r.id = m.recipient_id`

// MessageRepository persists internal mailbox messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a new message.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO messages (id, sender_id, recipient_id, subject, body, created_at) VALUES (:id, :sender_id, :recipient_id, :subject, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// Inbox lists the messages received by a user, newest first.
func (r *MessageRepository) Inbox(ctx context.Context, userID string) ([]models.MessageView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.recipient_id = $1 ORDER BY m.created_at DESC", messageViewColumns, messageViewJoins)
	var rows []models.MessageView
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return rows, nil
}

// Sent lists the messages sent by a user, newest first.
func (r *MessageRepository) Sent(ctx context.Context, userID string) ([]models.MessageView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.sender_id = $1 ORDER BY m.created_at DESC", messageViewColumns, messageViewJoins)
	var rows []models.MessageView
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}
	return rows, nil
}

// MarkRead stamps a message as read. Only the recipient may mark it.
func (r *MessageRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read_at = $3 WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL`, id, recipientID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
