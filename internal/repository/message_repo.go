package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hireveno/hireveno-back/internal/models"
)

const messageColumns = `id, session_id, sender_id, message, replied_to, is_flagged, is_flagged_content,
	flagged_content_reason, created_at`

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row rowScanner) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := row.Scan(
		&message.ID,
		&message.SessionID,
		&message.SenderID,
		&message.Message,
		&message.RepliedTo,
		&message.IsFlagged,
		&message.IsFlaggedContent,
		&message.FlaggedContentReason,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) Create(
	ctx context.Context,
	sessionID uuid.UUID,
	senderID uuid.UUID,
	text string,
	repliedTo *uuid.UUID,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (session_id, sender_id, message, replied_to)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, sessionID, senderID, text, repliedTo))
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID uuid.UUID) (*models.ChatMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE id = $1`
	return scanMessage(r.db.QueryRow(ctx, query, messageID))
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// SoftDelete blanks a message owned by senderID. The row is kept for audit.
func (r *MessageRepository) SoftDelete(
	ctx context.Context,
	messageID uuid.UUID,
	senderID uuid.UUID,
) (*models.ChatMessage, error) {
	query := `
		UPDATE chat_messages
		SET message = $3, is_flagged = TRUE, is_flagged_content = TRUE
		WHERE id = $1 AND sender_id = $2
		RETURNING ` + messageColumns
	return scanMessage(r.db.QueryRow(ctx, query, messageID, senderID, models.DeletedMessageText))
}
