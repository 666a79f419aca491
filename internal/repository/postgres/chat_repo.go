package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomyhq/roomy/internal/domain"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, senderID, receiverID int64, content string) (*domain.ChatMessage, error) {
	// Timestamp is assigned by the database, never by the caller. The FK
	// constraints on sender_id/receiver_id make resolve-then-insert atomic
	// against a concurrent user deletion.
	query := `
		INSERT INTO chat_messages (sender_id, receiver_id, content, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at`

	msg := &domain.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	err := r.pool.QueryRow(ctx, query, senderID, receiverID, content).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *ChatRepo) ListDirectional(ctx context.Context, senderID, receiverID int64) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM chat_messages
		WHERE sender_id = $1 AND receiver_id = $2
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM chat_messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *ChatRepo) LatestBetween(ctx context.Context, a, b int64) (*domain.ChatMessage, error) {
	query := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var msg domain.ChatMessage
	err := r.pool.QueryRow(ctx, query, a, b).Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ChatRepo) Correspondents(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT receiver_id FROM chat_messages WHERE sender_id = $1
		UNION
		SELECT sender_id FROM chat_messages WHERE receiver_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ChatRepo) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	// Single statement, so concurrent readers see all of the user's messages
	// or none of them.
	tag, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMessages(rows pgx.Rows) ([]domain.ChatMessage, error) {
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
