package repository

import (
	"context"

	"github.com/roomyhq/roomy/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type ChatMessageRepository interface {
	// Create persists a new message. The store assigns ID and CreatedAt.
	Create(ctx context.Context, senderID, receiverID int64, content string) (*domain.ChatMessage, error)
	// ListDirectional returns messages where sender=senderID AND
	// receiver=receiverID, ordered by created_at then id, ascending.
	ListDirectional(ctx context.Context, senderID, receiverID int64) ([]domain.ChatMessage, error)
	// ListForUser returns messages where userID is sender or receiver,
	// ordered by created_at then id, descending.
	ListForUser(ctx context.Context, userID int64) ([]domain.ChatMessage, error)
	// LatestBetween returns the most recent message exchanged between a and b
	// in either direction, or nil if the pair has no history.
	LatestBetween(ctx context.Context, a, b int64) (*domain.ChatMessage, error)
	// Correspondents returns the distinct user ids userID has exchanged
	// messages with, in either direction. Order is unspecified.
	Correspondents(ctx context.Context, userID int64) ([]int64, error)
	// DeleteAllForUser removes every message where userID is sender or
	// receiver in one atomic statement and reports the count removed.
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
}
