package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roomyhq/roomy/internal/domain"
)

// ChatRepo is an in-memory ChatMessageRepository used by tests and as a
// dev fallback when no database is configured. IDs are allocated from a
// monotonic counter and timestamps come from an injectable clock, so
// ordering behaves exactly like the BIGSERIAL-backed store.
type ChatRepo struct {
	mu       sync.RWMutex
	nextID   int64
	messages []domain.ChatMessage
	now      func() time.Time
}

func NewChatRepo() *ChatRepo {
	return &ChatRepo{now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the timestamp source. Tests use it to force equal or
// out-of-order wall-clock instants.
func (r *ChatRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *ChatRepo) Create(ctx context.Context, senderID, receiverID int64, content string) (*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	msg := domain.ChatMessage{
		ID:         r.nextID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  r.now(),
	}
	r.messages = append(r.messages, msg)
	return &msg, nil
}

func (r *ChatRepo) ListDirectional(ctx context.Context, senderID, receiverID int64) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID {
			out = append(out, m)
		}
	}
	sortAscending(out)
	return out, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID int64) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ChatMessage
	for _, m := range r.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *ChatRepo) LatestBetween(ctx context.Context, a, b int64) (*domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.ChatMessage
	for i := range r.messages {
		m := &r.messages[i]
		if !betweenPair(m, a, b) {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) ||
			(m.CreatedAt.Equal(latest.CreatedAt) && m.ID > latest.ID) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *ChatRepo) Correspondents(ctx context.Context, userID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	for _, m := range r.messages {
		var other int64
		switch userID {
		case m.SenderID:
			other = m.ReceiverID
		case m.ReceiverID:
			other = m.SenderID
		default:
			continue
		}
		if _, ok := seen[other]; !ok {
			seen[other] = struct{}{}
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (r *ChatRepo) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Swap under one lock so readers never observe a partial deletion.
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.messages[:0]
	var removed int64
	for _, m := range r.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.messages = kept
	return removed, nil
}

func betweenPair(m *domain.ChatMessage, a, b int64) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func sortAscending(msgs []domain.ChatMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
