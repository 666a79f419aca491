package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/roomyhq/roomy/internal/domain"
	"github.com/roomyhq/roomy/internal/metrics"
	"github.com/roomyhq/roomy/internal/repository"
)

var (
	ErrSelfMessage  = errors.New("cannot send a message to yourself")
	ErrEmptyContent = errors.New("message content is required")
	ErrUserNotFound = errors.New("user not found")
)

// Notifier pushes real-time events to connected clients. Implementations
// must never block: live delivery is a latency optimization layered on top
// of persistence, not part of it.
type Notifier interface {
	NotifyNewMessage(msg *domain.ChatMessage)
}

type ChatService struct {
	chatRepo repository.ChatMessageRepository
	userRepo repository.UserRepository
	notifier Notifier
}

func NewChatService(chatRepo repository.ChatMessageRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendMessage validates and persists a message, then hands it to the
// notifier. The send succeeds or fails on persistence alone; a missed live
// push is never surfaced to the sender.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID int64, content string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, fmt.Errorf("sender %d: %w", senderID, ErrUserNotFound)
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, fmt.Errorf("receiver %d: %w", receiverID, ErrUserNotFound)
	}

	msg, err := s.chatRepo.Create(ctx, senderID, receiverID, content)
	if err != nil {
		return nil, fmt.Errorf("creating chat message: %w", err)
	}
	metrics.MessagesSent.Inc()

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg)
	}

	return msg, nil
}

// GetConversation returns the full chronological history between a and b.
// The two directional queries are fetched independently, then merged with a
// stable sort on (created_at, id).
func (s *ChatService) GetConversation(ctx context.Context, a, b int64) ([]domain.ChatMessage, error) {
	sent, err := s.chatRepo.ListDirectional(ctx, a, b)
	if err != nil {
		return nil, err
	}
	received, err := s.chatRepo.ListDirectional(ctx, b, a)
	if err != nil {
		return nil, err
	}

	merged := append(sent, received...)
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.Before(merged[j].CreatedAt)
		}
		return merged[i].ID < merged[j].ID
	})

	if merged == nil {
		merged = []domain.ChatMessage{}
	}
	return merged, nil
}

// GetCorrespondents returns every user u has exchanged at least one message
// with, projected to display attributes. Order is unspecified. Ids that no
// longer resolve to a user are dropped.
func (s *ChatService) GetCorrespondents(ctx context.Context, userID int64) ([]domain.ChatUser, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	ids, err := s.chatRepo.Correspondents(ctx, userID)
	if err != nil {
		return nil, err
	}

	chatUsers := make([]domain.ChatUser, 0, len(ids))
	for _, id := range ids {
		other, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}
		chatUsers = append(chatUsers, domain.ChatUser{
			UserID:    other.ID,
			Name:      other.Name,
			AvatarURL: other.AvatarURL,
		})
	}
	return chatUsers, nil
}

// GetRecentConversations returns one summary entry per correspondent, most
// recent exchange first. The correspondent set is derived from the message
// list fetched here, not from a second directory query, so the two views
// agree at the same instant. A correspondent whose account disappears
// between the fetch and the display lookup is skipped, never an error.
func (s *ChatService) GetRecentConversations(ctx context.Context, userID int64) ([]domain.RecentChat, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	all, err := s.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	others := lo.Uniq(lo.Map(all, func(m domain.ChatMessage, _ int) int64 {
		return m.OtherParticipant(userID)
	}))

	recents := make([]domain.RecentChat, 0, len(others))
	for _, otherID := range others {
		other, err := s.userRepo.GetByID(ctx, otherID)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}

		entry := domain.RecentChat{
			UserID:    other.ID,
			Name:      other.Name,
			AvatarURL: other.AvatarURL,
		}
		latest, err := s.chatRepo.LatestBetween(ctx, userID, otherID)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			entry.LastMessage = &latest.Content
			entry.LastMessageTime = &latest.CreatedAt
		}
		recents = append(recents, entry)
	}

	// Most recent first; entries with no timestamp sort last; ties fall back
	// to user id so repeated calls return the same order.
	sort.SliceStable(recents, func(i, j int) bool {
		ti, tj := recents[i].LastMessageTime, recents[j].LastMessageTime
		switch {
		case ti == nil && tj == nil:
			return recents[i].UserID < recents[j].UserID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.After(*tj)
		default:
			return recents[i].UserID < recents[j].UserID
		}
	})

	return recents, nil
}
