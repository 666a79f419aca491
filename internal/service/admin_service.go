package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roomyhq/roomy/internal/repository"
)

// AdminService runs the account cascade-delete workflow. Only the
// message-deletion step carries an atomicity guarantee; the overall
// multi-entity delete is best-effort in order.
type AdminService struct {
	chatRepo repository.ChatMessageRepository
	userRepo repository.UserRepository
	logger   *slog.Logger
}

func NewAdminService(chatRepo repository.ChatMessageRepository, userRepo repository.UserRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		chatRepo: chatRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// DeleteUser removes a user's messages in one atomic step, then the user
// record itself.
func (s *AdminService) DeleteUser(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	removed, err := s.chatRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("deleting chat messages for user %d: %w", userID, err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting user %d: %w", userID, err)
	}

	s.logger.Info("user deleted", "user_id", userID, "messages_removed", removed)
	return nil
}
