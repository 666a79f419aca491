package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_DeleteUser_CascadesMessages(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.chat, f.users, slog.Default())

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")

	_, err := f.svc.SendMessage(ctx, alice, bob, "hi bob")
	req.NoError(err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(ctx, bob, alice, "hi alice")
	req.NoError(err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(ctx, alice, carol, "hi carol")
	req.NoError(err)

	req.NoError(admin.DeleteUser(ctx, bob))

	// All of bob's history is gone in one step.
	conv, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.Empty(conv)

	// And bob no longer appears in alice's views.
	recents, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Len(recents, 1)
	req.Equal(carol, recents[0].UserID)

	correspondents, err := f.svc.GetCorrespondents(ctx, alice)
	req.NoError(err)
	req.Len(correspondents, 1)
	req.Equal(carol, correspondents[0].UserID)
}

func Test_DeleteUser_Unknown(t *testing.T) {
	f := newChatFixture(t)
	admin := NewAdminService(f.chat, f.users, slog.Default())

	err := admin.DeleteUser(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
