package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roomyhq/roomy/internal/domain"
	"github.com/roomyhq/roomy/internal/repository/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []*domain.ChatMessage
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.ChatMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) delivered() []*domain.ChatMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*domain.ChatMessage(nil), n.msgs...)
}

type chatFixture struct {
	users    *memory.UserRepo
	chat     *memory.ChatRepo
	svc      *ChatService
	clock    *fakeClock
	notifier *recordingNotifier
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	f := &chatFixture{
		users:    memory.NewUserRepo(),
		chat:     memory.NewChatRepo(),
		clock:    &fakeClock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	f.chat.SetClock(f.clock.Now)
	f.svc = NewChatService(f.chat, f.users)
	f.svc.SetNotifier(f.notifier)
	return f
}

func (f *chatFixture) newUser(t *testing.T, name string) int64 {
	t.Helper()

	u := &domain.User{
		Email:        fmt.Sprintf("%s@example.com", name),
		Name:         name,
		PasswordHash: "x",
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func Test_SendMessage_PersistsAndDelivers(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	msg, err := f.svc.SendMessage(ctx, alice, bob, "hello bob")
	req.NoError(err)
	req.NotZero(msg.ID)
	req.Equal(alice, msg.SenderID)
	req.Equal(bob, msg.ReceiverID)
	req.Equal("hello bob", msg.Content)
	req.Equal(f.clock.Now(), msg.CreatedAt)

	conv, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.Len(conv, 1)
	req.Equal(*msg, conv[0])

	delivered := f.notifier.delivered()
	req.Len(delivered, 1)
	req.Equal(bob, delivered[0].ReceiverID)
}

func Test_SendMessage_SelfRejected(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")

	_, err := f.svc.SendMessage(ctx, alice, alice, "dear diary")
	req.ErrorIs(err, ErrSelfMessage)

	all, err := f.chat.ListForUser(ctx, alice)
	req.NoError(err)
	req.Empty(all)
	req.Empty(f.notifier.delivered())
}

func Test_SendMessage_EmptyContentRejected(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.SendMessage(ctx, alice, bob, content)
		require.ErrorIs(t, err, ErrEmptyContent)
	}

	all, err := f.chat.ListForUser(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, all)
}

func Test_SendMessage_UnknownUser(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")

	_, err := f.svc.SendMessage(ctx, alice, 999, "anyone there?")
	req.ErrorIs(err, ErrUserNotFound)

	_, err = f.svc.SendMessage(ctx, 999, alice, "hi")
	req.ErrorIs(err, ErrUserNotFound)

	req.Empty(f.notifier.delivered())
}

func Test_GetConversation_ChronologicalOrder(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	_, err := f.svc.SendMessage(ctx, alice, bob, "hi")
	req.NoError(err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(ctx, bob, alice, "yo")
	req.NoError(err)

	conv, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.Len(conv, 2)
	req.Equal("hi", conv[0].Content)
	req.Equal("yo", conv[1].Content)

	for i := 1; i < len(conv); i++ {
		req.False(conv[i].CreatedAt.Before(conv[i-1].CreatedAt))
	}
}

func Test_GetConversation_DirectionSymmetric(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	for i := 0; i < 5; i++ {
		from, to := alice, bob
		if i%2 == 1 {
			from, to = bob, alice
		}
		_, err := f.svc.SendMessage(ctx, from, to, fmt.Sprintf("msg %d", i))
		req.NoError(err)
		f.clock.Advance(time.Second)
	}

	ab, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	ba, err := f.svc.GetConversation(ctx, bob, alice)
	req.NoError(err)
	req.Equal(ab, ba)
}

func Test_GetConversation_EqualTimestampsBrokenByID(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	// Clock never advances: every message shares one timestamp.
	first, err := f.svc.SendMessage(ctx, alice, bob, "first")
	req.NoError(err)
	second, err := f.svc.SendMessage(ctx, bob, alice, "second")
	req.NoError(err)
	third, err := f.svc.SendMessage(ctx, alice, bob, "third")
	req.NoError(err)

	conv, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.Equal([]int64{first.ID, second.ID, third.ID}, []int64{conv[0].ID, conv[1].ID, conv[2].ID})
}

func Test_GetConversation_EmptyPair(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	conv, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.NotNil(conv)
	req.Empty(conv)
}

func Test_GetConversation_ReadIdempotent(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	_, err := f.svc.SendMessage(ctx, alice, bob, "hi")
	req.NoError(err)

	one, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	two, err := f.svc.GetConversation(ctx, alice, bob)
	req.NoError(err)
	req.Equal(one, two)
}

func Test_GetCorrespondents_UnionDeduplicated(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")

	// bob both sends to and receives from alice; carol only receives.
	_, err := f.svc.SendMessage(ctx, alice, bob, "hi bob")
	req.NoError(err)
	_, err = f.svc.SendMessage(ctx, bob, alice, "hi alice")
	req.NoError(err)
	_, err = f.svc.SendMessage(ctx, alice, carol, "hi carol")
	req.NoError(err)

	users, err := f.svc.GetCorrespondents(ctx, alice)
	req.NoError(err)
	req.Len(users, 2)

	ids := map[int64]bool{}
	for _, u := range users {
		ids[u.UserID] = true
	}
	req.True(ids[bob])
	req.True(ids[carol])
}

func Test_GetCorrespondents_UnknownUser(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.GetCorrespondents(context.Background(), 42)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func Test_GetCorrespondents_NoHistory(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	loner := f.newUser(t, "loner")

	users, err := f.svc.GetCorrespondents(context.Background(), loner)
	req.NoError(err)
	req.Empty(users)
}

func Test_GetRecentConversations_MostRecentFirst(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")

	_, err := f.svc.SendMessage(ctx, alice, bob, "morning bob")
	req.NoError(err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.SendMessage(ctx, alice, carol, "morning carol")
	req.NoError(err)

	recents, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Len(recents, 2)
	req.Equal(carol, recents[0].UserID)
	req.Equal(bob, recents[1].UserID)

	req.NotNil(recents[0].LastMessage)
	req.Equal("morning carol", *recents[0].LastMessage)
	req.NotNil(recents[1].LastMessageTime)
	req.True(recents[0].LastMessageTime.After(*recents[1].LastMessageTime))
}

func Test_GetRecentConversations_OneEntryPerCorrespondent(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")

	for i := 0; i < 4; i++ {
		_, err := f.svc.SendMessage(ctx, alice, bob, fmt.Sprintf("ping %d", i))
		req.NoError(err)
		f.clock.Advance(time.Minute)
		_, err = f.svc.SendMessage(ctx, bob, alice, fmt.Sprintf("pong %d", i))
		req.NoError(err)
		f.clock.Advance(time.Minute)
	}

	recents, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Len(recents, 1)
	req.Equal(bob, recents[0].UserID)
	req.Equal("pong 3", *recents[0].LastMessage)
}

func Test_GetRecentConversations_SubsetOfCorrespondents(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	for i := 0; i < 3; i++ {
		other := f.newUser(t, fmt.Sprintf("user%d", i))
		_, err := f.svc.SendMessage(ctx, alice, other, "hi")
		req.NoError(err)
		f.clock.Advance(time.Second)
	}

	correspondents, err := f.svc.GetCorrespondents(ctx, alice)
	req.NoError(err)
	known := map[int64]bool{}
	for _, c := range correspondents {
		known[c.UserID] = true
	}

	recents, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Len(recents, len(correspondents))
	for _, r := range recents {
		req.True(known[r.UserID])
	}
}

func Test_GetRecentConversations_SkipsDeletedCorrespondent(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")

	_, err := f.svc.SendMessage(ctx, alice, bob, "hi bob")
	req.NoError(err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.SendMessage(ctx, alice, carol, "hi carol")
	req.NoError(err)

	// bob's account disappears; his messages are still stored. The entry is
	// skipped silently, never an error.
	req.NoError(f.users.Delete(ctx, bob))

	recents, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Len(recents, 1)
	req.Equal(carol, recents[0].UserID)
}

func Test_GetRecentConversations_NoHistory(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	loner := f.newUser(t, "loner")

	recents, err := f.svc.GetRecentConversations(context.Background(), loner)
	req.NoError(err)
	req.Empty(recents)
}

func Test_GetRecentConversations_DeterministicTieOrder(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	alice := f.newUser(t, "alice")
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")

	// Same frozen timestamp for both conversations: order falls back to
	// correspondent id and must not change between calls.
	_, err := f.svc.SendMessage(ctx, alice, carol, "hi carol")
	req.NoError(err)
	_, err = f.svc.SendMessage(ctx, alice, bob, "hi bob")
	req.NoError(err)

	first, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	second, err := f.svc.GetRecentConversations(ctx, alice)
	req.NoError(err)
	req.Equal(first, second)
	req.Equal(bob, first[0].UserID)
	req.Equal(carol, first[1].UserID)
}
