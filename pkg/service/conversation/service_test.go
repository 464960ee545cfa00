package conversation_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/conversation"
	"github.com/mywatercloset/api/pkg/domain/user"
	conversationsvc "github.com/mywatercloset/api/pkg/service/conversation"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureForBooking_Idempotent(t *testing.T) {
	ctx := context.Background()
	uow := testutils.NewTestUoW(t)
	svc := conversationsvc.New(uow, testutils.Logger())
	booker := testutils.SeedUser(t, uow, user.RoleUser, false)
	owner := testutils.SeedUser(t, uow, user.RoleProvider, false)
	p := testutils.SeedProperty(t, uow, owner.ID, 10)
	b, err := booking.New(booker.ID, p.ID, booking.Window{
		Start: testutils.Now(), End: testutils.Now().Add(10 * time.Minute),
	}, p.PricePerMinute, "usd")
	require.NoError(t, err)
	require.NoError(t, uow.BookingRepository().Create(ctx, b))

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 4)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := svc.EnsureForBooking(ctx, b.ID, p.ID, booker.ID, owner.ID)
			if assert.NoError(t, err) {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	c, err := svc.GetForBooking(ctx, booker.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, c.Participants, 2)
	roles := map[uuid.UUID]conversation.Role{}
	for _, part := range c.Participants {
		roles[part.UserID] = part.Role
	}
	assert.Equal(t, conversation.RoleUser, roles[booker.ID])
	assert.Equal(t, conversation.RoleProvider, roles[owner.ID])

	_, err = svc.GetForBooking(ctx, uuid.New(), b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

type thread struct {
	ctx    context.Context
	svc    *conversationsvc.Service
	booker *user.User
	owner  *user.User
	b      *booking.Booking
}

func newThread(t *testing.T) *thread {
	t.Helper()
	ctx := context.Background()
	uow := testutils.NewTestUoW(t)
	svc := conversationsvc.New(uow, testutils.Logger())
	booker := testutils.SeedUser(t, uow, user.RoleUser, false)
	owner := testutils.SeedUser(t, uow, user.RoleProvider, false)
	p := testutils.SeedProperty(t, uow, owner.ID, 10)
	b, err := booking.New(booker.ID, p.ID, booking.Window{
		Start: testutils.Now(), End: testutils.Now().Add(10 * time.Minute),
	}, p.PricePerMinute, "usd")
	require.NoError(t, err)
	require.NoError(t, uow.BookingRepository().Create(ctx, b))
	_, err = svc.EnsureForBooking(ctx, b.ID, p.ID, booker.ID, owner.ID)
	require.NoError(t, err)
	return &thread{ctx: ctx, svc: svc, booker: booker, owner: owner, b: b}
}

func TestPostMessage_UpdatesSummary(t *testing.T) {
	th := newThread(t)

	_, err := th.svc.PostMessage(th.ctx, th.booker.ID, th.b.ID, "  Is the door code the same as last time?  ")
	require.NoError(t, err)
	long := strings.Repeat("é", 150)
	last, err := th.svc.PostMessage(th.ctx, th.owner.ID, th.b.ID, long)
	require.NoError(t, err)

	c, err := th.svc.GetForBooking(th.ctx, th.booker.ID, th.b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.MessageCount)
	require.NotNil(t, c.LastMessage)
	assert.Equal(t, th.owner.ID, c.LastMessage.SenderID)
	assert.Equal(t, 100, utf8.RuneCountInString(c.LastMessage.Content))
	assert.WithinDuration(t, last.CreatedAt, c.LastMessage.SentAt, time.Second)

	msgs, err := th.svc.ListMessages(th.ctx, th.owner.ID, th.b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Is the door code the same as last time?", msgs[0].Content)
	assert.Equal(t, th.booker.ID, msgs[0].SenderID)
	assert.Equal(t, long, msgs[1].Content)
}

func TestPostMessage_Rejections(t *testing.T) {
	th := newThread(t)

	_, err := th.svc.PostMessage(th.ctx, uuid.New(), th.b.ID, "hello")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = th.svc.PostMessage(th.ctx, th.booker.ID, th.b.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = th.svc.PostMessage(th.ctx, th.booker.ID, th.b.ID, strings.Repeat("x", conversation.MaxMessageLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = th.svc.PostMessage(th.ctx, th.booker.ID, uuid.New(), "hello")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = th.svc.ListMessages(th.ctx, uuid.New(), th.b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	c, err := th.svc.GetForBooking(th.ctx, th.booker.ID, th.b.ID)
	require.NoError(t, err)
	assert.Zero(t, c.MessageCount)
	assert.Nil(t, c.LastMessage)
}

func TestEditMessage_SenderOnly(t *testing.T) {
	th := newThread(t)
	m, err := th.svc.PostMessage(th.ctx, th.booker.ID, th.b.ID, "Running 5 min late")
	require.NoError(t, err)

	_, err = th.svc.EditMessage(th.ctx, th.owner.ID, th.b.ID, m.ID, "hijacked")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = th.svc.EditMessage(th.ctx, th.booker.ID, th.b.ID, uuid.New(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	edited, err := th.svc.EditMessage(th.ctx, th.booker.ID, th.b.ID, m.ID, "Running 10 min late")
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	msgs, err := th.svc.ListMessages(th.ctx, th.owner.ID, th.b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Running 10 min late", msgs[0].Content)
	assert.True(t, msgs[0].IsEdited)
}
