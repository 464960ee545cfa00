package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/notify"
	"github.com/mywatercloset/api/pkg/repository"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
	conversationsvc "github.com/mywatercloset/api/pkg/service/conversation"
	"github.com/mywatercloset/api/pkg/service/dispatch"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []notify.Email
	failOn notify.Kind
	panics notify.Kind
}

func (n *fakeNotifier) Send(_ context.Context, e notify.Email) error {
	if e.Kind == n.panics {
		panic("template exploded")
	}
	if e.Kind == n.failOn {
		return errors.New("smtp down")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, e)
	return nil
}

func (n *fakeNotifier) kinds() map[notify.Kind]string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := map[notify.Kind]string{}
	for _, e := range n.sent {
		out[e.Kind] = e.To.Email
	}
	return out
}

type fixture struct {
	ctx        context.Context
	uow        repository.UnitOfWork
	notifier   *fakeNotifier
	dispatcher *dispatch.Dispatcher
	bookings   *bookingsvc.Service
	booker     *user.User
	owner      *user.User
	admin      *user.User
	property   *property.Property
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), notifier: &fakeNotifier{}}
	f.uow = testutils.NewTestUoW(t)
	bus := testutils.NewRecordingBus()
	f.dispatcher = dispatch.New(f.uow, conversationsvc.New(f.uow, testutils.Logger()),
		f.notifier, "https://app.example", testutils.Logger())
	f.dispatcher.Register(bus)
	f.bookings = bookingsvc.New(f.uow, bus, "usd", testutils.Logger())
	f.booker = testutils.SeedUser(t, f.uow, user.RoleUser, false)
	f.owner = testutils.SeedUser(t, f.uow, user.RoleProvider, true)
	f.admin = testutils.SeedUser(t, f.uow, user.RoleAdmin, false)
	f.property = testutils.SeedProperty(t, f.uow, f.owner.ID, 30)
	return f
}

func (f *fixture) pending(t *testing.T) *booking.Booking {
	t.Helper()
	start := testutils.Now().Add(time.Hour)
	b, err := f.bookings.Create(f.ctx, bookingsvc.CreateRequest{
		BookerID: f.booker.ID, PropertyID: f.property.ID,
		Window: booking.Window{Start: start, End: start.Add(22 * time.Minute)},
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) confirmed(t *testing.T) *booking.Booking {
	t.Helper()
	b, err := f.bookings.Transition(f.ctx, f.pending(t).ID, booking.StatusConfirmed,
		booking.Cause{Actor: &booking.SystemActor})
	require.NoError(t, err)
	return b
}

func TestConfirmed_NotifiesBothAndOpensConversation(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t)

	kinds := f.notifier.kinds()
	assert.Len(t, kinds, 2)
	assert.Equal(t, f.booker.Email, kinds[notify.KindBookingConfirmation])
	assert.Equal(t, f.owner.Email, kinds[notify.KindNewBookingProvider])

	c, err := f.uow.ConversationRepository().GetByBooking(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, c.Participants, 2)
	assert.Zero(t, f.dispatcher.Failures())
}

func TestConfirmed_NotificationFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.notifier.failOn = notify.KindNewBookingProvider
	f.notifier.panics = notify.KindBookingConfirmation

	b := f.confirmed(t)

	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Empty(t, f.notifier.kinds())
	assert.Equal(t, int64(2), f.dispatcher.Failures())

	_, err := f.uow.ConversationRepository().GetByBooking(f.ctx, b.ID)
	assert.NoError(t, err, "conversation still created")
}

func TestCancelled_NotifiesBookerAndOwnerWhenBookerCancels(t *testing.T) {
	f := newFixture(t)
	b := f.pending(t)

	_, err := f.bookings.Cancel(f.ctx, b.ID, f.booker.ID, "plans changed")
	require.NoError(t, err)

	kinds := f.notifier.kinds()
	assert.Len(t, kinds, 2)
	assert.Equal(t, f.booker.Email, kinds[notify.KindBookingCancelled])
	assert.Equal(t, f.owner.Email, kinds[notify.KindBookingCancelledByCustomer])

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	for _, e := range f.notifier.sent {
		if e.Kind == notify.KindBookingCancelled {
			assert.Contains(t, e.HTML, "at your request")
		}
	}
}

func TestCancelled_NotifiesBookerWhenOthersCancel(t *testing.T) {
	cases := []struct {
		name    string
		actor   func(f *fixture) *user.User
		wording string
	}{
		{name: "provider cancels", actor: func(f *fixture) *user.User { return f.owner }, wording: "by the host"},
		{name: "admin cancels", actor: func(f *fixture) *user.User { return f.admin }, wording: "by MyWaterCloset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			b := f.pending(t)

			_, err := f.bookings.Cancel(f.ctx, b.ID, tc.actor(f).ID, "")
			require.NoError(t, err)

			kinds := f.notifier.kinds()
			assert.Len(t, kinds, 1)
			assert.Equal(t, f.booker.Email, kinds[notify.KindBookingCancelled])
			require.Len(t, f.notifier.sent, 1)
			assert.Contains(t, f.notifier.sent[0].HTML, tc.wording)
		})
	}
}

func TestCompleted_SendsReviewRequest(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t)
	_, err := f.bookings.CheckIn(f.ctx, b.ID, f.owner.ID)
	require.NoError(t, err)
	_, err = f.bookings.Complete(f.ctx, b.ID, f.owner.ID)
	require.NoError(t, err)

	kinds := f.notifier.kinds()
	assert.Equal(t, f.booker.Email, kinds[notify.KindReviewRequest])
}

func TestOptedOutRecipientIsSkipped(t *testing.T) {
	f := newFixture(t)
	quiet, err := user.NewUser("quiet@example.com", testutils.TestPassword, "Quiet", "Guest", user.RoleUser)
	require.NoError(t, err)
	quiet.EmailBookings = false
	require.NoError(t, f.uow.UserRepository().Create(f.ctx, quiet))
	f.booker = quiet

	f.confirmed(t)

	kinds := f.notifier.kinds()
	assert.Len(t, kinds, 1)
	assert.Equal(t, f.owner.Email, kinds[notify.KindNewBookingProvider])
	assert.Zero(t, f.dispatcher.Failures())
}

func TestHandle_UnexpectedEvent(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.dispatcher.Handle(f.ctx, events.BookingTransitioned{}))
	assert.Empty(t, f.notifier.kinds())
}

func TestIgnoredStatuses(t *testing.T) {
	f := newFixture(t)
	b := f.confirmed(t)
	before := len(f.notifier.kinds())

	_, err := f.bookings.MarkNoShow(f.ctx, b.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.kinds(), before)
	assert.Zero(t, f.dispatcher.Failures())
}
