package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_TransitionTable(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:    true,
		{StatusConfirmed, StatusInProgress}: true,
		{StatusInProgress, StatusCompleted}: true,
		{StatusPending, StatusCancelled}:    true,
		{StatusConfirmed, StatusCancelled}:  true,
		{StatusConfirmed, StatusRefunded}:   true,
		{StatusCompleted, StatusRefunded}:   true,
		{StatusConfirmed, StatusNoShow}:     true,
	}
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := legal[[2]Status{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusRefunded, StatusNoShow} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, Status("archived").Valid())
}

func TestAttribute(t *testing.T) {
	booker, owner, admin := uuid.New(), uuid.New(), uuid.New()
	assert.Equal(t, CancelledByUser, Attribute(booker, booker, owner))
	assert.Equal(t, CancelledByProvider, Attribute(owner, booker, owner))
	assert.Equal(t, CancelledByAdmin, Attribute(admin, booker, owner))
	assert.Equal(t, CancelledByAdmin, Attribute(uuid.Nil, booker, owner))
	// booker who also owns the property is treated as the booker
	assert.Equal(t, CancelledByUser, Attribute(booker, booker, booker))
}

func TestNew(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("prices the window", func(t *testing.T) {
		b, err := New(uuid.New(), uuid.New(), Window{Start: start, End: start.Add(22 * time.Minute)}, 30, "usd")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, int64(22), b.DurationMinutes)
		assert.Equal(t, int64(660), b.GrossAmount)
		assert.Equal(t, int64(99), b.PlatformFee)
		assert.Equal(t, int64(561), b.ProviderPayout)
		assert.Equal(t, int64(1), b.Version)
	})

	t.Run("rejects empty and inverted windows", func(t *testing.T) {
		for _, w := range []Window{
			{Start: start, End: start},
			{Start: start, End: start.Add(-time.Minute)},
			{Start: time.Time{}, End: start},
		} {
			_, err := New(uuid.New(), uuid.New(), w, 30, "usd")
			assert.ErrorIs(t, err, domain.ErrInvalidWindow)
		}
	})
}

func TestBooking_Transition(t *testing.T) {
	now := time.Now().UTC()
	owner := uuid.New()
	newBooking := func(s Status) *Booking {
		return &Booking{ID: uuid.New(), UserID: uuid.New(), PropertyID: uuid.New(), Status: s}
	}

	t.Run("illegal transition leaves booking untouched", func(t *testing.T) {
		b := newBooking(StatusCompleted)
		err := b.Transition(StatusCancelled, Cause{Actor: &Actor{ID: b.UserID}}, owner, now)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
		assert.Equal(t, StatusCompleted, b.Status)
		assert.Nil(t, b.Cancellation)
	})

	t.Run("cancel without actor is rejected", func(t *testing.T) {
		b := newBooking(StatusPending)
		err := b.Transition(StatusCancelled, Cause{}, owner, now)
		assert.ErrorIs(t, err, domain.ErrMissingAttribution)
		assert.Equal(t, StatusPending, b.Status)
	})

	t.Run("booker cancel is attributed to the user", func(t *testing.T) {
		b := newBooking(StatusConfirmed)
		actor := UserActor(b.UserID)
		require.NoError(t, b.Transition(StatusCancelled, Cause{Actor: &actor, Reason: "changed plans"}, owner, now))
		assert.Equal(t, StatusCancelled, b.Status)
		require.NotNil(t, b.Cancellation)
		assert.Equal(t, CancelledByUser, b.Cancellation.CancelledBy)
		assert.Equal(t, "changed plans", b.Cancellation.Reason)
		assert.Equal(t, now, b.Cancellation.CancelledAt)
	})

	t.Run("system refund is attributed to the platform", func(t *testing.T) {
		b := newBooking(StatusCompleted)
		actor := SystemActor
		require.NoError(t, b.Transition(StatusRefunded, Cause{Actor: &actor, RefundAmount: 660}, owner, now))
		assert.Equal(t, CancelledByAdmin, b.Cancellation.CancelledBy)
		assert.Equal(t, ActorSystem, b.Cancellation.ActorKind)
		assert.Equal(t, int64(660), b.Cancellation.RefundAmount)
	})

	t.Run("confirm needs no attribution", func(t *testing.T) {
		b := newBooking(StatusPending)
		require.NoError(t, b.Transition(StatusConfirmed, Cause{}, owner, now))
		assert.Equal(t, StatusConfirmed, b.Status)
		assert.Nil(t, b.Cancellation)
	})
}
