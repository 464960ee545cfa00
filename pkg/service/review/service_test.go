package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/user"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
	reviewsvc "github.com/mywatercloset/api/pkg/service/review"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReview(t *testing.T) {
	ctx := context.Background()
	uow := testutils.NewTestUoW(t)
	bookings := bookingsvc.New(uow, nil, "usd", testutils.Logger())
	svc := reviewsvc.New(uow, bookings, testutils.Logger())

	booker := testutils.SeedUser(t, uow, user.RoleUser, false)
	owner := testutils.SeedUser(t, uow, user.RoleProvider, false)
	p := testutils.SeedProperty(t, uow, owner.ID, 20)

	start := testutils.Now()
	b, err := bookings.Create(ctx, bookingsvc.CreateRequest{
		BookerID: booker.ID, PropertyID: p.ID,
		Window: booking.Window{Start: start, End: start.Add(5 * time.Minute)},
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, booker.ID, b.ID, 5, "spotless")
	assert.ErrorIs(t, err, domain.ErrReviewNotAllowed, "pending booking")

	_, err = bookings.Transition(ctx, b.ID, booking.StatusConfirmed, booking.Cause{Actor: &booking.SystemActor})
	require.NoError(t, err)
	_, err = bookings.CheckIn(ctx, b.ID, owner.ID)
	require.NoError(t, err)
	_, err = bookings.Complete(ctx, b.ID, owner.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner.ID, b.ID, 5, "")
	assert.ErrorIs(t, err, domain.ErrReviewNotAllowed, "only the booker")

	_, err = svc.Create(ctx, booker.ID, b.ID, 6, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	r, err := svc.Create(ctx, booker.ID, b.ID, 4, "  clean and quiet  ")
	require.NoError(t, err)
	assert.Equal(t, "clean and quiet", r.Comment)

	_, err = svc.Create(ctx, booker.ID, b.ID, 5, "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	stored, err := uow.BookingRepository().Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasBeenReviewed)

	prop, err := uow.PropertyRepository().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prop.Stats.ReviewCount)
	assert.InDelta(t, 4.0, prop.Stats.AverageRating, 0.001)

	list, err := svc.ListByProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
