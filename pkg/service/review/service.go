// Package review lets bookers rate a completed visit.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mywatercloset/api/pkg/domain"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/review"
	"github.com/mywatercloset/api/pkg/repository"
	bookingsvc "github.com/mywatercloset/api/pkg/service/booking"
)

type Service struct {
	uow      repository.UnitOfWork
	bookings *bookingsvc.Service
	logger   *slog.Logger
}

func New(uow repository.UnitOfWork, bookings *bookingsvc.Service, logger *slog.Logger) *Service {
	return &Service{uow: uow, bookings: bookings, logger: logger.With("service", "review")}
}

// Create stores the booker's review of a completed booking, updates the
// property rating and marks the booking as reviewed. A booking can be
// reviewed once.
func (s *Service) Create(
	ctx context.Context,
	userID, bookingID uuid.UUID,
	rating int,
	comment string,
) (*review.Review, error) {
	const op = "review.Service.Create"

	var created *review.Review
	err := s.uow.Do(ctx, func(u repository.UnitOfWork) error {
		b, err := u.BookingRepository().Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID || b.Status != booking.StatusCompleted {
			return domain.ErrReviewNotAllowed
		}
		if b.HasBeenReviewed {
			return domain.ErrAlreadyExists
		}
		r, err := review.New(b.ID, b.PropertyID, userID, rating, comment)
		if err != nil {
			return err
		}
		if err := u.ReviewRepository().Create(ctx, r); err != nil {
			return err
		}
		p, err := u.PropertyRepository().Get(ctx, b.PropertyID)
		if err != nil {
			return err
		}
		if err := u.PropertyRepository().UpdateStats(ctx, p.ID, p.Stats.WithReview(rating)); err != nil {
			return err
		}
		if err := s.bookings.MarkReviewed(ctx, u, b.ID); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info("⭐ Review created", "bookingID", bookingID, "rating", rating)
	return created, nil
}

// ListByProperty returns the newest reviews of a property.
func (s *Service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]*review.Review, error) {
	return s.uow.ReviewRepository().ListByProperty(ctx, propertyID, 50)
}
