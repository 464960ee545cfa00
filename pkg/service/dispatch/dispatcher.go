// Package dispatch runs the side effects of committed booking transitions:
// e-mails and conversation setup. Effects are isolated from each other and
// from the transition itself; failures are logged and counted.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/domain/property"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/mywatercloset/api/pkg/notify"
	"github.com/mywatercloset/api/pkg/repository"
	conversationsvc "github.com/mywatercloset/api/pkg/service/conversation"
)

type Dispatcher struct {
	uow           repository.UnitOfWork
	conversations *conversationsvc.Service
	notifier      notify.Notifier
	frontendURL   string
	logger        *slog.Logger
	failures      atomic.Int64
}

func New(
	uow repository.UnitOfWork,
	conversations *conversationsvc.Service,
	notifier notify.Notifier,
	frontendURL string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		uow:           uow,
		conversations: conversations,
		notifier:      notifier,
		frontendURL:   frontendURL,
		logger:        logger.With("handler", "dispatch"),
	}
}

// Register subscribes the dispatcher to booking transitions on bus.
func (d *Dispatcher) Register(bus eventbus.Bus) {
	bus.Register(events.EventTypeBookingTransitioned, d.Handle)
}

// Failures reports how many side effects have failed since start.
func (d *Dispatcher) Failures() int64 {
	return d.failures.Load()
}

// Handle runs the side effects for one transition. It always returns nil.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	evt, ok := e.(*events.BookingTransitioned)
	if !ok {
		d.logger.Error("Unexpected event", "type", e.Type(), "event", fmt.Sprintf("%T", e))
		return nil
	}
	log := d.logger.With("bookingID", evt.BookingID, "to", evt.To)

	switch evt.To {
	case booking.StatusConfirmed, booking.StatusCompleted, booking.StatusCancelled:
	default:
		log.Debug("No side effects for status")
		return nil
	}

	p, err := d.load(ctx, evt)
	if err != nil {
		d.failures.Add(1)
		log.Error("Failed to load side effect context", "error", err)
		return nil
	}

	switch evt.To {
	case booking.StatusConfirmed:
		d.onConfirmed(ctx, p)
	case booking.StatusCompleted:
		d.run(ctx, "review_request", func(ctx context.Context) error {
			return d.send(ctx, notify.KindReviewRequest, p.booker, p)
		})
	case booking.StatusCancelled:
		d.onCancelled(ctx, p)
	}
	return nil
}

// parties is everything the effects of one transition need.
type parties struct {
	event    *events.BookingTransitioned
	booking  *booking.Booking
	property *property.Property
	booker   *user.User
	owner    *user.User
}

func (d *Dispatcher) load(ctx context.Context, evt *events.BookingTransitioned) (*parties, error) {
	b, err := d.uow.BookingRepository().Get(ctx, evt.BookingID)
	if err != nil {
		return nil, err
	}
	p, err := d.uow.PropertyRepository().Get(ctx, evt.PropertyID)
	if err != nil {
		return nil, err
	}
	booker, err := d.uow.UserRepository().Get(ctx, evt.BookerID)
	if err != nil {
		return nil, err
	}
	owner, err := d.uow.UserRepository().Get(ctx, evt.OwnerID)
	if err != nil {
		return nil, err
	}
	return &parties{event: evt, booking: b, property: p, booker: booker, owner: owner}, nil
}

func (d *Dispatcher) onConfirmed(ctx context.Context, p *parties) {
	d.concurrently(ctx,
		effect{"booking_confirmation", func(ctx context.Context) error {
			return d.send(ctx, notify.KindBookingConfirmation, p.booker, p)
		}},
		effect{"new_booking_provider", func(ctx context.Context) error {
			return d.send(ctx, notify.KindNewBookingProvider, p.owner, p)
		}},
	)

	d.run(ctx, "conversation", func(ctx context.Context) error {
		_, err := d.conversations.EnsureForBooking(ctx,
			p.booking.ID, p.property.ID, p.booker.ID, p.owner.ID)
		return err
	})
}

// onCancelled always tells the booker, worded by who cancelled. When the
// booker cancelled, the owner is told as well.
func (d *Dispatcher) onCancelled(ctx context.Context, p *parties) {
	effects := []effect{{"booking_cancelled", func(ctx context.Context) error {
		return d.send(ctx, notify.KindBookingCancelled, p.booker, p)
	}}}
	if p.event.CancelledBy == booking.CancelledByUser {
		effects = append(effects, effect{"booking_cancelled_by_customer", func(ctx context.Context) error {
			return d.send(ctx, notify.KindBookingCancelledByCustomer, p.owner, p)
		}})
	}
	d.concurrently(ctx, effects...)
}

type effect struct {
	name string
	fn   func(context.Context) error
}

// concurrently runs the effects in parallel and returns when all are done.
func (d *Dispatcher) concurrently(ctx context.Context, effects ...effect) {
	var wg sync.WaitGroup
	for _, e := range effects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.run(ctx, e.name, e.fn)
		}()
	}
	wg.Wait()
}

// run executes one effect, turning panics into errors. Failures are logged
// and counted, never returned.
func (d *Dispatcher) run(ctx context.Context, name string, fn func(context.Context) error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			d.failures.Add(1)
			d.logger.Error("Side effect failed", "effect", name, "error", err)
		}
	}()
	err = fn(ctx)
}

func (d *Dispatcher) send(ctx context.Context, kind notify.Kind, to *user.User, p *parties) error {
	if !to.EmailBookings {
		d.logger.Debug("Recipient opted out of booking e-mails", "kind", kind, "userID", to.ID)
		return nil
	}
	email, err := notify.Render(kind, notify.Recipient{Email: to.Email, Name: to.DisplayName()}, d.details(p))
	if err != nil {
		return err
	}
	return d.notifier.Send(ctx, email)
}

func (d *Dispatcher) details(p *parties) notify.BookingDetails {
	b := p.booking
	return notify.BookingDetails{
		BookingID:      b.ID.String(),
		CustomerName:   p.booker.DisplayName(),
		PropertyName:   p.property.Name,
		PropertyAddr:   p.property.Address,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		Duration:       b.DurationMinutes,
		TotalAmount:    b.GrossAmount,
		ProviderPayout: b.ProviderPayout,
		Currency:       b.Currency,
		AccessCode:     b.AccessCode,
		CancelledBy:    string(p.event.CancelledBy),
		Reason:         p.event.Reason,
		FrontendURL:    d.frontendURL,
	}
}
