// Command cli runs operator actions against bookings: closing out stays,
// recording no-shows and issuing refunds.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mywatercloset/api/infra/initializer"
	"github.com/mywatercloset/api/pkg/app"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/user"
	"github.com/mywatercloset/api/pkg/service/auth"
	"golang.org/x/term"
)

const usage = `Usage: cli <command> <booking_id> [reason]
Commands:
  show <booking_id>              print a booking
  complete <booking_id>          mark an in-progress booking completed
  no-show <booking_id>           record that the booker never arrived
  refund <booking_id> [reason]   refund the full charge`

var (
	errColor = color.New(color.FgRed, color.Bold)
	okColor  = color.New(color.FgGreen)
	keyColor = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2], strings.Join(os.Args[3:], " ")); err != nil {
		errColor.Fprintln(os.Stderr, "Error:", err) //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd, rawID, reason string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid booking id %q: %w", rawID, err)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	a := app.New(deps, cfg)
	defer func() {
		if closer, ok := deps.EventBus.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	admin, err := login(ctx, auth.NewWithBasic(deps.Uow, deps.Logger))
	if err != nil {
		return err
	}

	switch cmd {
	case "show":
		b, err := a.BookingService.Get(ctx, admin.ID, id)
		if err != nil {
			return err
		}
		printBooking(b)
	case "complete":
		b, err := a.BookingService.Complete(ctx, id, admin.ID)
		if err != nil {
			return err
		}
		okColor.Printf("Booking %s completed\n", b.ID) //nolint:errcheck
	case "no-show":
		b, err := a.BookingService.MarkNoShow(ctx, id, admin.ID)
		if err != nil {
			return err
		}
		okColor.Printf("Booking %s marked as no-show\n", b.ID) //nolint:errcheck
	case "refund":
		refund, err := a.SettlementService.RequestRefund(ctx, id, admin.ID, reason)
		if err != nil {
			return err
		}
		okColor.Printf("Refund %s requested for %d (%s)\n", refund.ID, refund.Amount, refund.Status) //nolint:errcheck
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// login prompts for admin credentials. MWC_ADMIN_EMAIL skips the e-mail prompt.
func login(ctx context.Context, authSvc *auth.Service) (*user.User, error) {
	email := os.Getenv("MWC_ADMIN_EMAIL")
	if email == "" {
		fmt.Print("Admin e-mail: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, err
		}
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	u, err := authSvc.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, errors.New("admin role required")
	}
	return u, nil
}

func printBooking(b *booking.Booking) {
	row := func(k string, v any) {
		keyColor.Printf("%-16s", k) //nolint:errcheck
		fmt.Println(v)
	}
	row("ID", b.ID)
	row("Status", b.Status)
	row("Booker", b.UserID)
	row("Property", b.PropertyID)
	row("Window", fmt.Sprintf("%s - %s (%d min)", b.StartTime.Format("2006-01-02 15:04"), b.EndTime.Format("15:04"), b.DurationMinutes))
	row("Total", fmt.Sprintf("%d %s", b.GrossAmount, b.Currency))
	row("Platform fee", b.PlatformFee)
	row("Payout", b.ProviderPayout)
	if b.PaymentIntentRef != "" {
		row("Payment intent", b.PaymentIntentRef)
	}
	if c := b.Cancellation; c != nil {
		row("Cancelled by", fmt.Sprintf("%s (%s)", c.CancelledBy, c.ActorKind))
		if c.Reason != "" {
			row("Reason", c.Reason)
		}
	}
}
