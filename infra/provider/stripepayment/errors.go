package stripepayment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/mywatercloset/api/pkg/domain"
	"github.com/stripe/stripe-go/v82"
)

// mapError classifies a Stripe client error. Anything that may succeed on
// retry becomes domain.ErrGatewayUnavailable.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
			stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
			stripeErr.Type == stripe.ErrorTypeAPI {
			return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
		}
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
	}
	return err
}
