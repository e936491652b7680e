package enrollment

import (
	"context"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

// DefaultMockPaymentDelay is how long the demo payment pretends to take.
const DefaultMockPaymentDelay = 1500 * time.Millisecond

// PaymentStep settles the dues of a completed form and returns the id of the
// resulting submission.
type PaymentStep interface {
	Pay(ctx context.Context, form membership.FormData) (submissionID string, err error)
}

// PaymentFunc adapts a plain function to PaymentStep.
type PaymentFunc func(ctx context.Context, form membership.FormData) (string, error)

func (f PaymentFunc) Pay(ctx context.Context, form membership.FormData) (string, error) {
	return f(ctx, form)
}

// MockPayment stands in for a card payment that never declines. It waits
// Delay, ignoring ctx.
//
// With Settle set the form is handed to it after the wait, so the
// confirmation carries a recorded submission id. Otherwise an id is minted
// locally and nothing is recorded.
type MockPayment struct {
	Delay  time.Duration
	Now    func() time.Time
	Settle PaymentStep
}

func NewMockPayment(settle PaymentStep) MockPayment {
	return MockPayment{Delay: DefaultMockPaymentDelay, Now: time.Now, Settle: settle}
}

func (m MockPayment) Pay(ctx context.Context, form membership.FormData) (string, error) {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.Settle != nil {
		return m.Settle.Pay(ctx, form)
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	id, err := membership.NewSubmissionID(now())
	if err != nil {
		return "", err
	}
	fiberlog.Infof("[Enrollment] Mock payment accepted for %s (%s)", form.Email, id)
	return id, nil
}
