package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

// ErrUnsupported is returned when no accounting provider is wired up.
var ErrUnsupported = errors.New("billing sync is not available")

// SyncResult carries the accounting ids created for one membership.
type SyncResult struct {
	CustomerID string
	InvoiceID  string
}

// Syncer pushes an accepted membership into the accounting system.
type Syncer interface {
	Sync(ctx context.Context, form membership.FormData, tier membership.MembershipTier) (SyncResult, error)
}

// Unsupported is the Syncer used when billing sync is enabled but no provider
// is configured.
type Unsupported struct{}

func (Unsupported) Sync(context.Context, membership.FormData, membership.MembershipTier) (SyncResult, error) {
	return SyncResult{}, ErrUnsupported
}

// Service syncs memberships through any Client: the customer is upserted by
// email, then a dues invoice for the current membership year is created.
type Service struct {
	client Client
	year   membership.MembershipYear
	itemID string
	now    func() time.Time
}

// NewService creates a billing service from an injected client.
func NewService(client Client, year membership.MembershipYear, itemID string) *Service {
	return &Service{
		client: client,
		year:   year,
		itemID: itemID,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for invoice dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Client() Client {
	return s.client
}

func (s *Service) Sync(ctx context.Context, form membership.FormData, tier membership.MembershipTier) (SyncResult, error) {
	customer, err := UpsertCustomer(ctx, s.client, form)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync customer: %w", err)
	}

	inv, err := CreateMembershipInvoice(ctx, s.client, customer.ID, tier, s.year, s.itemID, s.now())
	if err != nil {
		return SyncResult{CustomerID: customer.ID}, fmt.Errorf("sync invoice: %w", err)
	}

	fiberlog.Infof("[Billing] Synced membership for %s: customer=%s invoice=%s total=%s", form.Email, customer.ID, inv.ID, inv.Total().StringFixed(2))
	return SyncResult{CustomerID: customer.ID, InvoiceID: inv.ID}, nil
}
