package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

const (
	// InvoiceDueDays is the payment term of a membership invoice.
	InvoiceDueDays = 30

	membershipDuesItemName = "Membership Dues"
	dateLayout             = "2006-01-02"
)

// NewMembershipInvoice builds a single-line dues invoice for a tier. The
// issue date is now (UTC) and the due date is InvoiceDueDays later.
func NewMembershipInvoice(customerID string, tier membership.MembershipTier, year membership.MembershipYear, itemID string, now time.Time) Invoice {
	issued := now.UTC()
	return Invoice{
		CustomerRef: Ref{Value: customerID},
		Line: []InvoiceLine{
			{
				Amount:      tier.Price,
				Description: fmt.Sprintf("%s Membership - %s", tier.Name, year.Current),
				DetailType:  DetailTypeSalesItem,
				SalesItemLineDetail: SalesItemLineDetail{
					ItemRef:   Ref{Value: itemID, Name: membershipDuesItemName},
					UnitPrice: tier.Price,
					Qty:       1,
				},
			},
		},
		TxnDate: issued.Format(dateLayout),
		DueDate: issued.AddDate(0, 0, InvoiceDueDays).Format(dateLayout),
	}
}

// CreateMembershipInvoice creates the dues invoice for a customer.
func CreateMembershipInvoice(ctx context.Context, client Client, customerID string, tier membership.MembershipTier, year membership.MembershipYear, itemID string, now time.Time) (*Invoice, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, fmt.Errorf("customer id is required")
	}
	inv, err := client.CreateInvoice(ctx, NewMembershipInvoice(customerID, tier, year, itemID, now))
	if err != nil {
		return nil, fmt.Errorf("create invoice for customer %s: %w", customerID, err)
	}
	return inv, nil
}
