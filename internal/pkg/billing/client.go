package billing

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get* lookups for unknown ids.
	ErrNotFound = errors.New("billing record not found")
	// ErrNoTokens means the accounting connection was never authorized.
	ErrNoTokens = errors.New("no billing tokens available")
	// ErrTokenRefresh means the access token was expired and could not be refreshed.
	ErrTokenRefresh = errors.New("failed to refresh access token")
)

// Client is the accounting system surface used for membership dues.
type Client interface {
	// FindCustomerByEmail returns nil without error when no customer matches.
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	CreateCustomer(ctx context.Context, c Customer) (*Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	CompanyInfo(ctx context.Context) (*CompanyInfo, error)
}
