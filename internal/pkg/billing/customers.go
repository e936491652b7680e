package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

// CustomerFromForm maps a membership form to a new customer record.
func CustomerFromForm(form membership.FormData) Customer {
	c := Customer{
		DisplayName:      form.FullName(),
		GivenName:        form.FirstName,
		FamilyName:       form.LastName,
		PrimaryEmailAddr: EmailAddress{Address: form.Email},
		PrimaryPhone:     &TelephoneNumber{FreeFormNumber: form.Phone},
	}
	c.BillAddr = billAddr(form.Address)
	return c
}

// UpsertCustomer finds the customer by email and overwrites name, phone and
// address with the form values, or creates a new customer when none exists.
// DisplayName is kept on update since the accounting system keys on it.
func UpsertCustomer(ctx context.Context, client Client, form membership.FormData) (*Customer, error) {
	email := strings.TrimSpace(form.Email)
	if email == "" {
		return nil, errors.New("email is required to upsert a customer")
	}

	existing, err := client.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find customer by email: %w", err)
	}

	if existing == nil {
		created, err := client.CreateCustomer(ctx, CustomerFromForm(form))
		if err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		return created, nil
	}

	updated := *existing
	updated.GivenName = form.FirstName
	updated.FamilyName = form.LastName
	updated.PrimaryPhone = &TelephoneNumber{FreeFormNumber: form.Phone}
	if addr := billAddr(form.Address); addr != nil {
		updated.BillAddr = addr
	}

	out, err := client.UpdateCustomer(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("update customer %s: %w", existing.ID, err)
	}
	return out, nil
}

func billAddr(a *membership.Address) *PhysicalAddress {
	if a == nil {
		return nil
	}
	return &PhysicalAddress{
		Line1:                  a.Street,
		City:                   a.City,
		CountrySubDivisionCode: a.State,
		PostalCode:             a.ZipCode,
	}
}
