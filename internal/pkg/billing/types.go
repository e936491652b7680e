package billing

import (
	"github.com/shopspring/decimal"
)

// Ref points at another accounting entity by its opaque id.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type TelephoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

type PhysicalAddress struct {
	Line1                  string `json:"Line1,omitempty"`
	City                   string `json:"City,omitempty"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode,omitempty"`
	PostalCode             string `json:"PostalCode,omitempty"`
}

// Customer mirrors the accounting system's customer record.
type Customer struct {
	ID               string           `json:"Id,omitempty"`
	SyncToken        string           `json:"SyncToken,omitempty"`
	DisplayName      string           `json:"DisplayName"`
	GivenName        string           `json:"GivenName"`
	FamilyName       string           `json:"FamilyName"`
	PrimaryEmailAddr EmailAddress     `json:"PrimaryEmailAddr"`
	PrimaryPhone     *TelephoneNumber `json:"PrimaryPhone,omitempty"`
	BillAddr         *PhysicalAddress `json:"BillAddr,omitempty"`
}

const DetailTypeSalesItem = "SalesItemLineDetail"

type SalesItemLineDetail struct {
	ItemRef   Ref             `json:"ItemRef"`
	UnitPrice decimal.Decimal `json:"UnitPrice"`
	Qty       int             `json:"Qty"`
}

type InvoiceLine struct {
	Amount              decimal.Decimal     `json:"Amount"`
	Description         string              `json:"Description"`
	DetailType          string              `json:"DetailType"`
	SalesItemLineDetail SalesItemLineDetail `json:"SalesItemLineDetail"`
}

// Invoice mirrors the accounting system's invoice record. Dates are YYYY-MM-DD.
type Invoice struct {
	ID          string        `json:"Id,omitempty"`
	CustomerRef Ref           `json:"CustomerRef"`
	Line        []InvoiceLine `json:"Line"`
	DueDate     string        `json:"DueDate,omitempty"`
	TxnDate     string        `json:"TxnDate,omitempty"`
}

// Total sums all line amounts.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Line {
		total = total.Add(l.Amount)
	}
	return total
}

type CompanyInfo struct {
	CompanyName string          `json:"CompanyName"`
	CompanyAddr PhysicalAddress `json:"CompanyAddr"`
	Email       EmailAddress    `json:"Email"`
}
