package membership

import "time"

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Address is the optional mailing address of a member.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty" validate:"omitempty,len=2,alpha"`
	ZipCode string `json:"zipCode,omitempty" validate:"omitempty,zipcode"`
}

// FormData is a validated membership form.
type FormData struct {
	TierID          string   `json:"tierId" validate:"required"`
	FirstName       string   `json:"firstName" validate:"min=2,max=50"`
	LastName        string   `json:"lastName" validate:"min=2,max=50"`
	Email           string   `json:"email" validate:"required,max=254,email"`
	Phone           string   `json:"phone" validate:"usphone"`
	Address         *Address `json:"address,omitempty"`
	NewsletterOptIn bool     `json:"newsletterOptIn"`
}

// FullName is the display name used for billing records and greetings.
func (f FormData) FullName() string {
	return f.FirstName + " " + f.LastName
}

// RawAddress is the address as received from a client; every field may be absent.
type RawAddress struct {
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	ZipCode *string `json:"zipCode,omitempty"`
}

// RawForm is the unvalidated form payload as received from a client.
type RawForm struct {
	TierID          string      `json:"tierId"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Address         *RawAddress `json:"address,omitempty"`
	NewsletterOptIn *bool       `json:"newsletterOptIn,omitempty"`
}

// Submission is one accepted enrollment attempt.
type Submission struct {
	FormData
	ID                 string    `json:"id"`
	SubmittedAt        time.Time `json:"submittedAt"`
	Status             Status    `json:"status"`
	ExternalCustomerID string    `json:"externalCustomerId,omitempty"`
	ExternalInvoiceID  string    `json:"externalInvoiceId,omitempty"`
}
