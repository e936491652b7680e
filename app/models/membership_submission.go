package models

import (
	"time"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

// MembershipSubmission is the persisted form of an accepted enrollment. The
// table is defined by the SQL files in migrations/.
type MembershipSubmission struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	SubmissionID       string    `json:"submission_id"`
	TierID             string    `json:"tier_id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Street             string    `json:"street"`
	City               string    `json:"city"`
	State              string    `json:"state"`
	ZipCode            string    `json:"zip_code"`
	HasAddress         bool      `json:"has_address"`
	NewsletterOptIn    bool      `json:"newsletter_opt_in"`
	Status             string    `json:"status"`
	ExternalCustomerID string    `json:"external_customer_id"`
	ExternalInvoiceID  string    `json:"external_invoice_id"`
	SubmittedAt        time.Time `json:"submitted_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (MembershipSubmission) TableName() string {
	return "membership_submissions"
}

// NewMembershipSubmission flattens a submission into its table row.
func NewMembershipSubmission(sub membership.Submission) *MembershipSubmission {
	row := &MembershipSubmission{
		SubmissionID:       sub.ID,
		TierID:             sub.TierID,
		FirstName:          sub.FirstName,
		LastName:           sub.LastName,
		Email:              sub.Email,
		Phone:              sub.Phone,
		NewsletterOptIn:    sub.NewsletterOptIn,
		Status:             string(sub.Status),
		ExternalCustomerID: sub.ExternalCustomerID,
		ExternalInvoiceID:  sub.ExternalInvoiceID,
		SubmittedAt:        sub.SubmittedAt,
	}
	if a := sub.Address; a != nil {
		row.HasAddress = true
		row.Street = a.Street
		row.City = a.City
		row.State = a.State
		row.ZipCode = a.ZipCode
	}
	return row
}

// ToSubmission is the inverse of NewMembershipSubmission.
func (m *MembershipSubmission) ToSubmission() membership.Submission {
	sub := membership.Submission{
		FormData: membership.FormData{
			TierID:          m.TierID,
			FirstName:       m.FirstName,
			LastName:        m.LastName,
			Email:           m.Email,
			Phone:           m.Phone,
			NewsletterOptIn: m.NewsletterOptIn,
		},
		ID:                 m.SubmissionID,
		SubmittedAt:        m.SubmittedAt,
		Status:             membership.Status(m.Status),
		ExternalCustomerID: m.ExternalCustomerID,
		ExternalInvoiceID:  m.ExternalInvoiceID,
	}
	if m.HasAddress {
		sub.Address = &membership.Address{
			Street:  m.Street,
			City:    m.City,
			State:   m.State,
			ZipCode: m.ZipCode,
		}
	}
	return sub
}
