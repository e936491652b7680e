package membership

import "github.com/shopspring/decimal"

func init() {
	// Prices go over the wire as JSON numbers (150, not "150").
	decimal.MarshalJSONWithoutQuotes = true
}

// MembershipYear describes the membership period currently being sold.
// Update these dates annually.
type MembershipYear struct {
	Current         string `json:"current"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	RenewalDeadline string `json:"renewalDeadline"`
}

var CurrentYear = MembershipYear{
	Current:         "2025-2026",
	StartDate:       "2025-07-01",
	EndDate:         "2026-06-30",
	RenewalDeadline: "2025-06-30",
}

// DefaultTiers is the guild's tier registry in display order.
func DefaultTiers() []MembershipTier {
	return []MembershipTier{
		{
			ID:          "individual",
			Name:        "Individual Member",
			Price:       decimal.NewFromInt(75),
			Description: "Perfect for music lovers who want to support the Guild and enjoy member benefits.",
			Benefits: []string{
				"Guild membership card",
				"Quarterly newsletter subscription",
				"Invitations to exclusive member events",
				"Recognition in annual program",
				"Volunteer opportunities",
				"Member-only pre-sale access to select events",
			},
		},
		{
			ID:          "family",
			Name:        "Family Membership",
			Price:       decimal.NewFromInt(150),
			Description: "Ideal for families who want to share their love of music and support together.",
			Benefits: []string{
				"All Individual Member benefits",
				"Membership for up to 4 family members",
				"Family name recognition in annual program",
				"Priority registration for Belles & Beaux program",
				"Complimentary tickets to select rehearsals",
				"Exclusive family event invitations",
			},
			Popular: true,
		},
		{
			ID:          "patron",
			Name:        "Patron",
			Price:       decimal.NewFromInt(300),
			Description: "For dedicated supporters who want to make a significant impact on the arts.",
			Benefits: []string{
				"All Family Membership benefits",
				"Special recognition in all programs",
				"Invitations to patron appreciation events",
				"Behind-the-scenes access to rehearsals",
				"Meet-and-greet opportunities with musicians",
				"Commemorative Guild patron pin",
				"Complimentary tickets to Symphony SoundBites events",
			},
		},
		{
			ID:          "benefactor",
			Name:        "Benefactor",
			Price:       decimal.NewFromInt(500),
			Description: "Our highest tier for those passionate about ensuring the future of music in West Texas.",
			Benefits: []string{
				"All Patron benefits",
				"Prominent recognition as a Guild Benefactor",
				"VIP seating at select Guild events",
				"Private concert experience opportunity",
				"Personal thank you from Guild leadership",
				"Legacy recognition opportunities",
				"Invitation to exclusive benefactor dinner",
				"Complimentary pair of season tickets to select performances",
			},
		},
	}
}

// NewDefaultCatalog returns the catalog built from DefaultTiers.
func NewDefaultCatalog() *Catalog {
	return MustCatalog(DefaultTiers()...)
}
