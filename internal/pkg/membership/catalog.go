package membership

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrTierNotFound is returned when a tier id is not part of the catalog.
var ErrTierNotFound = errors.New("membership tier not found")

// MembershipTier is a named membership level with a fixed annual price.
type MembershipTier struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Benefits    []string        `json:"benefits"`
	Popular     bool            `json:"popular,omitempty"`
}

// Summary is the short tier shape echoed back to clients after a submission.
type Summary struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (t MembershipTier) Summary() Summary {
	return Summary{ID: t.ID, Name: t.Name, Price: t.Price}
}

// Catalog is the fixed registry of membership tiers. It is built once and
// never mutated, so it is safe for concurrent readers.
type Catalog struct {
	tiers []MembershipTier
	byID  map[string]int
}

// NewCatalog builds a catalog in registration order.
func NewCatalog(tiers ...MembershipTier) (*Catalog, error) {
	if len(tiers) == 0 {
		return nil, errors.New("catalog needs at least one tier")
	}

	c := &Catalog{
		tiers: make([]MembershipTier, 0, len(tiers)),
		byID:  make(map[string]int, len(tiers)),
	}
	for _, t := range tiers {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, errors.New("tier id is required")
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("duplicate tier id %q", id)
		}
		if !t.Price.IsPositive() {
			return nil, fmt.Errorf("tier %q must have a positive price", id)
		}
		t.ID = id
		t.Benefits = append([]string(nil), t.Benefits...)
		c.byID[id] = len(c.tiers)
		c.tiers = append(c.tiers, t)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static registries; it panics on a bad registry.
func MustCatalog(tiers ...MembershipTier) *Catalog {
	c, err := NewCatalog(tiers...)
	if err != nil {
		panic(err)
	}
	return c
}

// Tier looks up a tier by id. The second return value is false for unknown ids.
func (c *Catalog) Tier(id string) (MembershipTier, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return MembershipTier{}, false
	}
	return c.tiers[idx].clone(), true
}

// Lookup is Tier with an error instead of a flag.
func (c *Catalog) Lookup(id string) (MembershipTier, error) {
	t, ok := c.Tier(id)
	if !ok {
		return MembershipTier{}, fmt.Errorf("%w: %q", ErrTierNotFound, id)
	}
	return t, nil
}

// DefaultTier returns the tier flagged popular, else the first registered tier.
func (c *Catalog) DefaultTier() MembershipTier {
	for _, t := range c.tiers {
		if t.Popular {
			return t.clone()
		}
	}
	return c.tiers[0].clone()
}

// Tiers returns all tiers in registration order.
func (c *Catalog) Tiers() []MembershipTier {
	out := make([]MembershipTier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = t.clone()
	}
	return out
}

func (t MembershipTier) clone() MembershipTier {
	t.Benefits = append([]string(nil), t.Benefits...)
	return t
}
