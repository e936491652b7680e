package features

import (
	"fmt"
	"os"
	"strings"

	caarlosenv "github.com/caarlos0/env/v11"

	"github.com/symphonyguild/guildsite/internal/pkg/env"
)

// Billing providers selectable with BILLING_PROVIDER.
const (
	ProviderUnsupported = "unsupported"
	ProviderMock        = "mock"
	ProviderQuickBooks  = "quickbooks"
)

// Flags are the runtime switches of the membership flow.
type Flags struct {
	EnableQuickBooksSync     bool   `env:"ENABLE_QUICKBOOKS_SYNC" envDefault:"false"`
	MockPaymentMode          bool   `env:"MOCK_PAYMENT_MODE" envDefault:"true"`
	EnableEmailNotifications bool   `env:"ENABLE_EMAIL_NOTIFICATIONS" envDefault:"false"`
	BillingProvider          string `env:"BILLING_PROVIDER" envDefault:"unsupported"`
	QuickBooksItemID         string `env:"QUICKBOOKS_ITEM_ID" envDefault:"1"`
}

// Defaults returns the flags with every variable unset.
func Defaults() Flags {
	f, _ := parse(map[string]string{})
	return f
}

// Load reads the flags from the process environment overlaid with the
// values loaded from .env, the same precedence env.GetEnv uses.
func Load() (Flags, error) {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	for k, v := range env.Env {
		vars[k] = v
	}
	return parse(vars)
}

func parse(vars map[string]string) (Flags, error) {
	var f Flags
	if err := caarlosenv.ParseWithOptions(&f, caarlosenv.Options{Environment: vars}); err != nil {
		return Flags{}, fmt.Errorf("parse env: %w", err)
	}
	f.BillingProvider = strings.ToLower(strings.TrimSpace(f.BillingProvider))
	switch f.BillingProvider {
	case ProviderUnsupported, ProviderMock, ProviderQuickBooks:
	default:
		return Flags{}, fmt.Errorf("unknown BILLING_PROVIDER %q", f.BillingProvider)
	}
	return f, nil
}
