package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/symphonyguild/guildsite/internal/pkg/billing"
	"github.com/symphonyguild/guildsite/internal/pkg/features"
	"github.com/symphonyguild/guildsite/internal/pkg/mail"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/metrics/counter"
)

// ErrInvalidTier is returned when a validated form names a tier outside the catalog.
var ErrInvalidTier = errors.New("invalid membership tier selected")

// Result is an accepted submission and the tier it was accepted for.
type Result struct {
	Submission membership.Submission
	Tier       membership.MembershipTier
}

// Service accepts membership submissions.
type Service struct {
	catalog   *membership.Catalog
	year      membership.MembershipYear
	syncer    billing.Syncer
	store     Store
	mailer    mail.Mailer
	templates *mail.Templates
	metrics   *counter.Metrics
	flags     features.Flags
	now       func() time.Time
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

func WithSyncer(s billing.Syncer) Option { return func(svc *Service) { svc.syncer = s } }

func WithStore(s Store) Option { return func(svc *Service) { svc.store = s } }

// WithMailer enables confirmation emails, subject to the notification flag.
func WithMailer(m mail.Mailer, t *mail.Templates) Option {
	return func(svc *Service) {
		svc.mailer = m
		svc.templates = t
	}
}

func WithMetrics(m *counter.Metrics) Option { return func(svc *Service) { svc.metrics = m } }

func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// NewService builds a service that, unless configured otherwise, keeps
// submissions in memory and reports billing sync as unsupported.
func NewService(catalog *membership.Catalog, flags features.Flags, opts ...Option) *Service {
	svc := &Service{
		catalog: catalog,
		year:    membership.CurrentYear,
		syncer:  billing.Unsupported{},
		store:   NewMemoryStore(),
		flags:   flags,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *Service) Flags() features.Flags {
	return s.flags
}

func (s *Service) Catalog() *membership.Catalog {
	return s.catalog
}

func (s *Service) Year() membership.MembershipYear {
	return s.year
}

// Submit validates a raw payload and accepts it. Validation failures are
// returned as membership.ValidationErrors.
func (s *Service) Submit(ctx context.Context, raw membership.RawForm) (*Result, error) {
	return s.submit(ctx, raw, nil)
}

// SubmitJSON decodes a JSON form body and submits it. A field with a value of
// the wrong type is reported together with every other violated rule.
func (s *Service) SubmitJSON(ctx context.Context, body []byte) (*Result, error) {
	raw, decodeErrs, err := membership.DecodeRawForm(body)
	if err != nil {
		s.metrics.AddSubmission(counter.OutcomeFailed)
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	return s.submit(ctx, raw, decodeErrs)
}

func (s *Service) submit(ctx context.Context, raw membership.RawForm, decodeErrs membership.ValidationErrors) (*Result, error) {
	form, err := membership.ValidateDecoded(raw, decodeErrs)
	if err != nil {
		s.metrics.AddSubmission(counter.OutcomeInvalid)
		return nil, err
	}
	return s.accept(ctx, form)
}

// SubmitForm accepts a form that was already collected, e.g. by the
// enrollment wizard. It is validated again.
func (s *Service) SubmitForm(ctx context.Context, form membership.FormData) (*Result, error) {
	if err := membership.ValidateForm(form); err != nil {
		s.metrics.AddSubmission(counter.OutcomeInvalid)
		return nil, err
	}
	return s.accept(ctx, form)
}

// Pay lets the enrollment wizard settle its payment step through this service.
func (s *Service) Pay(ctx context.Context, form membership.FormData) (string, error) {
	res, err := s.SubmitForm(ctx, form)
	if err != nil {
		return "", err
	}
	return res.Submission.ID, nil
}

func (s *Service) accept(ctx context.Context, form membership.FormData) (*Result, error) {
	tier, err := s.catalog.Lookup(form.TierID)
	if err != nil {
		s.metrics.AddSubmission(counter.OutcomeUnknownTier)
		return nil, fmt.Errorf("%w: %w", ErrInvalidTier, err)
	}

	now := s.now()
	id, err := membership.NewSubmissionID(now)
	if err != nil {
		s.metrics.AddSubmission(counter.OutcomeFailed)
		return nil, fmt.Errorf("mint submission id: %w", err)
	}

	sub := membership.Submission{
		FormData:    form,
		ID:          id,
		SubmittedAt: now.UTC(),
		Status:      membership.StatusPending,
	}

	outcome := counter.OutcomeMock
	if s.flags.EnableQuickBooksSync {
		res, err := s.syncer.Sync(ctx, form, tier)
		if err != nil {
			if errors.Is(err, billing.ErrUnsupported) {
				s.metrics.AddBillingSync(counter.OutcomeUnsupported)
				s.metrics.AddSubmission(counter.OutcomeUnsupported)
				return nil, err
			}
			s.metrics.AddBillingSync(counter.OutcomeFailed)
			s.metrics.AddSubmission(counter.OutcomeFailed)
			return nil, fmt.Errorf("billing sync for %s: %w", id, err)
		}
		s.metrics.AddBillingSync(counter.OutcomeSynced)
		sub.ExternalCustomerID = res.CustomerID
		sub.ExternalInvoiceID = res.InvoiceID
		sub.Status = membership.StatusProcessing
		outcome = counter.OutcomeAccepted
	} else {
		fiberlog.Infof("[Membership] Mock mode: submission %s received (tier=%s, member=%s)", id, tier.Name, form.FullName())
	}

	if err := s.store.Save(ctx, sub); err != nil {
		s.metrics.AddSubmission(counter.OutcomeFailed)
		return nil, fmt.Errorf("store submission %s: %w", id, err)
	}
	s.metrics.AddSubmission(outcome)

	s.notify(ctx, sub, tier)
	return &Result{Submission: sub, Tier: tier}, nil
}

// notify sends the confirmation email. Failures are logged only; the
// submission is already accepted.
func (s *Service) notify(ctx context.Context, sub membership.Submission, tier membership.MembershipTier) {
	if !s.flags.EnableEmailNotifications || s.mailer == nil || s.templates == nil {
		return
	}
	msg, err := s.templates.Confirmation(sub, tier, s.year, s.flags.MockPaymentMode)
	if err != nil {
		fiberlog.Errorf("[Membership] Failed to render confirmation for %s: %v", sub.ID, err)
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		fiberlog.Errorf("[Membership] Failed to send confirmation for %s: %v", sub.ID, err)
	}
}
