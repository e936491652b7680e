package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symphonyguild/guildsite/internal/pkg/billing"
	"github.com/symphonyguild/guildsite/internal/pkg/enrollment"
	"github.com/symphonyguild/guildsite/internal/pkg/features"
	"github.com/symphonyguild/guildsite/internal/pkg/mail"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/metrics/counter"
	"github.com/symphonyguild/guildsite/views"
)

var fixedNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func exampleRaw() membership.RawForm {
	optIn := true
	return membership.RawForm{
		TierID:          "family",
		FirstName:       "Ann",
		LastName:        "Lee",
		Email:           "ann@example.com",
		Phone:           "555-123-4567",
		NewsletterOptIn: &optIn,
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type failingStore struct{}

func (failingStore) Save(context.Context, membership.Submission) error {
	return errors.New("disk full")
}

func (failingStore) Get(context.Context, string) (membership.Submission, error) {
	return membership.Submission{}, ErrNotFound
}

type syncerFunc func(ctx context.Context, form membership.FormData, tier membership.MembershipTier) (billing.SyncResult, error)

func (f syncerFunc) Sync(ctx context.Context, form membership.FormData, tier membership.MembershipTier) (billing.SyncResult, error) {
	return f(ctx, form, tier)
}

func newTestService(flags features.Flags, opts ...Option) (*Service, *MemoryStore) {
	store := NewMemoryStore()
	opts = append([]Option{WithStore(store), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(membership.NewDefaultCatalog(), flags, opts...), store
}

func TestSubmit_MockMode(t *testing.T) {
	t.Parallel()

	metrics := counter.NewMetrics(prometheus.NewRegistry())
	svc, store := newTestService(features.Defaults(), WithMetrics(metrics))

	res, err := svc.Submit(context.Background(), exampleRaw())
	require.NoError(t, err)

	assert.Equal(t, "family", res.Tier.ID)
	assert.Equal(t, "Family Membership", res.Tier.Name)
	assert.Equal(t, membership.StatusPending, res.Submission.Status)
	assert.Regexp(t, `^OSG-1754049600000-[0-9A-Z]{7}$`, res.Submission.ID)
	assert.True(t, res.Submission.NewsletterOptIn)
	assert.Empty(t, res.Submission.ExternalCustomerID)

	stored, err := store.Get(context.Background(), res.Submission.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Submission, stored)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues(counter.OutcomeMock)))
}

func TestSubmit_Rejections(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(features.Defaults())

	bogus := exampleRaw()
	bogus.TierID = "bogus"
	_, err := svc.Submit(context.Background(), bogus)
	assert.ErrorIs(t, err, ErrInvalidTier)
	assert.ErrorIs(t, err, membership.ErrTierNotFound)

	short := exampleRaw()
	short.FirstName = "A"
	_, err = svc.Submit(context.Background(), short)
	var verrs membership.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("firstName"))

	assert.Zero(t, store.Len())
}

func TestSubmit_DistinctIDs(t *testing.T) {
	t.Parallel()

	svc := NewService(membership.NewDefaultCatalog(), features.Defaults())
	first, err := svc.Submit(context.Background(), exampleRaw())
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), exampleRaw())
	require.NoError(t, err)
	assert.NotEqual(t, first.Submission.ID, second.Submission.ID)
}

func TestSubmit_SyncUnsupported(t *testing.T) {
	t.Parallel()

	flags := features.Defaults()
	flags.EnableQuickBooksSync = true
	svc, store := newTestService(flags)

	_, err := svc.Submit(context.Background(), exampleRaw())
	assert.ErrorIs(t, err, billing.ErrUnsupported)
	assert.Zero(t, store.Len())
}

func TestSubmit_SyncWithMockClient(t *testing.T) {
	t.Parallel()

	flags := features.Defaults()
	flags.EnableQuickBooksSync = true
	mock := billing.NewMockClient(billing.MockLatency{})
	syncer := billing.NewService(mock, membership.CurrentYear, billing.MockItemID).WithClock(func() time.Time { return fixedNow })
	svc, _ := newTestService(flags, WithSyncer(syncer))

	res, err := svc.Submit(context.Background(), exampleRaw())
	require.NoError(t, err)
	assert.Equal(t, membership.StatusProcessing, res.Submission.Status)
	assert.Equal(t, "MOCK-CUST-1", res.Submission.ExternalCustomerID)
	assert.Equal(t, "MOCK-INV-1", res.Submission.ExternalInvoiceID)

	snap := mock.Snapshot()
	require.Len(t, snap.Invoices, 1)
	assert.Equal(t, "2025-08-31", snap.Invoices[0].DueDate)
}

func TestSubmit_SyncFailure(t *testing.T) {
	t.Parallel()

	flags := features.Defaults()
	flags.EnableQuickBooksSync = true
	boom := errors.New("quickbooks down")
	svc, store := newTestService(flags, WithSyncer(syncerFunc(func(context.Context, membership.FormData, membership.MembershipTier) (billing.SyncResult, error) {
		return billing.SyncResult{}, boom
	})))

	_, err := svc.Submit(context.Background(), exampleRaw())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, billing.ErrUnsupported)
	assert.Zero(t, store.Len())
}

func TestSubmit_StoreFailure(t *testing.T) {
	t.Parallel()

	svc := NewService(membership.NewDefaultCatalog(), features.Defaults(), WithStore(failingStore{}))
	_, err := svc.Submit(context.Background(), exampleRaw())
	assert.ErrorContains(t, err, "disk full")
}

func TestSubmit_ConfirmationEmail(t *testing.T) {
	t.Parallel()

	flags := features.Defaults()
	flags.EnableEmailNotifications = true
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc, _ := newTestService(flags, WithMailer(mailer, mail.NewTemplates(views.FS)))

	res, err := svc.Submit(context.Background(), exampleRaw())
	require.NoError(t, err, "mail failures do not fail the submission")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ann@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, res.Submission.ID)

	quiet, _ := newTestService(features.Defaults(), WithMailer(mailer, mail.NewTemplates(views.FS)))
	_, err = quiet.Submit(context.Background(), exampleRaw())
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
}

func TestPay_DrivesEnrollment(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(features.Defaults())

	w := enrollment.New("patron")
	require.NoError(t, w.Next())
	require.NoError(t, w.SetField(enrollment.FieldFirstName, "Ann"))
	require.NoError(t, w.SetField(enrollment.FieldLastName, "Lee"))
	require.NoError(t, w.SetField(enrollment.FieldEmail, "ann@example.com"))
	require.NoError(t, w.SetField(enrollment.FieldPhone, "5551234567"))
	require.NoError(t, w.Next())

	require.NoError(t, w.CompletePayment(context.Background(), svc))
	assert.Equal(t, enrollment.StepConfirmation, w.Step)

	stored, err := store.Get(context.Background(), w.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "patron", stored.TierID)
	assert.Equal(t, "(555) 123-4567", stored.Phone)
}
