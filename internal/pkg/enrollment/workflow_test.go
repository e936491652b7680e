package enrollment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

func fillValidInfo(t *testing.T, w *Workflow) {
	t.Helper()
	require.NoError(t, w.SetField(FieldFirstName, "Ann"))
	require.NoError(t, w.SetField(FieldLastName, "Lee"))
	require.NoError(t, w.SetField(FieldEmail, "ann@example.com"))
	require.NoError(t, w.SetField(FieldPhone, "555-123-4567"))
}

func toPayment(t *testing.T) *Workflow {
	t.Helper()
	w := New("family")
	require.NoError(t, w.Next())
	fillValidInfo(t, w)
	require.NoError(t, w.Next())
	require.Equal(t, StepPayment, w.Step)
	return w
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	w := New("family")
	assert.Equal(t, StepTierSelection, w.Step)
	assert.Equal(t, "family", w.Form.TierID)
	assert.True(t, w.Form.NewsletterOptIn)
	assert.False(t, w.Done())
}

func TestNext_TierStepNeedsTier(t *testing.T) {
	t.Parallel()

	w := New("")
	assert.ErrorIs(t, w.Next(), ErrInvalidTransition)
	assert.Equal(t, StepTierSelection, w.Step)

	require.NoError(t, w.SelectTier("patron"))
	require.NoError(t, w.Next())
	assert.Equal(t, StepPersonalInfo, w.Step)
	assert.Equal(t, "patron", w.Form.TierID)
}

func TestNext_PersonalInfoGatedOnValidation(t *testing.T) {
	t.Parallel()

	w := New("family")
	require.NoError(t, w.Next())
	require.NoError(t, w.SetField(FieldFirstName, "A"))

	err := w.Next()
	require.Error(t, err)
	var verrs membership.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, StepPersonalInfo, w.Step)
	assert.True(t, w.Errors.Has("firstName"))
	assert.True(t, w.Errors.Has("email"))
	assert.True(t, w.Errors.Has("phone"))

	require.NoError(t, w.SetField(FieldFirstName, "Ann"))
	assert.False(t, w.Errors.Has("firstName"))
	assert.True(t, w.Errors.Has("email"))

	fillValidInfo(t, w)
	require.NoError(t, w.Next())
	assert.Equal(t, StepPayment, w.Step)
	assert.Empty(t, w.Errors)
}

func TestSetField_PhoneIsReformatted(t *testing.T) {
	t.Parallel()

	w := New("family")
	steps := []struct {
		typed string
		want  string
	}{
		{typed: "555", want: "555"},
		{typed: "555123", want: "555123"},
		{typed: "5551234567", want: "(555) 123-4567"},
		{typed: "(555) 123-45678", want: "(555) 123-45678"},
		{typed: "555.123.4567", want: "(555) 123-4567"},
	}
	for _, s := range steps {
		require.NoError(t, w.SetField(FieldPhone, s.typed))
		assert.Equal(t, s.want, w.Form.Phone, s.typed)
	}
}

func TestSetField_AddressAndOptIn(t *testing.T) {
	t.Parallel()

	w := New("family")
	assert.Nil(t, w.Form.Address)
	require.NoError(t, w.SetField(FieldCity, "Odessa"))
	require.NoError(t, w.SetField(FieldState, "TX"))
	require.NoError(t, w.SetField(FieldZipCode, "79761"))
	require.NoError(t, w.SetField(FieldStreet, "1 Main St"))
	require.NoError(t, w.SetField(FieldNewsletterOptIn, "false"))

	require.NotNil(t, w.Form.Address)
	assert.Equal(t, membership.Address{Street: "1 Main St", City: "Odessa", State: "TX", ZipCode: "79761"}, *w.Form.Address)
	assert.False(t, w.Form.NewsletterOptIn)

	assert.Error(t, w.SetField(FieldNewsletterOptIn, "maybe"))
	assert.ErrorIs(t, w.SetField("tierId", "patron"), ErrUnknownField)
}

func TestSetFields_AllOrNothing(t *testing.T) {
	t.Parallel()

	w := New("family")
	require.NoError(t, w.Next())
	require.Error(t, w.Next())
	require.True(t, w.Errors.Has("email"))
	require.NoError(t, w.SetFields(map[string]string{FieldFirstName: "Ann", FieldCity: "Odessa"}))

	err := w.SetFields(map[string]string{
		FieldEmail:           "bob@example.com",
		FieldFirstName:       "Bob",
		FieldState:           "NM",
		FieldNewsletterOptIn: "maybe",
		FieldPhone:           "5551234567",
	})
	require.Error(t, err)
	assert.Equal(t, "Ann", w.Form.FirstName)
	assert.Empty(t, w.Form.Email)
	assert.Empty(t, w.Form.Phone)
	assert.Equal(t, membership.Address{City: "Odessa"}, *w.Form.Address)
	assert.True(t, w.Form.NewsletterOptIn)
	assert.True(t, w.Errors.Has("email"))

	require.NoError(t, w.SetFields(map[string]string{FieldEmail: "bob@example.com", FieldPhone: "5551234567"}))
	assert.Equal(t, "bob@example.com", w.Form.Email)
	assert.Equal(t, "(555) 123-4567", w.Form.Phone)
	assert.False(t, w.Errors.Has("email"))
}

func TestBack_KeepsValues(t *testing.T) {
	t.Parallel()

	w := toPayment(t)
	require.NoError(t, w.Back())
	assert.Equal(t, StepPersonalInfo, w.Step)
	require.NoError(t, w.Back())
	assert.Equal(t, StepTierSelection, w.Step)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)

	assert.Equal(t, "Ann", w.Form.FirstName)
	assert.Equal(t, "(555) 123-4567", w.Form.Phone)
}

func TestTransitionsRejectedOutOfStep(t *testing.T) {
	t.Parallel()

	w := toPayment(t)
	assert.ErrorIs(t, w.Next(), ErrInvalidTransition)
	assert.ErrorIs(t, w.SelectTier("patron"), ErrInvalidTransition)
	assert.ErrorIs(t, w.SetField(FieldFirstName, "Bob"), ErrInvalidTransition)
	assert.Equal(t, "Ann", w.Form.FirstName)

	fresh := New("family")
	err := fresh.CompletePayment(context.Background(), PaymentFunc(func(context.Context, membership.FormData) (string, error) {
		t.Fatal("payment must not run outside the payment step")
		return "", nil
	}))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompletePayment(t *testing.T) {
	t.Parallel()

	w := toPayment(t)

	boom := errors.New("card declined")
	err := w.CompletePayment(context.Background(), PaymentFunc(func(context.Context, membership.FormData) (string, error) {
		return "", boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StepPayment, w.Step)
	assert.Empty(t, w.SubmissionID)

	var paid membership.FormData
	err = w.CompletePayment(context.Background(), PaymentFunc(func(_ context.Context, form membership.FormData) (string, error) {
		paid = form
		return "OSG-1-ABCDEFG", nil
	}))
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, w.Step)
	assert.Equal(t, "OSG-1-ABCDEFG", w.SubmissionID)
	assert.Equal(t, "ann@example.com", paid.Email)
	assert.True(t, w.Done())

	// confirmation is terminal
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
	assert.ErrorIs(t, w.Next(), ErrInvalidTransition)
}

func TestMockPayment(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1735689600000)
	w := toPayment(t)
	require.NoError(t, w.CompletePayment(context.Background(), MockPayment{Now: func() time.Time { return now }}))
	assert.Regexp(t, regexp.MustCompile(`^OSG-1735689600000-[0-9A-Z]{7}$`), w.SubmissionID)

	assert.Equal(t, DefaultMockPaymentDelay, NewMockPayment(nil).Delay)
}

func TestMockPayment_Settle(t *testing.T) {
	t.Parallel()

	w := toPayment(t)
	settle := PaymentFunc(func(_ context.Context, form membership.FormData) (string, error) {
		return "OSG-42-SETTLED", nil
	})
	require.NoError(t, w.CompletePayment(context.Background(), MockPayment{Settle: settle}))
	assert.Equal(t, "OSG-42-SETTLED", w.SubmissionID)

	failing := toPayment(t)
	boom := errors.New("billing sync is not available")
	err := failing.CompletePayment(context.Background(), MockPayment{Settle: PaymentFunc(func(context.Context, membership.FormData) (string, error) {
		return "", boom
	})})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StepPayment, failing.Step)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	w := New("family")
	require.NoError(t, w.Next())
	require.NoError(t, w.SetField(FieldFirstName, "A"))
	require.Error(t, w.Next())

	raw, err := w.Encode()
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	_, err = Decode([]byte(`{"step":"somewhere"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
