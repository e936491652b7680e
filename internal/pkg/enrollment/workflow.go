package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/symphonyguild/guildsite/internal/pkg/membership"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current step.
	ErrInvalidTransition = errors.New("invalid enrollment transition")
	// ErrUnknownField is returned by SetField for names outside the form.
	ErrUnknownField = errors.New("unknown form field")
)

// Step is a state of the enrollment wizard.
type Step string

const (
	StepTierSelection Step = "tier_selection"
	StepPersonalInfo  Step = "personal_info"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

func (s Step) valid() bool {
	switch s {
	case StepTierSelection, StepPersonalInfo, StepPayment, StepConfirmation:
		return true
	}
	return false
}

// Editable field names accepted by SetField.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldStreet          = "address.street"
	FieldCity            = "address.city"
	FieldState           = "address.state"
	FieldZipCode         = "address.zipCode"
	FieldNewsletterOptIn = "newsletterOptIn"
)

// Workflow is one member's in-progress enrollment: the current step plus the
// form collected so far. The zero value is not usable; start with New.
type Workflow struct {
	Step         Step                        `json:"step"`
	Form         membership.FormData         `json:"form"`
	SubmissionID string                      `json:"submissionId,omitempty"`
	Errors       membership.ValidationErrors `json:"errors,omitempty"`
}

// New starts a wizard on the tier step with the given tier preselected and
// the newsletter box ticked.
func New(defaultTierID string) *Workflow {
	return &Workflow{
		Step: StepTierSelection,
		Form: membership.FormData{
			TierID:          defaultTierID,
			NewsletterOptIn: true,
		},
	}
}

// SelectTier changes the chosen tier. Only allowed on the tier step.
func (w *Workflow) SelectTier(id string) error {
	if w.Step != StepTierSelection {
		return fmt.Errorf("%w: cannot select a tier during %s", ErrInvalidTransition, w.Step)
	}
	w.Form.TierID = strings.TrimSpace(id)
	return nil
}

// SetField stores one form value. Phone input is reformatted to
// "(XXX) XXX-XXXX" as soon as it holds exactly ten digits. Values can be
// edited until the payment step is reached.
func (w *Workflow) SetField(field, value string) error {
	if w.Step != StepTierSelection && w.Step != StepPersonalInfo {
		return fmt.Errorf("%w: form is locked during %s", ErrInvalidTransition, w.Step)
	}

	switch field {
	case FieldFirstName:
		w.Form.FirstName = value
	case FieldLastName:
		w.Form.LastName = value
	case FieldEmail:
		w.Form.Email = value
	case FieldPhone:
		if formatted := membership.FormatPhoneNumber(value); formatted != value {
			value = formatted
		}
		w.Form.Phone = value
	case FieldStreet:
		w.address().Street = value
	case FieldCity:
		w.address().City = value
	case FieldState:
		w.address().State = value
	case FieldZipCode:
		w.address().ZipCode = value
	case FieldNewsletterOptIn:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("newsletterOptIn must be true or false: %w", err)
		}
		w.Form.NewsletterOptIn = b
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	w.clearErrors(field)
	return nil
}

// SetFields stores several values in field name order. When one value is
// rejected the workflow is left unchanged.
func (w *Workflow) SetFields(values map[string]string) error {
	next := w.clone()
	for _, field := range slices.Sorted(maps.Keys(values)) {
		if err := next.SetField(field, values[field]); err != nil {
			return err
		}
	}
	*w = *next
	return nil
}

// Next advances one step. Leaving personal_info requires the form to pass
// validation; on failure the workflow stays put and Errors lists every issue.
// The payment step is left only through CompletePayment.
func (w *Workflow) Next() error {
	switch w.Step {
	case StepTierSelection:
		if w.Form.TierID == "" {
			return fmt.Errorf("%w: no tier selected", ErrInvalidTransition)
		}
		w.Step = StepPersonalInfo
		return nil
	case StepPersonalInfo:
		if err := membership.ValidateForm(w.Form); err != nil {
			var verrs membership.ValidationErrors
			if errors.As(err, &verrs) {
				w.Errors = verrs
			}
			return err
		}
		w.Errors = nil
		w.Step = StepPayment
		return nil
	default:
		return fmt.Errorf("%w: no next step from %s", ErrInvalidTransition, w.Step)
	}
}

// Back moves one step towards the start without clearing entered values.
// Confirmation is terminal.
func (w *Workflow) Back() error {
	switch w.Step {
	case StepPayment:
		w.Step = StepPersonalInfo
	case StepPersonalInfo:
		w.Step = StepTierSelection
	default:
		return fmt.Errorf("%w: no previous step from %s", ErrInvalidTransition, w.Step)
	}
	return nil
}

// CompletePayment runs the payment step and moves to confirmation when it
// succeeds. A failed payment leaves the workflow on the payment step.
func (w *Workflow) CompletePayment(ctx context.Context, payment PaymentStep) error {
	if w.Step != StepPayment {
		return fmt.Errorf("%w: payment is only possible from %s", ErrInvalidTransition, StepPayment)
	}
	id, err := payment.Pay(ctx, w.Form)
	if err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}
	w.SubmissionID = id
	w.Step = StepConfirmation
	return nil
}

// Done reports whether the workflow reached its terminal step.
func (w *Workflow) Done() bool {
	return w.Step == StepConfirmation
}

func (w *Workflow) clone() *Workflow {
	c := *w
	if w.Form.Address != nil {
		addr := *w.Form.Address
		c.Form.Address = &addr
	}
	c.Errors = append(membership.ValidationErrors(nil), w.Errors...)
	return &c
}

func (w *Workflow) address() *membership.Address {
	if w.Form.Address == nil {
		w.Form.Address = &membership.Address{}
	}
	return w.Form.Address
}

func (w *Workflow) clearErrors(field string) {
	if len(w.Errors) == 0 {
		return
	}
	kept := w.Errors[:0]
	for _, fe := range w.Errors {
		if fe.Field != field {
			kept = append(kept, fe)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	w.Errors = kept
}

// Encode serializes the workflow for session storage.
func (w *Workflow) Encode() ([]byte, error) {
	return json.Marshal(w)
}

// Decode restores a workflow produced by Encode.
func Decode(raw []byte) (*Workflow, error) {
	var w Workflow
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode enrollment: %w", err)
	}
	if !w.Step.valid() {
		return nil, fmt.Errorf("decode enrollment: unknown step %q", w.Step)
	}
	return &w, nil
}
