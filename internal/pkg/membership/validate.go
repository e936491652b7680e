package membership

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// 4-6 trailing digits are accepted, so a few malformed lengths pass.
	phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// FieldError is a single violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every violated rule of a form, in field order.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the given field path has at least one error.
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

var messages = map[string]string{
	"tierId.required":         "Please select a membership tier",
	"firstName.min":           "First name must be at least 2 characters",
	"firstName.max":           "First name is too long",
	"lastName.min":            "Last name must be at least 2 characters",
	"lastName.max":            "Last name is too long",
	"email.required":          "Please enter a valid email address",
	"email.max":               "Please enter a valid email address",
	"email.email":             "Please enter a valid email address",
	"phone.usphone":           "Please enter a valid phone number",
	"address.state.len":       "State must be 2 letters (e.g., TX)",
	"address.state.alpha":     "State must be 2 letters (e.g., TX)",
	"address.zipCode.zipcode": "Invalid ZIP code",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("usphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize applies defaults to a raw form without checking any rule.
// Absent newsletterOptIn becomes false and absent address fields become empty.
func Normalize(raw RawForm) FormData {
	form := FormData{
		TierID:    raw.TierID,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
		Email:     raw.Email,
		Phone:     raw.Phone,
	}
	if raw.NewsletterOptIn != nil {
		form.NewsletterOptIn = *raw.NewsletterOptIn
	}
	if raw.Address != nil {
		form.Address = &Address{
			Street:  deref(raw.Address.Street),
			City:    deref(raw.Address.City),
			State:   deref(raw.Address.State),
			ZipCode: deref(raw.Address.ZipCode),
		}
	}
	return form
}

// Validate checks a raw form against the membership rules. On success it
// returns the normalized form. On failure the error is a ValidationErrors
// holding one entry per violated rule.
//
// Whether the tier id exists in the catalog is left to the caller.
func Validate(raw RawForm) (FormData, error) {
	form := Normalize(raw)
	if err := ValidateForm(form); err != nil {
		return FormData{}, err
	}
	return form, nil
}

// ValidateForm checks an already normalized form.
func ValidateForm(form FormData) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		msg, ok := messages[path+"."+fe.Tag()]
		if !ok {
			msg = msgInvalidValue
		}
		out = append(out, FieldError{Field: path, Message: msg})
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace
// ("FormData.address.state" -> "address.state").
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
