package membership

import (
	"encoding/json"
	"errors"
)

const msgInvalidValue = "Invalid value"

// DecodeRawForm decodes a JSON form body field by field. A field holding a
// value of the wrong JSON type is left empty and reported in the returned
// ValidationErrors; the other fields decode normally. The error is set only
// when the body is not a JSON object.
func DecodeRawForm(body []byte) (RawForm, ValidationErrors, error) {
	var raw RawForm
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return raw, nil, err
	}

	var decodeErrs ValidationErrors
	decodeFields(obj, "", []formField{
		{"tierId", &raw.TierID},
		{"firstName", &raw.FirstName},
		{"lastName", &raw.LastName},
		{"email", &raw.Email},
		{"phone", &raw.Phone},
	}, &decodeErrs)

	if msg, ok := obj["address"]; ok {
		var addr map[string]json.RawMessage
		if err := json.Unmarshal(msg, &addr); err != nil {
			decodeErrs = append(decodeErrs, FieldError{Field: "address", Message: msgInvalidValue})
		} else if addr != nil {
			raw.Address = &RawAddress{}
			decodeFields(addr, "address.", []formField{
				{"street", &raw.Address.Street},
				{"city", &raw.Address.City},
				{"state", &raw.Address.State},
				{"zipCode", &raw.Address.ZipCode},
			}, &decodeErrs)
		}
	}

	decodeFields(obj, "", []formField{{"newsletterOptIn", &raw.NewsletterOptIn}}, &decodeErrs)
	return raw, decodeErrs, nil
}

type formField struct {
	name string
	dst  interface{}
}

func decodeFields(obj map[string]json.RawMessage, prefix string, fields []formField, errs *ValidationErrors) {
	for _, f := range fields {
		msg, ok := obj[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, f.dst); err != nil {
			*errs = append(*errs, FieldError{Field: prefix + f.name, Message: msgInvalidValue})
		}
	}
}

// ValidateDecoded validates a form decoded by DecodeRawForm. Decode errors
// come first; rule violations follow for every field that decoded cleanly.
func ValidateDecoded(raw RawForm, decodeErrs ValidationErrors) (FormData, error) {
	form, err := Validate(raw)
	if len(decodeErrs) == 0 {
		return form, err
	}

	out := append(ValidationErrors{}, decodeErrs...)
	var verrs ValidationErrors
	if err != nil && !errors.As(err, &verrs) {
		return FormData{}, err
	}
	for _, fe := range verrs {
		if !decodeErrs.Has(fe.Field) {
			out = append(out, fe)
		}
	}
	return FormData{}, out
}
