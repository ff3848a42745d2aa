// Package ui renders the mixture form, the feature summary and the aging
// curve chart, and reads form submissions back into mixtures.
package ui

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"concretestrength/ml"
)

// InputError reports a form value that is not a number.
type InputError struct {
	Field string
	Raw   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid number", e.Field, e.Raw)
}

// ReadInput reads the eight mixture fields from form values. Missing fields
// take their default. The result has passed ml.ValidateInput when err is nil.
func ReadInput(values url.Values) (ml.MixtureInput, error) {
	input := ml.DefaultMixture()
	for _, field := range ml.InputFields() {
		raw := strings.TrimSpace(values.Get(field.Key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return input, &InputError{Field: field.Key, Raw: raw}
		}
		if field.Integer && value != math.Trunc(value) {
			return input, &InputError{Field: field.Key, Raw: raw}
		}
		if value < field.Min || value > field.Max {
			return input, &ml.BoundsError{Field: field, Value: value}
		}
		input.Set(field.Key, value)
	}
	if err := ml.ValidateInput(input); err != nil {
		return input, err
	}
	return input, nil
}

// EncodeInput is the inverse of ReadInput.
func EncodeInput(input ml.MixtureInput) url.Values {
	values := url.Values{}
	for _, field := range ml.InputFields() {
		value, _ := input.Get(field.Key)
		values.Set(field.Key, strconv.FormatFloat(value, 'f', -1, 64))
	}
	return values
}
