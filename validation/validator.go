package validation

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/previewkit/errors"
)

// FieldError is one failed check. Field uses config key notation, such as
// "storage.bucket".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks so that a config reports all of its
// problems at once. The check methods return the receiver for chaining.
type Validator struct {
	failed []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) AddError(field, message string) {
	v.failed = append(v.failed, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.failed) > 0 }

// Errors returns the failed checks in the order they were added.
func (v *Validator) Errors() []FieldError { return v.failed }

// Validate returns nil when every check passed. Otherwise it returns an
// INVALID_INPUT AppError whose message lists each failure and whose
// "fields" detail holds the []FieldError.
func (v *Validator) Validate() error {
	if len(v.failed) == 0 {
		return nil
	}
	var b strings.Builder
	for i, f := range v.failed {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Field + ": " + f.Message)
	}
	return errors.Validation(b.String()).WithDetail("fields", v.failed)
}

// Required fails on an empty or all-blank value.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// Range fails unless minVal <= value <= maxVal.
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	return v.Custom(value >= minVal && value <= maxVal, field,
		fmt.Sprintf("must be between %d and %d", minVal, maxVal))
}

// Min fails when value is below minVal.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	return v.Custom(value >= minVal, field, fmt.Sprintf("must be at least %d", minVal))
}

// OneOf fails unless value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	return v.Custom(slices.Contains(allowed, value), field,
		fmt.Sprintf("must be one of [%s] (got: %q)", strings.Join(allowed, ", "), value))
}

// HostPort fails unless value is "host:port" with a port in 0..65535. An
// empty host means every interface.
func (v *Validator) HostPort(field, value string) *Validator {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("must be host:port (got: %q)", value))
		return v
	}
	p, err := strconv.Atoi(port)
	return v.Custom(err == nil && p >= 0 && p <= 65535, field,
		fmt.Sprintf("port must be between 0 and 65535 (got: %s)", port))
}

// Custom records message for field when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}
