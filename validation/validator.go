package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/canvasflow/errors"
)

// FieldError is one failed rule, keyed by its json field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates rule failures that struct tags cannot express,
// such as uniqueness across a slice of nodes.
type Validator struct {
	fields []FieldError
}

func New() *Validator { return &Validator{} }

func (v *Validator) AddError(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.fields) > 0 }

func (v *Validator) Errors() []FieldError { return v.fields }

// Validate folds the collected failures into one INVALID_INPUT AppError
// with the individual failures under the "fields" detail. It returns a
// plain nil error when nothing failed.
func (v *Validator) Validate() error {
	if len(v.fields) == 0 {
		return nil
	}
	var b strings.Builder
	for i, f := range v.fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
	}
	return errors.Validation(b.String()).WithDetail("fields", v.fields)
}

// Required fails when value is blank.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// Custom fails with message when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Unique fails for each value already seen under field.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]bool, len(values))
	for i, val := range values {
		if val == "" {
			continue
		}
		v.Custom(!seen[val], fmt.Sprintf("%s[%d]", field, i), "duplicate value "+val)
		seen[val] = true
	}
	return v
}

// Merge absorbs err. Field errors from another Validator or from
// ValidateStruct are copied as-is; any other error is recorded under field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		v.AddError(field, err.Error())
		return v
	}
	if fields, ok := appErr.Details["fields"].([]FieldError); ok {
		v.fields = append(v.fields, fields...)
	} else {
		v.AddError(field, appErr.Message)
	}
	return v
}
