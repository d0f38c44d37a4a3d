package shipper

import (
	"strings"
)

// Field pairs a builder argument name with its value for blank checks.
type Field struct {
	Name  string
	Value string
}

// NotBlank returns a FieldError for the first field whose value is blank.
func NotBlank(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return &FieldError{Field: f.Name, Reason: ReasonBlank}
		}
	}
	return nil
}

// Draft holds the state every carrier builder accumulates across fluent
// calls. The first validation error sticks and is reported by the terminal
// operation, before any adapter call.
type Draft struct {
	Account  Account
	Payload  Payload
	TestMode bool
	Err      error
}

// Fail records err unless an earlier error is already recorded.
func (d *Draft) Fail(err error) {
	if d.Err == nil && err != nil {
		d.Err = err
	}
}

// Ready returns the recorded error, or NotConfigured if no account was set.
func (d *Draft) Ready() error {
	if d.Err != nil {
		return d.Err
	}
	if d.Account == nil {
		return NotConfigured()
	}
	return nil
}
