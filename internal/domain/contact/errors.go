package contact

import (
	"errors"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown contact category")

// FieldError describes one constraint a payload field failed.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a submission, in field order.
type ValidationError struct {
	Category Category
	Fields   []FieldError
	cause    error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.cause }

// Has reports whether field failed rule. An empty rule matches any rule.
func (e *ValidationError) Has(field string, rule string) bool {
	for _, f := range e.Fields {
		if f.Field == field && (rule == "" || f.Rule == rule) {
			return true
		}
	}
	return false
}
