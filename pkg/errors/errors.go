package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrExternalService a remote collaborator (SMTP, provisioning API) failed.
// Never returned to HTTP clients; callers log it and continue.
var ErrExternalService = errors.New("external service failure")

// ValidationError field-level input errors, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records one more field error.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// HasErrors reports whether any field was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FromValidator converts validator/v10 field errors into a ValidationError.
// Other errors are returned unchanged.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = describe(fe)
	}
	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "champ obligatoire"
	case "email":
		return "adresse email invalide"
	case "max":
		return "valeur trop longue (max " + fe.Param() + ")"
	case "min":
		return "valeur trop courte (min " + fe.Param() + ")"
	case "datetime":
		return "date invalide (format " + fe.Param() + ")"
	case "oneof":
		return "valeur non autorisée"
	case "gte", "lte":
		return "valeur hors limites"
	default:
		return "valeur invalide"
	}
}

// MissingItemsError lists every requirement still unmet before a step can
// complete, using the labels shown to applicants.
type MissingItemsError struct {
	Items []string
}

func (e *MissingItemsError) Error() string {
	return "missing items: " + strings.Join(e.Items, ", ")
}
