package schema

import (
	"errors"
	"fmt"
)

// MismatchError reports an input value outside its field's declared domain.
type MismatchError struct {
	Field  string
	Type   FieldType
	Value  string
	Reason string
}

func (e *MismatchError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q (%s): %s", e.Field, e.Type, e.Reason)
	}
	return fmt.Sprintf("field %q (%s): %s: %s", e.Field, e.Type, e.Reason, e.Value)
}

// IsMismatch reports whether err is or wraps a *MismatchError.
func IsMismatch(err error) bool {
	var m *MismatchError
	return errors.As(err, &m)
}

func mismatch(f FieldSpec, value, format string, args ...any) *MismatchError {
	return &MismatchError{
		Field:  f.Key,
		Type:   f.Type,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	}
}
