package bsonx

import (
	"errors"
	"fmt"
)

// DecodeError reports a wire value that could not be converted into the
// requested Go value.
type DecodeError struct {
	Message string
	Field   string
	Value   any
}

func (e *DecodeError) Error() string {
	return e.Message
}

// NewDecodeError builds a DecodeError carrying the offending wire value.
func NewDecodeError(message string, value any) *DecodeError {
	return &DecodeError{Message: message, Value: value}
}

// NewMissingFieldError reports a required document field that was absent.
func NewMissingFieldError(field string) *DecodeError {
	return &DecodeError{
		Message: fmt.Sprintf("'%s' is missing", field),
		Field:   field,
	}
}

// EncodeError reports a Go value that has no document representation.
type EncodeError struct {
	Message string
	Type    string
}

func (e *EncodeError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Type)
}

// IsDecode reports whether err is or wraps a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsEncode reports whether err is or wraps an EncodeError.
func IsEncode(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee)
}

func invalidVariant(want string, got any) *DecodeError {
	return &DecodeError{
		Message: fmt.Sprintf("invalid variant, expected %s but found %s", want, wireTypeName(got)),
		Value:   got,
	}
}

func coerceError(value any, target string) *DecodeError {
	return &DecodeError{
		Message: fmt.Sprintf("invalid value, could not coerce `%v` into a %s", value, target),
		Value:   value,
	}
}
