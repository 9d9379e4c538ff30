package datatype

import (
	"fmt"
)

// TypeCastError reports a value that cannot be cast to, or compared as, a
// semantic type.
type TypeCastError struct {
	Value any
	Type  DataType
	Err   error
}

func newCastError(v any, dt DataType, err error) *TypeCastError {
	return &TypeCastError{Value: v, Type: dt, Err: err}
}

func (e *TypeCastError) Error() string {
	msg := fmt.Sprintf("cannot cast %T(%v) to %s", e.Value, e.Value, e.Type.Name())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeCastError) Unwrap() error {
	return e.Err
}
