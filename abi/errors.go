package abi

import (
	"errors"
	"fmt"

	"github.com/susji/sysvabi/types"
)

var (
	ErrUnsupportedScalarWidth = errors.New("unsupported scalar width")
	ErrUnsupportedClass       = errors.New("unsupported ABI class")
	ErrInternalInconsistency  = errors.New("internal inconsistency")
	ErrOversizeAggregate      = errors.New("aggregate beyond supported layout")
	ErrUnsupportedConvention  = errors.New("unsupported calling convention")
)

// POSITION_RETURN is the ClassifyError position of the return value.
const POSITION_RETURN = -1

// ClassifyError tells which value of a signature failed to classify.
// Position is the zero-based argument index or POSITION_RETURN.
type ClassifyError struct {
	Type     types.CType
	Position int
	Wrapped  error
}

func (e *ClassifyError) Error() string {
	if e.Position == POSITION_RETURN {
		return fmt.Sprintf("return value %s: %s", typeString(e.Type), e.Wrapped)
	}
	return fmt.Sprintf("argument %d (%s): %s", e.Position, typeString(e.Type), e.Wrapped)
}

func (e *ClassifyError) Unwrap() error {
	return e.Wrapped
}
