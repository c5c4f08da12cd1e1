package abi

import (
	"fmt"

	"github.com/susji/sysvabi/types"
)

type ArgKind int

const (
	ARG_IGNORE ArgKind = iota
	ARG_EXTEND
	ARG_DIRECT
	ARG_INDIRECT
	ARG_EXPAND
)

var argkindnames = [...]string{
	"Ignore",
	"Extend",
	"Direct",
	"Indirect",
	"Expand",
}

func (k ArgKind) String() string {
	return argkindnames[k]
}

// CanHaveCoerceType tells if values of this kind carry a register type.
func (k ArgKind) CanHaveCoerceType() bool {
	return k == ARG_DIRECT || k == ARG_EXTEND
}

func (k ArgKind) InReg() bool {
	return k == ARG_DIRECT || k == ARG_EXTEND || k == ARG_INDIRECT
}

// ArgInfo is how a single argument or return value is passed. The variants
// are Ignore, Extend, Direct, Indirect and Expand.
type ArgInfo interface {
	Kind() ArgKind
	CanHaveCoerceType() bool
	InReg() bool
	String() string
	arginfo()
}

// Ignore is for values with no storage, such as void.
type Ignore struct{}

// Extend passes an integer in a register, sign- or zero-extended to the
// register width according to the signedness of CoerceType.
type Extend struct {
	CoerceType types.CType
}

// Direct passes the value in one or two registers. A nil CoerceType means the
// value is passed as its own type. Offset is the byte offset within the
// value where the register contents start.
type Direct struct {
	CoerceType types.CType
	Offset     int
}

// Indirect passes a pointer to a copy of the value. Align is in bytes.
type Indirect struct {
	Align   int
	ByVal   bool
	Realign bool
}

// Expand splits an aggregate into its members. It is never produced for
// SysV x86-64.
type Expand struct{}

func (i *Ignore) Kind() ArgKind   { return ARG_IGNORE }
func (i *Extend) Kind() ArgKind   { return ARG_EXTEND }
func (i *Direct) Kind() ArgKind   { return ARG_DIRECT }
func (i *Indirect) Kind() ArgKind { return ARG_INDIRECT }
func (i *Expand) Kind() ArgKind   { return ARG_EXPAND }

func (i *Ignore) CanHaveCoerceType() bool   { return i.Kind().CanHaveCoerceType() }
func (i *Extend) CanHaveCoerceType() bool   { return i.Kind().CanHaveCoerceType() }
func (i *Direct) CanHaveCoerceType() bool   { return i.Kind().CanHaveCoerceType() }
func (i *Indirect) CanHaveCoerceType() bool { return i.Kind().CanHaveCoerceType() }
func (i *Expand) CanHaveCoerceType() bool   { return i.Kind().CanHaveCoerceType() }

func (i *Ignore) InReg() bool   { return i.Kind().InReg() }
func (i *Extend) InReg() bool   { return i.Kind().InReg() }
func (i *Direct) InReg() bool   { return i.Kind().InReg() }
func (i *Indirect) InReg() bool { return i.Kind().InReg() }
func (i *Expand) InReg() bool   { return i.Kind().InReg() }

func (i *Ignore) arginfo()   {}
func (i *Extend) arginfo()   {}
func (i *Direct) arginfo()   {}
func (i *Indirect) arginfo() {}
func (i *Expand) arginfo()   {}

func typeString(t types.CType) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func (i *Ignore) String() string {
	return "<Ignore>"
}

func (i *Extend) String() string {
	return fmt.Sprintf("<Extend type=%s>", typeString(i.CoerceType))
}

func (i *Direct) String() string {
	return fmt.Sprintf("<Direct type=%s offset=%d>", typeString(i.CoerceType), i.Offset)
}

func (i *Indirect) String() string {
	return fmt.Sprintf("<Indirect align=%d byval=%t realign=%t>", i.Align, i.ByVal, i.Realign)
}

func (i *Expand) String() string {
	return "<Expand>"
}

// CoerceType returns the register type of Direct and Extend, and nil for
// the rest.
func CoerceType(info ArgInfo) types.CType {
	switch info := info.(type) {
	case *Direct:
		return info.CoerceType
	case *Extend:
		return info.CoerceType
	}
	return nil
}
