// Package types captures everything the ABI layer needs to know about a C
// type: its shape, its bit widths and the qualifiers wrapping it. Sizes and
// alignments are not stored here; those belong to the target.
package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KIND_VOID Kind = iota
	KIND_INTEGER
	KIND_FLOAT
	KIND_POINTER
	KIND_ARRAY
	KIND_VECTOR
	KIND_STRUCT
	KIND_FUNCTION
)

var kindnames = [...]string{
	"void",
	"integer",
	"float",
	"pointer",
	"array",
	"vector",
	"struct",
	"function",
}

func (k Kind) String() string {
	return kindnames[k]
}

// CType is the closed set of C types. The unexported marker keeps other
// packages from adding variants, so a type switch over the variants below is
// exhaustive.
type CType interface {
	Kind() Kind
	String() string
	Qual() QualType
	ctype()
}

type Void struct{}

type Integer struct {
	Name       string
	Signed     bool
	Bits       int
	Promotable bool
}

type Float struct {
	Name string
	Bits int
}

type Pointer struct {
	Pointee QualType
}

type Array struct {
	Elem QualType
	Len  int
}

type Vector struct {
	Elem QualType
	Len  int
}

type Function struct {
	Return   QualType
	Args     []QualType
	Variadic bool
}

func NewVoid() *Void {
	return &Void{}
}

func NewInteger(name string, signed bool, bits int, promotable bool) *Integer {
	return &Integer{
		Name:       name,
		Signed:     signed,
		Bits:       bits,
		Promotable: promotable,
	}
}

func NewFloat(name string, bits int) *Float {
	return &Float{Name: name, Bits: bits}
}

func NewPointer(pointee Qualifiable) *Pointer {
	return &Pointer{Pointee: Qualify(pointee)}
}

func NewArray(elem Qualifiable, length int) *Array {
	if length < 0 {
		panic(fmt.Sprintf("array length < 0: %d", length))
	}
	return &Array{Elem: Qualify(elem), Len: length}
}

func NewVector(elem Qualifiable, length int) *Vector {
	if length <= 0 {
		panic(fmt.Sprintf("vector length <= 0: %d", length))
	}
	return &Vector{Elem: Qualify(elem), Len: length}
}

func NewFunction(ret Qualifiable, args []Qualifiable, variadic bool) *Function {
	f := &Function{
		Return:   Qualify(ret),
		Variadic: variadic,
	}
	for _, a := range args {
		f.Args = append(f.Args, Qualify(a))
	}
	return f
}

func (t *Void) Kind() Kind     { return KIND_VOID }
func (t *Integer) Kind() Kind  { return KIND_INTEGER }
func (t *Float) Kind() Kind    { return KIND_FLOAT }
func (t *Pointer) Kind() Kind  { return KIND_POINTER }
func (t *Array) Kind() Kind    { return KIND_ARRAY }
func (t *Vector) Kind() Kind   { return KIND_VECTOR }
func (t *Struct) Kind() Kind   { return KIND_STRUCT }
func (t *Function) Kind() Kind { return KIND_FUNCTION }

func (t *Void) Qual() QualType     { return QualType{Type: t} }
func (t *Integer) Qual() QualType  { return QualType{Type: t} }
func (t *Float) Qual() QualType    { return QualType{Type: t} }
func (t *Pointer) Qual() QualType  { return QualType{Type: t} }
func (t *Array) Qual() QualType    { return QualType{Type: t} }
func (t *Vector) Qual() QualType   { return QualType{Type: t} }
func (t *Struct) Qual() QualType   { return QualType{Type: t} }
func (t *Function) Qual() QualType { return QualType{Type: t} }

func (t *Void) ctype()     {}
func (t *Integer) ctype()  {}
func (t *Float) ctype()    {}
func (t *Pointer) ctype()  {}
func (t *Array) ctype()    {}
func (t *Vector) ctype()   {}
func (t *Struct) ctype()   {}
func (t *Function) ctype() {}

func IsVoid(t CType) bool {
	_, ok := t.(*Void)
	return ok
}

func IsInteger(t CType) bool {
	_, ok := t.(*Integer)
	return ok
}

func IsFloat(t CType) bool {
	_, ok := t.(*Float)
	return ok
}

func IsPointer(t CType) bool {
	_, ok := t.(*Pointer)
	return ok
}

func IsStruct(t CType) bool {
	_, ok := t.(*Struct)
	return ok
}

// IsScalar is true for the types that fit a single register on their own.
func IsScalar(t CType) bool {
	switch t.(type) {
	case *Integer, *Float, *Pointer:
		return true
	}
	return false
}

func IsAggregate(t CType) bool {
	switch t.(type) {
	case *Array, *Vector, *Struct:
		return true
	}
	return false
}

// Equal compares types structurally, except for named structs, which are
// equal only to themselves. Integer and float names are spelling only: `int'
// and `int32_t' are the same type.
func Equal(a, b CType) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Void:
		_, ok := b.(*Void)
		return ok
	case *Integer:
		b, ok := b.(*Integer)
		return ok && a.Signed == b.Signed && a.Bits == b.Bits &&
			a.Promotable == b.Promotable
	case *Float:
		b, ok := b.(*Float)
		return ok && a.Bits == b.Bits
	case *Pointer:
		b, ok := b.(*Pointer)
		return ok && a.Pointee.Equal(b.Pointee)
	case *Array:
		b, ok := b.(*Array)
		return ok && a.Len == b.Len && a.Elem.Equal(b.Elem)
	case *Vector:
		b, ok := b.(*Vector)
		return ok && a.Len == b.Len && a.Elem.Equal(b.Elem)
	case *Struct:
		b, ok := b.(*Struct)
		return ok && a.Matches(b)
	case *Function:
		b, ok := b.(*Function)
		return ok && a.Matches(b)
	default:
		panic(fmt.Sprintf("unrecognized type: %T", a))
	}
}

func (f *Function) Matches(f2 *Function) bool {
	if f.Variadic != f2.Variadic || len(f.Args) != len(f2.Args) {
		return false
	}
	if !f.Return.Equal(f2.Return) {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(f2.Args[i]) {
			return false
		}
	}
	return true
}

func (t *Void) String() string {
	return "void"
}

func (t *Integer) String() string {
	if t.Name != "" {
		return t.Name
	}
	if t.Signed {
		return fmt.Sprintf("int%d_t", t.Bits)
	}
	return fmt.Sprintf("uint%d_t", t.Bits)
}

func (t *Float) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("float%d", t.Bits)
}

func (t *Pointer) String() string {
	return fmt.Sprintf("%s*", t.Pointee)
}

func (t *Array) String() string {
	return fmt.Sprintf("%s[%d]", t.Elem, t.Len)
}

func (t *Vector) String() string {
	return fmt.Sprintf("<%d x %s>", t.Len, t.Elem)
}

func (f *Function) String() string {
	b := &strings.Builder{}
	b.WriteString(f.Return.String())
	b.WriteString("(")
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	if f.Variadic {
		if len(f.Args) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	return b.String()
}
