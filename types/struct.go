package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStructAlreadyDefined = errors.New("struct already defined")
	ErrStructSelfEmbed      = errors.New("struct embeds itself")
	ErrDuplicateField       = errors.New("duplicate struct field")
	ErrInvalidField         = errors.New("invalid struct field type")
)

type Field struct {
	Name string
	Type QualType
}

type Fields []Field

// Struct is either named, in which case it lives in a TypeSystem registry
// and is identified by it, or unnamed, in which case it is compared by
// layout. A struct starts out incomplete and is defined exactly once.
type Struct struct {
	name    string
	id      int
	fields  Fields
	defined bool
}

// NewUnnamedStruct returns a fresh, defined struct that is not registered
// anywhere.
func NewUnnamedStruct(fields Fields) (*Struct, error) {
	st := &Struct{}
	if err := st.Define(fields); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Struct) Name() string {
	return s.name
}

// ID is the registry id of a named struct. Unnamed structs have ID zero.
func (s *Struct) ID() int {
	return s.id
}

func (s *Struct) IsNamed() bool {
	return s.name != ""
}

func (s *Struct) IsDefined() bool {
	return s.defined
}

// Fields returns the fields in declaration order. The returned slice must
// not be modified.
func (s *Struct) Fields() Fields {
	return s.fields
}

// Define completes s. It takes no locks: a struct must be defined before it
// is shared between goroutines. Registered structs that several goroutines
// may race to define go through TypeSystem.DefineStruct instead, which
// defines them under the registry lock.
func (s *Struct) Define(fields Fields) error {
	if s.defined {
		return fmt.Errorf("%w: %s", ErrStructAlreadyDefined, s)
	}
	seen := map[string]struct{}{}
	for _, f := range fields {
		if f.Type.Type == nil {
			panic(fmt.Sprintf("struct %s: field %q without type", s, f.Name))
		}
		if f.Name != "" {
			if _, ok := seen[f.Name]; ok {
				return fmt.Errorf("%w: %q in %s", ErrDuplicateField, f.Name, s)
			}
			seen[f.Name] = struct{}{}
		}
		if embeds(f.Type.Type, s) {
			return fmt.Errorf("%w: %s via field %q", ErrStructSelfEmbed, s, f.Name)
		}
		if err := checkObject(f.Type.Type); err != nil {
			return fmt.Errorf("%w: field %q of %s: %v", ErrInvalidField, f.Name, s, err)
		}
	}
	s.fields = append(Fields{}, fields...)
	s.defined = true
	return nil
}

// embeds tells if `what' contains `st' by value. Pointers break the chain.
func embeds(what CType, st *Struct) bool {
	switch t := what.(type) {
	case *Struct:
		if t == st {
			return true
		}
		for _, f := range t.fields {
			if embeds(f.Type.Type, st) {
				return true
			}
		}
	case *Array:
		return embeds(t.Elem.Type, st)
	case *Vector:
		return embeds(t.Elem.Type, st)
	}
	return false
}

func checkObject(what CType) error {
	switch t := what.(type) {
	case *Void:
		return errors.New("void member")
	case *Function:
		return errors.New("function member")
	case *Struct:
		if !t.defined {
			return fmt.Errorf("incomplete %s", t)
		}
	case *Array:
		return checkObject(t.Elem.Type)
	}
	return nil
}

func (s *Struct) Find(name string) *Field {
	for i := range s.fields {
		if s.fields[i].Name == name {
			return &s.fields[i]
		}
	}
	return nil
}

// Matches compares named structs by identity and unnamed structs by layout.
func (s *Struct) Matches(s2 *Struct) bool {
	if s.IsNamed() || s2.IsNamed() {
		return s == s2
	}
	return s.LayoutEqual(s2)
}

func (s *Struct) LayoutEqual(s2 *Struct) bool {
	if s.defined != s2.defined || len(s.fields) != len(s2.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i].Name != s2.fields[i].Name ||
			!s.fields[i].Type.Equal(s2.fields[i].Type) {
			return false
		}
	}
	return true
}

func (s *Struct) String() string {
	if s.IsNamed() {
		return "struct " + s.name
	}
	b := &strings.Builder{}
	b.WriteString("{")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Type.String())
	}
	b.WriteString("}")
	return b.String()
}

// Long includes the member list.
func (s *Struct) Long() string {
	head := "struct"
	if s.IsNamed() {
		head += " " + s.name
	}
	if !s.defined {
		return head
	}
	b := &strings.Builder{}
	b.WriteString(head)
	b.WriteString(" {")
	for _, f := range s.fields {
		b.WriteString(" ")
		b.WriteString(f.Type.String())
		if f.Name != "" {
			b.WriteString(" ")
			b.WriteString(f.Name)
		}
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}
