package types

import "strings"

// Qualifiers is the set of C type qualifiers wrapping a type.
type Qualifiers uint8

const (
	Const Qualifiers = 1 << iota
	Restrict
	Volatile
)

var qualnames = [...]struct {
	q    Qualifiers
	name string
}{
	{Const, "const"},
	{Restrict, "restrict"},
	{Volatile, "volatile"},
}

func (q Qualifiers) Has(what Qualifiers) bool {
	return q&what == what
}

func (q Qualifiers) String() string {
	var parts []string
	for _, cur := range qualnames {
		if q.Has(cur.q) {
			parts = append(parts, cur.name)
		}
	}
	return strings.Join(parts, " ")
}

// Qualifiable is anything that can be seen as a qualified type. Both the
// CType variants and QualType itself are Qualifiable, and a QualType is its
// own qualified form. Qualify therefore never wraps twice.
type Qualifiable interface {
	Qual() QualType
}

func Qualify(what Qualifiable) QualType {
	return what.Qual()
}

// QualType pairs a type with its qualifiers. It is a value: the With and
// Without methods return a modified copy.
type QualType struct {
	Type  CType
	Quals Qualifiers
}

func (q QualType) Qual() QualType {
	return q
}

func (q QualType) Equal(q2 QualType) bool {
	return q.Quals == q2.Quals && Equal(q.Type, q2.Type)
}

func (q QualType) With(what Qualifiers) QualType {
	q.Quals |= what
	return q
}

func (q QualType) Without(what Qualifiers) QualType {
	q.Quals &^= what
	return q
}

func (q QualType) WithConst() QualType       { return q.With(Const) }
func (q QualType) WithoutConst() QualType    { return q.Without(Const) }
func (q QualType) WithRestrict() QualType    { return q.With(Restrict) }
func (q QualType) WithoutRestrict() QualType { return q.Without(Restrict) }
func (q QualType) WithVolatile() QualType    { return q.With(Volatile) }
func (q QualType) WithoutVolatile() QualType { return q.Without(Volatile) }

func (q QualType) String() string {
	if q.Type == nil {
		return "<nil>"
	}
	if q.Quals == 0 {
		return q.Type.String()
	}
	return q.Quals.String() + " " + q.Type.String()
}
