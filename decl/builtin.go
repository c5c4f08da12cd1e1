package decl

import (
	"errors"

	"github.com/susji/sysvabi/types"
)

var storageClasses = map[string]struct{}{
	"typedef":       {},
	"extern":        {},
	"static":        {},
	"register":      {},
	"auto":          {},
	"inline":        {},
	"__inline":      {},
	"__inline__":    {},
	"_Noreturn":     {},
	"_Thread_local": {},
	"__extension__": {},
}

var qualifiers = map[string]types.Qualifiers{
	"const":        types.Const,
	"__const":      types.Const,
	"__const__":    types.Const,
	"volatile":     types.Volatile,
	"__volatile":   types.Volatile,
	"__volatile__": types.Volatile,
	"restrict":     types.Restrict,
	"__restrict":   types.Restrict,
	"__restrict__": types.Restrict,
}

// Attribute-like keywords are followed by a parenthesized list we skip.
var attributes = map[string]struct{}{
	"__attribute__": {},
	"__attribute":   {},
	"__declspec":    {},
	"__asm__":       {},
	"__asm":         {},
	"asm":           {},
	"_Alignas":      {},
}

var basicWords = map[string]struct{}{
	"void":     {},
	"char":     {},
	"short":    {},
	"int":      {},
	"long":     {},
	"float":    {},
	"double":   {},
	"signed":   {},
	"unsigned": {},
	"_Bool":    {},
	"__int128": {},
}

func isReserved(name string) bool {
	if _, ok := storageClasses[name]; ok {
		return true
	}
	if _, ok := qualifiers[name]; ok {
		return true
	}
	if _, ok := attributes[name]; ok {
		return true
	}
	if _, ok := basicWords[name]; ok {
		return true
	}
	switch name {
	case "struct", "union", "enum", "sizeof", "return", "if", "else",
		"for", "while", "do", "switch", "case", "default", "break",
		"continue", "goto":
		return true
	}
	return false
}

func vector(elem types.Qualifiable, n int) func() types.QualType {
	return func() types.QualType {
		return types.NewVector(elem, n).Qual()
	}
}

func integer(name string, signed bool, bits int) func() types.QualType {
	return func() types.QualType {
		return types.NewInteger(name, signed, bits, bits < 32).Qual()
	}
}

// builtinTypedefs are the names a header would get from <stdint.h>,
// <stddef.h>, <stdbool.h> and the x86 intrinsics headers.
var builtinTypedefs = map[string]func() types.QualType{
	"int8_t":    integer("int8_t", true, 8),
	"int16_t":   integer("int16_t", true, 16),
	"int32_t":   integer("int32_t", true, 32),
	"int64_t":   integer("int64_t", true, 64),
	"uint8_t":   integer("uint8_t", false, 8),
	"uint16_t":  integer("uint16_t", false, 16),
	"uint32_t":  integer("uint32_t", false, 32),
	"uint64_t":  integer("uint64_t", false, 64),
	"intptr_t":  integer("intptr_t", true, 64),
	"uintptr_t": integer("uintptr_t", false, 64),
	"intmax_t":  integer("intmax_t", true, 64),
	"uintmax_t": integer("uintmax_t", false, 64),
	"size_t":    integer("size_t", false, 64),
	"ssize_t":   integer("ssize_t", true, 64),
	"ptrdiff_t": integer("ptrdiff_t", true, 64),
	"wchar_t":   integer("wchar_t", true, 32),
	"bool":      func() types.QualType { return types.Bool().Qual() },
	"__m64":     vector(types.LongLong(), 1),
	"__m128":    vector(types.Float32(), 4),
	"__m128d":   vector(types.Float64(), 2),
	"__m128i":   vector(types.LongLong(), 2),
	"__m256":    vector(types.Float32(), 8),
	"__m256d":   vector(types.Float64(), 4),
	"__m256i":   vector(types.LongLong(), 4),
}

// basic counts the words of a builtin type specifier, such as "unsigned
// long long int".
type basic struct {
	nvoid, nchar, nshort, nint, nlong, nfloat, ndouble int
	nsigned, nunsigned, nboolean, nint128              int
}

func (b *basic) empty() bool {
	return *b == basic{}
}

func (b *basic) add(word string) error {
	var n *int
	switch word {
	case "void":
		n = &b.nvoid
	case "char":
		n = &b.nchar
	case "short":
		n = &b.nshort
	case "int":
		n = &b.nint
	case "long":
		n = &b.nlong
	case "float":
		n = &b.nfloat
	case "double":
		n = &b.ndouble
	case "signed":
		n = &b.nsigned
	case "unsigned":
		n = &b.nunsigned
	case "_Bool":
		n = &b.nboolean
	case "__int128":
		n = &b.nint128
	default:
		panic("not a basic type word: " + word)
	}
	*n++
	if *n > 1 && !(word == "long" && *n == 2) {
		return errors.New("duplicate '" + word + "'")
	}
	return nil
}

var errBadCombination = errors.New("invalid combination of type specifiers")

// build maps the counted words to a type. Nothing but signedness means int.
func (b *basic) build() (types.CType, error) {
	if b.nsigned > 0 && b.nunsigned > 0 {
		return nil, errBadCombination
	}
	unsigned := b.nunsigned > 0
	sign := b.nsigned + b.nunsigned
	switch {
	case b.nvoid > 0:
		if *b != (basic{nvoid: 1}) {
			return nil, errBadCombination
		}
		return types.NewVoid(), nil
	case b.nboolean > 0:
		if *b != (basic{nboolean: 1}) {
			return nil, errBadCombination
		}
		return types.Bool(), nil
	case b.nfloat > 0:
		if *b != (basic{nfloat: 1}) {
			return nil, errBadCombination
		}
		return types.Float32(), nil
	case b.ndouble > 0:
		if b.ndouble+b.nlong != b.total() || b.nlong > 1 {
			return nil, errBadCombination
		}
		if b.nlong == 1 {
			return types.LongDouble(), nil
		}
		return types.Float64(), nil
	case b.nchar > 0:
		if b.nchar+sign != b.total() {
			return nil, errBadCombination
		}
		switch {
		case b.nsigned > 0:
			return types.SChar(), nil
		case unsigned:
			return types.UChar(), nil
		}
		return types.Char(), nil
	case b.nint128 > 0:
		if b.nint128+sign != b.total() {
			return nil, errBadCombination
		}
		if unsigned {
			return types.UIntN(128), nil
		}
		return types.IntN(128), nil
	}
	if b.nshort > 0 && b.nlong > 0 {
		return nil, errBadCombination
	}
	switch {
	case b.nshort > 0:
		if unsigned {
			return types.UShort(), nil
		}
		return types.Short(), nil
	case b.nlong == 2:
		if unsigned {
			return types.ULongLong(), nil
		}
		return types.LongLong(), nil
	case b.nlong == 1:
		if unsigned {
			return types.ULong(), nil
		}
		return types.Long(), nil
	}
	if unsigned {
		return types.UInt(), nil
	}
	return types.Int(), nil
}

func (b *basic) total() int {
	return b.nvoid + b.nchar + b.nshort + b.nint + b.nlong + b.nfloat + b.ndouble +
		b.nsigned + b.nunsigned + b.nboolean + b.nint128
}
