package types

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

var ErrStructNameEmpty = errors.New("struct name is empty")

// The builtin scalars follow the LP64 data model. Integers ranking below
// `int' are promotable.

func Bool() *Integer      { return NewInteger("_Bool", false, 8, true) }
func Char() *Integer      { return NewInteger("char", true, 8, true) }
func SChar() *Integer     { return NewInteger("signed char", true, 8, true) }
func UChar() *Integer     { return NewInteger("unsigned char", false, 8, true) }
func Short() *Integer     { return NewInteger("short", true, 16, true) }
func UShort() *Integer    { return NewInteger("unsigned short", false, 16, true) }
func Int() *Integer       { return NewInteger("int", true, 32, false) }
func UInt() *Integer      { return NewInteger("unsigned int", false, 32, false) }
func Long() *Integer      { return NewInteger("long", true, 64, false) }
func ULong() *Integer     { return NewInteger("unsigned long", false, 64, false) }
func LongLong() *Integer  { return NewInteger("long long", true, 64, false) }
func ULongLong() *Integer { return NewInteger("unsigned long long", false, 64, false) }
func Float32() *Float     { return NewFloat("float", 32) }
func Float64() *Float     { return NewFloat("double", 64) }
func LongDouble() *Float  { return NewFloat("long double", 80) }

// IntN returns the signed `intN_t' integer.
func IntN(bits int) *Integer {
	return NewInteger(fmt.Sprintf("int%d_t", bits), true, bits, bits < 32)
}

// UIntN returns the unsigned `uintN_t' integer. Widths that are not a C
// type, such as 24, are legal and describe register-carried chunks.
func UIntN(bits int) *Integer {
	return NewInteger(fmt.Sprintf("uint%d_t", bits), false, bits, bits < 32)
}

// TypeSystem owns the registry of named structs. It is safe for concurrent
// use.
type TypeSystem struct {
	mu      sync.Mutex
	structs map[string]*Struct
	// arena holds the named structs by id-1.
	arena []*Struct
}

func New() *TypeSystem {
	return &TypeSystem{
		structs: map[string]*Struct{},
	}
}

func (ts *TypeSystem) newStruct(name string) *Struct {
	st := &Struct{name: name}
	ts.register(st)
	return st
}

func (ts *TypeSystem) register(st *Struct) {
	st.id = len(ts.arena) + 1
	ts.arena = append(ts.arena, st)
	ts.structs[st.name] = st
}

// Struct returns the named struct, creating an incomplete one if the name is
// not registered yet.
func (ts *TypeSystem) Struct(name string) (*Struct, error) {
	if name == "" {
		return nil, ErrStructNameEmpty
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if st, ok := ts.structs[name]; ok {
		return st, nil
	}
	return ts.newStruct(name), nil
}

// DefineStruct is Struct followed by Define.
func (ts *TypeSystem) DefineStruct(name string, fields Fields) (*Struct, error) {
	if name == "" {
		return nil, ErrStructNameEmpty
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	st, ok := ts.structs[name]
	if !ok {
		st = ts.newStruct(name)
	}
	if err := st.Define(fields); err != nil {
		return nil, err
	}
	return st, nil
}

// InsertStruct always registers a new struct. If the name is taken, it is
// renamed by appending or incrementing a numeric suffix until it is unique:
// "name", "name.0", "name.1" and so on. A nil fields leaves the struct
// incomplete.
func (ts *TypeSystem) InsertStruct(name string, fields Fields) (*Struct, error) {
	if name == "" {
		return nil, ErrStructNameEmpty
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	name = renameUntil(name, func(cand string) bool {
		_, taken := ts.structs[cand]
		return !taken
	})
	st := &Struct{name: name}
	if fields != nil {
		if err := st.Define(fields); err != nil {
			return nil, err
		}
	}
	ts.register(st)
	return st, nil
}

func (ts *TypeSystem) UnnamedStruct(fields Fields) (*Struct, error) {
	return NewUnnamedStruct(fields)
}

func (ts *TypeSystem) LookupStruct(name string) (*Struct, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	st, ok := ts.structs[name]
	return st, ok
}

func (ts *TypeSystem) StructByID(id int) *Struct {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if id <= 0 || id > len(ts.arena) {
		return nil
	}
	return ts.arena[id-1]
}

// Structs lists the registered structs in registration order.
func (ts *TypeSystem) Structs() []*Struct {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]*Struct{}, ts.arena...)
}

var renameRegex = regexp.MustCompile(`^(.*)\.(\d+)$`)

func renameUntil(name string, ok func(string) bool) string {
	for !ok(name) {
		if m := renameRegex.FindStringSubmatch(name); m != nil {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				// Too many digits to be one of ours.
				name += ".0"
				continue
			}
			name = fmt.Sprintf("%s.%d", m[1], n+1)
		} else {
			name += ".0"
		}
	}
	return name
}
