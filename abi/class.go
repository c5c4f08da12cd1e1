package abi

// Class is the ABI class of one eightbyte.
type Class int

const (
	CLASS_NO_CLASS Class = iota
	CLASS_INTEGER
	CLASS_SSE
	CLASS_SSEUP
	CLASS_X87
	CLASS_X87UP
	CLASS_COMPLEX_X87
	CLASS_MEMORY
)

var classnames = [...]string{
	"NoClass",
	"Integer",
	"SSE",
	"SSEUp",
	"X87",
	"X87Up",
	"ComplexX87",
	"Memory",
}

func (c Class) String() string {
	return classnames[c]
}

func (c Class) isX87() bool {
	return c == CLASS_X87 || c == CLASS_X87UP || c == CLASS_COMPLEX_X87
}

// merge folds the class of a field into the accumulated class of the
// eightbyte it shares with earlier fields.
func merge(acc, field Class) Class {
	switch {
	case acc == field:
		return acc
	case field == CLASS_NO_CLASS:
		return acc
	case acc == CLASS_NO_CLASS:
		return field
	case acc == CLASS_MEMORY || field == CLASS_MEMORY:
		return CLASS_MEMORY
	case acc == CLASS_INTEGER || field == CLASS_INTEGER:
		return CLASS_INTEGER
	case acc.isX87() || field.isX87():
		return CLASS_MEMORY
	}
	return CLASS_SSE
}

// postMerge applies the cleanup rules once all fields have been merged.
// size is the size of the whole value in bytes.
func postMerge(size int, hi, lo Class) (Class, Class) {
	if hi == CLASS_MEMORY {
		lo = CLASS_MEMORY
	}
	if hi == CLASS_X87UP && lo != CLASS_X87 {
		lo = CLASS_MEMORY
	}
	if size > 16 && (lo != CLASS_SSE || hi != CLASS_SSEUP) {
		lo = CLASS_MEMORY
	}
	if hi == CLASS_SSEUP && lo != CLASS_SSE {
		hi = CLASS_SSE
	}
	return hi, lo
}
