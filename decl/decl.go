// Package decl reads C declarations and turns them into types. It covers
// what headers describing a function interface use: struct definitions,
// typedefs and function prototypes. Function bodies and initializers are
// skipped, and variable declarations are checked but not recorded.
//
// Named structs live in the TypeSystem given to the Parser, so several
// files sharing one TypeSystem also share their structs.
package decl

import (
	"errors"
	"fmt"

	"github.com/susji/sysvabi/lex"
	"github.com/susji/sysvabi/token"
	"github.com/susji/sysvabi/types"
)

var (
	ErrParse       = errors.New("parsing met with error(s)")
	ErrLex         = errors.New("lexing met with error(s)")
	ErrUnsupported = errors.New("unsupported declaration")
	EOT            = token.EOT
)

// Function is a function declared or defined at file scope.
type Function struct {
	Name    string
	Type    *types.Function
	Defined bool
	Tok     *token.Token
}

type Parser struct {
	fn        string
	ts        *types.TypeSystem
	errs      []error
	typedefs  map[string]types.QualType
	functions []*Function
	byname    map[string]*Function
}

func (p *Parser) errorf(tok *token.Token, format string, a ...interface{}) error {
	err := &DeclError{
		Tok:     tok,
		Fn:      p.fn,
		Wrapped: fmt.Errorf(format, a...),
	}
	p.errs = append(p.errs, err)
	return err
}

func (p *Parser) Errors() []error {
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs
}

func (p *Parser) Fn() string {
	return p.fn
}

func (p *Parser) TypeSystem() *types.TypeSystem {
	return p.ts
}

// Functions returns the functions in the order they were first declared.
func (p *Parser) Functions() []*Function {
	return p.functions
}

func (p *Parser) Function(name string) (*Function, bool) {
	f, ok := p.byname[name]
	return f, ok
}

// Typedefs returns the typedefs declared in the parsed source. The builtin
// ones are not included.
func (p *Parser) Typedefs() map[string]types.QualType {
	return p.typedefs
}

// Typedef looks up a typedef, falling back to the builtin ones.
func (p *Parser) Typedef(name string) (types.QualType, bool) {
	if t, ok := p.typedefs[name]; ok {
		return t, true
	}
	if mk, ok := builtinTypedefs[name]; ok {
		return mk(), true
	}
	return types.QualType{}, false
}

func (p *Parser) IsTypedef(name string) bool {
	_, ok := p.Typedef(name)
	return ok
}

func (p *Parser) addTypedef(tok *token.Token, name string, t types.QualType) error {
	if isReserved(name) {
		return p.errorf(tok, "typedef name %q is reserved", name)
	}
	// Repeating an identical typedef is fine in C11.
	if prev, ok := p.typedefs[name]; ok && !prev.Equal(t) {
		return p.errorf(tok, "conflicting typedef %q: %s vs. %s", name, prev, t)
	}
	p.typedefs[name] = t
	return nil
}

func (p *Parser) addFunction(tok *token.Token, name string, ft *types.Function, defined bool) error {
	if prev, ok := p.byname[name]; ok {
		if !prev.Type.Matches(ft) {
			return p.errorf(tok, "conflicting types for %q: %s vs. %s", name, prev.Type, ft)
		}
		if prev.Defined && defined {
			return p.errorf(tok, "function %q redefined", name)
		}
		prev.Defined = prev.Defined || defined
		return nil
	}
	f := &Function{
		Name:    name,
		Type:    ft,
		Defined: defined,
		Tok:     tok,
	}
	p.functions = append(p.functions, f)
	p.byname[name] = f
	return nil
}

// Parse consumes all tokens. Declarations that fail to parse are skipped up
// to the next ';' or '}' so that one pass reports as many errors as
// possible. Parse may be called again with more tokens: typedefs, structs
// and functions accumulate.
func (p *Parser) Parse(toks *token.Tokens) error {
	nerrs := len(p.errs)
	for toks.Peek() != nil {
		if err := p.Declaration(toks); err != nil {
			toks.Find(token.Semicolon, token.RCurly)
			toks.Pop()
		}
	}
	if len(p.errs) > nerrs {
		return ErrParse
	}
	return nil
}

// Source lexes and parses src. Lexing errors are returned as they are and
// stop the parse.
func (p *Parser) Source(src []rune) []error {
	toks, errs := lex.Lex(src)
	if len(errs) > 0 {
		var ret []error
		for _, err := range errs {
			ret = append(ret, fmt.Errorf("%s: %w: %v", p.fn, ErrLex, err))
		}
		return ret
	}
	if err := p.Parse(toks); err != nil {
		return p.Errors()
	}
	return nil
}

func NewFile(fn string, ts *types.TypeSystem) *Parser {
	return &Parser{
		fn:       fn,
		ts:       ts,
		typedefs: map[string]types.QualType{},
		byname:   map[string]*Function{},
	}
}

func New(ts *types.TypeSystem) *Parser {
	return NewFile("<stdin>", ts)
}

// FromSource is a shorthand for parsing a single file with a fresh
// TypeSystem.
func FromSource(fn string, src string) (*Parser, []error) {
	p := NewFile(fn, types.New())
	return p, p.Source([]rune(src))
}
