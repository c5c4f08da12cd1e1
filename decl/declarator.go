package decl

import (
	"errors"
	"strconv"
	"strings"

	"github.com/susji/sysvabi/token"
	"github.com/susji/sysvabi/types"
)

// wrapper builds the declared type around the type given by the
// specifiers.
type wrapper func(base types.QualType) (types.QualType, error)

type params struct {
	args     []types.QualType
	variadic bool
}

// suffix is either an array or a parameter list following the direct
// declarator.
type suffix struct {
	length int
	fn     *params
}

func (s suffix) apply(t types.QualType) (types.QualType, error) {
	if s.fn != nil {
		switch t.Type.(type) {
		case *types.Function:
			return types.QualType{}, errors.New("function returning a function")
		case *types.Array:
			return types.QualType{}, errors.New("function returning an array")
		}
		// Qualifiers of the return type are meaningless.
		return (&types.Function{
			Return:   types.QualType{Type: t.Type},
			Args:     s.fn.args,
			Variadic: s.fn.variadic,
		}).Qual(), nil
	}
	switch t.Type.(type) {
	case *types.Function:
		return types.QualType{}, errors.New("array of functions")
	case *types.Void:
		return types.QualType{}, errors.New("array of void")
	}
	return types.NewArray(t, s.length).Qual(), nil
}

// Declarator parses the part of a declaration that names the declared
// thing and shapes its type:
//
//	<declarator> = { "*" { <qualifier> } } <direct> { <suffix> }
//	<direct>     = <identifier> | "(" <declarator> ")"
//	<suffix>     = "[" [ <number> ] "]" | "(" <params> ")"
//
// An abstract declarator, as in a parameter list, may leave the identifier
// out. The returned token is the identifier or, without one, the first
// token of the declarator.
func (p *Parser) Declarator(toks *token.Tokens, abstract bool) (string, *token.Token, wrapper, error) {
	first := toks.Peek()
	if first == nil {
		return "", nil, nil, EOT
	}
	var ptrs []types.Qualifiers
	for toks.Accept(token.Star) == nil {
		var q types.Qualifiers
	quals:
		for {
			cur := toks.Peek()
			if cur == nil || cur.Kind() != token.Id {
				break
			}
			if cq, ok := qualifiers[cur.Value()]; ok {
				q |= cq
				toks.Pop()
				continue
			}
			if _, ok := attributes[cur.Value()]; ok {
				if err := p.skipAttributes(toks); err != nil {
					return "", nil, nil, err
				}
				continue
			}
			break quals
		}
		ptrs = append(ptrs, q)
	}

	var name string
	nametok := first
	inner := func(t types.QualType) (types.QualType, error) { return t, nil }
	cur := toks.Peek()
	switch {
	case cur == nil:
		if !abstract {
			return "", nil, nil, p.errorf(first, "unexpected end of declarator")
		}
	case cur.Kind() == token.Id && !isReserved(cur.Value()):
		nametok = toks.Pop()
		name = nametok.Value()
	case cur.Kind() == token.LParen && p.nested(toks, abstract):
		toks.Pop()
		n, nt, w, err := p.Declarator(toks, abstract)
		if err != nil {
			return "", nil, nil, err
		}
		if err := toks.Accept(token.RParen); err != nil {
			return "", nil, nil, p.errorf(cur, "unterminated declarator: %w", err)
		}
		name, nametok, inner = n, nt, w
	default:
		if !abstract {
			return "", nil, nil, p.errorf(cur, "expecting a declarator, got %s", cur)
		}
	}

	var sufs []suffix
suffixes:
	for {
		cur := toks.Peek()
		if cur == nil {
			break
		}
		switch cur.Kind() {
		case token.LBrack:
			n, err := p.arraySuffix(toks)
			if err != nil {
				return "", nil, nil, err
			}
			sufs = append(sufs, suffix{length: n})
		case token.LParen:
			ps, err := p.Params(toks)
			if err != nil {
				return "", nil, nil, err
			}
			sufs = append(sufs, suffix{fn: ps})
		default:
			break suffixes
		}
	}

	wrap := func(t types.QualType) (types.QualType, error) {
		for _, q := range ptrs {
			t = types.QualType{Type: types.NewPointer(t), Quals: q}
		}
		for i := len(sufs) - 1; i >= 0; i-- {
			var err error
			if t, err = sufs[i].apply(t); err != nil {
				return types.QualType{}, err
			}
		}
		return inner(t)
	}
	return name, nametok, wrap, nil
}

// nested tells a parenthesized declarator, as in `int (*f)(void)', from a
// parameter list, as in the abstract `int (int)'.
func (p *Parser) nested(toks *token.Tokens, abstract bool) bool {
	next := toks.PeekN(1)
	if next == nil {
		return false
	}
	switch next.Kind() {
	case token.Star, token.LParen:
		return true
	case token.Id:
		if !abstract {
			return true
		}
		return !isReserved(next.Value()) && !p.IsTypedef(next.Value())
	}
	return false
}

func parseLength(s string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimRight(s, "uUlL"), 0, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// arraySuffix parses an array suffix and returns its length. `[]' has
// length zero.
func (p *Parser) arraySuffix(toks *token.Tokens) (int, error) {
	open := toks.Pop()
	// Parameter arrays may carry `static' and qualifiers.
	for {
		cur := toks.Peek()
		if cur == nil || cur.Kind() != token.Id {
			break
		}
		if _, ok := qualifiers[cur.Value()]; !ok && cur.Value() != "static" {
			break
		}
		toks.Pop()
	}
	if toks.Accept(token.RBrack) == nil {
		return 0, nil
	}
	num := toks.Peek()
	if num == nil {
		return 0, p.errorf(open, "unterminated array declarator")
	}
	if num.Kind() != token.DecNum && num.Kind() != token.HexNum {
		return 0, p.errorf(num, "%w: array length %s is not an integer literal",
			ErrUnsupported, num)
	}
	n, err := parseLength(num.Value())
	if err != nil {
		return 0, p.errorf(num, "invalid array length %q: %w", num.Value(), err)
	}
	toks.Pop()
	if err := toks.Accept(token.RBrack); err != nil {
		return 0, p.errorf(open, "unterminated array declarator: %w", err)
	}
	return n, nil
}

// Params parses a parameter list. Array and function parameters decay to
// pointers, and qualifiers on the parameters themselves are dropped as they
// are not part of the function type. Both `()' and `(void)' mean no
// parameters.
func (p *Parser) Params(toks *token.Tokens) (*params, error) {
	first := toks.Pop()
	ret := &params{}
	if toks.Accept(token.RParen) == nil {
		return ret, nil
	}
	if toks.Peek().Is(token.Id, "void") {
		if next := toks.PeekN(1); next != nil && next.Kind() == token.RParen {
			toks.Pop()
			toks.Pop()
			return ret, nil
		}
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil, p.errorf(first, "unterminated parameter list")
		}
		if cur.Kind() == token.Ellipsis {
			toks.Pop()
			ret.variadic = true
			if err := toks.Accept(token.RParen); err != nil {
				return nil, p.errorf(cur, "expecting ')' after '...': %w", err)
			}
			return ret, nil
		}
		sp, err := p.Specifiers(toks, true)
		if err != nil {
			return nil, err
		}
		_, nametok, wrap, err := p.Declarator(toks, true)
		if err != nil {
			return nil, err
		}
		t, err := wrap(sp.qt)
		if err != nil {
			return nil, p.errorf(nametok, "%w", err)
		}
		if err := p.skipAttributes(toks); err != nil {
			return nil, err
		}
		switch pt := t.Type.(type) {
		case *types.Array:
			t = types.NewPointer(pt.Elem).Qual()
		case *types.Function:
			t = types.NewPointer(pt).Qual()
		case *types.Void:
			return nil, p.errorf(cur, "void parameter")
		}
		ret.args = append(ret.args, types.QualType{Type: t.Type})
		if toks.Accept(token.Comma) == nil {
			continue
		}
		if err := toks.Accept(token.RParen); err != nil {
			return nil, p.errorf(first, "unterminated parameter list: %w", err)
		}
		return ret, nil
	}
}
