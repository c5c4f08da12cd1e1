package decl

import (
	"github.com/susji/sysvabi/token"
	"github.com/susji/sysvabi/types"
)

// spec is what the declaration specifiers of one declaration produce.
type spec struct {
	typedef bool
	qt      types.QualType
}

// skipAttributes skips attribute-like keywords and their argument lists.
func (p *Parser) skipAttributes(toks *token.Tokens) error {
	for {
		cur := toks.Peek()
		if cur == nil || cur.Kind() != token.Id {
			return nil
		}
		if _, ok := attributes[cur.Value()]; !ok {
			return nil
		}
		toks.Pop()
		if next := toks.Peek(); next != nil && next.Kind() == token.LParen {
			if err := toks.SkipBalanced(); err != nil {
				return p.errorf(cur, "invalid %s: %w", cur.Value(), err)
			}
		}
	}
}

// Specifiers parses the declaration specifiers in front of the declarators.
// Storage classes are accepted only if storage is set, and of them only
// `typedef' has an effect.
func (p *Parser) Specifiers(toks *token.Tokens, storage bool) (*spec, error) {
	first := toks.Peek()
	if first == nil {
		return nil, EOT
	}
	ret := &spec{}
	var b basic
	var base types.CType
	var quals types.Qualifiers
loop:
	for {
		cur := toks.Peek()
		if cur == nil || cur.Kind() != token.Id {
			break
		}
		word := cur.Value()
		if _, ok := storageClasses[word]; ok {
			if !storage {
				return nil, p.errorf(cur, "storage class %q not allowed here", word)
			}
			toks.Pop()
			if word == "typedef" {
				ret.typedef = true
			}
			continue
		}
		if q, ok := qualifiers[word]; ok {
			quals |= q
			toks.Pop()
			continue
		}
		if _, ok := attributes[word]; ok {
			if err := p.skipAttributes(toks); err != nil {
				return nil, err
			}
			continue
		}
		if _, ok := basicWords[word]; ok {
			if base != nil {
				return nil, p.errorf(cur, "%q after %s", word, base)
			}
			if err := b.add(word); err != nil {
				return nil, p.errorf(cur, "%w", err)
			}
			toks.Pop()
			continue
		}
		switch word {
		case "struct", "union", "enum":
			if base != nil || !b.empty() {
				return nil, p.errorf(cur, "%q after a type", word)
			}
			t, err := p.tagged(toks)
			if err != nil {
				return nil, err
			}
			base = t
			continue
		}
		// Once we have a type, an identifier is the declarator even if it
		// names a typedef.
		if base == nil && b.empty() {
			if td, ok := p.Typedef(word); ok {
				toks.Pop()
				base = td.Type
				quals |= td.Quals
				continue
			}
		}
		break loop
	}
	if base == nil {
		if b.empty() {
			return nil, p.errorf(first, "expecting a type, got %s", first)
		}
		t, err := b.build()
		if err != nil {
			return nil, p.errorf(first, "%w", err)
		}
		base = t
	}
	ret.qt = types.QualType{Type: base, Quals: quals}
	return ret, nil
}

// tagged parses a struct, union or enum specifier. Enums are taken to be
// `unsigned int' and their enumerators are skipped.
func (p *Parser) tagged(toks *token.Tokens) (types.CType, error) {
	kw := toks.Pop()
	if err := p.skipAttributes(toks); err != nil {
		return nil, err
	}
	var name *token.Token
	if cur := toks.Peek(); cur != nil && cur.Kind() == token.Id {
		if isReserved(cur.Value()) {
			return nil, p.errorf(cur, "%s name %q is reserved", kw.Value(), cur.Value())
		}
		name = toks.Pop()
	}
	cur := toks.Peek()
	body := cur != nil && cur.Kind() == token.LCurly
	if name == nil && !body {
		return nil, p.errorf(kw, "expecting a name or a body for %s, got %s", kw.Value(), cur)
	}

	switch kw.Value() {
	case "union":
		return nil, p.errorf(kw, "%w: union", ErrUnsupported)
	case "enum":
		if body {
			if err := toks.SkipBalanced(); err != nil {
				return nil, p.errorf(kw, "invalid enum: %w", err)
			}
		}
		return types.UInt(), nil
	}

	if !body {
		st, err := p.ts.Struct(name.Value())
		if err != nil {
			return nil, p.errorf(name, "%w", err)
		}
		return st, nil
	}
	// A named struct is registered before its body so that its members may
	// point to it.
	if name != nil {
		if _, err := p.ts.Struct(name.Value()); err != nil {
			return nil, p.errorf(name, "%w", err)
		}
	}
	fields, err := p.structBody(toks)
	if err != nil {
		return nil, err
	}
	if name == nil {
		st, err := p.ts.UnnamedStruct(fields)
		if err != nil {
			return nil, p.errorf(kw, "%w", err)
		}
		return st, nil
	}
	st, err := p.ts.DefineStruct(name.Value(), fields)
	if err != nil {
		return nil, p.errorf(name, "%w", err)
	}
	return st, nil
}

func (p *Parser) structBody(toks *token.Tokens) (types.Fields, error) {
	first := toks.Pop()
	fields := types.Fields{}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil, p.errorf(first, "struct definition missing '}'")
		}
		if cur.Kind() == token.RCurly {
			toks.Pop()
			break
		}
		sp, err := p.Specifiers(toks, false)
		if err != nil {
			return nil, err
		}
		if toks.Accept(token.Semicolon) == nil {
			// Anonymous members are only meaningful for structs.
			if !types.IsStruct(sp.qt.Type) {
				return nil, p.errorf(cur, "struct member without a name")
			}
			fields = append(fields, types.Field{Type: sp.qt})
			continue
		}
		for {
			name, nametok, wrap, err := p.Declarator(toks, false)
			if err != nil {
				return nil, err
			}
			t, err := wrap(sp.qt)
			if err != nil {
				return nil, p.errorf(nametok, "%w", err)
			}
			if next := toks.Peek(); next != nil && next.Kind() == token.Colon {
				return nil, p.errorf(next, "%w: bit-field %q", ErrUnsupported, name)
			}
			if err := p.skipAttributes(toks); err != nil {
				return nil, err
			}
			fields = append(fields, types.Field{Name: name, Type: t})
			if toks.Accept(token.Comma) == nil {
				continue
			}
			if err := toks.Accept(token.Semicolon); err != nil {
				return nil, p.errorf(nametok, "struct member %q missing ';': %w", name, err)
			}
			break
		}
	}
	return fields, nil
}
