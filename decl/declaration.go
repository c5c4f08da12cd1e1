package decl

import (
	"github.com/susji/sysvabi/token"
	"github.com/susji/sysvabi/types"
)

// Declaration parses one file-scope declaration:
//
//	<decl> = <specifiers> [ <init-decl> { "," <init-decl> } ] ";"
//	       | <specifiers> <declarator> <body>
//	<init-decl> = <declarator> [ "=" <initializer> ]
//
// Typedefs and functions are recorded. Conflicting redeclarations are
// reported but do not stop the declaration from being parsed.
func (p *Parser) Declaration(toks *token.Tokens) error {
	first := toks.Peek()
	if first == nil {
		return EOT
	}
	if first.Kind() == token.Semicolon {
		toks.Pop()
		return nil
	}
	sp, err := p.Specifiers(toks, true)
	if err != nil {
		return err
	}
	// Only a struct or an enum was declared.
	if semi := toks.Peek(); semi != nil && semi.Kind() == token.Semicolon {
		if sp.typedef {
			return p.errorf(first, "typedef declares no name")
		}
		toks.Pop()
		return nil
	}
	for i := 0; ; i++ {
		name, nametok, wrap, err := p.Declarator(toks, false)
		if err != nil {
			return err
		}
		t, err := wrap(sp.qt)
		if err != nil {
			return p.errorf(nametok, "%w", err)
		}
		if err := p.skipAttributes(toks); err != nil {
			return err
		}
		ft, isfn := t.Type.(*types.Function)
		next := toks.Peek()
		if next == nil {
			return p.errorf(nametok, "declaration of %q missing ';'", name)
		}
		if next.Kind() == token.LCurly {
			if !isfn || i > 0 || sp.typedef {
				return p.errorf(next, "unexpected '{' after %q", name)
			}
			if err := toks.SkipBalanced(); err != nil {
				return p.errorf(next, "invalid body for %q: %w", name, err)
			}
			p.addFunction(nametok, name, ft, true)
			return nil
		}

		switch {
		case sp.typedef:
			p.addTypedef(nametok, name, t)
		case isfn:
			p.addFunction(nametok, name, ft, false)
		}
		if next.Kind() == token.Assign {
			if sp.typedef || isfn {
				return p.errorf(next, "%q cannot be initialized", name)
			}
			if err := p.skipInitializer(toks); err != nil {
				return err
			}
		}
		if toks.Accept(token.Comma) == nil {
			continue
		}
		if err := toks.Accept(token.Semicolon); err != nil {
			return p.errorf(nametok, "declaration of %q missing ';': %w", name, err)
		}
		return nil
	}
}

// skipInitializer pops an initializer up to the ',' or ';' ending it.
func (p *Parser) skipInitializer(toks *token.Tokens) error {
	eq := toks.Pop()
	for {
		cur := toks.Peek()
		if cur == nil {
			return p.errorf(eq, "unterminated initializer")
		}
		switch cur.Kind() {
		case token.Comma, token.Semicolon:
			return nil
		case token.LParen, token.LBrack, token.LCurly:
			if err := toks.SkipBalanced(); err != nil {
				return p.errorf(cur, "invalid initializer: %w", err)
			}
		case token.RParen, token.RBrack, token.RCurly:
			return p.errorf(cur, "unbalanced %s in initializer", cur)
		default:
			toks.Pop()
		}
	}
}
