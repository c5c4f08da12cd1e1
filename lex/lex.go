// Package lex turns C declaration source into tokens. It knows enough C to
// find its way through headers: comments and preprocessor lines become
// trivia, and anything it does not need to understand, such as operators in
// function bodies, is lexed as a plain "other" token.
package lex

import (
	pr "github.com/susji/sysvabi/primitives"
	"github.com/susji/sysvabi/token"
)

// Whitespace-related helpers
var Whitespace = pr.Runes(" \t\r\v\f")
var WhitespaceN = Whitespace.OneOrMore()
var Linefeed = pr.Rune('\n')

// Comments
var CommentOneline = pr.Discard(pr.String("//")).
	And(pr.ExceptString("\n").ZeroOrMore())
var CommentMultiline = pr.String("/*").Discard().
	And(pr.ExceptString("*/").ZeroOrMore()).
	And(pr.Discard(pr.String("*/").Fatal(`no matching "*/" for comment`)))

// Preprocessor lines are kept whole, including backslash continuations.
var Directive = pr.Discard(pr.Rune('#')).
	And(pr.String("\\\n").Or(pr.ExceptString("\n")).ZeroOrMore())

// Identifiers
var lower = pr.RuneRange('a', 'z')
var upper = pr.RuneRange('A', 'Z')
var digit = pr.RuneRange('0', '9')
var underscore = pr.Rune('_')
var Identifier = lower.Or(upper).Or(underscore).
	And(lower.Or(upper).Or(underscore).Or(digit).ZeroOrMore())

// Numeric values. Octal is left to the parser as a decimal-looking token
// with a leading zero.
var numsuffix = pr.Runes("uUlL").ZeroOrMore()
var hexdigit = digit.Or(pr.RuneRange('a', 'f')).Or(pr.RuneRange('A', 'F'))
var HexNum = pr.Rune('0').
	And(pr.Runes("xX")).
	And(hexdigit.OneOrMore().Fatal("invalid hexnum")).
	And(numsuffix)
var DecNum = digit.OneOrMore().And(numsuffix)

// String and character literals only need to be skipped over, so escapes
// are kept as they are and encoding prefixes are dropped.
var escape = pr.Rune('\\').And(pr.AnyRune())
var encoding = pr.Discard(pr.String("u8").Or(pr.Runes("LuU")).Optional())
var StrLit = encoding.
	And(pr.Discard(pr.Rune('"'))).
	And(escape.Or(pr.ExceptRunes("\"\\\n")).ZeroOrMore()).
	And(pr.Discard(pr.Rune('"').Fatal("missing closing '\"'")))
var ChrLit = encoding.
	And(pr.Discard(pr.Rune('\''))).
	And(escape.Or(pr.ExceptRunes("'\\\n")).OneOrMore()).
	And(pr.Discard(pr.Rune('\'').Fatal(`missing closing "'"`)))

var Ellipsis = pr.String("...")
var Separators = pr.Runes("()[]{},;*=:")

var separatorKinds = map[string]token.Kind{
	"(": token.LParen,
	")": token.RParen,
	"[": token.LBrack,
	"]": token.RBrack,
	"{": token.LCurly,
	"}": token.RCurly,
	",": token.Comma,
	";": token.Semicolon,
	"*": token.Star,
	"=": token.Assign,
	":": token.Colon,
}

// Other is the catch-all for a single rune.
var Other = pr.AnyRune()

func Lex(what []rune) (*token.Tokens, []error) {
	toks := &token.Tokens{}
	state := pr.NewState(what)
	var startLine, startCol int

	emit := func(kind token.Kind) pr.StateFunc {
		return func(st *pr.State) {
			lineno, col := st.Pos()
			span := token.Span{
				Lineno0: startLine,
				Col0:    startCol,
				Lineno:  lineno,
				Col:     col,
			}
			toks.Add(token.New(kind, span, st.String()))
		}
	}
	// The order is the precedence: `Other' has to stay last as it matches
	// anything.
	all := WhitespaceN.
		Or(Linefeed).
		Or(CommentOneline.Pipe(emit(token.CommentOne))).
		Or(CommentMultiline.Pipe(emit(token.CommentMulti))).
		Or(Directive.Pipe(emit(token.Directive))).
		Or(HexNum.Pipe(emit(token.HexNum))).
		Or(DecNum.Pipe(emit(token.DecNum))).
		Or(StrLit.Pipe(emit(token.StrLit))).
		Or(ChrLit.Pipe(emit(token.ChrLit))).
		Or(Ellipsis.Pipe(emit(token.Ellipsis))).
		Or(Separators.Pipe(func(st *pr.State) {
			emit(separatorKinds[st.String()])(st)
		})).
		Or(Identifier.Pipe(emit(token.Id))).
		Or(Other.Pipe(emit(token.Other))).
		Discard()

	var errs []error
	for state.LenLeft() > 0 {
		startLine, startCol = state.Pos()
		before := state.LenLeft()
		res := all.Do(state)
		if err := res.Error(); err != nil {
			errs = append(errs, err)
		}
		state = res.State()
		// A fatal error leaves the state where it was and there is no
		// sensible way forward.
		if state.LenLeft() == before {
			break
		}
	}
	return toks, errs
}
