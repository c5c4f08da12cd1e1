package token

import (
	"errors"
	"fmt"
	"strings"
)

var EOT = errors.New("end of tokens")

// Span defines a range formed by two pairs of (lineno, col).
type Span struct {
	Lineno0, Col0, Lineno, Col int
}

func (span Span) String() string {
	return fmt.Sprintf(
		"(%d, %d) -> (%d, %d)",
		span.Lineno0, span.Col0,
		span.Lineno, span.Col)
}

// Tokens implements a FIFO for individual tokens.
type Tokens struct {
	toks []Token
}

type Token struct {
	span  Span
	kind  Kind
	value string
}

func New(kind Kind, span Span, value string) Token {
	if !validkind(kind) {
		panic(fmt.Sprintf("invalid token kind: %v", kind))
	}
	return Token{
		kind:  kind,
		value: value,
		span:  span,
	}
}

type Kind int

const (
	Id Kind = iota
	DecNum
	HexNum
	StrLit
	ChrLit
	LParen
	RParen
	LBrack
	RBrack
	LCurly
	RCurly // 10
	Comma
	Semicolon
	Star
	Ellipsis
	Assign
	Colon
	Other
	CommentOne
	CommentMulti
	Directive // 20
)

var toknames = [...]string{
	"id",
	"decnum",
	"hexnum",
	"strlit",
	"chrlit",
	"(",
	")",
	"[",
	"]",
	"{",
	"}",
	",",
	";",
	"*",
	"...",
	"=",
	":",
	"other",
	"//comment",
	"/* comment */",
	"#directive",
}

func (k Kind) String() string {
	return toknames[k]
}

func validkind(kind Kind) bool {
	return kind >= 0 && int(kind) <= (len(toknames)-1)
}

// Trivia tokens carry no meaning for the parser.
func (k Kind) Trivia() bool {
	return k == CommentOne || k == CommentMulti || k == Directive
}

func (tok *Token) String() string {
	switch tok.kind {
	case Id, HexNum, DecNum, Other:
		return tok.value
	case StrLit, ChrLit:
		return fmt.Sprintf("%q", tok.value)
	case CommentOne:
		return fmt.Sprintf("// %s", tok.value)
	case CommentMulti:
		return fmt.Sprintf("/* %s */", tok.value)
	case Directive:
		return fmt.Sprintf("#%s", tok.value)
	default:
		return fmt.Sprintf("%q", toknames[tok.kind])
	}
}

func (tok *Token) Value() string {
	return tok.value
}

func (tok *Token) Kind() Kind {
	return tok.kind
}

func (tok *Token) Lineno() int {
	return tok.span.Lineno0
}

func (tok *Token) Col() int {
	return tok.span.Col0
}

func (tok *Token) Span() Span {
	return tok.span
}

func (tok *Token) Is(kind Kind, value string) bool {
	return tok != nil && tok.kind == kind && tok.value == value
}

func (toks *Tokens) Add(tok Token) *Tokens {
	toks.toks = append(toks.toks, tok)
	return toks
}

func (toks *Tokens) String() string {
	b := &strings.Builder{}
	for _, tok := range toks.toks {
		b.WriteString(
			fmt.Sprintf("[%d:%d] %s\n", tok.Lineno(), tok.Col(), tok.String()))
	}
	return b.String()
}

func (toks *Tokens) Len() int {
	return len(toks.toks)
}

func (toks *Tokens) Pop() *Token {
	if toks.Len() == 0 {
		return nil
	}
	var tok Token
	tok, toks.toks = toks.toks[0], toks.toks[1:]
	return &tok
}

// Peek returns the current token-to-be-parsed. It never returns trivia.
func (toks *Tokens) Peek() *Token {
	for {
		if toks.Len() == 0 {
			return nil
		}
		if toks.toks[0].Kind().Trivia() {
			toks.Pop()
			continue
		}
		return &toks.toks[0]
	}
}

// PeekN looks n non-trivia tokens ahead. PeekN(0) is Peek.
func (toks *Tokens) PeekN(n int) *Token {
	for i := range toks.toks {
		if toks.toks[i].Kind().Trivia() {
			continue
		}
		if n == 0 {
			return &toks.toks[i]
		}
		n--
	}
	return nil
}

func (toks *Tokens) Accept(kind Kind) error {
	cur := toks.Peek()
	if cur == nil {
		return EOT
	}
	got := cur.Kind()
	if got != kind {
		return fmt.Errorf("expecting %q, got %v", toknames[kind], cur)
	}
	toks.Pop()
	return nil
}

func (toks *Tokens) Find(kinds ...Kind) *Token {
	find := map[Kind]struct{}{}
	for _, kind := range kinds {
		find[kind] = struct{}{}
	}
	for {
		cur := toks.Peek()
		if cur == nil {
			return nil
		}
		if _, ok := find[cur.Kind()]; ok {
			return cur
		}
		toks.Pop()
	}
}

// SkipBalanced pops tokens until the closing counterpart of the opening
// bracket at the front has been popped. The front token must be one of
// '(', '[' or '{'.
func (toks *Tokens) SkipBalanced() error {
	open := toks.Peek()
	if open == nil {
		return EOT
	}
	var closing Kind
	switch open.Kind() {
	case LParen:
		closing = RParen
	case LBrack:
		closing = RBrack
	case LCurly:
		closing = RCurly
	default:
		return fmt.Errorf("expecting an opening bracket, got %v", open)
	}
	opening := open.Kind()
	depth := 0
	for {
		cur := toks.Pop()
		if cur == nil {
			return fmt.Errorf("no closing %q: %w", toknames[closing], EOT)
		}
		switch cur.Kind() {
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}
