package decl

import (
	"fmt"

	"github.com/susji/sysvabi/token"
)

type DeclError struct {
	Wrapped error
	Fn      string
	Tok     *token.Token
}

func (e *DeclError) Error() string {
	if e.Tok == nil {
		return fmt.Sprintf("%s: %s", e.Fn, e.Wrapped)
	}
	lineno, col := e.Tok.Lineno(), e.Tok.Col()
	return fmt.Sprintf("%s:%d:%d: %s", e.Fn, lineno, col, e.Wrapped)
}

func (e *DeclError) Unwrap() error {
	return e.Wrapped
}
