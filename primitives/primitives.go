// Package primitives implements the basic chassis for parser combinators
// that the lexer is built from. The design follows Armin Heller's post at
//
//	https://medium.com/@armin.heller/using-parser-combinators-in-go-e63b3ad69c94
//
// A Parser consumes runes from a State and accumulates them into the State's
// value. Combinators that may fail halfway work on a copy of the State, so
// a failed alternative never leaves partial input consumed.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

var EOI = errors.New("end of input")
var noMatch = errors.New("no match")

type StateFunc func(*State)
type ResultValue []rune
type Parser func(*State) *Result

type State struct {
	left        []rune
	lineno, col int
	value       ResultValue
}

type Result struct {
	state *State
	err   error
}

func NewState(what []rune) *State {
	return &State{
		left:   what,
		lineno: 1,
		col:    1,
	}
}

func ok(state *State) *Result {
	return &Result{state: state}
}

func fail(state *State, err error) *Result {
	return &Result{
		err:   fmt.Errorf("%d:%d: %w", state.lineno, state.col, err),
		state: state,
	}
}

// move advances the position past r without recording it.
func (s *State) move(r rune) {
	if r == '\n' {
		s.lineno++
		s.col = 1
	} else {
		s.col++
	}
}

func (s *State) take(r rune) {
	s.move(r)
	s.value = append(s.value, r)
}

func (s *State) copy() *State {
	return &State{
		lineno: s.lineno,
		col:    s.col,
		left:   s.left,
		value:  s.value,
	}
}

func (s *State) LenLeft() int {
	return len(s.left)
}

func (s *State) Value() ResultValue {
	return s.value
}

func (s *State) String() string {
	return string(s.value)
}

func (s *State) Pos() (int, int) {
	return s.lineno, s.col
}

func (r *Result) Error() error {
	return r.err
}

func (r *Result) State() *State {
	return r.state
}

// single matches one rune for which match returns true.
func single(match func(rune) bool) Parser {
	return func(state *State) *Result {
		if len(state.left) == 0 {
			return fail(state, EOI)
		}
		got := state.left[0]
		if !match(got) {
			return fail(state, fmt.Errorf("unexpected %q: %w", got, noMatch))
		}
		state.left = state.left[1:]
		state.take(got)
		return ok(state)
	}
}

func Rune(want rune) Parser {
	return single(func(got rune) bool { return got == want })
}

func Runes(rs string) Parser {
	if len(rs) < 2 {
		panic("Runes: less than two rune candidates")
	}
	return single(func(got rune) bool { return strings.ContainsRune(rs, got) })
}

func ExceptRunes(rs string) Parser {
	if len(rs) == 0 {
		panic("ExceptRunes: no rune candidates")
	}
	return single(func(got rune) bool { return !strings.ContainsRune(rs, got) })
}

func RuneRange(r1, r2 rune) Parser {
	if r1 >= r2 {
		panic("RuneRange: invalid range (r1 >= r2)")
	}
	return single(func(got rune) bool { return got >= r1 && got <= r2 })
}

// AnyRune matches whatever rune comes next.
func AnyRune() Parser {
	return single(func(rune) bool { return true })
}

func hasPrefix(left []rune, want string) bool {
	rs := []rune(want)
	if len(left) < len(rs) {
		return false
	}
	return string(left[:len(rs)]) == want
}

func String(want string) Parser {
	n := len([]rune(want))
	return func(state *State) *Result {
		if !hasPrefix(state.left, want) {
			return fail(state, fmt.Errorf("wanted %q: %w", want, noMatch))
		}
		for _, r := range state.left[:n] {
			state.take(r)
		}
		state.left = state.left[n:]
		return ok(state)
	}
}

// ExceptString consumes a single rune unless the input continues with
// donotwant.
func ExceptString(donotwant string) Parser {
	return func(state *State) *Result {
		if len(state.left) == 0 {
			return fail(state, EOI)
		}
		if hasPrefix(state.left, donotwant) {
			return fail(state, fmt.Errorf("wanted to avoid %q: %w", donotwant, noMatch))
		}
		var r rune
		r, state.left = state.left[0], state.left[1:]
		state.take(r)
		return ok(state)
	}
}

// Discard runs p but leaves its runes out of the value.
func Discard(p Parser) Parser {
	return func(state *State) *Result {
		res := p(state.copy())
		if res.err != nil {
			return fail(state, noMatch)
		}
		res.state.value = state.value
		return ok(res.state)
	}
}

func (left Parser) And(right Parser) Parser {
	return func(state *State) *Result {
		res := left(state.copy())
		if res.err != nil {
			return res
		}
		return right(res.state)
	}
}

func (left Parser) Or(right Parser) Parser {
	return func(state *State) *Result {
		res := left(state)
		if res.err == nil {
			return res
		}
		return right(state)
	}
}

// Discard clears everything accumulated so far.
func (left Parser) Discard() Parser {
	return func(state *State) *Result {
		res := left(state)
		res.state.value = ResultValue{}
		return res
	}
}

// Pipe hands the state to sf after a successful match.
func (left Parser) Pipe(sf StateFunc) Parser {
	return func(state *State) *Result {
		res := left(state)
		if res.err != nil {
			return res
		}
		sf(res.state)
		return res
	}
}

func (what Parser) Optional() Parser {
	return func(state *State) *Result {
		res := what(state.copy())
		if res.err == nil {
			return res
		}
		if errors.Is(res.err, EOI) || errors.Is(res.err, noMatch) {
			return ok(state)
		}
		return res
	}
}

func (what Parser) OneOrMore() Parser {
	return func(state *State) *Result {
		got := 0
		for {
			res := what(state.copy())
			if res.err != nil {
				break
			}
			got++
			state = res.state
		}
		if got == 0 {
			return fail(state, noMatch)
		}
		return ok(state)
	}
}

func (what Parser) ZeroOrMore() Parser {
	return func(state *State) *Result {
		for {
			res := what(state.copy())
			if res.err != nil {
				break
			}
			state = res.state
		}
		return ok(state)
	}
}

// Fatal turns a failure into an abort of the whole parse. Do reports it as
// the error of the result.
func (what Parser) Fatal(msg string) Parser {
	fatal := errors.New(msg)
	return func(state *State) *Result {
		res := what(state)
		if res.err != nil {
			panic(fatal)
		}
		return res
	}
}

func (what Parser) Do(state *State) (ret *Result) {
	defer func() {
		if r := recover(); r != nil {
			err, isErr := r.(error)
			if !isErr {
				panic(r)
			}
			ret = fail(state, err)
		}
	}()
	return what(state)
}
