package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/susji/sysvabi/abi"
	"github.com/susji/sysvabi/decl"
	"github.com/susji/sysvabi/lex"
	"github.com/susji/sysvabi/target"
	"github.com/susji/sysvabi/types"
)

type options struct {
	platform target.Platform
	// only lists the functions to dump, nil means all.
	only     map[string]struct{}
	dumptoks bool
}

type result struct {
	fn     string
	out    *strings.Builder
	errs   []error
	nfuncs int
}

// processFile reads fn, "-" being stdin, and dumps it. Only a failure to
// read is returned as an error, problems with the contents end up in the
// result.
func processFile(fn string, opts *options) (*result, error) {
	var src []byte
	var err error
	if fn == "-" {
		src, err = io.ReadAll(os.Stdin)
		fn = "<stdin>"
	} else {
		src, err = os.ReadFile(fn)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", fn, err)
	}
	return dump(fn, bytes.Runes(src), opts), nil
}

// dump parses src with a TypeSystem of its own and computes the ABI of the
// functions it declares.
func dump(fn string, src []rune, opts *options) *result {
	r := &result{fn: fn, out: &strings.Builder{}}
	if opts.dumptoks {
		toks, errs := lex.Lex(src)
		if len(errs) > 0 {
			r.errs = append(r.errs, errs...)
			return r
		}
		fmt.Fprintln(r.out, toks)
	}

	p := decl.NewFile(fn, types.New())
	if errs := p.Source(src); len(errs) > 0 {
		r.errs = append(r.errs, errs...)
		return r
	}

	info, err := abi.For(abi.CONV_SYSV_AMD64, opts.platform)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	for _, f := range p.Functions() {
		if opts.only != nil {
			if _, ok := opts.only[f.Name]; !ok {
				continue
			}
		}
		r.nfuncs++
		fi, err := info.ComputeInfo(f.Type)
		if err != nil {
			r.errs = append(r.errs,
				fmt.Errorf("%s:%d: %s: %w", fn, f.Tok.Lineno(), f.Name, err))
			continue
		}
		fmt.Fprintf(r.out, "%s: %s\n%s\n", f.Name, f.Type, fi)
	}
	if opts.only != nil && r.nfuncs < len(opts.only) {
		names := make([]string, 0, len(opts.only))
		for name := range opts.only {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if _, ok := p.Function(name); !ok {
				r.errs = append(r.errs, fmt.Errorf("%s: no function %q", fn, name))
			}
		}
	}
	return r
}
