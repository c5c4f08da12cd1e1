// Package abi decides how the arguments and the return value of a C function
// are passed under the x86-64 System V calling convention.
//
// Each value is split into eightbytes, every eightbyte is given a Class, and
// the pair of classes is turned into an ArgInfo. Registers are handed out in
// argument order until they run out, after which the remaining arguments go
// to memory.
package abi

import (
	"fmt"
	"strings"

	"github.com/susji/sysvabi/target"
	"github.com/susji/sysvabi/types"
)

const (
	SYSV_INT_REGS = 6
	SYSV_SSE_REGS = 8
)

type Convention int

const (
	CONV_SYSV_AMD64 Convention = iota
	CONV_WIN64
)

var convnames = [...]string{
	"SystemV/x86_64",
	"Win64/x86_64",
}

func (c Convention) String() string {
	if c < 0 || int(c) >= len(convnames) {
		return fmt.Sprintf("Convention(%d)", int(c))
	}
	return convnames[c]
}

// Info computes the ABI of function types for one convention and platform.
type Info interface {
	Convention() Convention
	ComputeInfo(fn *types.Function) (*FunctionInfo, error)
}

var conventions = map[Convention]func(target.Platform) Info{
	CONV_SYSV_AMD64: func(p target.Platform) Info { return NewSysV(p) },
}

// For returns the Info implementing conv on p.
func For(conv Convention, p target.Platform) (Info, error) {
	mk, ok := conventions[conv]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConvention, conv)
	}
	return mk(p), nil
}

// FunctionInfo is the result of classifying one function type.
type FunctionInfo struct {
	Convention Convention
	Return     ArgInfo
	Args       []ArgInfo
}

func (fi *FunctionInfo) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "ArgInfo %s {\n", fi.Convention)
	fmt.Fprintf(b, "    return %s\n", fi.Return)
	b.WriteString("    args:\n")
	for i, a := range fi.Args {
		fmt.Fprintf(b, "    %4d: %s\n", i, a)
	}
	b.WriteString("}")
	return b.String()
}

type SysV struct {
	c classifier
}

func NewSysV(p target.Platform) *SysV {
	return &SysV{c: classifier{p: p}}
}

func (s *SysV) Convention() Convention {
	return CONV_SYSV_AMD64
}

// ComputeInfo classifies the return value and then each argument in order.
// An argument whose registers are no longer available is passed in memory.
func (s *SysV) ComputeInfo(fn *types.Function) (*FunctionInfo, error) {
	freeInt, freeSSE := SYSV_INT_REGS, SYSV_SSE_REGS

	ret, _, _, err := s.c.resolve(fn.Return.Type, false)
	if err != nil {
		return nil, &ClassifyError{Type: fn.Return.Type, Position: POSITION_RETURN, Wrapped: err}
	}
	// The hidden pointer to the return slot goes in the first integer
	// register.
	if ret.Kind() == ARG_INDIRECT {
		freeInt--
	}

	fi := &FunctionInfo{
		Convention: CONV_SYSV_AMD64,
		Return:     ret,
	}
	for i, arg := range fn.Args {
		info, needInt, needSSE, err := s.c.resolve(arg.Type, true)
		if err != nil {
			return nil, &ClassifyError{Type: arg.Type, Position: i, Wrapped: err}
		}
		if needInt <= freeInt && needSSE <= freeSSE {
			freeInt -= needInt
			freeSSE -= needSSE
		} else {
			info, err = s.c.indirect(arg.Type, true)
			if err != nil {
				return nil, &ClassifyError{Type: arg.Type, Position: i, Wrapped: err}
			}
		}
		fi.Args = append(fi.Args, info)
	}
	return fi, nil
}

// ComputeABI is ComputeInfo of the System V convention on p.
func ComputeABI(fn *types.Function, p target.Platform) (*FunctionInfo, error) {
	return NewSysV(p).ComputeInfo(fn)
}
