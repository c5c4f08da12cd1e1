package abi

import (
	"fmt"
	"math/bits"

	"github.com/susji/sysvabi/target"
	"github.com/susji/sysvabi/types"
)

// resolve classifies t and turns the classes into an ArgInfo. It also
// returns how many integer and SSE registers the result occupies.
func (c *classifier) resolve(t types.CType, isArg bool) (ArgInfo, int, int, error) {
	hi, lo, err := c.classify(t, 0)
	if err != nil {
		return nil, 0, 0, err
	}
	return c.resolveClasses(t, hi, lo, isArg)
}

func (c *classifier) resolveClasses(t types.CType, hi, lo Class, isArg bool) (ArgInfo, int, int, error) {
	if hi == CLASS_MEMORY && lo != CLASS_MEMORY {
		return nil, 0, 0, fmt.Errorf("%w: %s classified as (%s, %s)",
			ErrInternalInconsistency, t, hi, lo)
	}
	if hi == CLASS_SSEUP && lo != CLASS_SSE {
		return nil, 0, 0, fmt.Errorf("%w: %s classified as (%s, %s)",
			ErrInternalInconsistency, t, hi, lo)
	}

	var needInt, needSSE int
	var loType types.CType
	switch lo {
	case CLASS_NO_CLASS:
		if hi == CLASS_NO_CLASS {
			return &Ignore{}, 0, 0, nil
		}
	case CLASS_MEMORY:
		info, err := c.indirect(t, isArg)
		return info, 0, 0, err
	case CLASS_X87, CLASS_COMPLEX_X87:
		return nil, 0, 0, fmt.Errorf("%w: %s in low eightbyte of %s", ErrUnsupportedClass, lo, t)
	case CLASS_SSEUP, CLASS_X87UP:
		return nil, 0, 0, fmt.Errorf("%w: %s in low eightbyte of %s",
			ErrInternalInconsistency, lo, t)
	case CLASS_INTEGER:
		needInt++
		it, err := c.integerTypeAt(t, 0, t, 0)
		if err != nil {
			return nil, 0, 0, err
		}
		if hi == CLASS_NO_CLASS {
			if i, ok := it.(*types.Integer); ok && i.Promotable &&
				(i.Bits == 8 || i.Bits == 16 || i.Bits == 32) {
				return &Extend{CoerceType: it}, needInt, 0, nil
			}
		}
		loType = it
	case CLASS_SSE:
		needSSE++
		if hi == CLASS_SSEUP {
			vt, err := c.vectorAt(t)
			if err != nil {
				return nil, 0, 0, err
			}
			return &Direct{CoerceType: vt}, 0, needSSE, nil
		}
		st, err := c.sseTypeAt(t, 0, t, 0)
		if err != nil {
			return nil, 0, 0, err
		}
		loType = st
	default:
		panic(fmt.Sprintf("unrecognized class: %d", lo))
	}

	var hiType types.CType
	switch hi {
	case CLASS_NO_CLASS:
		return &Direct{CoerceType: loType}, needInt, needSSE, nil
	case CLASS_INTEGER:
		needInt++
		it, err := c.integerTypeAt(t, 8, t, 8)
		if err != nil {
			return nil, 0, 0, err
		}
		hiType = it
	case CLASS_SSE:
		needSSE++
		st, err := c.sseTypeAt(t, 8, t, 8)
		if err != nil {
			return nil, 0, 0, err
		}
		hiType = st
	case CLASS_X87, CLASS_X87UP, CLASS_COMPLEX_X87:
		return nil, 0, 0, fmt.Errorf("%w: %s in high eightbyte of %s", ErrUnsupportedClass, hi, t)
	default:
		return nil, 0, 0, fmt.Errorf("%w: %s classified as (%s, %s)",
			ErrInternalInconsistency, t, hi, lo)
	}
	if loType == nil {
		return &Direct{CoerceType: hiType, Offset: 8}, needInt, needSSE, nil
	}
	pair, err := c.pair(loType, hiType)
	if err != nil {
		return nil, 0, 0, err
	}
	return &Direct{CoerceType: pair}, needInt, needSSE, nil
}

// indirect is the memory form of t. Alignment is in bytes and at least 8.
func (c *classifier) indirect(t types.CType, isArg bool) (*Indirect, error) {
	align, err := c.p.AlignOf(t)
	if err != nil {
		return nil, err
	}
	align /= 8
	if align <= 0 || bits.OnesCount(uint(align)) != 1 {
		return nil, fmt.Errorf("%w: %s has alignment of %d bytes", ErrOversizeAggregate, t, align)
	}
	natural := align
	if align < 8 {
		align = 8
	}
	return &Indirect{
		Align:   align,
		ByVal:   isArg,
		Realign: natural > 16,
	}, nil
}

// integerTypeAt picks the type carried in the integer register for the
// eightbyte of src starting at srcOff. t is the part of src currently being
// looked at and off is the offset within it.
func (c *classifier) integerTypeAt(t types.CType, off int, src types.CType, srcOff int) (types.CType, error) {
	if off == 0 {
		switch tt := t.(type) {
		case *types.Pointer:
			if c.p.PointerBits() == 64 {
				return tt, nil
			}
		case *types.Integer:
			switch tt.Bits {
			case 64:
				return tt, nil
			case 8, 16, 32:
				empty, err := target.BitsContainNoUserData(c.p, src, srcOff*8+tt.Bits, srcOff*8+64)
				if err != nil {
					return nil, err
				}
				if empty {
					return tt, nil
				}
			}
		}
	}

	switch tt := t.(type) {
	case *types.Struct:
		f, err := target.FieldAtOffset(c.p, tt, off)
		if err != nil {
			return nil, err
		}
		if f != nil {
			return c.integerTypeAt(f.Type.Type, off-f.Offset, src, srcOff)
		}
	case *types.Array:
		esize, err := c.sizeBytes(tt.Elem.Type)
		if err != nil {
			return nil, err
		}
		if esize > 0 && off/esize < tt.Len {
			return c.integerTypeAt(tt.Elem.Type, off%esize, src, srcOff)
		}
	}

	size, err := c.sizeBytes(src)
	if err != nil {
		return nil, err
	}
	n := size - srcOff
	if n > 8 {
		n = 8
	}
	return types.UIntN(n * 8), nil
}

// sseTypeAt picks the type carried in the SSE register for the eightbyte of
// src starting at srcOff: float, <2 x float>, an 8-byte vector, or double.
func (c *classifier) sseTypeAt(t types.CType, off int, src types.CType, srcOff int) (types.CType, error) {
	empty, err := target.BitsContainNoUserData(c.p, src, srcOff*8+32, srcOff*8+64)
	if err != nil {
		return nil, err
	}
	if empty {
		return types.Float32(), nil
	}
	first, err := target.HasTypeAtOffset(c.p, t, types.Float32(), off)
	if err != nil {
		return nil, err
	}
	second, err := target.HasTypeAtOffset(c.p, t, types.Float32(), off+4)
	if err != nil {
		return nil, err
	}
	if first && second {
		return types.NewVector(types.Float32(), 2), nil
	}
	leaf, err := target.TypeAtOffset(c.p, t, off)
	if err != nil {
		return nil, err
	}
	if v, ok := leaf.(*types.Vector); ok {
		size, err := c.sizeBytes(v)
		if err != nil {
			return nil, err
		}
		if size == 8 {
			return v, nil
		}
	}
	return types.Float64(), nil
}

// vectorAt finds the vector filling a value classified as (SSEUp, SSE).
func (c *classifier) vectorAt(t types.CType) (types.CType, error) {
	leaf, err := target.TypeAtOffset(c.p, t, 0)
	if err != nil {
		return nil, err
	}
	if v, ok := leaf.(*types.Vector); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s has no vector at offset 0", ErrInternalInconsistency, t)
}

// pair combines the low and high register types into a struct whose second
// member sits at byte 8.
func (c *classifier) pair(lo, hi types.CType) (*types.Struct, error) {
	mk := func(lo types.CType) (*types.Struct, int, error) {
		st, err := types.NewUnnamedStruct(types.Fields{
			{Name: "__0", Type: types.Qualify(lo)},
			{Name: "__1", Type: types.Qualify(hi)},
		})
		if err != nil {
			return nil, 0, err
		}
		layout, err := target.LayoutOf(c.p, st)
		if err != nil {
			return nil, 0, err
		}
		return st, layout.Fields[1].Offset, nil
	}

	st, hiOff, err := mk(lo)
	if err != nil {
		return nil, err
	}
	if hiOff == 8 {
		return st, nil
	}
	switch lo.(type) {
	case *types.Float:
		lo = types.Float64()
	case *types.Integer, *types.Pointer:
		lo = types.UIntN(64)
	default:
		return nil, fmt.Errorf("%w: cannot widen %s to pair with %s", ErrOversizeAggregate, lo, hi)
	}
	st, hiOff, err = mk(lo)
	if err != nil {
		return nil, err
	}
	if hiOff != 8 {
		return nil, fmt.Errorf("%w: %s starts at byte %d in %s", ErrOversizeAggregate, hi, hiOff, st)
	}
	return st, nil
}
