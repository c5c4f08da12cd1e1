package abi

import (
	"fmt"

	"github.com/susji/sysvabi/target"
	"github.com/susji/sysvabi/types"
)

type classifier struct {
	p target.Platform
}

// memory marks every eightbyte covered from off onwards as Memory.
func memory(off int) (Class, Class) {
	if off < 8 {
		return CLASS_MEMORY, CLASS_MEMORY
	}
	return CLASS_MEMORY, CLASS_NO_CLASS
}

// current places a single class into the eightbyte containing off.
func current(off int, c Class) (Class, Class) {
	if off < 8 {
		return CLASS_NO_CLASS, c
	}
	return c, CLASS_NO_CLASS
}

// classify returns the classes of the eightbytes [off, off+8) and
// [off+8, off+16) where off is the byte offset of t within the outermost
// value being classified.
func (c *classifier) classify(t types.CType, off int) (hi, lo Class, err error) {
	switch t := t.(type) {
	case *types.Void:
		return CLASS_NO_CLASS, CLASS_NO_CLASS, nil
	case *types.Integer:
		if t.Bits > 64 {
			return 0, 0, fmt.Errorf("%w: %s is %d bits", ErrUnsupportedScalarWidth, t, t.Bits)
		}
		hi, lo = current(off, CLASS_INTEGER)
		return hi, lo, nil
	case *types.Pointer:
		if c.p.PointerBits() > 64 {
			return 0, 0, fmt.Errorf("%w: %s is %d bits",
				ErrUnsupportedScalarWidth, t, c.p.PointerBits())
		}
		hi, lo = current(off, CLASS_INTEGER)
		return hi, lo, nil
	case *types.Float:
		if t.Bits > 64 {
			return 0, 0, fmt.Errorf("%w: %s is %d bits", ErrUnsupportedScalarWidth, t, t.Bits)
		}
		hi, lo = current(off, CLASS_SSE)
		return hi, lo, nil
	case *types.Vector:
		return c.classifyVector(t, off)
	case *types.Array:
		return c.classifyArray(t, off)
	case *types.Struct:
		return c.classifyStruct(t, off)
	case *types.Function:
		return 0, 0, fmt.Errorf("%w: function %s", target.ErrUnsized, t)
	default:
		panic(fmt.Sprintf("unrecognized type: %T", t))
	}
}

func (c *classifier) sizeBytes(t types.CType) (int, error) {
	size, err := c.p.SizeOf(t)
	if err != nil {
		return 0, err
	}
	return size / 8, nil
}

func (c *classifier) classifyVector(t *types.Vector, off int) (hi, lo Class, err error) {
	size, err := c.sizeBytes(t)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case size <= 4:
		hi, lo = current(off, CLASS_INTEGER)
		// Split across the eightbyte boundary.
		if off/8 != (off+size-1)/8 {
			hi = lo
		}
		return hi, lo, nil
	case size == 8:
		if f, ok := t.Elem.Type.(*types.Float); ok && f.Bits == 64 {
			hi, lo = memory(off)
			return hi, lo, nil
		}
		hi, lo = current(off, CLASS_SSE)
		if off != 0 && off != 8 {
			hi = lo
		}
		return hi, lo, nil
	case size == 16, size == 32 && c.p.VectorBits() >= 256:
		return CLASS_SSEUP, CLASS_SSE, nil
	}
	hi, lo = memory(off)
	return hi, lo, nil
}

func (c *classifier) classifyArray(t *types.Array, off int) (hi, lo Class, err error) {
	size, err := c.sizeBytes(t)
	if err != nil {
		return 0, 0, err
	}
	if size > 32 {
		hi, lo = memory(off)
		return hi, lo, nil
	}
	esize, err := c.sizeBytes(t.Elem.Type)
	if err != nil {
		return 0, 0, err
	}
	if size > 16 && (size != esize || size*8 > c.p.VectorBits()) {
		hi, lo = memory(off)
		return hi, lo, nil
	}
	hi, lo = CLASS_NO_CLASS, CLASS_NO_CLASS
	for i := 0; i < t.Len; i++ {
		fhi, flo, err := c.classify(t.Elem.Type, off+i*esize)
		if err != nil {
			return 0, 0, err
		}
		lo = merge(lo, flo)
		hi = merge(hi, fhi)
		if lo == CLASS_MEMORY && hi == CLASS_MEMORY {
			break
		}
	}
	hi, lo = postMerge(size, hi, lo)
	return hi, lo, nil
}

func (c *classifier) classifyStruct(t *types.Struct, off int) (hi, lo Class, err error) {
	layout, err := target.LayoutOf(c.p, t)
	if err != nil {
		return 0, 0, err
	}
	if layout.Size > 32 {
		hi, lo = memory(off)
		return hi, lo, nil
	}
	hi, lo = CLASS_NO_CLASS, CLASS_NO_CLASS
	for _, f := range layout.Fields {
		if layout.Size > 16 && f.Size != 32 {
			lo = CLASS_MEMORY
			hi, lo = postMerge(layout.Size, hi, lo)
			return hi, lo, nil
		}
		fhi, flo, err := c.classify(f.Type.Type, off+f.Offset)
		if err != nil {
			return 0, 0, err
		}
		lo = merge(lo, flo)
		hi = merge(hi, fhi)
		if lo == CLASS_MEMORY && hi == CLASS_MEMORY {
			break
		}
	}
	hi, lo = postMerge(layout.Size, hi, lo)
	return hi, lo, nil
}
