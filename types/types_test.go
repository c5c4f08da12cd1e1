package types_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susji/sysvabi/types"
)

func TestQualifierRoundTrip(t *testing.T) {
	orig := types.Qualify(types.Int())
	assert.True(t, orig.WithConst().WithoutConst().Equal(orig))
	assert.True(t, orig.WithRestrict().WithoutRestrict().Equal(orig))
	assert.True(t, orig.WithVolatile().WithoutVolatile().Equal(orig))
	assert.False(t, orig.WithConst().Equal(orig))

	cv := orig.WithConst().WithVolatile()
	assert.True(t, cv.Quals.Has(types.Const))
	assert.True(t, cv.Quals.Has(types.Volatile))
	assert.False(t, cv.Quals.Has(types.Restrict))
	assert.True(t, cv.WithoutVolatile().Equal(orig.WithConst()))
}

func TestQualifyIdempotent(t *testing.T) {
	q := types.Qualify(types.Float64()).WithConst()
	assert.Equal(t, q, types.Qualify(q))
	assert.Equal(t, q, types.Qualify(types.Qualify(q)))
	assert.Equal(t, types.Qualify(types.Float64()), types.Qualify(types.Float64().Qual()))
}

func TestStrings(t *testing.T) {
	ts := types.New()
	_, err := ts.InsertStruct("apple", nil)
	require.NoError(t, err)
	_, err = ts.InsertStruct("apple", nil)
	require.NoError(t, err)
	apple1, err := ts.InsertStruct("apple", nil)
	require.NoError(t, err)

	type entry struct {
		give types.Qualifiable
		want string
	}

	table := []entry{
		{types.Qualify(types.NewArray(types.IntN(64), 10)).WithConst(), "const int64_t[10]"},
		{apple1, "struct apple.1"},
		{types.NewPointer(types.Float64()), "double*"},
		{types.Qualify(types.NewPointer(types.Float64())).WithRestrict(), "restrict double*"},
		{types.NewFunction(types.NewVoid(),
			[]types.Qualifiable{types.IntN(32), types.UIntN(64)}, false), "void(int32_t, uint64_t)"},
		{types.NewFunction(types.Int(),
			[]types.Qualifiable{types.NewPointer(types.Qualify(types.Char()).WithConst())}, true),
			"int(const char*, ...)"},
		{types.NewVector(types.Float32(), 2), "<2 x float>"},
		{types.Qualify(types.Int()).WithConst().WithRestrict().WithVolatile(), "const restrict volatile int"},
	}

	for _, cur := range table {
		t.Run(cur.want, func(t *testing.T) {
			assert.Equal(t, cur.want, types.Qualify(cur.give).String())
		})
	}
}

func TestInsertStructRenames(t *testing.T) {
	ts := types.New()
	first, err := ts.InsertStruct("N", nil)
	require.NoError(t, err)
	second, err := ts.InsertStruct("N", nil)
	require.NoError(t, err)
	third, err := ts.InsertStruct("N", nil)
	require.NoError(t, err)
	assert.Equal(t, "N", first.Name())
	assert.Equal(t, "N.0", second.Name())
	assert.Equal(t, "N.1", third.Name())

	// A name that already carries a suffix gets it incremented.
	fourth, err := ts.InsertStruct("N.0", nil)
	require.NoError(t, err)
	assert.Equal(t, "N.2", fourth.Name())

	assert.False(t, types.Equal(first, second))
	assert.Equal(t, []*types.Struct{first, second, third, fourth}, ts.Structs())
	for i, st := range ts.Structs() {
		assert.Equal(t, i+1, st.ID())
		assert.Same(t, st, ts.StructByID(st.ID()))
	}
	assert.Nil(t, ts.StructByID(0))
	assert.Nil(t, ts.StructByID(5))
}

func TestDefineOnce(t *testing.T) {
	ts := types.New()
	st, err := ts.Struct("point")
	require.NoError(t, err)
	assert.False(t, st.IsDefined())

	fields := types.Fields{
		{Name: "x", Type: types.Qualify(types.Int())},
		{Name: "y", Type: types.Qualify(types.Int())},
	}
	require.NoError(t, st.Define(fields))
	assert.True(t, st.IsDefined())
	assert.Len(t, st.Fields(), 2)
	require.NotNil(t, st.Find("y"))
	assert.Nil(t, st.Find("z"))

	err = st.Define(fields)
	assert.True(t, errors.Is(err, types.ErrStructAlreadyDefined))

	again, err := ts.Struct("point")
	require.NoError(t, err)
	assert.Same(t, st, again)
	_, err = ts.DefineStruct("point", fields)
	assert.ErrorIs(t, err, types.ErrStructAlreadyDefined)
}

func TestDefineErrors(t *testing.T) {
	ts := types.New()
	node, err := ts.Struct("node")
	require.NoError(t, err)

	err = node.Define(types.Fields{{Name: "self", Type: types.Qualify(node)}})
	assert.ErrorIs(t, err, types.ErrStructSelfEmbed)
	err = node.Define(types.Fields{{Name: "arr", Type: types.Qualify(types.NewArray(node, 2))}})
	assert.ErrorIs(t, err, types.ErrStructSelfEmbed)
	assert.False(t, node.IsDefined())

	err = node.Define(types.Fields{
		{Name: "a", Type: types.Qualify(types.Int())},
		{Name: "a", Type: types.Qualify(types.Int())},
	})
	assert.ErrorIs(t, err, types.ErrDuplicateField)

	err = node.Define(types.Fields{{Name: "v", Type: types.Qualify(types.NewVoid())}})
	assert.ErrorIs(t, err, types.ErrInvalidField)

	fwd, err := ts.Struct("fwd")
	require.NoError(t, err)
	err = node.Define(types.Fields{{Name: "f", Type: types.Qualify(fwd)}})
	assert.ErrorIs(t, err, types.ErrInvalidField)

	// Pointers to itself are fine.
	require.NoError(t, node.Define(types.Fields{
		{Name: "next", Type: types.Qualify(types.NewPointer(node))},
		{Name: "val", Type: types.Qualify(types.Long())},
	}))
}

func TestInsertStructFailureDoesNotRegister(t *testing.T) {
	ts := types.New()
	_, err := ts.InsertStruct("bad", types.Fields{
		{Name: "v", Type: types.Qualify(types.NewVoid())},
	})
	require.ErrorIs(t, err, types.ErrInvalidField)
	_, ok := ts.LookupStruct("bad")
	assert.False(t, ok)
	assert.Empty(t, ts.Structs())

	_, err = ts.Struct("")
	assert.ErrorIs(t, err, types.ErrStructNameEmpty)
}

func TestStructIdentity(t *testing.T) {
	ts := types.New()
	fields := types.Fields{
		{Name: "a", Type: types.Qualify(types.Float32())},
		{Name: "b", Type: types.Qualify(types.Float32())},
	}
	one, err := ts.DefineStruct("one", fields)
	require.NoError(t, err)
	two, err := ts.DefineStruct("two", fields)
	require.NoError(t, err)
	assert.True(t, one.LayoutEqual(two))
	assert.False(t, types.Equal(one, two))
	assert.True(t, types.Equal(one, one))

	u1, err := ts.UnnamedStruct(fields)
	require.NoError(t, err)
	u2, err := types.NewUnnamedStruct(fields)
	require.NoError(t, err)
	assert.NotSame(t, u1, u2)
	assert.True(t, types.Equal(u1, u2))
	assert.False(t, types.Equal(u1, one))
	assert.Equal(t, 0, u1.ID())
	assert.Equal(t, "{float, float}", u1.String())
	assert.Equal(t, "struct one { float a; float b; }", one.Long())
	assert.Len(t, ts.Structs(), 2)
}

func TestEqual(t *testing.T) {
	assert.True(t, types.Equal(types.Int(), types.IntN(32)))
	assert.False(t, types.Equal(types.Int(), types.UInt()))
	assert.False(t, types.Equal(types.Char(), types.Bool()))
	assert.True(t, types.Equal(types.Float64(), types.NewFloat("", 64)))
	assert.True(t, types.Equal(
		types.NewPointer(types.Qualify(types.Char()).WithConst()),
		types.NewPointer(types.Qualify(types.SChar()).WithConst())))
	assert.False(t, types.Equal(
		types.NewPointer(types.Char()),
		types.NewPointer(types.Qualify(types.Char()).WithConst())))
	assert.False(t, types.Equal(types.NewArray(types.Int(), 2), types.NewVector(types.Int(), 2)))
	assert.False(t, types.Equal(
		types.NewFunction(types.NewVoid(), nil, false),
		types.NewFunction(types.NewVoid(), nil, true)))
}

func TestPredicates(t *testing.T) {
	ts := types.New()
	st, err := ts.DefineStruct("s", types.Fields{{Name: "x", Type: types.Qualify(types.Int())}})
	require.NoError(t, err)

	type entry struct {
		give              types.CType
		scalar, aggregate bool
		kind              types.Kind
	}

	table := []entry{
		{types.NewVoid(), false, false, types.KIND_VOID},
		{types.Int(), true, false, types.KIND_INTEGER},
		{types.Float64(), true, false, types.KIND_FLOAT},
		{types.NewPointer(types.Int()), true, false, types.KIND_POINTER},
		{types.NewArray(types.Int(), 3), false, true, types.KIND_ARRAY},
		{types.NewVector(types.Int(), 4), false, true, types.KIND_VECTOR},
		{st, false, true, types.KIND_STRUCT},
		{types.NewFunction(types.NewVoid(), nil, false), false, false, types.KIND_FUNCTION},
	}

	for _, cur := range table {
		t.Run(cur.give.String(), func(t *testing.T) {
			assert.Equal(t, cur.scalar, types.IsScalar(cur.give))
			assert.Equal(t, cur.aggregate, types.IsAggregate(cur.give))
			assert.Equal(t, cur.kind, cur.give.Kind())
		})
	}
	assert.True(t, types.IsStruct(st))
	assert.True(t, types.IsVoid(types.NewVoid()))
	assert.True(t, types.IsPointer(types.NewPointer(st)))
	assert.True(t, types.IsInteger(types.Bool()))
	assert.True(t, types.IsFloat(types.LongDouble()))
	assert.Equal(t, "vector", types.KIND_VECTOR.String())
}

func TestRegistryConcurrent(t *testing.T) {
	ts := types.New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.InsertStruct("shared", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	seen := map[string]bool{}
	for _, st := range ts.Structs() {
		assert.False(t, seen[st.Name()], st.Name())
		seen[st.Name()] = true
	}
	assert.Len(t, seen, 16)
}

func TestDefineStructConcurrent(t *testing.T) {
	ts := types.New()
	fields := types.Fields{{Name: "x", Type: types.Int().Qual()}}
	var wg sync.WaitGroup
	var mu sync.Mutex
	defined, failed := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ts.DefineStruct("racy", fields)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				defined++
				return
			}
			assert.ErrorIs(t, err, types.ErrStructAlreadyDefined)
			failed++
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, defined)
	assert.Equal(t, 15, failed)

	st, ok := ts.LookupStruct("racy")
	require.True(t, ok)
	assert.True(t, st.IsDefined())
	assert.Len(t, st.Fields(), 1)
}
