package abi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susji/sysvabi/abi"
	"github.com/susji/sysvabi/target"
	"github.com/susji/sysvabi/types"
)

func fn(ret types.Qualifiable, args ...types.Qualifiable) *types.Function {
	return types.NewFunction(ret, args, false)
}

func mkstruct(t *testing.T, fts ...types.Qualifiable) *types.Struct {
	t.Helper()
	var fields types.Fields
	for i, ft := range fts {
		fields = append(fields, types.Field{
			Name: string(rune('a' + i)),
			Type: types.Qualify(ft),
		})
	}
	st, err := types.NewUnnamedStruct(fields)
	require.NoError(t, err)
	return st
}

func repeat(n int, what types.Qualifiable) []types.Qualifiable {
	var ret []types.Qualifiable
	for i := 0; i < n; i++ {
		ret = append(ret, what)
	}
	return ret
}

func arg(t *testing.T, p target.Platform, what types.Qualifiable) abi.ArgInfo {
	t.Helper()
	fi, err := abi.ComputeABI(fn(types.NewVoid(), what), p)
	require.NoError(t, err)
	require.Len(t, fi.Args, 1)
	return fi.Args[0]
}

func TestArguments(t *testing.T) {
	p := target.LinuxAMD64()
	f32 := types.Float32()
	f64 := types.Float64()

	type entry struct {
		name string
		give types.Qualifiable
		want string
	}

	table := []entry{
		{"bool", types.Bool(), "<Extend type=_Bool>"},
		{"char", types.Char(), "<Extend type=char>"},
		{"unsigned short", types.UShort(), "<Extend type=unsigned short>"},
		{"uint8", types.UIntN(8), "<Extend type=uint8_t>"},
		{"int", types.Int(), "<Direct type=int offset=0>"},
		{"long", types.Long(), "<Direct type=long offset=0>"},
		{"uint64", types.UIntN(64), "<Direct type=uint64_t offset=0>"},
		{"const int", types.Qualify(types.Int()).WithConst(), "<Direct type=int offset=0>"},
		{"pointer", types.NewPointer(types.Char()), "<Direct type=char* offset=0>"},
		{"float", f32, "<Direct type=float offset=0>"},
		{"double", f64, "<Direct type=double offset=0>"},
		{"float2", mkstruct(t, f32, f32), "<Direct type=<2 x float> offset=0>"},
		{"float3", mkstruct(t, f32, f32, f32), "<Direct type={<2 x float>, float} offset=0>"},
		{"float4", mkstruct(t, f32, f32, f32, f32), "<Direct type={<2 x float>, <2 x float>} offset=0>"},
		{"float5", mkstruct(t, f32, f32, f32, f32, f32), "<Indirect align=8 byval=true realign=false>"},
		{"float array", mkstruct(t, types.NewArray(f32, 3)), "<Direct type={<2 x float>, float} offset=0>"},
		{"double2", mkstruct(t, f64, f64), "<Direct type={double, double} offset=0>"},
		{"double3", mkstruct(t, f64, f64, f64), "<Indirect align=8 byval=true realign=false>"},
		{"long2", mkstruct(t, types.Long(), types.Long()), "<Direct type={long, long} offset=0>"},
		{"char3", mkstruct(t, types.Char(), types.Char(), types.Char()), "<Direct type=uint24_t offset=0>"},
		{"char struct", mkstruct(t, types.Char()), "<Extend type=char>"},
		{"short struct", mkstruct(t, types.Short()), "<Extend type=short>"},
		{"nested char struct", mkstruct(t, mkstruct(t, types.UChar())), "<Extend type=unsigned char>"},
		{"char array struct", mkstruct(t, types.NewArray(types.Char(), 1)), "<Extend type=char>"},
		{"int struct", mkstruct(t, types.Int()), "<Direct type=int offset=0>"},
		{"char16", mkstruct(t, types.NewArray(types.Char(), 16)), "<Direct type={uint64_t, uint64_t} offset=0>"},
		{"float-int", mkstruct(t, f32, types.Int()), "<Direct type=uint64_t offset=0>"},
		{"int3", mkstruct(t, types.Int(), types.Int(), types.Int()), "<Direct type={uint64_t, int} offset=0>"},
		{"double-char", mkstruct(t, f64, types.Char()), "<Direct type={double, char} offset=0>"},
		{"int-double", mkstruct(t, types.Int(), f64), "<Direct type={int, double} offset=0>"},
		{"pointer-float", mkstruct(t, types.NewPointer(types.Int()), f32), "<Direct type={int*, float} offset=0>"},
		{"empty", mkstruct(t), "<Ignore>"},
		{"nested", mkstruct(t, mkstruct(t, f32, f32), f64), "<Direct type={<2 x float>, double} offset=0>"},
		{"big ints", mkstruct(t, repeat(5, types.Long())...), "<Indirect align=8 byval=true realign=false>"},
		{"m64", types.NewVector(f32, 2), "<Direct type=<2 x float> offset=0>"},
		{"m128", types.NewVector(f32, 4), "<Direct type=<4 x float> offset=0>"},
		{"m128 in struct", mkstruct(t, types.NewVector(types.IntN(64), 2)), "<Direct type=<2 x int64_t> offset=0>"},
		{"m256", types.NewVector(f32, 8), "<Indirect align=32 byval=true realign=true>"},
		{"v1double", types.NewVector(f64, 1), "<Indirect align=8 byval=true realign=false>"},
		{"v3float", types.NewVector(f32, 3), "<Direct type=<3 x float> offset=0>"},
		{"v3float-float", mkstruct(t, types.NewVector(f32, 3), f32), "<Indirect align=16 byval=true realign=false>"},
		{"v4char", types.NewVector(types.Char(), 4), "<Direct type=uint32_t offset=0>"},
	}

	for _, cur := range table {
		t.Run(cur.name, func(t *testing.T) {
			assert.Equal(t, cur.want, arg(t, p, cur.give).String())
		})
	}
}

func TestAVX(t *testing.T) {
	avx, err := target.LinuxAMD64().WithVectorBits(256)
	require.NoError(t, err)
	f32 := types.Float32()

	assert.Equal(t, "<Direct type=<8 x float> offset=0>", arg(t, avx, types.NewVector(f32, 8)).String())
	assert.Equal(t, "<Direct type=<8 x float> offset=0>",
		arg(t, avx, mkstruct(t, types.NewVector(f32, 8))).String())
	// Two 16-byte vectors still do not fit in a single register.
	assert.Equal(t, "<Indirect align=16 byval=true realign=false>",
		arg(t, avx, mkstruct(t, types.NewVector(f32, 4), types.NewVector(f32, 4))).String())
}

func TestPointerIsItsOwnCoerceType(t *testing.T) {
	p := target.LinuxAMD64()
	ptr := types.NewPointer(types.Qualify(types.Char()).WithConst())
	info := arg(t, p, ptr)
	require.Equal(t, abi.ARG_DIRECT, info.Kind())
	assert.Same(t, ptr, abi.CoerceType(info))
	assert.Equal(t, 0, info.(*abi.Direct).Offset)
}

func TestReturns(t *testing.T) {
	p := target.LinuxAMD64()
	f64 := types.Float64()

	type entry struct {
		name string
		give types.Qualifiable
		want string
	}

	table := []entry{
		{"void", types.NewVoid(), "<Ignore>"},
		{"char", types.Char(), "<Extend type=char>"},
		{"double", f64, "<Direct type=double offset=0>"},
		{"double2", mkstruct(t, f64, f64), "<Direct type={double, double} offset=0>"},
		{"double3", mkstruct(t, f64, f64, f64), "<Indirect align=8 byval=false realign=false>"},
	}

	for _, cur := range table {
		t.Run(cur.name, func(t *testing.T) {
			fi, err := abi.ComputeABI(fn(cur.give), p)
			require.NoError(t, err)
			assert.Equal(t, cur.want, fi.Return.String())
			assert.Empty(t, fi.Args)
		})
	}
}

func TestIntegerRegisterExhaustion(t *testing.T) {
	p := target.LinuxAMD64()
	fi, err := abi.ComputeABI(fn(types.NewVoid(), repeat(7, types.Long())...), p)
	require.NoError(t, err)
	require.Len(t, fi.Args, 7)
	for i := 0; i < 6; i++ {
		assert.Equal(t, abi.ARG_DIRECT, fi.Args[i].Kind(), "argument %d", i)
	}
	assert.Equal(t, &abi.Indirect{Align: 8, ByVal: true}, fi.Args[6])

	// Promotable ones too, and the natural alignment is raised to 8.
	fi, err = abi.ComputeABI(fn(types.NewVoid(), repeat(7, types.Char())...), p)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, abi.ARG_EXTEND, fi.Args[i].Kind(), "argument %d", i)
	}
	assert.Equal(t, &abi.Indirect{Align: 8, ByVal: true}, fi.Args[6])
}

func TestSSERegisterExhaustion(t *testing.T) {
	p := target.LinuxAMD64()
	args := repeat(9, types.Float64())
	args = append(args, types.Long())
	fi, err := abi.ComputeABI(fn(types.NewVoid(), args...), p)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, abi.ARG_DIRECT, fi.Args[i].Kind(), "argument %d", i)
	}
	assert.Equal(t, abi.ARG_INDIRECT, fi.Args[8].Kind())
	// The integer registers are untouched.
	assert.Equal(t, abi.ARG_DIRECT, fi.Args[9].Kind())
}

func TestDemotionIsGreedy(t *testing.T) {
	p := target.LinuxAMD64()
	long2 := mkstruct(t, types.Long(), types.Long())
	args := repeat(5, types.Long())
	args = append(args, long2, types.Long())
	fi, err := abi.ComputeABI(fn(types.NewVoid(), args...), p)
	require.NoError(t, err)
	require.Len(t, fi.Args, 7)
	// The pair needs two registers but only one is left. The register is
	// not held back for it, so the following long still gets it.
	assert.Equal(t, abi.ARG_INDIRECT, fi.Args[5].Kind())
	assert.Equal(t, abi.ARG_DIRECT, fi.Args[6].Kind())
}

func TestMemoryReturnTakesRegister(t *testing.T) {
	p := target.LinuxAMD64()
	big := mkstruct(t, types.Float64(), types.Float64(), types.Float64())
	fi, err := abi.ComputeABI(fn(big, repeat(6, types.Long())...), p)
	require.NoError(t, err)
	assert.Equal(t, &abi.Indirect{Align: 8}, fi.Return)
	for i := 0; i < 5; i++ {
		assert.Equal(t, abi.ARG_DIRECT, fi.Args[i].Kind(), "argument %d", i)
	}
	assert.Equal(t, abi.ARG_INDIRECT, fi.Args[5].Kind())
}

func TestDeterministic(t *testing.T) {
	p := target.LinuxAMD64()
	ts := types.New()
	f32 := types.Float32()
	vec3, err := ts.DefineStruct("vec3", types.Fields{
		{Name: "x", Type: types.Qualify(f32)},
		{Name: "y", Type: types.Qualify(f32)},
		{Name: "z", Type: types.Qualify(f32)},
	})
	require.NoError(t, err)
	f := fn(vec3, vec3, types.NewPointer(vec3), types.Int(), types.Float64(),
		mkstruct(t, types.Int(), types.Float64()))

	one, err := abi.ComputeABI(f, p)
	require.NoError(t, err)
	two, err := abi.ComputeABI(f, p)
	require.NoError(t, err)
	assert.Equal(t, one, two)
	assert.Equal(t, one.String(), two.String())
	for i := range one.Args {
		assert.True(t, types.Equal(abi.CoerceType(one.Args[i]), abi.CoerceType(two.Args[i])))
	}
	// Classification leaves the registry alone.
	assert.Len(t, ts.Structs(), 1)
}

func TestErrors(t *testing.T) {
	p := target.LinuxAMD64()
	ts := types.New()
	fwd, err := ts.Struct("fwd")
	require.NoError(t, err)

	type entry struct {
		name     string
		give     *types.Function
		want     error
		position int
	}

	table := []entry{
		{"long double arg", fn(types.NewVoid(), types.Int(), types.LongDouble()),
			abi.ErrUnsupportedScalarWidth, 1},
		{"int128 arg", fn(types.NewVoid(), types.IntN(128)), abi.ErrUnsupportedScalarWidth, 0},
		{"long double return", fn(types.LongDouble()),
			abi.ErrUnsupportedScalarWidth, abi.POSITION_RETURN},
		{"long double in struct", fn(types.NewVoid(), mkstruct(t, types.LongDouble())),
			abi.ErrUnsupportedScalarWidth, 0},
		{"incomplete", fn(types.NewVoid(), fwd), target.ErrIncomplete, 0},
		{"function", fn(types.NewVoid(), fn(types.NewVoid())), target.ErrUnsized, 0},
	}

	for _, cur := range table {
		t.Run(cur.name, func(t *testing.T) {
			_, err := abi.ComputeABI(cur.give, p)
			require.Error(t, err)
			assert.ErrorIs(t, err, cur.want)
			var cerr *abi.ClassifyError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, cur.position, cerr.Position)
		})
	}
}

func TestClassifyErrorMessage(t *testing.T) {
	_, err := abi.ComputeABI(fn(types.NewVoid(), types.Int(), types.LongDouble()), target.LinuxAMD64())
	require.Error(t, err)
	assert.Equal(t,
		"argument 1 (long double): unsupported scalar width: long double is 80 bits",
		err.Error())

	_, err = abi.ComputeABI(fn(types.LongDouble()), target.LinuxAMD64())
	require.Error(t, err)
	assert.Equal(t,
		"return value long double: unsupported scalar width: long double is 80 bits",
		err.Error())
}

func TestFor(t *testing.T) {
	p := target.LinuxAMD64()
	info, err := abi.For(abi.CONV_SYSV_AMD64, p)
	require.NoError(t, err)
	assert.Equal(t, abi.CONV_SYSV_AMD64, info.Convention())

	_, err = abi.For(abi.CONV_WIN64, p)
	assert.ErrorIs(t, err, abi.ErrUnsupportedConvention)
	_, err = abi.For(abi.Convention(42), p)
	assert.ErrorIs(t, err, abi.ErrUnsupportedConvention)
}

func TestFunctionInfoString(t *testing.T) {
	p := target.LinuxAMD64()
	fi, err := abi.NewSysV(p).ComputeInfo(fn(types.Int(), types.Char(), types.Float64()))
	require.NoError(t, err)
	want := `ArgInfo SystemV/x86_64 {
    return <Direct type=int offset=0>
    args:
       0: <Extend type=char>
       1: <Direct type=double offset=0>
}`
	assert.Equal(t, want, fi.String())
}

func TestArgKinds(t *testing.T) {
	type entry struct {
		give          abi.ArgInfo
		coerce, inreg bool
	}

	table := []entry{
		{&abi.Ignore{}, false, false},
		{&abi.Extend{CoerceType: types.Char()}, true, true},
		{&abi.Direct{}, true, true},
		{&abi.Indirect{Align: 8}, false, true},
		{&abi.Expand{}, false, false},
	}

	for _, cur := range table {
		t.Run(cur.give.Kind().String(), func(t *testing.T) {
			assert.Equal(t, cur.coerce, cur.give.CanHaveCoerceType())
			assert.Equal(t, cur.inreg, cur.give.InReg())
			assert.Equal(t, cur.coerce, cur.give.Kind().CanHaveCoerceType())
			assert.Equal(t, cur.inreg, cur.give.Kind().InReg())
		})
	}
	assert.Equal(t, "<Direct type=<nil> offset=0>", (&abi.Direct{}).String())
	assert.Equal(t, "<Expand>", (&abi.Expand{}).String())
	assert.Nil(t, abi.CoerceType(&abi.Indirect{}))
}
