package eval_test

import (
	"strings"
	"testing"

	"hdlc/internal/diag"
	"hdlc/internal/eval"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

func TestRemModIdentities(t *testing.T) {
	cases := []struct{ a, b int64 }{
		{7, 3}, {-7, 3}, {7, -3}, {-7, -3}, {12, 4}, {1, 5}, {-13, 5},
	}
	for _, tc := range cases {
		e := newEnv(t)
		rem := e.evalThunk(func(b *vcode.Builder) {
			x := b.Const(tc.a, nil)
			y := b.Const(tc.b, nil)
			b.Return(b.Rem(x, y, nil))
		}, intType(), 0)

		e = newEnv(t)
		mod := e.evalThunk(func(b *vcode.Builder) {
			x := b.Const(tc.a, nil)
			y := b.Const(tc.b, nil)
			b.Return(b.Mod(x, y, nil))
		}, intType(), 0)

		e = newEnv(t)
		div := e.evalThunk(func(b *vcode.Builder) {
			x := b.Const(tc.a, nil)
			y := b.Const(tc.b, nil)
			b.Return(b.Div(x, y, nil))
		}, intType(), 0)

		// rem(a, b) == a - (a/b)*b
		if want := tc.a - (tc.a/tc.b)*tc.b; rem.Int != want {
			t.Errorf("rem(%d,%d) = %d, want %d", tc.a, tc.b, rem.Int, want)
		}
		// mod(a, b) == |a % b|
		want := tc.a % tc.b
		if want < 0 {
			want = -want
		}
		if mod.Int != want {
			t.Errorf("mod(%d,%d) = %d, want %d", tc.a, tc.b, mod.Int, want)
		}
		// (a/b)*b + rem(a,b) == a
		if got := div.Int*tc.b + rem.Int; got != tc.a {
			t.Errorf("(%d/%d)*%d + rem = %d, want %d", tc.a, tc.b, tc.b, got, tc.a)
		}
	}
}

func TestNotNot(t *testing.T) {
	for _, x := range []int64{0, 1, 7, -3} {
		e := newEnv(t)
		got := e.evalThunk(func(b *vcode.Builder) {
			v := b.Const(x, nil)
			b.Return(b.Not(b.Not(v, nil), nil))
		}, intType(), 0)

		want := int64(0)
		if x != 0 {
			want = 1
		}
		wantIntLit(t, got, want)
	}
}

func TestUarrayLenClamp(t *testing.T) {
	cases := []struct {
		left, right int64
		dir         vcode.Dir
		want        int64
	}{
		{1, 4, vcode.DirTo, 4},
		{4, 1, vcode.DirDownto, 4},
		{5, 1, vcode.DirTo, 0},
		{1, 5, vcode.DirDownto, 0},
		{3, 3, vcode.DirTo, 1},
	}
	for _, tc := range cases {
		e := newEnv(t)
		got := e.evalThunk(func(b *vcode.Builder) {
			cell := b.Const(0, nil)
			ptr := b.ConstArray([]vcode.Reg{cell}, nil, nil)
			l := b.Const(tc.left, nil)
			r := b.Const(tc.right, nil)
			d := b.Const(int64(tc.dir), nil)
			vec := b.Wrap(ptr, []vcode.WrapDim{{Left: l, Right: r, Dir: d}}, nil)
			b.Return(b.UarrayLen(0, vec, nil))
		}, intType(), 0)
		wantIntLit(t, got, tc.want)
	}
}

func TestUarrayBoundsAttrs(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		cell := b.Const(0, nil)
		ptr := b.ConstArray([]vcode.Reg{cell}, nil, nil)
		l := b.Const(7, nil)
		r := b.Const(3, nil)
		d := b.Const(int64(vcode.DirDownto), nil)
		vec := b.Wrap(ptr, []vcode.WrapDim{{Left: l, Right: r, Dir: d}}, nil)
		left := b.UarrayLeft(0, vec, nil)
		right := b.UarrayRight(0, vec, nil)
		dir := b.UarrayDir(0, vec, nil)
		// left*100 + right*10 + dir
		hundred := b.Const(100, nil)
		ten := b.Const(10, nil)
		sum := b.Add(b.Mul(left, hundred, nil), b.Mul(right, ten, nil), nil)
		b.Return(b.Add(sum, dir, nil))
	}, intType(), 0)
	wantIntLit(t, got, 731)
}

func TestWrapTooManyDims(t *testing.T) {
	e := newEnv(t)
	n := call("test", intType())

	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	cell := b.Const(0, nil)
	ptr := b.ConstArray([]vcode.Reg{cell}, nil, nil)
	dims := make([]vcode.WrapDim, 5)
	for i := range dims {
		l := b.Const(1, nil)
		r := b.Const(1, nil)
		d := b.Const(int64(vcode.DirTo), nil)
		dims[i] = vcode.WrapDim{Left: l, Right: r, Dir: d}
	}
	vec := b.Wrap(ptr, dims, nil)
	b.Return(b.UarrayLen(0, vec, nil))
	e.ev.Lower = stubLower{thunk: b.Finish()}

	if got := e.ev.Eval(n, eval.FlagWarn); got != n {
		t.Errorf("Eval of 5-dim wrap = %v, want original node", got)
	}

	found := false
	for _, d := range e.bag.Items() {
		if d.Code == diag.EvalManyDims && strings.Contains(d.Message, "5 dimensional array prevents") {
			found = true
		}
	}
	if !found {
		t.Error("missing dimensional-array warning")
	}
}

func TestDivByZeroFatal(t *testing.T) {
	e := newEnv(t)

	defer func() {
		r := recover()
		fe, ok := r.(*diag.FatalError)
		if !ok {
			t.Fatalf("recover() = %T, want *diag.FatalError", r)
		}
		if fe.Diag.Code != diag.EvalDivByZero {
			t.Errorf("code = %v, want EvalDivByZero", fe.Diag.Code)
		}
	}()

	e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(1, nil)
		zero := b.Const(0, nil)
		b.Return(b.Div(x, zero, nil))
	}, intType(), 0)
}

func TestAssertSeverityMatrix(t *testing.T) {
	buildAssert := func(b *vcode.Builder, severity int64) {
		test := b.Const(0, nil)
		sev := b.Const(severity, nil)
		b.Assert(test, sev, vcode.RegNone, vcode.RegNone, nil)
		b.Return(b.Const(1, nil))
	}

	// failure severity with report flag: message emitted, fold aborts.
	e := newEnv(t)
	n := call("test", intType())
	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	buildAssert(b, int64(diag.SevFailure))
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, eval.FlagReport); got != n {
		t.Errorf("failing assert folded to %v", got)
	}
	if e.bag.Len() == 0 {
		t.Error("assert with report flag emitted no message")
	}

	// failure severity without report flag: silent abort.
	e = newEnv(t)
	b = vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	buildAssert(b, int64(diag.SevFailure))
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, 0); got != n {
		t.Errorf("failing assert folded to %v", got)
	}
	if e.bag.Len() != 0 {
		t.Errorf("assert without report flag emitted %d diagnostics", e.bag.Len())
	}

	// note severity with report flag: message emitted, fold proceeds.
	e = newEnv(t)
	b = vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	buildAssert(b, int64(diag.SevNote))
	e.ev.Lower = stubLower{thunk: b.Finish()}
	got := e.ev.Eval(n, eval.FlagReport)
	wantIntLit(t, got, 1)

	// passing assert never blocks folding.
	e = newEnv(t)
	got = e.evalThunk(func(b *vcode.Builder) {
		test := b.Const(1, nil)
		sev := b.Const(int64(diag.SevFailure), nil)
		b.Assert(test, sev, vcode.RegNone, vcode.RegNone, nil)
		b.Return(b.Const(9, nil))
	}, intType(), 0)
	wantIntLit(t, got, 9)
}

func TestReportRequiresFlag(t *testing.T) {
	build := func(b *vcode.Builder) {
		sev := b.Const(int64(diag.SevNote), nil)
		var msg []vcode.Reg
		for _, ch := range "hello" {
			msg = append(msg, b.Const(int64(ch), nil))
		}
		ptr := b.ConstArray(msg, nil, nil)
		length := b.Const(5, nil)
		b.Report(sev, ptr, length, nil)
		b.Return(b.Const(3, nil))
	}

	// Without the report flag the observable side effect must
	// survive to runtime: the fold aborts.
	e := newEnv(t)
	n := call("test", intType())
	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	build(b)
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, 0); got != n {
		t.Errorf("report without flag folded to %v", got)
	}

	// With it the message is emitted and the fold proceeds.
	e = newEnv(t)
	got := e.evalThunk(build, intType(), eval.FlagReport)
	wantIntLit(t, got, 3)

	found := false
	for _, d := range e.bag.Items() {
		if d.Code == diag.EvalReport && d.Message == "hello" {
			found = true
		}
	}
	if !found {
		t.Error("report message not emitted")
	}
}

func TestHeapExhaustion(t *testing.T) {
	e := newEnv(t)
	n := call("test", intType())

	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	ptr := b.Alloca(1<<10, vcode.IntType(0, 255), nil)
	b.Return(b.LoadIndirect(ptr, nil))
	e.ev.Lower = stubLower{thunk: b.Finish()}

	if got := e.ev.Eval(n, eval.FlagWarn); got != n {
		t.Errorf("Eval past heap ceiling = %v, want original node", got)
	}

	found := false
	for _, d := range e.bag.Items() {
		if d.Code == diag.EvalHeapExhausted {
			found = true
		}
	}
	if !found {
		t.Error("missing heap exhaustion warning")
	}
}

func TestBoundsReporting(t *testing.T) {
	build := func(b *vcode.Builder) {
		x := b.Const(300, nil)
		b.Bounds(x, vcode.IntType(0, 255), nil)
		b.Return(x)
	}

	// With bounds reporting: diagnostic plus error count.
	e := newEnv(t)
	n := call("test", intType())
	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	build(b)
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, eval.FlagBounds); got != n {
		t.Errorf("out-of-bounds fold = %v, want original node", got)
	}
	if e.ev.Errors() != 1 {
		t.Errorf("Errors = %d, want 1", e.ev.Errors())
	}

	// Without: silent abort.
	e = newEnv(t)
	b = vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	build(b)
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, 0); got != n {
		t.Errorf("out-of-bounds fold = %v, want original node", got)
	}
	if e.bag.Len() != 0 {
		t.Errorf("silent bounds abort emitted %d diagnostics", e.bag.Len())
	}
}

func TestDynamicBoundsAndIndexCheck(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(5, nil)
		lo := b.Const(0, nil)
		hi := b.Const(9, nil)
		b.DynamicBounds(x, lo, hi, nil)
		b.IndexCheck(lo, hi, vcode.IntType(0, 15), nil)
		b.Return(x)
	}, intType(), 0)
	wantIntLit(t, got, 5)

	e = newEnv(t)
	n := call("test", intType())
	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	lo := b.Const(0, nil)
	hi := b.Const(20, nil)
	b.IndexCheck(lo, hi, vcode.IntType(0, 15), nil)
	b.Return(lo)
	e.ev.Lower = stubLower{thunk: b.Finish()}
	if got := e.ev.Eval(n, eval.FlagBounds); got != n {
		t.Errorf("index check fold = %v, want original node", got)
	}
}

func TestSelectOp(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		test := b.Const(1, nil)
		lhs := b.Const(10, nil)
		rhs := b.Const(20, nil)
		b.Return(b.Choose(test, lhs, rhs, nil))
	}, intType(), 0)
	wantIntLit(t, got, 10)

	e = newEnv(t)
	got = e.evalThunk(func(b *vcode.Builder) {
		test := b.Const(0, nil)
		lhs := b.Const(10, nil)
		rhs := b.Const(20, nil)
		b.Return(b.Choose(test, lhs, rhs, nil))
	}, intType(), 0)
	wantIntLit(t, got, 20)
}

func TestCastTruncation(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.ConstReal(-2.9, nil)
		b.Return(b.Cast(vcode.IntType(-10, 10), x, nil))
	}, intType(), 0)
	wantIntLit(t, got, -2)

	e = newEnv(t)
	real := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(3, nil)
		b.Return(b.Cast(vcode.RealType(), x, nil))
	}, realType(), 0)
	if real.Lit != tree.LitReal || real.Real != 3.0 {
		t.Errorf("int to real cast = %+v", real)
	}
}

func TestAbsNegExp(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(-9, nil)
		b.Return(b.Abs(b.Neg(b.Abs(x, nil), nil), nil))
	}, intType(), 0)
	wantIntLit(t, got, 9)

	e = newEnv(t)
	real := e.evalThunk(func(b *vcode.Builder) {
		x := b.ConstReal(2.0, nil)
		y := b.ConstReal(10.0, nil)
		b.Return(b.Exp(x, y, nil))
	}, realType(), 0)
	if real.Real != 1024.0 {
		t.Errorf("2.0 ** 10.0 = %g, want 1024", real.Real)
	}
}

func TestImageInteger(t *testing.T) {
	e := newEnv(t)
	bm := &tree.Node{Kind: tree.KindLiteral, Type: intType()}
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(42, nil)
		img := b.Image(x, bm)
		// length*100 + first character
		length := b.UarrayLen(0, img, nil)
		ptr := b.Unwrap(img, nil)
		first := b.LoadIndirect(ptr, nil)
		hundred := b.Const(100, nil)
		b.Return(b.Add(b.Mul(length, hundred, nil), first, nil))
	}, intType(), 0)
	wantIntLit(t, got, 200+'4')
}

func TestImageEnumAndPhysical(t *testing.T) {
	e := newEnv(t)
	enumBm := &tree.Node{Kind: tree.KindLiteral, Type: boolType()}
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(1, nil)
		img := b.Image(x, enumBm)
		b.Return(b.UarrayLen(0, img, nil))
	}, intType(), 0)
	wantIntLit(t, got, 4) // "TRUE"

	e = newEnv(t)
	physBm := &tree.Node{Kind: tree.KindLiteral, Type: &tree.Type{
		Kind: tree.TypePhysical, Name: "TIME", BaseUnit: "fs",
		Low: -1 << 62, High: 1<<62 - 1,
	}}
	got = e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(125, nil)
		img := b.Image(x, physBm)
		b.Return(b.UarrayLen(0, img, nil))
	}, intType(), 0)
	wantIntLit(t, got, 6) // "125 fs"
}

func TestLogicalOps(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		x := b.Const(0b1100, nil)
		y := b.Const(0b1010, nil)
		andR := b.And(x, y, nil)
		orR := b.Or(x, y, nil)
		b.Return(b.Sub(orR, andR, nil))
	}, intType(), 0)
	wantIntLit(t, got, 0b1110-0b1000)
}

func TestUndefinedPreventsFold(t *testing.T) {
	e := newEnv(t)
	n := call("test", intType())

	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	b.Return(b.Undefined(nil))
	e.ev.Lower = stubLower{thunk: b.Finish()}

	if got := e.ev.Eval(n, eval.FlagWarn); got != n {
		t.Errorf("Eval of undefined = %v, want original node", got)
	}
	found := false
	for _, d := range e.bag.Items() {
		if d.Code == diag.EvalUndefined {
			found = true
		}
	}
	if !found {
		t.Error("missing undefined-value warning")
	}
}

func TestNestedFcallPreventsFold(t *testing.T) {
	e := newEnv(t)
	n := call("test", intType())

	b := vcode.NewBuilder("thunk", vcode.UnitThunk, nil)
	b.Return(b.NestedFcall("WORK.OUTER.INNER", nil, nil))
	e.ev.Lower = stubLower{thunk: b.Finish()}

	if got := e.ev.Eval(n, eval.FlagFcall); got != n {
		t.Errorf("Eval through nested fcall = %v, want original node", got)
	}
}

func TestHeapMarkOpsAreNoOps(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		mark := b.HeapSave(nil)
		x := b.Const(11, nil)
		b.HeapRestore(mark, nil)
		b.Return(x)
	}, intType(), 0)
	wantIntLit(t, got, 11)
}

func TestCopyAndMemcmp(t *testing.T) {
	e := newEnv(t)
	got := e.evalThunk(func(b *vcode.Builder) {
		a1 := b.Const(1, nil)
		a2 := b.Const(2, nil)
		a3 := b.Const(3, nil)
		src := b.ConstArray([]vcode.Reg{a1, a2, a3}, nil, nil)
		dst := b.Alloca(3, vcode.IntType(0, 255), nil)
		n := b.Const(3, nil)
		b.Copy(dst, src, n, nil)
		b.Return(b.Memcmp(dst, src, n, nil))
	}, intType(), 0)
	wantIntLit(t, got, 1)
}
