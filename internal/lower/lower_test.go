package lower_test

import (
	"testing"

	"hdlc/internal/diag"
	"hdlc/internal/lower"
	"hdlc/internal/source"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

func newLowerer() *lower.Lowerer {
	sess := diag.NewSession(source.NewFileSet(), diag.NopReporter{})
	return lower.New(sess, vcode.NewRegistry())
}

func intType() *tree.Type {
	return &tree.Type{Kind: tree.TypeInteger, Name: "INTEGER", Low: -1 << 31, High: 1<<31 - 1}
}

func TestLowerThunkCall(t *testing.T) {
	ty := intType()
	call := &tree.Node{
		Kind:  tree.KindFcall,
		Ident: "WORK.PACK.ADD1",
		Type:  ty,
		Params: []*tree.Node{
			{Kind: tree.KindLiteral, Lit: tree.LitInt, Int: 5, Type: ty},
		},
	}

	u := newLowerer().LowerThunk(call)
	if u == nil {
		t.Fatal("LowerThunk = nil")
	}
	if err := vcode.Validate(u); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	ops := u.Block(0)
	if len(ops) != 3 {
		t.Fatalf("ops = %d, want 3", len(ops))
	}
	if ops[0].Kind != vcode.OpConst || ops[0].Value != 5 {
		t.Errorf("ops[0] = %+v", ops[0])
	}
	if ops[1].Kind != vcode.OpFcall || ops[1].Func != "WORK.PACK.ADD1" {
		t.Errorf("ops[1] = %+v", ops[1])
	}
	if ops[2].Kind != vcode.OpReturn {
		t.Errorf("ops[2] = %+v", ops[2])
	}
}

func TestLowerThunkConstRef(t *testing.T) {
	ty := intType()
	decl := &tree.Node{
		Kind: tree.KindConstDecl, Ident: "WIDTH", Type: ty,
		Value: &tree.Node{Kind: tree.KindLiteral, Lit: tree.LitInt, Int: 8, Type: ty},
	}
	conv := &tree.Node{
		Kind: tree.KindTypeConv, Type: &tree.Type{Kind: tree.TypeReal, Name: "REAL"},
		Value: &tree.Node{Kind: tree.KindRef, Ref: decl, Type: ty},
	}
	call := &tree.Node{
		Kind: tree.KindFcall, Ident: "WORK.PACK.HALF", Type: ty,
		Params: []*tree.Node{conv},
	}

	u := newLowerer().LowerThunk(call)
	if u == nil {
		t.Fatal("LowerThunk = nil")
	}
	ops := u.Block(0)
	if ops[0].Kind != vcode.OpConst || ops[0].Value != 8 {
		t.Errorf("ops[0] = %+v", ops[0])
	}
	if ops[1].Kind != vcode.OpCast || ops[1].Type.Kind != vcode.TReal {
		t.Errorf("ops[1] = %+v", ops[1])
	}
}

func TestLowerThunkDeclines(t *testing.T) {
	call := &tree.Node{
		Kind: tree.KindFcall, Ident: "WORK.F", Type: intType(),
		Params: []*tree.Node{
			{Kind: tree.KindAggregate},
		},
	}
	if u := newLowerer().LowerThunk(call); u != nil {
		t.Errorf("LowerThunk = %v, want nil", u)
	}
}

func TestLowerUnitPackage(t *testing.T) {
	ty := intType()
	pkg := &tree.Node{
		Kind: tree.KindPackage, Ident: "WORK.PACK",
		Params: []*tree.Node{
			{
				Kind: tree.KindConstDecl, Ident: "DEPTH", Type: ty,
				Value: &tree.Node{Kind: tree.KindLiteral, Lit: tree.LitInt, Int: 16, Type: ty},
			},
		},
	}

	u := newLowerer().LowerUnit(pkg)
	if u == nil {
		t.Fatal("LowerUnit = nil")
	}
	if u.Kind != vcode.UnitPackage || len(u.Vars) != 1 {
		t.Errorf("unit = %+v", u)
	}
	if u.Vars[0].Name != "DEPTH" {
		t.Errorf("var = %+v", u.Vars[0])
	}
	ops := u.Block(0)
	if len(ops) != 3 || ops[1].Kind != vcode.OpStore {
		t.Errorf("ops = %+v", ops)
	}
}

func TestVcodeTypeMapping(t *testing.T) {
	enum := &tree.Type{Kind: tree.TypeEnum, EnumLits: []string{"FALSE", "TRUE"}}
	vt := lower.VcodeType(enum)
	if vt.Kind != vcode.TInt || vt.High != 1 {
		t.Errorf("enum type = %+v", vt)
	}

	arr := &tree.Type{Kind: tree.TypeArray, Constrained: true, ElemCount: 4, Elem: enum}
	vt = lower.VcodeType(arr)
	if vt.Kind != vcode.TCarray || vt.Elems != 4 {
		t.Errorf("array type = %+v", vt)
	}
}
