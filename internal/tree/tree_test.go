package tree_test

import (
	"testing"

	"hdlc/internal/tree"
)

func TestRewriteBottomUp(t *testing.T) {
	var order []string
	leaf := &tree.Node{Kind: tree.KindLiteral, Ident: "leaf"}
	root := &tree.Node{Kind: tree.KindFcall, Ident: "root", Params: []*tree.Node{leaf}}

	tree.Rewrite(root, func(n *tree.Node) *tree.Node {
		order = append(order, n.Ident)
		return n
	})

	if len(order) != 2 || order[0] != "leaf" || order[1] != "root" {
		t.Errorf("visit order = %v, want children before parents", order)
	}
}

func TestRewriteReplacesChild(t *testing.T) {
	leaf := &tree.Node{Kind: tree.KindRef, Ident: "c"}
	root := &tree.Node{Kind: tree.KindFcall, Ident: "f", Params: []*tree.Node{leaf}}

	lit := &tree.Node{Kind: tree.KindLiteral, Lit: tree.LitInt, Int: 3}
	got := tree.Rewrite(root, func(n *tree.Node) *tree.Node {
		if n.Kind == tree.KindRef {
			return lit
		}
		return n
	})

	if got.Params[0] != lit {
		t.Errorf("child not replaced: %+v", got.Params[0])
	}
}

func TestNewEnumLit(t *testing.T) {
	boolTy := &tree.Type{Kind: tree.TypeEnum, Name: "BOOLEAN", EnumLits: []string{"FALSE", "TRUE"}}
	at := &tree.Node{Kind: tree.KindFcall, Type: boolTy}

	lit := tree.NewEnumLit(at, 1)
	if lit == nil || lit.Ident != "TRUE" || lit.Lit != tree.LitEnum {
		t.Fatalf("NewEnumLit(1) = %+v", lit)
	}
	if got := tree.NewEnumLit(at, 5); got != nil {
		t.Errorf("NewEnumLit(5) = %+v, want nil", got)
	}
	if got := tree.NewEnumLit(at, -1); got != nil {
		t.Errorf("NewEnumLit(-1) = %+v, want nil", got)
	}
}

func TestIsScalar(t *testing.T) {
	cases := []struct {
		ty   *tree.Type
		want bool
	}{
		{&tree.Type{Kind: tree.TypeInteger}, true},
		{&tree.Type{Kind: tree.TypeReal}, true},
		{&tree.Type{Kind: tree.TypeEnum}, true},
		{&tree.Type{Kind: tree.TypePhysical}, true},
		{&tree.Type{Kind: tree.TypeArray}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := tc.ty.IsScalar(); got != tc.want {
			t.Errorf("IsScalar(%+v) = %v, want %v", tc.ty, got, tc.want)
		}
	}
}
