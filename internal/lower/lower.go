// Package lower translates expression trees into vcode units: thunks
// for single call sites and package units for on-demand library
// loads.
package lower

import (
	"hdlc/internal/diag"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// Lowerer lowers syntax trees to vcode for one compiler session.
type Lowerer struct {
	Session  *diag.Session
	Registry *vcode.Registry
}

// New creates a lowerer.
func New(session *diag.Session, registry *vcode.Registry) *Lowerer {
	return &Lowerer{Session: session, Registry: registry}
}

// LowerThunk compiles a call-site expression into a stand-alone unit
// whose single block evaluates the expression and returns it. Returns
// nil when the expression contains a form the lowering does not
// handle.
func (lw *Lowerer) LowerThunk(callsite *tree.Node) *vcode.Unit {
	b := vcode.NewBuilder(callsite.Ident, vcode.UnitThunk, nil)
	r, ok := lw.expr(b, callsite)
	if !ok {
		return nil
	}
	b.Return(r)
	return b.Finish()
}

// expr lowers one expression node, returning the register holding its
// value.
func (lw *Lowerer) expr(b *vcode.Builder, t *tree.Node) (vcode.Reg, bool) {
	switch t.Kind {
	case tree.KindLiteral:
		switch t.Lit {
		case tree.LitReal:
			return b.ConstReal(t.Real, t), true
		default:
			return b.Const(t.Int, t), true
		}

	case tree.KindRef:
		decl := t.Ref
		if decl == nil {
			return vcode.RegNone, false
		}
		switch decl.Kind {
		case tree.KindEnumLit:
			return b.Const(int64(decl.Pos), t), true
		case tree.KindConstDecl, tree.KindUnitDecl:
			if decl.Value == nil {
				return vcode.RegNone, false
			}
			return lw.expr(b, decl.Value)
		default:
			return vcode.RegNone, false
		}

	case tree.KindTypeConv:
		arg, ok := lw.expr(b, t.Value)
		if !ok {
			return vcode.RegNone, false
		}
		ty := VcodeType(t.Type)
		if ty == nil {
			return vcode.RegNone, false
		}
		return b.Cast(ty, arg, t), true

	case tree.KindFcall:
		args := make([]vcode.Reg, 0, len(t.Params))
		for _, p := range t.Params {
			r, ok := lw.expr(b, p)
			if !ok {
				return vcode.RegNone, false
			}
			args = append(args, r)
		}
		return b.Fcall(t.Ident, args, t), true

	default:
		return vcode.RegNone, false
	}
}

// LowerUnit compiles a freshly loaded package or package body: its
// constant and variable declarations whose type VcodeType can map
// become variables initialised by block 0. Other unit kinds are
// declined.
func (lw *Lowerer) LowerUnit(t *tree.Node) *vcode.Unit {
	var kind vcode.UnitKind
	switch t.Kind {
	case tree.KindPackage:
		kind = vcode.UnitPackage
	case tree.KindPackageBody:
		kind = vcode.UnitPackageBody
	default:
		return nil
	}

	b := vcode.NewBuilder(t.Ident, kind, nil)
	for _, decl := range t.Params {
		if decl.Kind != tree.KindConstDecl && decl.Kind != tree.KindVarDecl {
			continue
		}
		ty := VcodeType(decl.Type)
		if ty == nil {
			lw.Session.WarnAt(decl.Span, diag.LowerUnsupported,
				"cannot lower declaration %s", decl.Ident)
			continue
		}
		v := b.NewVar(decl.Ident, ty, 0)
		if decl.Value != nil {
			if r, ok := lw.expr(b, decl.Value); ok {
				b.Store(r, v, decl)
			}
		}
	}
	b.Return(vcode.RegNone)
	return b.Finish()
}

// VcodeType maps a source type to its vcode representation, or nil
// when no compile-time representation exists.
func VcodeType(t *tree.Type) *vcode.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case tree.TypeInteger, tree.TypePhysical:
		return vcode.IntType(t.Low, t.High)
	case tree.TypeEnum:
		return vcode.IntType(0, int64(len(t.EnumLits)-1))
	case tree.TypeReal:
		return vcode.RealType()
	case tree.TypeArray:
		elem := VcodeType(t.Elem)
		if elem == nil {
			return nil
		}
		if t.Constrained {
			return vcode.CarrayType(t.ElemCount, elem)
		}
		return vcode.UarrayType(1, elem)
	default:
		return nil
	}
}
