package eval

import (
	"hdlc/internal/diag"
	"hdlc/internal/vcode"
)

// context is the activation record of one unit evaluation: transient
// SSA registers plus the unit's variable slots. A reference to a
// variable of an enclosing unit materialises the parent lazily.
type context struct {
	parent *context
	unit   *vcode.Unit
	regs   []Value
	vars   []Value
}

// newContext sizes the register and variable files from the unit and
// pre-initialises each variable slot from its declared type. Returns
// nil when constrained-array storage cannot be allocated.
func (ev *Evaluator) newContext(u *vcode.Unit, st *state) *context {
	ctx := &context{
		unit: u,
		regs: make([]Value, u.Regs),
		vars: make([]Value, len(u.Vars)),
	}
	for i, decl := range u.Vars {
		if decl.Type == nil {
			continue
		}
		switch decl.Type.Kind {
		case vcode.TInt, vcode.TOffset:
			ctx.vars[i] = MakeInt(0)
		case vcode.TReal:
			ctx.vars[i] = MakeReal(0)
		case vcode.TUarray:
			ctx.vars[i] = Value{Kind: VUarray, Uarray: &Uarray{}}
		case vcode.TCarray:
			ptr, ok := st.heap.Alloc(decl.Type.Elems)
			if !ok {
				ev.heapExhausted(st, decl.Type.Elems*valueSize)
				return nil
			}
			ctx.vars[i] = Value{Kind: VCarray, Ptr: ptr}
		}
	}
	return ctx
}

// reg returns the register slot for r.
func (ctx *context) reg(r vcode.Reg) *Value {
	return &ctx.regs[r]
}

// getVar resolves a variable reference, materialising enclosing
// contexts on first escape. Returns nil when the fold must be
// abandoned: a missing context chain, an extern variable, or a failed
// parent initialisation.
func (ev *Evaluator) getVar(ref vcode.VarRef, st *state) *Value {
	ctx := st.ctx
	depth := ctx.unit.Depth()
	if int(ref.Depth) == depth {
		return &ctx.vars[ref.Index]
	}
	if int(ref.Depth) > depth {
		st.fail()
		return nil
	}

	// Walk towards the outermost unit, running each enclosing unit's
	// block 0 to initialise its variables the first time it is
	// reached.
	for int(ref.Depth) < ctx.unit.Depth() {
		if ctx.parent == nil {
			parent, ok := ev.buildParent(ctx.unit, st)
			if !ok {
				st.fail()
				return nil
			}
			ctx.parent = parent
		}
		ctx = ctx.parent
	}

	decl := ctx.unit.Vars[ref.Index]
	if decl.Flags&vcode.VarExtern != 0 {
		if st.flags&FlagWarn != 0 {
			ev.Session.WarnAt(st.callsite.Span, diag.EvalFoldPrevented,
				"reference to external name %s prevents constant folding", decl.Name)
		}
		st.fail()
		return nil
	}
	return &ctx.vars[ref.Index]
}

// buildParent runs block 0 of the enclosing unit in a fresh context so
// its variables hold their initial values.
func (ev *Evaluator) buildParent(u *vcode.Unit, st *state) (*context, bool) {
	enclosing := u.Context
	if enclosing == nil {
		return nil, false
	}

	sub := &state{
		callsite: st.callsite,
		result:   vcode.RegNone,
		flags:    st.flags,
		heap:     st.heap,
		visits:   st.visits,
	}
	sub.ctx = ev.newContext(enclosing, sub)
	if sub.ctx == nil {
		return nil, false
	}
	ev.run(sub)
	if sub.failed {
		st.failed = true
		return nil, false
	}
	return sub.ctx, true
}
