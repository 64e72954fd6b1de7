package eval

import (
	"strings"

	"hdlc/internal/diag"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// opFcall resolves the callee unit, binds arguments positionally into
// a fresh context sharing the caller's heap, runs it to completion,
// and propagates the result or the failure.
func (ev *Evaluator) opFcall(op *vcode.Op, st *state) {
	name := op.Func
	unit := ev.Registry.Find(name)
	if unit == nil && st.flags&FlagLower != 0 {
		unit = ev.loadUnit(name, st)
	}
	if unit == nil {
		if st.flags&FlagWarn != 0 {
			ev.Session.WarnAt(st.callsite.Span, diag.EvalUnknownFunc,
				"function call to %s prevents constant folding", name)
		}
		st.fail()
		return
	}

	sub := &state{
		result:   vcode.RegNone,
		callsite: st.callsite,
		flags:    st.flags | FlagBounds,
		heap:     st.heap,
		visits:   st.visits,
	}
	sub.ctx = ev.newContext(unit, sub)
	if sub.ctx == nil {
		st.fail()
		return
	}
	for i, a := range op.Args {
		sub.ctx.regs[i] = *st.ctx.reg(a)
	}

	ev.run(sub)

	if sub.failed {
		st.fail()
		return
	}
	if sub.result == vcode.RegNone {
		ev.Session.FatalAt(st.loc(op), diag.EvalBadOp,
			"unit %s returned without a result", name)
	}

	result := sub.ctx.regs[sub.result]
	st.ctx.regs[op.Result] = result

	if st.flags&FlagVerbose != 0 {
		ev.Session.NoteAt(st.callsite.Span, diag.EvalInfo,
			"%s (in %s) returned %s", name, st.callsite.Ident, result)
	}
}

// loadUnit serves a callee that is not yet in the registry: first from
// the library's persisted vcode, then by lowering the analysed unit
// tree on demand. Packages bring their -body companion along.
func (ev *Evaluator) loadUnit(name string, st *state) *vcode.Unit {
	if ev.Libs == nil {
		return nil
	}

	lastDot := strings.LastIndex(name, ".")
	firstDot := strings.Index(name, ".")
	if lastDot <= 0 || firstDot == lastDot {
		return nil
	}
	unitName := name[:lastDot]
	libName := name[:firstDot]

	l := ev.Libs.Find(libName)
	if l == nil {
		return nil
	}

	// Persisted vcode: the containing unit first so the context chain
	// re-links, then the callee itself.
	if _, err := l.ReadUnit(unitName, ev.Registry); err == nil {
		l.ReadUnit(unitName+"-body", ev.Registry)
	}
	if u, err := l.ReadUnit(name, ev.Registry); err == nil {
		return u
	}

	// Fall back to lowering the analysed tree.
	if ev.Lower == nil {
		return nil
	}
	unitTree := l.Get(unitName)
	if unitTree == nil {
		return nil
	}
	if st.flags&FlagVerbose != 0 {
		ev.Session.NoteAt(st.callsite.Span, diag.EvalInfo, "lowering %s", unitName)
	}
	if u := ev.Lower.LowerUnit(unitTree); u != nil {
		ev.Registry.Register(u)
	}
	if unitTree.Kind == tree.KindPackage {
		if body := l.Get(unitName + "-body"); body != nil {
			if u := ev.Lower.LowerUnit(body); u != nil {
				ev.Registry.Register(u)
			}
		}
	}
	return ev.Registry.Find(name)
}
