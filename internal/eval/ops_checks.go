package eval

import (
	"hdlc/internal/diag"
	"hdlc/internal/vcode"
)

// boundsViolation reports a bounds-class failure when reporting is
// enabled and aborts the fold either way.
func (ev *Evaluator) boundsViolation(op *vcode.Op, st *state, code diag.Code, format string, args ...any) {
	if st.flags&FlagBounds != 0 {
		ev.Session.ErrorAt(st.loc(op), code, format, args...)
	}
	st.fail()
}

// opBounds checks a register against the static range of the op's
// type attribute. Real values are not range-checked at fold time.
func (ev *Evaluator) opBounds(op *vcode.Op, st *state) {
	reg := st.ctx.reg(op.Args[0])
	switch reg.Kind {
	case VInteger:
		low, high := op.Type.Low, op.Type.High
		if low > high {
			return
		}
		if reg.Int < low || reg.Int > high {
			ev.boundsViolation(op, st, diag.EvalBounds,
				"value %d outside bounds %d to %d", reg.Int, low, high)
		}
	case VReal:
		return
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"bounds check of %s value", reg.Kind)
	}
}

// opDynamicBounds is opBounds with the range taken from registers.
func (ev *Evaluator) opDynamicBounds(op *vcode.Op, st *state) {
	reg := st.ctx.reg(op.Args[0])
	low := st.ctx.reg(op.Args[1])
	high := st.ctx.reg(op.Args[2])
	switch reg.Kind {
	case VInteger:
		if low.Int > high.Int {
			return
		}
		if reg.Int < low.Int || reg.Int > high.Int {
			ev.boundsViolation(op, st, diag.EvalBounds,
				"value %d outside bounds %d to %d", reg.Int, low.Int, high.Int)
		}
	case VReal:
		return
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"bounds check of %s value", reg.Kind)
	}
}

// opIndexCheck validates that the [low, high] index range lies inside
// the declared range of the op's type attribute.
func (ev *Evaluator) opIndexCheck(op *vcode.Op, st *state) {
	low := st.ctx.reg(op.Args[0])
	high := st.ctx.reg(op.Args[1])
	if low.Int > high.Int {
		return // null range
	}
	if low.Int < op.Type.Low || high.Int > op.Type.High {
		ev.boundsViolation(op, st, diag.EvalIndexCheck,
			"index range %d to %d outside %d to %d",
			low.Int, high.Int, op.Type.Low, op.Type.High)
	}
}

// messageText reads an assert/report message from a pointer and
// length register pair of character-valued cells.
func (st *state) messageText(ptrReg, lenReg vcode.Reg) (string, bool) {
	if ptrReg == vcode.RegNone || lenReg == vcode.RegNone {
		return "", false
	}
	ptr := st.ctx.reg(ptrReg)
	length := st.ctx.reg(lenReg)
	if ptr.Kind != VPointer || length.Kind != VInteger || length.Int < 0 {
		return "", false
	}
	buf := make([]byte, 0, length.Int)
	for i := range Ptr(length.Int) {
		buf = append(buf, byte(st.heap.At(ptr.Ptr+i).Int))
	}
	return string(buf), true
}

func (ev *Evaluator) emitSeverity(op *vcode.Op, st *state, code diag.Code, severity int64, msg string) {
	switch {
	case severity >= int64(diag.SevError):
		ev.Session.ErrorAt(st.loc(op), code, "%s", msg)
		st.fail()
	case severity == int64(diag.SevWarning):
		ev.Session.WarnAt(st.loc(op), code, "%s", msg)
	default:
		ev.Session.NoteAt(st.loc(op), code, "%s", msg)
	}
}

// opAssert checks its test register. Folding through a failing
// assertion is only allowed when the caller opted into report
// handling; severities at error and above abort the fold.
func (ev *Evaluator) opAssert(op *vcode.Op, st *state) {
	test := st.ctx.reg(op.Args[0])
	if test.Int != 0 {
		return
	}
	if st.flags&FlagReport == 0 {
		st.fail()
		return
	}
	severity := st.ctx.reg(op.Args[1]).Int
	msg, ok := st.messageText(op.Args[2], op.Args[3])
	if !ok {
		msg = "Assertion violation."
	}
	ev.emitSeverity(op, st, diag.EvalAssert, severity, msg)
}

// opReport emits its message unconditionally. Without the report flag
// the fold aborts so the observable side effect is not eliminated.
func (ev *Evaluator) opReport(op *vcode.Op, st *state) {
	if st.flags&FlagReport == 0 {
		st.fail()
		return
	}
	severity := st.ctx.reg(op.Args[0]).Int
	msg, ok := st.messageText(op.Args[1], op.Args[2])
	if !ok {
		msg = "Report."
	}
	ev.emitSeverity(op, st, diag.EvalReport, severity, msg)
}

// opUndefined marks a reference to an object with no defined value in
// this phase.
func (ev *Evaluator) opUndefined(op *vcode.Op, st *state) {
	if st.flags&FlagWarn != 0 {
		ev.Session.WarnAt(st.callsite.Span, diag.EvalUndefined,
			"reference to object without defined value in this phase "+
				"prevents constant folding")
	}
	st.fail()
}
