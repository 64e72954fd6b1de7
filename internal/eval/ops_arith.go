package eval

import (
	"math"

	"fortio.org/safecast"

	"hdlc/internal/diag"
	"hdlc/internal/vcode"
)

// valueCmp orders two values of the same kind. A kind mismatch means
// the vcode producer violated its type rules and aborts compilation.
func (ev *Evaluator) valueCmp(lhs, rhs *Value, op *vcode.Op, st *state) int {
	if lhs.Kind != rhs.Kind {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"comparison of %s and %s values", lhs.Kind, rhs.Kind)
	}
	switch lhs.Kind {
	case VInteger:
		switch {
		case lhs.Int < rhs.Int:
			return -1
		case lhs.Int > rhs.Int:
			return 1
		}
		return 0
	case VReal:
		switch {
		case lhs.Real < rhs.Real:
			return -1
		case lhs.Real > rhs.Real:
			return 1
		}
		return 0
	case VPointer:
		switch {
		case lhs.Ptr < rhs.Ptr:
			return -1
		case lhs.Ptr > rhs.Ptr:
			return 1
		}
		return 0
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"comparison of %s values", lhs.Kind)
		return 0
	}
}

func (ev *Evaluator) opNot(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	n := int64(0)
	if src.Int == 0 {
		n = 1
	}
	st.ctx.regs[op.Result] = MakeInt(n)
}

func (ev *Evaluator) opLogical(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	if lhs.Kind != VInteger || rhs.Kind != VInteger {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"%s of %s and %s values", op.Kind, lhs.Kind, rhs.Kind)
	}
	var n int64
	if op.Kind == vcode.OpAnd {
		n = lhs.Int & rhs.Int
	} else {
		n = lhs.Int | rhs.Int
	}
	st.ctx.regs[op.Result] = MakeInt(n)
}

// opAdd handles integer, real, and pointer-plus-offset addition.
// Integer addition wraps as two's-complement; range enforcement is the
// job of the bounds ops the lowering inserts.
func (ev *Evaluator) opAdd(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	switch {
	case lhs.Kind == VInteger && rhs.Kind == VInteger:
		st.ctx.regs[op.Result] = MakeInt(lhs.Int + rhs.Int)
	case lhs.Kind == VReal && rhs.Kind == VReal:
		st.ctx.regs[op.Result] = MakeReal(lhs.Real + rhs.Real)
	case lhs.Kind == VPointer && rhs.Kind == VInteger:
		st.ctx.regs[op.Result] = MakePointer(lhs.Ptr + Ptr(rhs.Int))
	case lhs.Kind == VInteger && rhs.Kind == VPointer:
		st.ctx.regs[op.Result] = MakePointer(rhs.Ptr + Ptr(lhs.Int))
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"add of %s and %s values", lhs.Kind, rhs.Kind)
	}
}

func (ev *Evaluator) opArith(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	switch {
	case lhs.Kind == VInteger && rhs.Kind == VInteger:
		var n int64
		if op.Kind == vcode.OpSub {
			n = lhs.Int - rhs.Int
		} else {
			n = lhs.Int * rhs.Int
		}
		st.ctx.regs[op.Result] = MakeInt(n)
	case lhs.Kind == VReal && rhs.Kind == VReal:
		var x float64
		if op.Kind == vcode.OpSub {
			x = lhs.Real - rhs.Real
		} else {
			x = lhs.Real * rhs.Real
		}
		st.ctx.regs[op.Result] = MakeReal(x)
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"%s of %s and %s values", op.Kind, lhs.Kind, rhs.Kind)
	}
}

func (ev *Evaluator) opDiv(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	switch {
	case lhs.Kind == VInteger && rhs.Kind == VInteger:
		if rhs.Int == 0 {
			ev.Session.FatalAt(st.callsite.Span, diag.EvalDivByZero, "division by zero")
		}
		st.ctx.regs[op.Result] = MakeInt(lhs.Int / rhs.Int)
	case lhs.Kind == VReal && rhs.Kind == VReal:
		st.ctx.regs[op.Result] = MakeReal(lhs.Real / rhs.Real)
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"div of %s and %s values", lhs.Kind, rhs.Kind)
	}
}

// opMod computes the absolute value of the truncated remainder.
func (ev *Evaluator) opMod(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	if lhs.Kind != VInteger || rhs.Kind != VInteger {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"mod of %s and %s values", lhs.Kind, rhs.Kind)
	}
	if rhs.Int == 0 {
		ev.Session.FatalAt(st.callsite.Span, diag.EvalDivByZero, "division by zero")
	}
	n := lhs.Int % rhs.Int
	if n < 0 {
		n = -n
	}
	st.ctx.regs[op.Result] = MakeInt(n)
}

// opRem computes a - (a/b)*b.
func (ev *Evaluator) opRem(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	if lhs.Kind != VInteger || rhs.Kind != VInteger {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"rem of %s and %s values", lhs.Kind, rhs.Kind)
	}
	if rhs.Int == 0 {
		ev.Session.FatalAt(st.callsite.Span, diag.EvalDivByZero, "division by zero")
	}
	st.ctx.regs[op.Result] = MakeInt(lhs.Int - (lhs.Int/rhs.Int)*rhs.Int)
}

func (ev *Evaluator) opNeg(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	switch src.Kind {
	case VInteger:
		st.ctx.regs[op.Result] = MakeInt(-src.Int)
	case VReal:
		st.ctx.regs[op.Result] = MakeReal(-src.Real)
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"neg of %s value", src.Kind)
	}
}

func (ev *Evaluator) opAbs(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	switch src.Kind {
	case VInteger:
		n := src.Int
		if n < 0 {
			n = -n
		}
		st.ctx.regs[op.Result] = MakeInt(n)
	case VReal:
		st.ctx.regs[op.Result] = MakeReal(math.Abs(src.Real))
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"abs of %s value", src.Kind)
	}
}

// opExp is real exponentiation; the lowering casts integer operands
// first.
func (ev *Evaluator) opExp(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	if lhs.Kind != VReal || rhs.Kind != VReal {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"exp of %s and %s values", lhs.Kind, rhs.Kind)
	}
	st.ctx.regs[op.Result] = MakeReal(math.Pow(lhs.Real, rhs.Real))
}

func (ev *Evaluator) opCmp(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	c := ev.valueCmp(lhs, rhs, op, st)

	var hit bool
	switch op.Cmp {
	case vcode.CmpEq:
		hit = c == 0
	case vcode.CmpNeq:
		hit = c != 0
	case vcode.CmpLt:
		hit = c < 0
	case vcode.CmpLeq:
		hit = c <= 0
	case vcode.CmpGt:
		hit = c > 0
	case vcode.CmpGeq:
		hit = c >= 0
	}
	n := int64(0)
	if hit {
		n = 1
	}
	st.ctx.regs[op.Result] = MakeInt(n)
}

// opCast converts between the integer and real kinds. Unhandled
// source kinds fail the fold rather than falling through silently; an
// unhandled destination type is a vcode producer bug.
func (ev *Evaluator) opCast(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	if op.Type == nil {
		ev.Session.FatalAt(st.loc(op), diag.EvalBadCast, "cast without a destination type")
	}
	switch op.Type.Kind {
	case vcode.TInt, vcode.TOffset:
		switch src.Kind {
		case VInteger:
			st.ctx.regs[op.Result] = *src
		case VReal:
			n, err := safecast.Truncate[int64](src.Real)
			if err != nil {
				st.fail()
				return
			}
			st.ctx.regs[op.Result] = MakeInt(n)
		default:
			st.fail()
		}
	case vcode.TReal:
		switch src.Kind {
		case VInteger:
			st.ctx.regs[op.Result] = MakeReal(float64(src.Int))
		case VReal:
			st.ctx.regs[op.Result] = *src
		default:
			st.fail()
		}
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalBadCast,
			"cannot handle destination type %s in cast", op.Type.Kind)
	}
}

// opSelect chooses the second argument when the test is nonzero, the
// third otherwise.
func (ev *Evaluator) opSelect(op *vcode.Op, st *state) {
	test := st.ctx.reg(op.Args[0])
	if test.Int != 0 {
		st.ctx.regs[op.Result] = *st.ctx.reg(op.Args[1])
	} else {
		st.ctx.regs[op.Result] = *st.ctx.reg(op.Args[2])
	}
}
