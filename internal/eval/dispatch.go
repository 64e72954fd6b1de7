package eval

import (
	"hdlc/internal/diag"
	"hdlc/internal/source"
	"hdlc/internal/vcode"
)

// loc picks the diagnostic location for an op: its bookmark when the
// lowering recorded one, the call site otherwise.
func (st *state) loc(op *vcode.Op) source.Span {
	if op.Bookmark != nil {
		return op.Bookmark.Span
	}
	if st.callsite != nil {
		return st.callsite.Span
	}
	return source.Span{}
}

// run executes the frame's unit from block 0 until a return op, a
// failure, or the block-visit quota. Branches re-select the current
// block; the loop itself never recurses.
func (ev *Evaluator) run(st *state) {
	cur := vcode.BlockID(0)
	for {
		*st.visits++
		if *st.visits > blockQuota {
			if st.flags&FlagWarn != 0 {
				ev.Session.WarnAt(st.callsite.Span, diag.EvalQuota,
					"iteration limit reached while evaluating %s", st.ctx.unit.Name)
			}
			st.fail()
			return
		}

		ops := st.ctx.unit.Block(cur)
		if ops == nil {
			ev.Session.FatalAt(st.callsite.Span, diag.EvalBadOp,
				"unit %s has no block %d", st.ctx.unit.Name, cur)
		}

		next := vcode.BlockID(-1)
		for i := range ops {
			op := &ops[i]
			switch op.Kind {
			case vcode.OpComment:
				// no-op

			case vcode.OpHeapSave:
				st.ctx.regs[op.Result] = MakeInt(0)

			case vcode.OpHeapRestore:
				// The fold heap is append-only; restore is a no-op.

			case vcode.OpConst:
				st.ctx.regs[op.Result] = MakeInt(op.Value)

			case vcode.OpConstReal:
				st.ctx.regs[op.Result] = MakeReal(op.Real)

			case vcode.OpNot:
				ev.opNot(op, st)

			case vcode.OpAnd, vcode.OpOr:
				ev.opLogical(op, st)

			case vcode.OpAdd:
				ev.opAdd(op, st)

			case vcode.OpSub, vcode.OpMul:
				ev.opArith(op, st)

			case vcode.OpDiv:
				ev.opDiv(op, st)

			case vcode.OpMod:
				ev.opMod(op, st)

			case vcode.OpRem:
				ev.opRem(op, st)

			case vcode.OpNeg:
				ev.opNeg(op, st)

			case vcode.OpAbs:
				ev.opAbs(op, st)

			case vcode.OpExp:
				ev.opExp(op, st)

			case vcode.OpCmp:
				ev.opCmp(op, st)

			case vcode.OpCast:
				ev.opCast(op, st)

			case vcode.OpSelect:
				ev.opSelect(op, st)

			case vcode.OpConstArray:
				ev.opConstArray(op, st)

			case vcode.OpWrap:
				ev.opWrap(op, st)

			case vcode.OpUnwrap:
				ev.opUnwrap(op, st)

			case vcode.OpUarrayLen, vcode.OpUarrayLeft, vcode.OpUarrayRight, vcode.OpUarrayDir:
				ev.opUarrayAttr(op, st)

			case vcode.OpLoad:
				ev.opLoad(op, st)

			case vcode.OpStore:
				ev.opStore(op, st)

			case vcode.OpLoadIndirect:
				ev.opLoadIndirect(op, st)

			case vcode.OpStoreIndirect:
				ev.opStoreIndirect(op, st)

			case vcode.OpIndex:
				ev.opIndex(op, st)

			case vcode.OpCopy:
				ev.opCopy(op, st)

			case vcode.OpAlloca:
				ev.opAlloca(op, st)

			case vcode.OpMemcmp:
				ev.opMemcmp(op, st)

			case vcode.OpBounds:
				ev.opBounds(op, st)

			case vcode.OpDynamicBounds:
				ev.opDynamicBounds(op, st)

			case vcode.OpIndexCheck:
				ev.opIndexCheck(op, st)

			case vcode.OpAssert:
				ev.opAssert(op, st)

			case vcode.OpReport:
				ev.opReport(op, st)

			case vcode.OpUndefined:
				ev.opUndefined(op, st)

			case vcode.OpImage:
				ev.opImage(op, st)

			case vcode.OpFcall:
				if st.flags&FlagFcall != 0 {
					ev.opFcall(op, st)
				} else {
					st.fail()
				}

			case vcode.OpNestedFcall:
				// Folding through closure-bearing calls is not
				// supported.
				st.fail()

			case vcode.OpJump:
				next = op.Targets[0]

			case vcode.OpCond:
				next = ev.opCond(op, st)

			case vcode.OpCase:
				next = ev.opCase(op, st)

			case vcode.OpReturn:
				if len(op.Args) > 0 {
					st.result = op.Args[0]
				}
				return

			default:
				ev.Session.FatalAt(st.loc(op), diag.EvalBadOp,
					"cannot evaluate vcode op %s", op.Kind)
			}

			if st.failed {
				return
			}
			if next >= 0 {
				break
			}
		}

		if next < 0 {
			ev.Session.FatalAt(st.callsite.Span, diag.EvalBadOp,
				"unit %s: block %d fell through without a branch", st.ctx.unit.Name, cur)
		}
		cur = next
	}
}
