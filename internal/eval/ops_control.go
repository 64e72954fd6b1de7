package eval

import (
	"hdlc/internal/vcode"
)

// opCond picks the first target when the test register is nonzero,
// the second otherwise.
func (ev *Evaluator) opCond(op *vcode.Op, st *state) vcode.BlockID {
	test := st.ctx.reg(op.Args[0])
	if test.Int != 0 {
		return op.Targets[0]
	}
	return op.Targets[1]
}

// opCase dispatches on equality against the choice registers;
// Targets[0] is the default when no choice matches.
func (ev *Evaluator) opCase(op *vcode.Op, st *state) vcode.BlockID {
	test := st.ctx.reg(op.Args[0])
	for i := 1; i < len(op.Args); i++ {
		if ev.valueCmp(test, st.ctx.reg(op.Args[i]), op, st) == 0 {
			return op.Targets[i]
		}
	}
	return op.Targets[0]
}
