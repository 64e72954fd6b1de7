package eval

import (
	"hdlc/internal/diag"
	"hdlc/internal/vcode"
)

// heapExhausted fails the fold after an arena allocation was refused.
func (ev *Evaluator) heapExhausted(st *state, requested int) {
	if st.flags&FlagWarn != 0 {
		ev.Session.WarnAt(st.callsite.Span, diag.EvalHeapExhausted,
			"evaluation heap exhaustion prevents constant folding "+
				"(%d allocated, %d requested)", st.heap.Water(), requested)
	}
	st.fail()
}

func (ev *Evaluator) opConstArray(op *vcode.Op, st *state) {
	n := len(op.Args)
	ptr, ok := st.heap.Alloc(n)
	if !ok {
		ev.heapExhausted(st, n*valueSize)
		return
	}
	for i, a := range op.Args {
		*st.heap.At(ptr + Ptr(i)) = *st.ctx.reg(a)
	}
	st.ctx.regs[op.Result] = MakePointer(ptr)
}

// opWrap builds an unconstrained array descriptor over a pointer. The
// argument layout is ptr, then (left, right, dir) per dimension.
func (ev *Evaluator) opWrap(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	if src.Kind != VPointer {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"wrap of %s value", src.Kind)
	}

	ndims := (len(op.Args) - 1) / 3
	if ndims > MaxDims {
		if st.flags&FlagWarn != 0 {
			ev.Session.WarnAt(st.callsite.Span, diag.EvalManyDims,
				"%d dimensional array prevents constant folding", ndims)
		}
		st.fail()
		return
	}

	ua, ok := st.heap.AllocUarray()
	if !ok {
		ev.heapExhausted(st, uarraySize)
		return
	}
	ua.Data = src.Ptr
	ua.Dims = make([]UarrayDim, ndims)
	for i := range ndims {
		ua.Dims[i] = UarrayDim{
			Left:  st.ctx.reg(op.Args[i*3+1]).Int,
			Right: st.ctx.reg(op.Args[i*3+2]).Int,
			Dir:   vcode.Dir(st.ctx.reg(op.Args[i*3+3]).Int),
		}
	}
	st.ctx.regs[op.Result] = Value{Kind: VUarray, Uarray: ua}
}

func (ev *Evaluator) opUnwrap(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	if src.Kind != VUarray {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"unwrap of %s value", src.Kind)
	}
	st.ctx.regs[op.Result] = MakePointer(src.Uarray.Data)
}

func (ev *Evaluator) opUarrayAttr(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	if src.Kind != VUarray || op.Dim >= len(src.Uarray.Dims) {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"%s of %s value", op.Kind, src.Kind)
	}
	dim := src.Uarray.Dims[op.Dim]

	var n int64
	switch op.Kind {
	case vcode.OpUarrayLen:
		n = dim.Len()
	case vcode.OpUarrayLeft:
		n = dim.Left
	case vcode.OpUarrayRight:
		n = dim.Right
	case vcode.OpUarrayDir:
		n = int64(dim.Dir)
	}
	st.ctx.regs[op.Result] = MakeInt(n)
}

func (ev *Evaluator) opLoad(op *vcode.Op, st *state) {
	v := ev.getVar(op.Address, st)
	if v == nil {
		return
	}
	st.ctx.regs[op.Result] = *v
}

func (ev *Evaluator) opStore(op *vcode.Op, st *state) {
	v := ev.getVar(op.Address, st)
	if v == nil {
		return
	}
	*v = *st.ctx.reg(op.Args[0])
}

func (ev *Evaluator) opLoadIndirect(op *vcode.Op, st *state) {
	ptr := st.ctx.reg(op.Args[0])
	if ptr.Kind != VPointer || !st.heap.Valid(ptr.Ptr) {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"load indirect through %s value", ptr.Kind)
	}
	st.ctx.regs[op.Result] = *st.heap.At(ptr.Ptr)
}

func (ev *Evaluator) opStoreIndirect(op *vcode.Op, st *state) {
	src := st.ctx.reg(op.Args[0])
	ptr := st.ctx.reg(op.Args[1])
	if ptr.Kind != VPointer || !st.heap.Valid(ptr.Ptr) {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"store indirect through %s value", ptr.Kind)
	}
	*st.heap.At(ptr.Ptr) = *src
}

// opIndex yields a pointer to the first element of a constrained
// array variable's storage.
func (ev *Evaluator) opIndex(op *vcode.Op, st *state) {
	v := ev.getVar(op.Address, st)
	if v == nil {
		return
	}
	if v.Kind != VCarray {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"index of %s variable", v.Kind)
	}
	st.ctx.regs[op.Result] = MakePointer(v.Ptr)
}

// opCopy copies count values from the source run to the destination
// run. Overlapping runs are not defined.
func (ev *Evaluator) opCopy(op *vcode.Op, st *state) {
	dst := st.ctx.reg(op.Args[0])
	src := st.ctx.reg(op.Args[1])
	count := st.ctx.reg(op.Args[2])
	if dst.Kind != VPointer || src.Kind != VPointer || count.Kind != VInteger {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"copy of %s to %s with %s count", src.Kind, dst.Kind, count.Kind)
	}
	for i := range Ptr(count.Int) {
		*st.heap.At(dst.Ptr + i) = *st.heap.At(src.Ptr + i)
	}
}

func (ev *Evaluator) opAlloca(op *vcode.Op, st *state) {
	n := int(op.Value)
	ptr, ok := st.heap.Alloc(n)
	if !ok {
		ev.heapExhausted(st, n*valueSize)
		return
	}
	st.ctx.regs[op.Result] = MakePointer(ptr)
}

// opMemcmp yields 1 when all count value pairs compare equal, else 0.
func (ev *Evaluator) opMemcmp(op *vcode.Op, st *state) {
	lhs := st.ctx.reg(op.Args[0])
	rhs := st.ctx.reg(op.Args[1])
	count := st.ctx.reg(op.Args[2])
	if lhs.Kind != VPointer || rhs.Kind != VPointer {
		ev.Session.FatalAt(st.loc(op), diag.EvalTypeViolation,
			"memcmp of %s and %s values", lhs.Kind, rhs.Kind)
	}

	eq := int64(1)
	for i := range Ptr(count.Int) {
		if ev.valueCmp(st.heap.At(lhs.Ptr+i), st.heap.At(rhs.Ptr+i), op, st) != 0 {
			eq = 0
			break
		}
	}
	st.ctx.regs[op.Result] = MakeInt(eq)
}
