package eval

import (
	"strconv"

	"hdlc/internal/diag"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// realImageDigits is the significand precision used when formatting
// real values, wide enough to round-trip any double.
const realImageDigits = 18

// opImage formats a scalar as a 1-dimensional ascending array of
// character values indexed from 1. The formatting rules come from the
// source type recorded on the op's bookmark.
func (ev *Evaluator) opImage(op *vcode.Op, st *state) {
	if op.Bookmark == nil || op.Bookmark.Type == nil {
		ev.Session.FatalAt(st.loc(op), diag.EvalBadImage,
			"image op without a source type")
	}
	ty := op.Bookmark.Type
	src := st.ctx.reg(op.Args[0])

	var text string
	switch ty.Kind {
	case tree.TypeInteger:
		text = strconv.FormatInt(src.Int, 10)
	case tree.TypeEnum:
		if src.Int < 0 || int(src.Int) >= len(ty.EnumLits) {
			ev.Session.FatalAt(st.loc(op), diag.EvalBadImage,
				"enumeration value %d out of range for %s", src.Int, ty.Name)
		}
		text = ty.EnumLits[src.Int]
	case tree.TypeReal:
		text = strconv.FormatFloat(src.Real, 'g', realImageDigits, 64)
	case tree.TypePhysical:
		text = strconv.FormatInt(src.Int, 10) + " " + ty.BaseUnit
	default:
		ev.Session.FatalAt(st.loc(op), diag.EvalBadImage,
			"cannot render image of type %s", ty.Name)
	}

	ptr, ok := st.heap.Alloc(len(text))
	if !ok {
		ev.heapExhausted(st, len(text)*valueSize)
		return
	}
	for i := range len(text) {
		*st.heap.At(ptr + Ptr(i)) = MakeInt(int64(text[i]))
	}

	ua, ok := st.heap.AllocUarray()
	if !ok {
		ev.heapExhausted(st, uarraySize)
		return
	}
	ua.Data = ptr
	ua.Dims = []UarrayDim{{Left: 1, Right: int64(len(text)), Dir: vcode.DirTo}}
	st.ctx.regs[op.Result] = Value{Kind: VUarray, Uarray: ua}
}
