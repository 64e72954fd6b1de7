package vcode

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable representation of a unit.
func Dump(w io.Writer, u *Unit) {
	if w == nil || u == nil {
		return
	}
	fmt.Fprintf(w, "%s %s regs=%d\n", u.Kind, u.Name, u.Regs)
	for i, v := range u.Vars {
		flags := ""
		if v.Flags&VarExtern != 0 {
			flags = " extern"
		}
		fmt.Fprintf(w, "  V%d: %s %s%s\n", i, v.Name, typeStr(v.Type), flags)
	}
	for bb, ops := range u.Blocks {
		fmt.Fprintf(w, "bb%d:\n", bb)
		for _, op := range ops {
			fmt.Fprintf(w, "  %s\n", opStr(&op))
		}
	}
}

func opStr(op *Op) string {
	var sb strings.Builder
	if op.Result != RegNone {
		fmt.Fprintf(&sb, "r%d = ", op.Result)
	}
	sb.WriteString(op.Kind.String())

	switch op.Kind {
	case OpComment:
		fmt.Fprintf(&sb, " ; %s", op.Comment)
		return sb.String()
	case OpConst:
		fmt.Fprintf(&sb, " %d", op.Value)
		return sb.String()
	case OpConstReal:
		fmt.Fprintf(&sb, " %g", op.Real)
		return sb.String()
	case OpCmp:
		fmt.Fprintf(&sb, " %s", op.Cmp)
	case OpFcall, OpNestedFcall:
		fmt.Fprintf(&sb, " %s", op.Func)
	case OpAlloca:
		fmt.Fprintf(&sb, " %d", op.Value)
	case OpUarrayLen, OpUarrayLeft, OpUarrayRight, OpUarrayDir:
		fmt.Fprintf(&sb, " dim=%d", op.Dim)
	case OpLoad, OpStore, OpIndex:
		fmt.Fprintf(&sb, " @%d.%d", op.Address.Depth, op.Address.Index)
	}

	for _, a := range op.Args {
		if a == RegNone {
			sb.WriteString(" _")
		} else {
			fmt.Fprintf(&sb, " r%d", a)
		}
	}
	for _, t := range op.Targets {
		fmt.Fprintf(&sb, " bb%d", t)
	}
	if op.Type != nil {
		fmt.Fprintf(&sb, " : %s", typeStr(op.Type))
	}
	return sb.String()
}

func typeStr(t *Type) string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case TInt:
		return fmt.Sprintf("int[%d..%d]", t.Low, t.High)
	case TCarray:
		return fmt.Sprintf("carray[%d] of %s", t.Elems, typeStr(t.Elem))
	case TUarray:
		return fmt.Sprintf("uarray(%d) of %s", t.Dims, typeStr(t.Elem))
	case TPointer:
		return fmt.Sprintf("ptr to %s", typeStr(t.Elem))
	default:
		return t.Kind.String()
	}
}
