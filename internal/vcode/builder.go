package vcode

import (
	"fmt"

	"fortio.org/safecast"

	"hdlc/internal/tree"
)

// Builder constructs a Unit op by op, in the manner the lowering
// passes emit vcode. Block 0 exists from the start; variable
// initialisation belongs there.
type Builder struct {
	unit *Unit
	cur  BlockID
}

// NewBuilder starts a unit with a single empty block selected.
func NewBuilder(name string, kind UnitKind, context *Unit) *Builder {
	return &Builder{
		unit: &Unit{
			Name:    name,
			Kind:    kind,
			Context: context,
			Blocks:  make([][]Op, 1),
		},
	}
}

// Finish returns the constructed unit.
func (b *Builder) Finish() *Unit {
	return b.unit
}

// NewBlock appends an empty block and returns its id. The current
// selection is unchanged.
func (b *Builder) NewBlock() BlockID {
	id, err := safecast.Conv[int32](len(b.unit.Blocks))
	if err != nil {
		panic(fmt.Errorf("block count overflow: %w", err))
	}
	b.unit.Blocks = append(b.unit.Blocks, nil)
	return BlockID(id)
}

// Select makes block id the emission target.
func (b *Builder) Select(id BlockID) {
	b.cur = id
}

// NewVar declares a variable slot in the unit and returns its
// reference.
func (b *Builder) NewVar(name string, ty *Type, flags VarFlags) VarRef {
	idx, err := safecast.Conv[int32](len(b.unit.Vars))
	if err != nil {
		panic(fmt.Errorf("var count overflow: %w", err))
	}
	b.unit.Vars = append(b.unit.Vars, VarDecl{Name: name, Type: ty, Flags: flags})
	depth, err := safecast.Conv[int32](b.unit.Depth())
	if err != nil {
		panic(fmt.Errorf("unit depth overflow: %w", err))
	}
	return VarRef{Depth: depth, Index: idx}
}

func (b *Builder) newReg() Reg {
	r, err := safecast.Conv[int32](b.unit.Regs)
	if err != nil {
		panic(fmt.Errorf("register count overflow: %w", err))
	}
	b.unit.Regs++
	return Reg(r)
}

// BindParams reserves the first n registers for positional arguments.
func (b *Builder) BindParams(n int) []Reg {
	regs := make([]Reg, n)
	for i := range regs {
		regs[i] = b.newReg()
	}
	return regs
}

func (b *Builder) emit(op Op, withResult bool) Reg {
	if withResult {
		op.Result = b.newReg()
	} else {
		op.Result = RegNone
	}
	b.unit.Blocks[b.cur] = append(b.unit.Blocks[b.cur], op)
	return op.Result
}

func (b *Builder) Comment(text string) {
	b.emit(Op{Kind: OpComment, Comment: text}, false)
}

func (b *Builder) Const(val int64, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpConst, Value: val, Bookmark: bm}, true)
}

func (b *Builder) ConstReal(val float64, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpConstReal, Real: val, Bookmark: bm}, true)
}

func (b *Builder) ConstArray(args []Reg, ty *Type, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpConstArray, Args: args, Type: ty, Bookmark: bm}, true)
}

func (b *Builder) binary(kind OpKind, lhs, rhs Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: kind, Args: []Reg{lhs, rhs}, Bookmark: bm}, true)
}

func (b *Builder) unary(kind OpKind, arg Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: kind, Args: []Reg{arg}, Bookmark: bm}, true)
}

func (b *Builder) Not(arg Reg, bm *tree.Node) Reg  { return b.unary(OpNot, arg, bm) }
func (b *Builder) Neg(arg Reg, bm *tree.Node) Reg  { return b.unary(OpNeg, arg, bm) }
func (b *Builder) Abs(arg Reg, bm *tree.Node) Reg  { return b.unary(OpAbs, arg, bm) }
func (b *Builder) And(l, r Reg, bm *tree.Node) Reg { return b.binary(OpAnd, l, r, bm) }
func (b *Builder) Or(l, r Reg, bm *tree.Node) Reg  { return b.binary(OpOr, l, r, bm) }
func (b *Builder) Add(l, r Reg, bm *tree.Node) Reg { return b.binary(OpAdd, l, r, bm) }
func (b *Builder) Sub(l, r Reg, bm *tree.Node) Reg { return b.binary(OpSub, l, r, bm) }
func (b *Builder) Mul(l, r Reg, bm *tree.Node) Reg { return b.binary(OpMul, l, r, bm) }
func (b *Builder) Div(l, r Reg, bm *tree.Node) Reg { return b.binary(OpDiv, l, r, bm) }
func (b *Builder) Mod(l, r Reg, bm *tree.Node) Reg { return b.binary(OpMod, l, r, bm) }
func (b *Builder) Rem(l, r Reg, bm *tree.Node) Reg { return b.binary(OpRem, l, r, bm) }
func (b *Builder) Exp(l, r Reg, bm *tree.Node) Reg { return b.binary(OpExp, l, r, bm) }

func (b *Builder) Cmp(cmp CmpKind, lhs, rhs Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpCmp, Cmp: cmp, Args: []Reg{lhs, rhs}, Bookmark: bm}, true)
}

func (b *Builder) Cast(ty *Type, arg Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpCast, Type: ty, Args: []Reg{arg}, Bookmark: bm}, true)
}

// Choose emits the ternary select op: test picks lhs when nonzero.
func (b *Builder) Choose(test, lhs, rhs Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpSelect, Args: []Reg{test, lhs, rhs}, Bookmark: bm}, true)
}

// WrapDim is one (left, right, dir) triple of a wrap op.
type WrapDim struct {
	Left, Right, Dir Reg
}

func (b *Builder) Wrap(ptr Reg, dims []WrapDim, bm *tree.Node) Reg {
	args := make([]Reg, 0, 1+3*len(dims))
	args = append(args, ptr)
	for _, d := range dims {
		args = append(args, d.Left, d.Right, d.Dir)
	}
	return b.emit(Op{Kind: OpWrap, Args: args, Bookmark: bm}, true)
}

func (b *Builder) Unwrap(arg Reg, bm *tree.Node) Reg {
	return b.unary(OpUnwrap, arg, bm)
}

func (b *Builder) uarrayAttr(kind OpKind, dim int, arg Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: kind, Dim: dim, Args: []Reg{arg}, Bookmark: bm}, true)
}

func (b *Builder) UarrayLen(dim int, arg Reg, bm *tree.Node) Reg {
	return b.uarrayAttr(OpUarrayLen, dim, arg, bm)
}

func (b *Builder) UarrayLeft(dim int, arg Reg, bm *tree.Node) Reg {
	return b.uarrayAttr(OpUarrayLeft, dim, arg, bm)
}

func (b *Builder) UarrayRight(dim int, arg Reg, bm *tree.Node) Reg {
	return b.uarrayAttr(OpUarrayRight, dim, arg, bm)
}

func (b *Builder) UarrayDir(dim int, arg Reg, bm *tree.Node) Reg {
	return b.uarrayAttr(OpUarrayDir, dim, arg, bm)
}

func (b *Builder) Load(v VarRef, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpLoad, Address: v, Bookmark: bm}, true)
}

func (b *Builder) Store(src Reg, v VarRef, bm *tree.Node) {
	b.emit(Op{Kind: OpStore, Args: []Reg{src}, Address: v, Bookmark: bm}, false)
}

func (b *Builder) LoadIndirect(ptr Reg, bm *tree.Node) Reg {
	return b.unary(OpLoadIndirect, ptr, bm)
}

func (b *Builder) StoreIndirect(src, ptr Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpStoreIndirect, Args: []Reg{src, ptr}, Bookmark: bm}, false)
}

func (b *Builder) Index(v VarRef, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpIndex, Address: v, Bookmark: bm}, true)
}

func (b *Builder) Copy(dst, src, count Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpCopy, Args: []Reg{dst, src, count}, Bookmark: bm}, false)
}

func (b *Builder) Alloca(count int64, ty *Type, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpAlloca, Value: count, Type: ty, Bookmark: bm}, true)
}

func (b *Builder) Memcmp(lhs, rhs, count Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpMemcmp, Args: []Reg{lhs, rhs, count}, Bookmark: bm}, true)
}

func (b *Builder) Jump(target BlockID) {
	b.emit(Op{Kind: OpJump, Targets: []BlockID{target}}, false)
}

func (b *Builder) Cond(test Reg, ifTrue, ifFalse BlockID, bm *tree.Node) {
	b.emit(Op{
		Kind: OpCond, Args: []Reg{test},
		Targets: []BlockID{ifTrue, ifFalse}, Bookmark: bm,
	}, false)
}

// Case dispatches on test: choices[i] matching selects targets[i+1];
// targets[0] is the default.
func (b *Builder) Case(test Reg, choices []Reg, targets []BlockID, bm *tree.Node) {
	args := append([]Reg{test}, choices...)
	b.emit(Op{Kind: OpCase, Args: args, Targets: targets, Bookmark: bm}, false)
}

func (b *Builder) Return(result Reg) {
	var args []Reg
	if result != RegNone {
		args = []Reg{result}
	}
	b.emit(Op{Kind: OpReturn, Args: args}, false)
}

func (b *Builder) Bounds(arg Reg, ty *Type, bm *tree.Node) {
	b.emit(Op{Kind: OpBounds, Args: []Reg{arg}, Type: ty, Bookmark: bm}, false)
}

func (b *Builder) DynamicBounds(arg, low, high Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpDynamicBounds, Args: []Reg{arg, low, high}, Bookmark: bm}, false)
}

func (b *Builder) IndexCheck(low, high Reg, ty *Type, bm *tree.Node) {
	b.emit(Op{Kind: OpIndexCheck, Args: []Reg{low, high}, Type: ty, Bookmark: bm}, false)
}

// Assert checks test; msgPtr/msgLen may be RegNone for the default
// message.
func (b *Builder) Assert(test, severity, msgPtr, msgLen Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpAssert, Args: []Reg{test, severity, msgPtr, msgLen}, Bookmark: bm}, false)
}

func (b *Builder) Report(severity, msgPtr, msgLen Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpReport, Args: []Reg{severity, msgPtr, msgLen}, Bookmark: bm}, false)
}

func (b *Builder) Image(arg Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpImage, Args: []Reg{arg}, Bookmark: bm}, true)
}

func (b *Builder) Fcall(name string, args []Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpFcall, Func: name, Args: args, Bookmark: bm}, true)
}

func (b *Builder) NestedFcall(name string, args []Reg, bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpNestedFcall, Func: name, Args: args, Bookmark: bm}, true)
}

func (b *Builder) HeapSave(bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpHeapSave, Bookmark: bm}, true)
}

func (b *Builder) HeapRestore(mark Reg, bm *tree.Node) {
	b.emit(Op{Kind: OpHeapRestore, Args: []Reg{mark}, Bookmark: bm}, false)
}

func (b *Builder) Undefined(bm *tree.Node) Reg {
	return b.emit(Op{Kind: OpUndefined, Bookmark: bm}, true)
}
