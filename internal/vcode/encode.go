package vcode

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the persisted format changes
const unitSchemaVersion uint16 = 1

// Persisted mirrors of the in-memory structures. Bookmarks are not
// persisted; a unit read back from disk reports diagnostics without
// source spans.

type diskType struct {
	Kind  uint8
	Low   int64
	High  int64
	Elems int
	Dims  int
	Elem  *diskType
}

type diskVar struct {
	Name  string
	Type  *diskType
	Flags uint8
}

type diskOp struct {
	Kind    uint8
	Result  int32
	Args    []int32
	AddrD   int32
	AddrI   int32
	Targets []int32
	Type    *diskType
	Cmp     uint8
	Dim     int
	Value   int64
	Real    float64
	Func    string
	Comment string
}

type diskUnit struct {
	Schema  uint16
	Name    string
	Kind    uint8
	Context string
	Regs    int
	Vars    []diskVar
	Blocks  [][]diskOp
}

func toDiskType(t *Type) *diskType {
	if t == nil {
		return nil
	}
	return &diskType{
		Kind: uint8(t.Kind), Low: t.Low, High: t.High,
		Elems: t.Elems, Dims: t.Dims, Elem: toDiskType(t.Elem),
	}
}

func fromDiskType(t *diskType) *Type {
	if t == nil {
		return nil
	}
	return &Type{
		Kind: TypeKind(t.Kind), Low: t.Low, High: t.High,
		Elems: t.Elems, Dims: t.Dims, Elem: fromDiskType(t.Elem),
	}
}

// WriteUnit serialises a unit to w in the persisted library format.
func WriteUnit(w io.Writer, u *Unit) error {
	du := diskUnit{
		Schema: unitSchemaVersion,
		Name:   u.Name,
		Kind:   uint8(u.Kind),
		Regs:   u.Regs,
	}
	if u.Context != nil {
		du.Context = u.Context.Name
	}
	for _, v := range u.Vars {
		du.Vars = append(du.Vars, diskVar{Name: v.Name, Type: toDiskType(v.Type), Flags: uint8(v.Flags)})
	}
	du.Blocks = make([][]diskOp, len(u.Blocks))
	for bb, ops := range u.Blocks {
		for i := range ops {
			op := &ops[i]
			dop := diskOp{
				Kind: uint8(op.Kind), Result: int32(op.Result),
				AddrD: op.Address.Depth, AddrI: op.Address.Index,
				Type: toDiskType(op.Type), Cmp: uint8(op.Cmp), Dim: op.Dim,
				Value: op.Value, Real: op.Real, Func: op.Func, Comment: op.Comment,
			}
			for _, a := range op.Args {
				dop.Args = append(dop.Args, int32(a))
			}
			for _, t := range op.Targets {
				dop.Targets = append(dop.Targets, int32(t))
			}
			du.Blocks[bb] = append(du.Blocks[bb], dop)
		}
	}
	return msgpack.NewEncoder(w).Encode(&du)
}

// ReadUnit deserialises a persisted unit. The context chain is
// re-linked by name against reg; a missing context leaves the unit at
// the outermost depth.
func ReadUnit(r io.Reader, reg *Registry) (*Unit, error) {
	var du diskUnit
	if err := msgpack.NewDecoder(r).Decode(&du); err != nil {
		return nil, err
	}
	if du.Schema != unitSchemaVersion {
		return nil, fmt.Errorf("unit %s: schema version %d, want %d", du.Name, du.Schema, unitSchemaVersion)
	}

	u := &Unit{
		Name:        du.Name,
		Kind:        UnitKind(du.Kind),
		Regs:        du.Regs,
		ContextName: du.Context,
	}
	if reg != nil {
		reg.Relink(u)
	}
	for _, v := range du.Vars {
		u.Vars = append(u.Vars, VarDecl{Name: v.Name, Type: fromDiskType(v.Type), Flags: VarFlags(v.Flags)})
	}
	u.Blocks = make([][]Op, len(du.Blocks))
	for bb, ops := range du.Blocks {
		for _, dop := range ops {
			op := Op{
				Kind: OpKind(dop.Kind), Result: Reg(dop.Result),
				Address: VarRef{Depth: dop.AddrD, Index: dop.AddrI},
				Type:    fromDiskType(dop.Type), Cmp: CmpKind(dop.Cmp), Dim: dop.Dim,
				Value: dop.Value, Real: dop.Real, Func: dop.Func, Comment: dop.Comment,
			}
			for _, a := range dop.Args {
				op.Args = append(op.Args, Reg(a))
			}
			for _, t := range dop.Targets {
				op.Targets = append(op.Targets, BlockID(t))
			}
			u.Blocks[bb] = append(u.Blocks[bb], op)
		}
	}
	return u, nil
}
