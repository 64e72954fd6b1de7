// Package eval implements the compile-time expression evaluator: a
// per-call interpreter that folds side-effect-free vcode down to
// literal scalar values.
package eval

import (
	"fmt"

	"hdlc/internal/vcode"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VNone is the zero kind of freshly allocated heap slots.
	VNone ValueKind = iota
	// VInteger is a signed 64-bit integer.
	VInteger
	// VReal is an IEEE-754 double.
	VReal
	// VPointer is an address into the evaluation heap.
	VPointer
	// VUarray is an unconstrained array descriptor.
	VUarray
	// VCarray is constrained array storage inside a scope record.
	VCarray
)

func (k ValueKind) String() string {
	switch k {
	case VNone:
		return "none"
	case VInteger:
		return "integer"
	case VReal:
		return "real"
	case VPointer:
		return "pointer"
	case VUarray:
		return "uarray"
	case VCarray:
		return "carray"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// UarrayDim describes one dimension of an unconstrained array.
type UarrayDim struct {
	Left  int64
	Right int64
	Dir   vcode.Dir
}

// Len returns the dimension length, clamped to non-negative.
func (d UarrayDim) Len() int64 {
	var n int64
	if d.Dir == vcode.DirTo {
		n = d.Right - d.Left + 1
	} else {
		n = d.Left - d.Right + 1
	}
	return max(n, 0)
}

// Uarray is an unconstrained array descriptor: an ownership-less view
// of heap data plus per-dimension bounds.
type Uarray struct {
	Data Ptr
	Dims []UarrayDim
}

// Ptr is a slot index into the evaluation heap.
type Ptr int32

// Value is the tagged union flowing through registers and variables.
// The payload fields used depend on Kind.
type Value struct {
	Kind   ValueKind
	Int    int64   // VInteger
	Real   float64 // VReal
	Ptr    Ptr     // VPointer, and the storage of a VCarray slot
	Uarray *Uarray // VUarray
}

// MakeInt creates an integer value.
func MakeInt(n int64) Value {
	return Value{Kind: VInteger, Int: n}
}

// MakeReal creates a real value.
func MakeReal(x float64) Value {
	return Value{Kind: VReal, Real: x}
}

// MakePointer creates a pointer value.
func MakePointer(p Ptr) Value {
	return Value{Kind: VPointer, Ptr: p}
}

// String returns a human-readable representation of the value.
func (v Value) String() string {
	switch v.Kind {
	case VInteger:
		return fmt.Sprintf("%d", v.Int)
	case VReal:
		return fmt.Sprintf("%g", v.Real)
	case VPointer:
		return fmt.Sprintf("*%d", v.Ptr)
	case VUarray:
		return fmt.Sprintf("uarray(%d dims)", len(v.Uarray.Dims))
	case VCarray:
		return fmt.Sprintf("carray@%d", v.Ptr)
	default:
		return "<none>"
	}
}
