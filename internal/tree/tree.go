// Package tree models the elaborated syntax nodes the evaluator
// consumes: expressions offered for folding and the declarations they
// reference.
package tree

import (
	"hdlc/internal/source"
)

// NodeKind enumerates syntax node kinds.
type NodeKind uint8

const (
	// KindInvalid represents an invalid node.
	KindInvalid NodeKind = iota
	// KindLiteral represents a literal expression.
	KindLiteral
	// KindRef represents a reference to a declaration.
	KindRef
	// KindFcall represents a function call expression.
	KindFcall
	// KindTypeConv represents a type conversion expression.
	KindTypeConv
	// KindAggregate represents an array aggregate expression.
	KindAggregate
	// KindFuncDecl represents a function declaration.
	KindFuncDecl
	// KindConstDecl represents a constant declaration.
	KindConstDecl
	// KindUnitDecl represents a physical unit declaration.
	KindUnitDecl
	// KindEnumLit represents an enumeration literal declaration.
	KindEnumLit
	// KindVarDecl represents a variable declaration.
	KindVarDecl
	// KindPackage represents a package declaration.
	KindPackage
	// KindPackageBody represents a package body.
	KindPackageBody
)

// LitKind distinguishes literal payloads.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitReal
	LitEnum
)

// Flags carries declaration attributes.
type Flags uint8

const (
	// FlagImpure marks a function whose evaluation may have observable
	// effects. Impure callees are never folded.
	FlagImpure Flags = 1 << iota
)

// Node is a syntax tree node. The payload fields used depend on Kind.
type Node struct {
	Kind NodeKind
	Span source.Span
	Type *Type

	Ident string // declaration or call name
	Flags Flags

	Ref    *Node   // KindRef: referenced declaration
	Value  *Node   // initialiser (const, unit) or conversion argument
	Params []*Node // KindFcall arguments, declaration contents

	// Literal payloads.
	Lit  LitKind
	Int  int64
	Real float64
	Pos  int // KindEnumLit: position within the enumeration
}

// IsLiteral reports whether the node is a literal expression.
func (n *Node) IsLiteral() bool {
	return n != nil && n.Kind == KindLiteral
}

// NewIntLit builds an integer literal carrying the span and type of
// the node it replaces.
func NewIntLit(at *Node, val int64) *Node {
	return &Node{
		Kind: KindLiteral,
		Span: at.Span,
		Type: at.Type,
		Lit:  LitInt,
		Int:  val,
	}
}

// NewRealLit builds a real literal carrying the span and type of the
// node it replaces.
func NewRealLit(at *Node, val float64) *Node {
	return &Node{
		Kind: KindLiteral,
		Span: at.Span,
		Type: at.Type,
		Lit:  LitReal,
		Real: val,
	}
}

// NewEnumLit builds an enum literal for position pos of the node's
// type. Returns nil if pos is outside the enumeration.
func NewEnumLit(at *Node, pos int64) *Node {
	ty := at.Type
	if ty == nil || ty.Kind != TypeEnum || pos < 0 || int(pos) >= len(ty.EnumLits) {
		return nil
	}
	return &Node{
		Kind:  KindLiteral,
		Span:  at.Span,
		Type:  ty,
		Lit:   LitEnum,
		Ident: ty.EnumLits[pos],
		Int:   pos,
		Pos:   int(pos),
	}
}
