package eval

import (
	"hdlc/internal/diag"
	"hdlc/internal/lib"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// Flags select evaluation behaviours for one entry into the evaluator.
type Flags uint16

const (
	// FlagFold marks an invocation from the fold driver: calls whose
	// arguments are themselves scalar-returning calls are rejected,
	// since the driver runs bottom-up and would already have folded
	// them.
	FlagFold Flags = 1 << iota
	// FlagFcall permits descending into function calls.
	FlagFcall
	// FlagBounds reports bounds violations as errors.
	FlagBounds
	// FlagWarn emits a warning when folding is prevented.
	FlagWarn
	// FlagReport permits folding through assert and report ops.
	FlagReport
	// FlagVerbose logs each fold.
	FlagVerbose
	// FlagLower permits lowering freshly loaded library units.
	FlagLower
)

// blockQuota bounds block selections per root evaluation, the backstop
// against runaway vcode loops.
const blockQuota = 1 << 16

// Lowerer is the lowering collaborator: it turns a call site into a
// thunk unit and a library unit tree into vcode.
type Lowerer interface {
	LowerThunk(callsite *tree.Node) *vcode.Unit
	LowerUnit(t *tree.Node) *vcode.Unit
}

// Evaluator folds constant-bearing expressions for one compiler
// session.
type Evaluator struct {
	Session  *diag.Session
	Registry *vcode.Registry
	Libs     *lib.Set
	Lower    Lowerer
}

// New creates an evaluator. Libs may be nil when on-demand unit
// loading is not wanted. With a nil lower, Eval cannot build thunks and
// returns every call unchanged.
func New(session *diag.Session, registry *vcode.Registry, libs *lib.Set, lower Lowerer) *Evaluator {
	return &Evaluator{
		Session:  session,
		Registry: registry,
		Libs:     libs,
		Lower:    lower,
	}
}

// state carries one evaluation frame's progress. The heap and the
// block-visit counter are shared with every frame nested under the
// same root.
type state struct {
	ctx      *context
	result   vcode.Reg
	callsite *tree.Node
	flags    Flags
	failed   bool
	heap     *Heap
	visits   *int
}

func (st *state) fail() {
	st.failed = true
}
