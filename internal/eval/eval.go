package eval

import (
	"os"

	"hdlc/internal/diag"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// verboseEnv forces verbose, warn, and bounds reporting for the whole
// process when set to any value.
const verboseEnv = "HDLC_EVAL_VERBOSE"

// possible is the syntactic pre-filter: it accepts literals, type
// conversions over accepted arguments, unit and enum references,
// constant references with accepted initialisers, and calls to pure
// functions whose arguments are accepted.
func (ev *Evaluator) possible(t *tree.Node, flags Flags) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case tree.KindFcall:
		if t.Ref != nil && t.Ref.Flags&tree.FlagImpure != 0 {
			return false
		}
		for _, p := range t.Params {
			// Under the fold driver, arguments run bottom-up: a
			// scalar-returning call still present in argument
			// position must itself have resisted folding.
			if flags&FlagFold != 0 && p.Kind == tree.KindFcall && p.Type.IsScalar() {
				return false
			}
			if !ev.possible(p, flags) {
				return false
			}
		}
		return true

	case tree.KindLiteral:
		return true

	case tree.KindTypeConv:
		if t.Value == nil {
			return true
		}
		return ev.possible(t.Value, flags)

	case tree.KindRef:
		decl := t.Ref
		if decl == nil {
			return false
		}
		switch decl.Kind {
		case tree.KindUnitDecl, tree.KindEnumLit:
			return true
		case tree.KindConstDecl:
			return ev.possible(decl.Value, flags)
		default:
			return false
		}

	default:
		if flags&FlagWarn != 0 {
			ev.Session.WarnAt(t.Span, diag.EvalFoldPrevented,
				"expression prevents constant folding")
		}
		return false
	}
}

// Eval attempts to fold one call site down to a literal. It returns
// the folded literal on success and the original node in every other
// case: non-scalar result type, syntactic ineligibility, a declined
// thunk, or a failed evaluation.
func (ev *Evaluator) Eval(fcall *tree.Node, flags Flags) *tree.Node {
	if fcall == nil || fcall.Kind != tree.KindFcall {
		return fcall
	}
	if !fcall.Type.IsScalar() {
		return fcall
	}

	if os.Getenv(verboseEnv) != "" {
		flags |= FlagVerbose | FlagWarn | FlagBounds
	}
	if flags&FlagVerbose != 0 {
		flags |= FlagWarn
	}

	if !ev.possible(fcall, flags) {
		return fcall
	}

	if ev.Lower == nil {
		return fcall
	}
	thunk := ev.Lower.LowerThunk(fcall)
	if thunk == nil {
		return fcall
	}

	visits := 0
	st := &state{
		result:   vcode.RegNone,
		callsite: fcall,
		flags:    flags,
		heap:     newHeap(),
		visits:   &visits,
	}
	st.ctx = ev.newContext(thunk, st)
	if st.ctx == nil {
		return fcall
	}

	ev.run(st)

	if st.failed {
		return fcall
	}
	if st.result == vcode.RegNone {
		ev.Session.FatalAt(fcall.Span, diag.EvalBadOp,
			"thunk for %s returned without a result", fcall.Ident)
	}
	result := st.ctx.regs[st.result]

	if flags&FlagVerbose != 0 {
		ev.Session.NoteAt(fcall.Span, diag.EvalInfo,
			"%s returned %s", fcall.Ident, result)
	}

	switch result.Kind {
	case VInteger:
		if fcall.Type.IsEnum() {
			lit := tree.NewEnumLit(fcall, result.Int)
			if lit == nil {
				ev.Session.FatalAt(fcall.Span, diag.EvalTypeViolation,
					"enumeration value %d out of range", result.Int)
			}
			return lit
		}
		return tree.NewIntLit(fcall, result.Int)
	case VReal:
		return tree.NewRealLit(fcall, result.Real)
	default:
		ev.Session.FatalAt(fcall.Span, diag.EvalTypeViolation,
			"eval result is not scalar")
		return fcall
	}
}

// Fold rewrites every folding-eligible node under root: function
// calls fold to literals, constant references propagate literal
// initialisers, and physical unit references become their declared
// values.
func (ev *Evaluator) Fold(root *tree.Node) *tree.Node {
	return tree.Rewrite(root, func(t *tree.Node) *tree.Node {
		switch t.Kind {
		case tree.KindFcall:
			return ev.Eval(t, FlagFold|FlagFcall|FlagLower)

		case tree.KindRef:
			decl := t.Ref
			if decl == nil {
				return t
			}
			switch decl.Kind {
			case tree.KindConstDecl:
				if decl.Value != nil && decl.Value.Kind == tree.KindLiteral {
					return decl.Value
				}
				return t
			case tree.KindUnitDecl:
				if decl.Value != nil {
					return decl.Value
				}
				return t
			default:
				return t
			}

		default:
			return t
		}
	})
}

// Errors returns the session's error count: every error or fatal
// diagnostic issued so far, including bounds and index reports and
// assertions or reports at error severity.
func (ev *Evaluator) Errors() int {
	return ev.Session.Errors()
}
