package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hdlc/internal/diag"
	"hdlc/internal/diagfmt"
	"hdlc/internal/eval"
	"hdlc/internal/lib"
	"hdlc/internal/lower"
	"hdlc/internal/source"
	"hdlc/internal/tree"
	"hdlc/internal/vcode"
)

// toolSession bundles everything one CLI invocation needs to evaluate
// units.
type toolSession struct {
	files    *source.FileSet
	bag      *diag.Bag
	sess     *diag.Session
	reg      *vcode.Registry
	libs     *lib.Set
	ev       *eval.Evaluator
	color    bool
	defaults evalConfig // [eval] section of the project manifest
}

// newToolSession builds the session from --lib mappings and the
// project manifest, and preloads every mapped library.
func newToolSession(cmd *cobra.Command) (*toolSession, error) {
	files := source.NewFileSet()
	bag := diag.NewBag(100)
	sess := diag.NewSession(files, diag.BagReporter{Bag: bag})
	reg := vcode.NewRegistry()
	libs := lib.NewSet()

	ts := &toolSession{
		files: files,
		bag:   bag,
		sess:  sess,
		reg:   reg,
		libs:  libs,
	}
	ts.ev = eval.New(sess, reg, libs, lower.New(sess, reg))

	colorMode, _ := cmd.Flags().GetString("color")
	ts.color = useColor(colorMode, os.Stdout)

	var names []string
	if manifest, ok, err := loadProjectManifest("."); err != nil {
		return nil, err
	} else if ok {
		ts.defaults = manifest.Config.Eval
		for _, l := range manifest.Config.Libraries {
			path := l.Path
			if !strings.HasPrefix(path, "/") {
				path = manifest.Root + "/" + path
			}
			libs.Add(l.Name, path)
			names = append(names, l.Name)
		}
	}

	mappings, _ := cmd.Flags().GetStringArray("lib")
	for _, m := range mappings {
		name, dir, ok := strings.Cut(m, "=")
		if !ok {
			return nil, fmt.Errorf("bad --lib mapping %q, want NAME=DIR", m)
		}
		libs.Add(name, dir)
		names = append(names, name)
	}

	for _, name := range names {
		if err := libs.Find(name).Preload(reg); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// baseFlags builds the evaluation flag baseline from the manifest's
// [eval] section. Command-line flags are or-ed on top.
func (ts *toolSession) baseFlags() eval.Flags {
	flags := eval.FlagFcall | eval.FlagLower
	if ts.defaults.Bounds {
		flags |= eval.FlagBounds
	}
	if ts.defaults.Warn {
		flags |= eval.FlagWarn
	}
	if ts.defaults.Verbose {
		flags |= eval.FlagVerbose
	}
	return flags
}

// printDiagnostics renders everything the session accumulated.
func (ts *toolSession) printDiagnostics() {
	ts.bag.Sort()
	diagfmt.Pretty(os.Stderr, ts.bag, ts.files, diagfmt.PrettyOpts{
		Color:       ts.color,
		ShowPreview: true,
	})
	ts.bag.Reset()
}

// scalarArg parses a command-line argument into a literal node.
func scalarArg(s string) (*tree.Node, error) {
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return &tree.Node{
			Kind: tree.KindLiteral, Lit: tree.LitInt, Int: n,
			Type: &tree.Type{Kind: tree.TypeInteger, Name: "INTEGER", Low: -1 << 62, High: 1<<62 - 1},
		}, nil
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return &tree.Node{
			Kind: tree.KindLiteral, Lit: tree.LitReal, Real: x,
			Type: &tree.Type{Kind: tree.TypeReal, Name: "REAL"},
		}, nil
	}
	return nil, fmt.Errorf("argument %q is not an integer or real literal", s)
}

// evalUnit folds a synthetic call to the named unit. The fatal
// diagnostic panic unwinds to here.
func (ts *toolSession) evalUnit(unitName string, rawArgs []string, realResult bool, flags eval.Flags) (result *tree.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*diag.FatalError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("fatal: %s", fe.Diag.Message)
		}
	}()

	params := make([]*tree.Node, 0, len(rawArgs))
	for _, a := range rawArgs {
		p, err := scalarArg(a)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	ty := &tree.Type{Kind: tree.TypeInteger, Name: "INTEGER", Low: -1 << 62, High: 1<<62 - 1}
	if realResult {
		ty = &tree.Type{Kind: tree.TypeReal, Name: "REAL"}
	}
	call := &tree.Node{
		Kind:   tree.KindFcall,
		Ident:  strings.ToUpper(unitName),
		Type:   ty,
		Params: params,
	}
	return ts.ev.Eval(call, flags), nil
}

// renderResult prints the outcome of one evaluation.
func renderResult(w *os.File, call string, result *tree.Node) {
	if result == nil || result.Kind != tree.KindLiteral {
		fmt.Fprintf(w, "%s: not foldable\n", call)
		return
	}
	switch result.Lit {
	case tree.LitReal:
		fmt.Fprintf(w, "%s = %g\n", call, result.Real)
	case tree.LitEnum:
		fmt.Fprintf(w, "%s = %s\n", call, result.Ident)
	default:
		fmt.Fprintf(w, "%s = %d\n", call, result.Int)
	}
}
