// Package diagfmt renders diagnostics for terminal output.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"hdlc/internal/diag"
	"hdlc/internal/source"
)

var (
	noteColor = color.New(color.FgCyan)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

// Pretty formats diagnostics in a human-readable form. Expects
// bag.Sort() to have run. For each diagnostic it prints
//
//	<path>:<line>:<col>: <sev> <code>: <message>
//
// followed, with ShowPreview, by the source line and a caret underline
// covering the span.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printOne(w, d, fs, opts)
	}
}

func printOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := d.Severity.String()
	if opts.Color {
		switch {
		case d.Severity >= diag.SevError:
			sev = errColor.Sprint(sev)
		case d.Severity == diag.SevWarning:
			sev = warnColor.Sprint(sev)
		default:
			sev = noteColor.Sprint(sev)
		}
	}

	fmt.Fprintf(w, "%s: %s %s: %s\n", fs.Position(d.Primary), sev, d.Code, d.Message)

	if opts.ShowPreview && !d.Primary.Empty() {
		printPreview(w, d.Primary, fs)
	}

	for _, n := range d.Notes {
		fmt.Fprintf(w, "%s: note: %s\n", fs.Position(n.Span), n.Msg)
	}
}

func printPreview(w io.Writer, span source.Span, fs *source.FileSet) {
	f := fs.Get(span.File)
	startLC, endLC := fs.Resolve(span)

	line := sourceLine(f, startLC.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	// Underline only within the first line of the span.
	head := line
	start := int(startLC.Col) - 1
	if start < len(line) {
		head = line[:start]
	}
	pad := runewidth.StringWidth(head)
	width := 1
	if endLC.Line == startLC.Line && endLC.Col > startLC.Col && start < len(line) {
		width = runewidth.StringWidth(line[start:min(int(endLC.Col)-1, len(line))])
	}
	fmt.Fprintf(w, "    %s^%s\n", strings.Repeat(" ", pad), strings.Repeat("~", max(width-1, 0)))
}

func sourceLine(f *source.File, lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	var start uint32
	if lineNum > 1 {
		if int(lineNum-2) >= len(f.LineIdx) {
			return ""
		}
		start = f.LineIdx[lineNum-2] + 1
	}
	end := uint32(len(f.Content))
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}
