package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/codalotl/rangediff/internal/rangediff"
	"github.com/codalotl/rangediff/internal/tokencmp"
)

// DiffText diffs oldText to newText with DefaultOptions, returning a Diff.
func DiffText(oldText, newText string) Diff {
	return DiffTextOptions(oldText, newText, DefaultOptions())
}

// DiffTextOptions diffs oldText to newText, returning a Diff.
//
// Lines are compared first, terminators included; each run of changed lines becomes one hunk. Inside a hunk, old and new lines are paired in order and each pair is compared token
// by token to produce spans. Lines left over after pairing are pure inserts or deletes.
func DiffTextOptions(oldText, newText string, opts Options) Diff {
	lineOpts := &linecmp.Options{IgnoreWhitespace: opts.IgnoreWhitespace, StrictEOL: true, Skip: opts.LineSkip}
	oldLines := linecmp.FromString(oldText, lineOpts)
	newLines := linecmp.FromString(newText, lineOpts)

	// A background context never cancels, so FindRanges cannot fail.
	ranges, _ := opts.Differencer.FindRanges(context.Background(), oldLines, newLines)

	d := Diff{OldText: oldText, NewText: newText, ignoreWhitespace: opts.IgnoreWhitespace}
	for _, r := range ranges {
		if r.MaxLength() == 0 {
			continue
		}
		h := DiffHunk{
			OldText: oldLines.Text(r.LeftStart, r.LeftLength),
			NewText: newLines.Text(r.RightStart, r.RightLength),
			OldLine: r.LeftStart,
			NewLine: r.RightStart,
		}
		if r.Kind == rangediff.NoChange {
			h.Op = OpEqual
		} else {
			h.Op = opFor(h.OldText, h.NewText)
			h.Lines = buildDiffLines(oldLines.RawLines()[r.LeftStart:r.LeftEnd()], newLines.RawLines()[r.RightStart:r.RightEnd()], opts)
		}
		d.Hunks = append(d.Hunks, h)
	}

	if err := d.validate(); err != nil {
		panic(fmt.Errorf("DiffText: validate failed with %v", err))
	}

	return d
}

// buildDiffLines constructs DiffLine entries and inline spans.
func buildDiffLines(deleteLines, insertLines []string, opts Options) []DiffLine {
	n := min(len(deleteLines), len(insertLines))
	lines := make([]DiffLine, 0, max(len(deleteLines), len(insertLines)))

	for i := 0; i < n; i++ {
		oldLine, newLine := deleteLines[i], insertLines[i]
		if oldLine == newLine {
			lines = append(lines, DiffLine{Op: OpEqual, OldText: oldLine, NewText: newLine})
			continue
		}
		oldCore, _ := linecmp.TrimEOL(oldLine)
		newCore, _ := linecmp.TrimEOL(newLine)
		lines = append(lines, DiffLine{Op: OpReplace, OldText: oldLine, NewText: newLine, Spans: lineSpans(oldCore, newCore, opts)})
	}
	for _, oldLine := range deleteLines[n:] {
		var spans []DiffSpan
		if core, _ := linecmp.TrimEOL(oldLine); core != "" {
			spans = []DiffSpan{{Op: OpDelete, OldText: core}}
		}
		lines = append(lines, DiffLine{Op: OpDelete, OldText: oldLine, Spans: spans})
	}
	for _, newLine := range insertLines[n:] {
		var spans []DiffSpan
		if core, _ := linecmp.TrimEOL(newLine); core != "" {
			spans = []DiffSpan{{Op: OpInsert, NewText: core}}
		}
		lines = append(lines, DiffLine{Op: OpInsert, NewText: newLine, Spans: spans})
	}
	return lines
}

// lineSpans compares two lines (without terminators) token by token.
func lineSpans(oldCore, newCore string, opts Options) []DiffSpan {
	a := tokencmp.NewWithPolicy(oldCore, opts.TokenSkip)
	b := tokencmp.NewWithPolicy(newCore, opts.TokenSkip)
	ranges, _ := opts.Differencer.FindRanges(context.Background(), a, b)

	var spans []DiffSpan
	for _, r := range ranges {
		oldText, newText := a.Span(r.LeftStart, r.LeftLength), b.Span(r.RightStart, r.RightLength)
		switch {
		case oldText == "" && newText == "":
			continue
		case r.Kind == rangediff.NoChange:
			spans = append(spans, DiffSpan{Op: OpEqual, OldText: oldText, NewText: newText})
		default:
			spans = append(spans, DiffSpan{Op: opFor(oldText, newText), OldText: oldText, NewText: newText})
		}
	}
	return absorbBlankEquals(spans)
}

// absorbBlankEquals merges whitespace-only equal spans that sit between two changes into a single change, so "foo bar" -> "baz qux" is one replacement rather than two.
func absorbBlankEquals(spans []DiffSpan) []DiffSpan {
	out := make([]DiffSpan, 0, len(spans))
	for i, s := range spans {
		prevChanged := len(out) > 0 && out[len(out)-1].Op != OpEqual
		if s.Op == OpEqual && prevChanged && i+1 < len(spans) && spans[i+1].Op != OpEqual && strings.TrimSpace(s.OldText) == "" {
			s.Op = OpReplace
		}
		if s.Op != OpEqual && prevChanged {
			prev := &out[len(out)-1]
			prev.OldText += s.OldText
			prev.NewText += s.NewText
			prev.Op = opFor(prev.OldText, prev.NewText)
			continue
		}
		out = append(out, s)
	}
	return out
}
