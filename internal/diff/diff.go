package diff

import (
	"github.com/codalotl/rangediff/internal/rangediff"
	"github.com/codalotl/rangediff/internal/tokencmp"
)

// Op is an operation from old text to new text.
type Op int

// Operations from old text to new text.
const (
	OpEqual Op = iota
	OpInsert
	OpDelete
	OpReplace
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "equal"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Diff is a line diff from old text to new text, with token-level spans inside changed lines.
//
// Hunks alternate between unchanged regions (OpEqual) and changed regions, in text order. An edit in the middle of a file yields three hunks: the unchanged prefix, the change,
// and the unchanged suffix.
//
// Invariants:
//   - concat(Hunks.OldText) == OldText
//   - concat(Hunks.NewText) == NewText
//   - Hunks[i].OldLine and Hunks[i].NewLine count the lines of all earlier hunks.
type Diff struct {
	OldText string     // Entire original text.
	NewText string     // Entire revised text.
	Hunks   []DiffHunk // Ordered hunks that cover the whole diff and reconstruct OldText/NewText.

	ignoreWhitespace bool // OpEqual hunks may differ in whitespace.
}

// DiffHunk is a contiguous group of lines. Line terminators are part of the hunk's text.
//
// Operations:
//   - OpEqual: OldText == NewText (or equal ignoring whitespace, when diffed with IgnoreWhitespace)
//   - OpInsert: OldText=="" && NewText!=""
//   - OpDelete: OldText!="" && NewText==""
//   - OpReplace: OldText != "" and NewText != ""
//
// Invariants:
//   - If OpEqual, Lines is nil. Otherwise,
//   - concat(Lines.OldText) == OldText
//   - concat(Lines.NewText) == NewText
type DiffHunk struct {
	Op      Op         // Operation for this hunk (OpEqual, OpInsert, OpDelete, or OpReplace).
	OldText string     // Concatenation of old lines in this hunk; empty for inserts.
	NewText string     // Concatenation of new lines in this hunk; empty for deletes.
	OldLine int        // 0-based index of the hunk's first old line.
	NewLine int        // 0-based index of the hunk's first new line.
	Lines   []DiffLine // Per-line diffs when Op != OpEqual; nil when OpEqual.
}

// DiffLine is a diff on a single line, including its terminator ("\n", "\r\n", or "\r") when it has one.
//
// Operations follow the pattern of DiffHunk.
//
// Invariants:
//   - If OpEqual, Spans is nil. Otherwise,
//   - concat(Spans.OldText) + eol(OldText) == OldText
//   - concat(Spans.NewText) + eol(NewText) == NewText
type DiffLine struct {
	Op      Op         // Operation for this line (OpEqual, OpInsert, OpDelete, or OpReplace).
	OldText string     // Entire old line (including its terminator, if any); empty for inserts.
	NewText string     // Entire new line (including its terminator, if any); empty for deletes.
	Spans   []DiffSpan // Intra-line segments when Op != OpEqual; nil when OpEqual. Spans never contain line terminators.
}

// DiffSpan is a diff within a line. Span boundaries fall on token boundaries (see tokencmp), so a changed word is reported whole.
//
// Operations follow the pattern of DiffHunk.
type DiffSpan struct {
	Op      Op     // Operation performed by this span (OpEqual, OpInsert, OpDelete, or OpReplace).
	OldText string // Substring from the old line; empty for inserts.
	NewText string // Substring from the new line; empty for deletes.
}

// Options tunes DiffTextOptions and Merge3Text. The zero Options compares exactly and never falls back to coarse comparison.
type Options struct {
	IgnoreWhitespace bool                  // Lines equal after removing all whitespace are unchanged.
	LineSkip         rangediff.SkipPolicy  // Coarse comparison of large, dissimilar line blocks.
	TokenSkip        tokencmp.SkipPolicy   // Coarse comparison of long, dissimilar lines.
	Differencer      rangediff.Differencer // Search limits of the underlying comparison.
}

// DefaultOptions returns the Options used by DiffText.
func DefaultOptions() Options {
	return Options{LineSkip: rangediff.DefaultSkipPolicy, TokenSkip: tokencmp.DefaultSkipPolicy}
}

// Stats returns the number of added and deleted lines. A replaced line counts as both.
func (d Diff) Stats() (added, deleted int) {
	for _, h := range d.Hunks {
		for _, ln := range h.Lines {
			switch ln.Op {
			case OpInsert:
				added++
			case OpDelete:
				deleted++
			case OpReplace:
				added++
				deleted++
			}
		}
	}
	return added, deleted
}

// HasChanges reports whether any hunk is not OpEqual.
func (d Diff) HasChanges() bool {
	for _, h := range d.Hunks {
		if h.Op != OpEqual {
			return true
		}
	}
	return false
}

// opFor returns the operation turning old into new, given neither is known to be equal.
func opFor(oldText, newText string) Op {
	switch {
	case oldText != "" && newText != "":
		return OpReplace
	case oldText != "":
		return OpDelete
	default:
		return OpInsert
	}
}
