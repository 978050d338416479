package diff

import (
	"context"
	"fmt"
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/codalotl/rangediff/internal/rangediff"
	"github.com/codalotl/rangediff/internal/tokencmp"
)

// Merge3 is a line-level three-way comparison of a left and a right text against their common ancestor.
//
// Invariants:
//   - concat(Hunks.AncestorText) == AncestorText, and likewise for LeftText and RightText.
//   - Hunk kinds are rangediff.NoChange, LeftOnly, RightOnly, AncestorOnly, or Conflict.
type Merge3 struct {
	AncestorText string
	LeftText     string
	RightText    string
	Hunks        []Merge3Hunk
}

// Merge3Hunk is one range of a three-way comparison.
type Merge3Hunk struct {
	Kind         rangediff.Kind
	AncestorText string
	LeftText     string
	RightText    string
	AncestorLine int // 0-based index of the first ancestor line.
	LeftLine     int // 0-based index of the first left line.
	RightLine    int // 0-based index of the first right line.

	// Tokens holds the token-level differences inside a changed hunk whose left and right texts are both non-empty, as returned by rangediff.FindDifferences3 over the hunk's
	// ancestor, left, and right texts (two-way over left and right when the ancestor text is empty). Token indexes are relative to tokencmp.Tokenize of the hunk's texts.
	// Tokens is nil when the only difference is the whole hunk.
	Tokens []rangediff.RangeDifference
}

// Labels names the three versions in conflict markers.
type Labels struct {
	Ancestor string
	Left     string
	Right    string
}

// Merge3Text compares left and right against ancestor, line by line. Line terminators are not significant.
func Merge3Text(ancestorText, leftText, rightText string, opts Options) Merge3 {
	lineOpts := &linecmp.Options{IgnoreWhitespace: opts.IgnoreWhitespace, Skip: opts.LineSkip}
	ancestor := linecmp.FromString(ancestorText, lineOpts)
	left := linecmp.FromString(leftText, lineOpts)
	right := linecmp.FromString(rightText, lineOpts)

	ranges, _ := opts.Differencer.FindRanges3(context.Background(), ancestor, left, right)

	m := Merge3{AncestorText: ancestorText, LeftText: leftText, RightText: rightText}
	for _, r := range ranges {
		if r.MaxLength() == 0 {
			continue
		}
		h := Merge3Hunk{
			Kind:         r.Kind,
			AncestorText: ancestor.Text(r.AncestorStart, r.AncestorLength),
			LeftText:     left.Text(r.LeftStart, r.LeftLength),
			RightText:    right.Text(r.RightStart, r.RightLength),
			AncestorLine: r.AncestorStart,
			LeftLine:     r.LeftStart,
			RightLine:    r.RightStart,
		}
		if h.Kind != rangediff.NoChange && h.LeftText != "" && h.RightText != "" {
			h.Tokens = tokenDifferences(h.AncestorText, h.LeftText, h.RightText, opts)
		}
		m.Hunks = append(m.Hunks, h)
	}
	return m
}

// tokenDifferences diffs the texts of one hunk token by token.
func tokenDifferences(ancestorText, leftText, rightText string, opts Options) []rangediff.RangeDifference {
	left := tokencmp.NewWithPolicy(leftText, opts.TokenSkip)
	right := tokencmp.NewWithPolicy(rightText, opts.TokenSkip)

	var ancestor rangediff.Comparator
	ancestorLen := 0
	if ancestorText != "" {
		a := tokencmp.NewWithPolicy(ancestorText, opts.TokenSkip)
		ancestor, ancestorLen = a, a.Len()
	}

	diffs, _ := opts.Differencer.FindDifferences3(context.Background(), ancestor, left, right)
	if len(diffs) == 1 {
		d := diffs[0]
		whole := d.LeftStart == 0 && d.LeftLength == left.Len() && d.RightStart == 0 && d.RightLength == right.Len() && d.AncestorStart == 0 && d.AncestorLength == ancestorLen
		if whole {
			return nil
		}
	}
	return diffs
}

// Conflicts returns the number of Conflict hunks.
func (m Merge3) Conflicts() int {
	n := 0
	for _, h := range m.Hunks {
		if h.Kind == rangediff.Conflict {
			n++
		}
	}
	return n
}

// RenderMarkers returns the merged text, along with the number of conflicts. Hunks changed only on the left take the left text; all other non-conflicting hunks take the right
// text. Each conflict is written in diff3 style:
//
//	<<<<<<< left
//	...
//	||||||| ancestor
//	...
//	=======
//	...
//	>>>>>>> right
//
// Labels that are empty leave the marker bare.
func (m Merge3) RenderMarkers(labels Labels) (string, int) {
	var b strings.Builder
	conflicts := 0
	for _, h := range m.Hunks {
		switch h.Kind {
		case rangediff.LeftOnly:
			b.WriteString(h.LeftText)
		case rangediff.Conflict:
			conflicts++
			writeMarker(&b, "<<<<<<<", labels.Left)
			writeBlock(&b, h.LeftText)
			writeMarker(&b, "|||||||", labels.Ancestor)
			writeBlock(&b, h.AncestorText)
			writeMarker(&b, "=======", "")
			writeBlock(&b, h.RightText)
			writeMarker(&b, ">>>>>>>", labels.Right)
		default:
			b.WriteString(h.RightText)
		}
	}
	return b.String(), conflicts
}

func writeMarker(b *strings.Builder, marker, label string) {
	b.WriteString(marker)
	if label != "" {
		b.WriteString(" ")
		b.WriteString(label)
	}
	b.WriteString("\n")
}

// writeBlock writes text, terminating it so that the next marker starts on its own line.
func writeBlock(b *strings.Builder, text string) {
	b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") && !strings.HasSuffix(text, "\r") {
		b.WriteString("\n")
	}
}

func (h Merge3Hunk) String() string {
	return fmt.Sprintf("%v ancestor=%d left=%d right=%d", h.Kind, h.AncestorLine+1, h.LeftLine+1, h.RightLine+1)
}
