package diff

import (
	"fmt"
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
)

// ANSI colors used by RenderUnifiedDiff.
const (
	reset      = "\x1b[0m"
	red        = "\x1b[31m"
	green      = "\x1b[32m"
	magenta    = "\x1b[35m"
	cyanBold   = "\x1b[1;36m"
	reverse    = "\x1b[7m"
	reverseOff = "\x1b[27m"
)

const noNewline = `\ No newline at end of file`

// RenderUnifiedDiff returns a unified diff, or "" if d has no changes. Lines are joined with "\n" and the result has no trailing newline.
//
// Change groups separated by at most 2*contextSize unchanged lines share one @@ hunk. Within a change, all deletions are listed before all insertions. A line that lacks a
// terminator is followed by "\ No newline at end of file".
//
// If color, headers and changed lines carry ANSI colors, and the tokens that changed within a replaced line are shown in reverse video.
func (d Diff) RenderUnifiedDiff(color bool, fromFilename string, toFilename string, contextSize int) string {
	if !d.HasChanges() {
		return ""
	}
	contextSize = max(contextSize, 0)

	colorize := func(s, code string) string {
		if !color {
			return s
		}
		return code + s + reset
	}

	out := []string{
		colorize("--- "+fromFilename, cyanBold),
		colorize("+++ "+toFilename, cyanBold),
	}

	lines := d.unifiedLines()
	floor := 0
	for i := 0; i < len(lines); {
		if lines[i].tag == ' ' {
			i++
			continue
		}

		// Grow the group over small runs of context; j ends on the first unchanged line after the group's last change.
		start := max(i-contextSize, floor)
		j := i
		end := len(lines)
		for {
			for j < len(lines) && lines[j].tag != ' ' {
				j++
			}
			k := j
			for k < len(lines) && lines[k].tag == ' ' {
				k++
			}
			if k < len(lines) && k-j <= 2*contextSize {
				j = k
				continue
			}
			end = min(j+contextSize, k)
			break
		}

		group := lines[start:end]
		var oldCount, newCount int
		for _, ln := range group {
			if ln.tag != '+' {
				oldCount++
			}
			if ln.tag != '-' {
				newCount++
			}
		}
		header := fmt.Sprintf("@@ -%s +%s @@", rangeHeader(group[0].oldPos, oldCount), rangeHeader(group[0].newPos, newCount))
		out = append(out, colorize(header, magenta))

		for _, ln := range group {
			switch ln.tag {
			case '-':
				out = append(out, colorize("-"+ln.render(color), red))
			case '+':
				out = append(out, colorize("+"+ln.render(color), green))
			default:
				out = append(out, " "+ln.text)
			}
			if ln.noEOL {
				out = append(out, noNewline)
			}
		}

		floor = end
		i = end
	}

	return strings.Join(out, "\n")
}

// rangeHeader formats one side of a @@ header. start is 0-based; an empty range names the line before it.
func rangeHeader(start, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", start)
	case 1:
		return fmt.Sprintf("%d", start+1)
	default:
		return fmt.Sprintf("%d,%d", start+1, count)
	}
}

// unifiedLine is one output line of a unified diff.
type unifiedLine struct {
	tag    byte       // ' ', '+', '-'
	text   string     // line content without terminator
	spans  []DiffSpan // set for lines of a replaced pair
	noEOL  bool
	oldPos int // old line index at this line
	newPos int // new line index at this line
}

// render returns the line's text, highlighting changed spans when color is set.
func (ln unifiedLine) render(color bool) string {
	if !color || ln.spans == nil {
		return ln.text
	}
	var b strings.Builder
	for _, sp := range ln.spans {
		text := sp.NewText
		if ln.tag == '-' {
			text = sp.OldText
		}
		if text == "" {
			continue
		}
		if sp.Op == OpEqual {
			b.WriteString(text)
			continue
		}
		b.WriteString(reverse)
		b.WriteString(text)
		b.WriteString(reverseOff)
	}
	return b.String()
}

// unifiedLines flattens d into unified-diff lines. Unchanged lines are taken from the old text.
func (d Diff) unifiedLines() []unifiedLine {
	var out []unifiedLine
	for _, h := range d.Hunks {
		o, n := h.OldLine, h.NewLine
		if h.Op == OpEqual {
			for _, raw := range linecmp.Split(h.OldText) {
				core, eol := linecmp.TrimEOL(raw)
				out = append(out, unifiedLine{tag: ' ', text: core, noEOL: eol == "", oldPos: o, newPos: n})
				o++
				n++
			}
			continue
		}

		var dels, adds []unifiedLine
		flush := func() {
			out = append(out, dels...)
			out = append(out, adds...)
			dels, adds = nil, nil
		}
		for _, ln := range h.Lines {
			if ln.Op == OpEqual {
				flush()
				core, eol := linecmp.TrimEOL(ln.OldText)
				out = append(out, unifiedLine{tag: ' ', text: core, noEOL: eol == "", oldPos: o, newPos: n})
				o++
				n++
				continue
			}
			var spans []DiffSpan
			if ln.Op == OpReplace {
				spans = ln.Spans
			}
			if ln.OldText != "" {
				core, eol := linecmp.TrimEOL(ln.OldText)
				dels = append(dels, unifiedLine{tag: '-', text: core, spans: spans, noEOL: eol == "", oldPos: o, newPos: n})
				o++
			}
			if ln.NewText != "" {
				core, eol := linecmp.TrimEOL(ln.NewText)
				adds = append(adds, unifiedLine{tag: '+', text: core, spans: spans, noEOL: eol == "", oldPos: o, newPos: n})
				n++
			}
		}
		flush()
	}
	return out
}
