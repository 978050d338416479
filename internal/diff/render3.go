package diff

import (
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/codalotl/rangediff/internal/rangediff"
	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// kindMarks prefixes each side-by-side row with its hunk's kind.
var kindMarks = map[rangediff.Kind]string{
	rangediff.NoChange:     " ",
	rangediff.LeftOnly:     "<",
	rangediff.RightOnly:    ">",
	rangediff.AncestorOnly: "=",
	rangediff.Conflict:     "!",
}

// RenderSideBySide renders m as a table with an ancestor, a left, and a right column, each width display cells wide. Each hunk takes as many rows as its longest side, and every
// row starts with a mark for the hunk's kind: " " unchanged, "<" left only, ">" right only, "=" same change on both sides, "!" conflict.
//
// Wide characters count as two cells, tabs expand to 4 spaces, and text that does not fit is truncated with "…". Rows are joined with "\n", carry no trailing whitespace, and
// the result has no trailing newline.
func (m Merge3) RenderSideBySide(width int) string {
	width = max(width, 1)
	var rows []string
	for _, h := range m.Hunks {
		anc := linecmp.Split(h.AncestorText)
		left := linecmp.Split(h.LeftText)
		right := linecmp.Split(h.RightText)
		n := max(len(anc), len(left), len(right))

		mark, ok := kindMarks[h.Kind]
		if !ok {
			mark = "?"
		}
		for i := 0; i < n; i++ {
			row := mark + " " + cell(anc, i, width) + " | " + cell(left, i, width) + " | " + cell(right, i, width)
			rows = append(rows, strings.TrimRight(row, " "))
		}
	}
	return strings.Join(rows, "\n")
}

// cell returns line i of lines fitted to exactly width display cells.
func cell(lines []string, i, width int) string {
	text := ""
	if i < len(lines) {
		text, _ = linecmp.TrimEOL(lines[i])
		text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	}
	return runewidth.FillRight(runewidth.Truncate(text, width, "…"), width)
}
