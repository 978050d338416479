package diff

import (
	"fmt"
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
)

// validate checks the Diff invariants and returns an error on the first violation.
func (d Diff) validate() error {
	var oldConcat, newConcat strings.Builder
	oldLine, newLine := 0, 0
	for hi, h := range d.Hunks {
		where := fmt.Sprintf("hunk[%d]", hi)
		if err := checkOp(where, h.Op, h.OldText, h.NewText, d.ignoreWhitespace); err != nil {
			return err
		}
		if h.OldLine != oldLine || h.NewLine != newLine {
			return fmt.Errorf("%s: starts at lines %d/%d, want %d/%d", where, h.OldLine, h.NewLine, oldLine, newLine)
		}
		oldLine += len(linecmp.Split(h.OldText))
		newLine += len(linecmp.Split(h.NewText))
		oldConcat.WriteString(h.OldText)
		newConcat.WriteString(h.NewText)

		if h.Op == OpEqual {
			if h.Lines != nil {
				return fmt.Errorf("%s: OpEqual requires Lines==nil", where)
			}
			continue
		}

		var oldLines, newLines strings.Builder
		for li, ln := range h.Lines {
			if err := validateLine(fmt.Sprintf("%s.line[%d]", where, li), ln); err != nil {
				return err
			}
			oldLines.WriteString(ln.OldText)
			newLines.WriteString(ln.NewText)
		}
		if h.OldText != oldLines.String() {
			return fmt.Errorf("%s: lines do not reconstruct OldText", where)
		}
		if h.NewText != newLines.String() {
			return fmt.Errorf("%s: lines do not reconstruct NewText", where)
		}
	}

	if d.OldText != oldConcat.String() {
		return fmt.Errorf("diff: hunks do not reconstruct OldText")
	}
	if d.NewText != newConcat.String() {
		return fmt.Errorf("diff: hunks do not reconstruct NewText")
	}
	return nil
}

func validateLine(where string, ln DiffLine) error {
	if err := checkOp(where, ln.Op, ln.OldText, ln.NewText, false); err != nil {
		return err
	}
	if ln.Op == OpEqual {
		if ln.Spans != nil {
			return fmt.Errorf("%s: OpEqual requires Spans==nil", where)
		}
		return nil
	}

	var sOld, sNew strings.Builder
	for si, sp := range ln.Spans {
		spanWhere := fmt.Sprintf("%s.span[%d]", where, si)
		if strings.ContainsAny(sp.OldText, "\r\n") || strings.ContainsAny(sp.NewText, "\r\n") {
			return fmt.Errorf("%s: span contains a line terminator", spanWhere)
		}
		if err := checkOp(spanWhere, sp.Op, sp.OldText, sp.NewText, false); err != nil {
			return err
		}
		sOld.WriteString(sp.OldText)
		sNew.WriteString(sp.NewText)
	}

	_, oldEOL := linecmp.TrimEOL(ln.OldText)
	_, newEOL := linecmp.TrimEOL(ln.NewText)
	if ln.OldText != sOld.String()+oldEOL {
		return fmt.Errorf("%s: spans do not reconstruct OldText", where)
	}
	if ln.NewText != sNew.String()+newEOL {
		return fmt.Errorf("%s: spans do not reconstruct NewText", where)
	}
	return nil
}

// checkOp checks that oldText and newText are consistent with op. If loose, OpEqual texts only need to match ignoring whitespace.
func checkOp(where string, op Op, oldText, newText string, loose bool) error {
	switch op {
	case OpEqual:
		if oldText == newText || (loose && strings.Join(strings.Fields(oldText), "") == strings.Join(strings.Fields(newText), "")) {
			return nil
		}
		return fmt.Errorf("%s: OpEqual requires OldText==NewText", where)
	case OpInsert:
		if oldText != "" || newText == "" {
			return fmt.Errorf("%s: OpInsert requires OldText==\"\" and NewText!=\"\"", where)
		}
	case OpDelete:
		if oldText == "" || newText != "" {
			return fmt.Errorf("%s: OpDelete requires OldText!=\"\" and NewText==\"\"", where)
		}
	case OpReplace:
		if oldText == "" || newText == "" {
			return fmt.Errorf("%s: OpReplace requires OldText!=\"\" and NewText!=\"\"", where)
		}
	default:
		return fmt.Errorf("%s: unknown op %d", where, op)
	}
	return nil
}
