package rangediff

import "fmt"

// validateRanges checks that ranges is a well-formed partition of inputs of the given lengths. ancestorLen < 0 means a two-way result (ancestor fields must be zero).
func validateRanges(ranges []RangeDifference, leftLen, rightLen, ancestorLen int) error {
	threeWay := ancestorLen >= 0
	if len(ranges) == 0 {
		return fmt.Errorf("no ranges")
	}

	var lpos, rpos, apos int
	for i, r := range ranges {
		if r.LeftLength < 0 || r.RightLength < 0 || r.AncestorLength < 0 {
			return fmt.Errorf("range[%d]: negative length: %v", i, r)
		}
		if r.LeftStart != lpos {
			return fmt.Errorf("range[%d]: left starts at %d, expected %d", i, r.LeftStart, lpos)
		}
		if r.RightStart != rpos {
			return fmt.Errorf("range[%d]: right starts at %d, expected %d", i, r.RightStart, rpos)
		}
		if threeWay {
			if r.AncestorStart != apos {
				return fmt.Errorf("range[%d]: ancestor starts at %d, expected %d", i, r.AncestorStart, apos)
			}
		} else if r.AncestorStart != 0 || r.AncestorLength != 0 {
			return fmt.Errorf("range[%d]: ancestor set in two-way result: %v", i, r)
		}

		switch r.Kind {
		case NoChange:
			if r.LeftLength != r.RightLength || (threeWay && r.AncestorLength != r.LeftLength) {
				return fmt.Errorf("range[%d]: NoChange with unequal lengths: %v", i, r)
			}
			if len(ranges) > 1 && r.MaxLength() == 0 {
				return fmt.Errorf("range[%d]: empty NoChange", i)
			}
		case Change:
			if threeWay {
				return fmt.Errorf("range[%d]: Change in three-way result", i)
			}
		case Conflict, LeftOnly, RightOnly, AncestorOnly:
			if !threeWay {
				return fmt.Errorf("range[%d]: %v in two-way result", i, r.Kind)
			}
		default:
			return fmt.Errorf("range[%d]: invalid kind %v", i, r.Kind)
		}
		if r.Kind != NoChange && r.MaxLength() == 0 {
			return fmt.Errorf("range[%d]: empty %v", i, r.Kind)
		}

		lpos, rpos, apos = r.LeftEnd(), r.RightEnd(), r.AncestorEnd()
	}

	if lpos != leftLen {
		return fmt.Errorf("left covered to %d, expected %d", lpos, leftLen)
	}
	if rpos != rightLen {
		return fmt.Errorf("right covered to %d, expected %d", rpos, rightLen)
	}
	if threeWay && apos != ancestorLen {
		return fmt.Errorf("ancestor covered to %d, expected %d", apos, ancestorLen)
	}
	return nil
}
