package rangediff

import "fmt"

// Comparator is an indexable sequence whose elements can be compared against the elements of another Comparator. Lines of a document and tokens of a line are the usual
// implementations.
//
// ElementsEqual must be reflexive and symmetric, and it must return false (never panic) when other has a different concrete type.
type Comparator interface {
	// Len returns the number of elements.
	Len() int

	// ElementsEqual reports whether element i of the receiver equals element j of other.
	ElementsEqual(i int, other Comparator, j int) bool

	// ShouldSkipDetailedComparison reports whether a sub-problem is too expensive to diff in detail. combinedLength is the total number of elements on both sides of the
	// sub-problem and maxLength is the larger side. Returning true makes the whole sub-problem a single Change.
	ShouldSkipDetailedComparison(combinedLength, maxLength int, other Comparator) bool
}

// Kind classifies a RangeDifference.
type Kind int

// Kinds of range differences. Two-way results only use NoChange and Change. Three-way results use NoChange, Conflict, LeftOnly, RightOnly, and AncestorOnly.
const (
	NoChange     Kind = iota // The inputs agree on this range.
	Change                   // Two-way: left and right differ.
	Conflict                 // Three-way: left and right both changed the ancestor, differently.
	LeftOnly                 // Three-way: only left changed the ancestor.
	RightOnly                // Three-way: only right changed the ancestor.
	AncestorOnly             // Three-way: left and right made the same change to the ancestor (a pseudo-conflict).
)

func (k Kind) String() string {
	switch k {
	case NoChange:
		return "NoChange"
	case Change:
		return "Change"
	case Conflict:
		return "Conflict"
	case LeftOnly:
		return "LeftOnly"
	case RightOnly:
		return "RightOnly"
	case AncestorOnly:
		return "AncestorOnly"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RangeDifference describes one range of a diff: a half-open span in each input. Ancestor fields are zero for two-way results.
//
// A result slice returned by this package is ordered, contiguous, and covers every input: for each input, the first range starts at 0, each range starts where the previous one
// ends, and the last one ends at the input's length.
type RangeDifference struct {
	Kind           Kind
	LeftStart      int
	LeftLength     int
	RightStart     int
	RightLength    int
	AncestorStart  int
	AncestorLength int
}

// LeftEnd returns the exclusive end of the left span.
func (r RangeDifference) LeftEnd() int { return r.LeftStart + r.LeftLength }

// RightEnd returns the exclusive end of the right span.
func (r RangeDifference) RightEnd() int { return r.RightStart + r.RightLength }

// AncestorEnd returns the exclusive end of the ancestor span.
func (r RangeDifference) AncestorEnd() int { return r.AncestorStart + r.AncestorLength }

// MaxLength returns the length of the longest span.
func (r RangeDifference) MaxLength() int {
	return max(r.LeftLength, r.RightLength, r.AncestorLength)
}

// IsChange reports whether r is anything other than NoChange.
func (r RangeDifference) IsChange() bool { return r.Kind != NoChange }

func (r RangeDifference) String() string {
	return fmt.Sprintf("%v left=[%d,%d) right=[%d,%d) ancestor=[%d,%d)", r.Kind, r.LeftStart, r.LeftEnd(), r.RightStart, r.RightEnd(), r.AncestorStart, r.AncestorEnd())
}

// SkipPolicy is the size/ratio guard behind ShouldSkipDetailedComparison. A sub-problem is skipped when its longer side exceeds MinLonger, its shorter side exceeds MinShorter,
// and the shorter side is less than (1 - Tolerance) of the longer side.
//
// The zero SkipPolicy never skips.
type SkipPolicy struct {
	MinShorter int
	MinLonger  int
	Tolerance  float64
}

// DefaultSkipPolicy is the policy used for line sequences unless configured otherwise.
var DefaultSkipPolicy = SkipPolicy{MinShorter: 100, MinLonger: 800, Tolerance: 0.25}

// Skip reports whether two sides of the given sizes should be compared coarsely. The arguments may be given in either order.
func (p SkipPolicy) Skip(a, b int) bool {
	if p == (SkipPolicy{}) {
		return false
	}
	shorter, longer := min(a, b), max(a, b)
	if longer <= p.MinLonger || shorter <= p.MinShorter {
		return false
	}
	return float64(shorter) < float64(longer)*(1-p.Tolerance)
}

// SkipCombined adapts Skip to the ShouldSkipDetailedComparison arguments.
func (p SkipPolicy) SkipCombined(combinedLength, maxLength int) bool {
	return p.Skip(combinedLength-maxLength, maxLength)
}
