// Package rangediff finds the differences between two or three indexable sequences and describes them as ordered ranges.
//
// Inputs are Comparators: anything with a length and an element equality test (lines of a document, tokens of a line). A two-way comparison produces NoChange and Change
// ranges. A three-way comparison diffs an ancestor against a left and a right version and classifies each changed region as LeftOnly, RightOnly, AncestorOnly (both sides made
// the same change), or Conflict.
//
// Results from FindRanges and FindRanges3 always partition every input: ranges are ordered, each starts where the previous ended, and together they cover each input from 0
// to its length. Unchanged regions appear as explicit NoChange ranges.
//
//	ranges := rangediff.FindRanges3(ancestor, left, right)
//	for _, r := range ranges {
//		fmt.Println(r.Kind, r.LeftStart, r.LeftLength)
//	}
//
// The two-way core is Myers' O(ND) algorithm in linear space. For very large inputs (the product of lengths exceeds Differencer.TooLong), the edit search is depth-limited
// and the result may be larger than minimal; Differencer.IsCapped reports when that applies. Comparators can also ask for a sub-problem to be treated as a single change via
// ShouldSkipDetailedComparison; SkipPolicy implements the usual size/ratio guard.
//
// Use a Differencer with a context to make long comparisons cancelable.
package rangediff
