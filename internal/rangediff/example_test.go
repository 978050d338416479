package rangediff_test

import (
	"fmt"

	"github.com/codalotl/rangediff/internal/rangediff"
)

type words []string

func (w words) Len() int { return len(w) }

func (w words) ElementsEqual(i int, other rangediff.Comparator, j int) bool {
	o, ok := other.(words)
	return ok && w[i] == o[j]
}

func (w words) ShouldSkipDetailedComparison(int, int, rangediff.Comparator) bool { return false }

func ExampleFindRanges() {
	left := words{"the", "quick", "brown", "fox"}
	right := words{"the", "slow", "brown", "fox", "again"}
	for _, r := range rangediff.FindRanges(left, right) {
		fmt.Println(r.Kind, left[r.LeftStart:r.LeftEnd()], right[r.RightStart:r.RightEnd()])
	}
	// Output:
	// NoChange [the] [the]
	// Change [quick] [slow]
	// NoChange [brown fox] [brown fox]
	// Change [] [again]
}

func ExampleFindRanges3() {
	ancestor := words{"a", "b", "c", "d"}
	left := words{"a", "B", "c", "d"}
	right := words{"a", "b", "c", "D"}
	for _, r := range rangediff.FindRanges3(ancestor, left, right) {
		fmt.Println(r.Kind, ancestor[r.AncestorStart:r.AncestorEnd()], left[r.LeftStart:r.LeftEnd()], right[r.RightStart:r.RightEnd()])
	}
	// Output:
	// NoChange [a] [a] [a]
	// LeftOnly [b] [B] [b]
	// NoChange [c] [c] [c]
	// RightOnly [d] [d] [D]
}
