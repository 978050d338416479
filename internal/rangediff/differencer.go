package rangediff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrCanceled is returned (wrapping the context's error) when a computation is abandoned because its context was canceled. No partial result accompanies it.
var ErrCanceled = errors.New("rangediff: canceled")

const (
	// DefaultTooLong is the product of input lengths above which the edit search is depth-limited.
	DefaultTooLong = 10_000_000

	// DefaultPowLimit is the exponent used to depth-limit the edit search: the limit is ceil((N+M)/2)^(PowLimit-1).
	DefaultPowLimit = 1.5
)

// Differencer computes range differences. The zero value is ready to use with default limits.
//
// A Differencer holds no mutable state; one value may be used concurrently on independent inputs.
type Differencer struct {
	// TooLong is the product of input lengths above which the edit search is depth-limited. 0 means DefaultTooLong; a negative value disables the limit.
	TooLong int

	// PowLimit is the exponent of the depth limit. 0 means DefaultPowLimit.
	PowLimit float64

	// Logger, if set, receives debug records when a comparison falls back to a coarse result.
	Logger *slog.Logger
}

// FindRanges is Differencer{}.FindRanges without cancellation.
func FindRanges(left, right Comparator) []RangeDifference {
	ranges, _ := Differencer{}.FindRanges(context.Background(), left, right)
	return ranges
}

// FindRanges3 is Differencer{}.FindRanges3 without cancellation.
func FindRanges3(ancestor, left, right Comparator) []RangeDifference {
	ranges, _ := Differencer{}.FindRanges3(context.Background(), ancestor, left, right)
	return ranges
}

// FindDifferences returns only the Change ranges between left and right, in ascending order. Identical inputs yield no ranges; if one side is empty, the result is a single Change
// spanning the other side.
//
// Swapping left and right mirrors the result (left and right fields exchanged) whenever the longest common subsequence is unique. When several common subsequences of
// maximal length exist (ex: "ab" against "ba"), each order may pick a different one: the two results then match the same number of elements but not necessarily the same
// elements.
func (d Differencer) FindDifferences(ctx context.Context, left, right Comparator) ([]RangeDifference, error) {
	n, m := left.Len(), right.Len()
	l := newLCS(left, right, d.searchLimit(n, m))
	if err := l.run(ctx); err != nil {
		return nil, canceled(err)
	}
	if l.skipped > 0 || l.fellBack {
		d.debug("coarse comparison", "left", n, "right", m, "skipped", l.skipped, "fell_back", l.fellBack, "lcs", l.length())
	}
	return l.differences(), nil
}

// FindRanges returns the full two-way partition of left and right: Change ranges from FindDifferences plus NoChange ranges for every gap between them. Two empty inputs yield a
// single zero-length NoChange range.
func (d Differencer) FindRanges(ctx context.Context, left, right Comparator) ([]RangeDifference, error) {
	in, err := d.FindDifferences(ctx, left, right)
	if err != nil {
		return nil, err
	}

	out := make([]RangeDifference, 0, 2*len(in)+1)
	var lstart, rstart int
	for _, es := range in {
		gap := RangeDifference{Kind: NoChange, LeftStart: lstart, LeftLength: es.LeftStart - lstart, RightStart: rstart, RightLength: es.RightStart - rstart}
		if gap.MaxLength() > 0 {
			out = append(out, gap)
		}
		out = append(out, es)
		lstart, rstart = es.LeftEnd(), es.RightEnd()
	}
	tail := RangeDifference{Kind: NoChange, LeftStart: lstart, LeftLength: left.Len() - lstart, RightStart: rstart, RightLength: right.Len() - rstart}
	if tail.MaxLength() > 0 || len(out) == 0 {
		out = append(out, tail)
	}

	if err := validateRanges(out, left.Len(), right.Len(), -1); err != nil {
		panic(fmt.Errorf("FindRanges: validate failed with %v", err))
	}
	return out, nil
}

// FindDifferences3 returns the non-NoChange ranges of a three-way comparison, in ascending order. The ancestor is diffed against each side, and changes from the two diffs that
// overlap or touch in ancestor space are combined into one range, classified as LeftOnly, RightOnly, AncestorOnly (both sides made the same change), or Conflict.
//
// If ancestor is nil the result is FindDifferences(left, right).
func (d Differencer) FindDifferences3(ctx context.Context, ancestor, left, right Comparator) ([]RangeDifference, error) {
	if ancestor == nil {
		return d.FindDifferences(ctx, left, right)
	}

	rightScript, err := d.FindDifferences(ctx, ancestor, right)
	if err != nil {
		return nil, err
	}
	leftScript, err := d.FindDifferences(ctx, ancestor, left)
	if err != nil {
		return nil, err
	}

	rightIt := &script{diffs: rightScript}
	leftIt := &script{diffs: leftScript}

	var out []RangeDifference
	var last RangeDifference // zero sentinel: everything before the first change is unchanged
	for !rightIt.done() || !leftIt.done() {
		if err := ctx.Err(); err != nil {
			return nil, canceled(err)
		}
		rightIt.taken = rightIt.taken[:0]
		leftIt.taken = leftIt.taken[:0]

		// The change that starts earliest in the ancestor opens the range. Ties go to the right side.
		start, other := rightIt, leftIt
		if rightIt.done() || (!leftIt.done() && leftIt.current().LeftStart < rightIt.current().LeftStart) {
			start, other = leftIt, rightIt
		}

		changeStart := start.current().LeftStart
		changeEnd := start.current().LeftEnd()
		start.next()

		// Pull in every change from the other side that overlaps or touches the range, switching sides each time the range grows.
		for !other.done() && other.current().LeftStart <= changeEnd {
			newEnd := other.current().LeftEnd()
			other.next()
			if newEnd >= changeEnd {
				changeEnd = newEnd
				if other == rightIt {
					other = leftIt
				} else {
					other = rightIt
				}
			}
		}

		last = combine(rightIt, leftIt, last, left, right, changeStart, changeEnd)
		out = append(out, last)
	}
	return out, nil
}

// FindRanges3 returns the full three-way partition of ancestor, left, and right: the ranges of FindDifferences3 plus NoChange ranges for every gap. Empty inputs yield a single
// zero-length NoChange range. If ancestor is nil, it is FindRanges(left, right).
func (d Differencer) FindRanges3(ctx context.Context, ancestor, left, right Comparator) ([]RangeDifference, error) {
	if ancestor == nil {
		return d.FindRanges(ctx, left, right)
	}

	in, err := d.FindDifferences3(ctx, ancestor, left, right)
	if err != nil {
		return nil, err
	}

	out := make([]RangeDifference, 0, 2*len(in)+1)
	var lstart, rstart, astart int
	for _, es := range in {
		gap := RangeDifference{
			Kind:           NoChange,
			LeftStart:      lstart,
			LeftLength:     es.LeftStart - lstart,
			RightStart:     rstart,
			RightLength:    es.RightStart - rstart,
			AncestorStart:  astart,
			AncestorLength: es.AncestorStart - astart,
		}
		if gap.MaxLength() > 0 {
			out = append(out, gap)
		}
		out = append(out, es)
		lstart, rstart, astart = es.LeftEnd(), es.RightEnd(), es.AncestorEnd()
	}
	tail := RangeDifference{
		Kind:           NoChange,
		LeftStart:      lstart,
		LeftLength:     left.Len() - lstart,
		RightStart:     rstart,
		RightLength:    right.Len() - rstart,
		AncestorStart:  astart,
		AncestorLength: ancestor.Len() - astart,
	}
	if tail.MaxLength() > 0 || len(out) == 0 {
		out = append(out, tail)
	}

	if err := validateRanges(out, left.Len(), right.Len(), ancestor.Len()); err != nil {
		panic(fmt.Errorf("FindRanges3: validate failed with %v", err))
	}
	return out, nil
}

// IsCapped reports whether comparing these inputs depth-limits the edit search, in which case the result may not be minimal. ancestor may be nil.
func (d Differencer) IsCapped(ancestor, left, right Comparator) bool {
	if ancestor == nil {
		return d.isCapped(left.Len(), right.Len())
	}
	return d.isCapped(ancestor.Len(), left.Len()) || d.isCapped(ancestor.Len(), right.Len())
}

// MaxWork estimates the work of a comparison, for progress reporting. ancestor may be nil.
func MaxWork(ancestor, left, right Comparator) int {
	if ancestor == nil {
		return 2 * max(left.Len(), right.Len())
	}
	a := ancestor.Len()
	return 2*max(a, left.Len()) + 2*max(a, right.Len())
}

func (d Differencer) isCapped(n, m int) bool {
	tooLong := d.TooLong
	if tooLong == 0 {
		tooLong = DefaultTooLong
	}
	return tooLong > 0 && float64(n)*float64(m) > float64(tooLong)
}

// searchLimit returns the bisection depth limit for inputs of these sizes, or 0 for no limit.
func (d Differencer) searchLimit(n, m int) int {
	if !d.isCapped(n, m) {
		return 0
	}
	pow := d.PowLimit
	if pow == 0 {
		pow = DefaultPowLimit
	}
	maxD := (n + m + 1) / 2
	return max(2, int(math.Pow(float64(maxD), pow-1)))
}

func (d Differencer) debug(msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Debug(msg, args...)
	}
}

func canceled(err error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}

// script walks one two-way diff (ancestor on the left) during three-way combination. taken holds the changes consumed into the range being built.
type script struct {
	diffs []RangeDifference
	pos   int
	taken []RangeDifference
}

func (s *script) done() bool                { return s.pos >= len(s.diffs) }
func (s *script) current() RangeDifference { return s.diffs[s.pos] }

func (s *script) next() {
	s.taken = append(s.taken, s.diffs[s.pos])
	s.pos++
}

// combine builds the three-way range for ancestor span [changeStart, changeEnd). A side with no change in the span is positioned relative to last, the previous range.
func combine(rightIt, leftIt *script, last RangeDifference, left, right Comparator, changeStart, changeEnd int) RangeDifference {
	var rightStart, rightEnd, leftStart, leftEnd int
	kind := Conflict

	if len(rightIt.taken) == 0 {
		rightStart = changeStart - last.AncestorEnd() + last.RightEnd()
		rightEnd = changeEnd - last.AncestorEnd() + last.RightEnd()
		kind = LeftOnly
	} else {
		f, l := rightIt.taken[0], rightIt.taken[len(rightIt.taken)-1]
		rightStart = changeStart - f.LeftStart + f.RightStart
		rightEnd = changeEnd - l.LeftEnd() + l.RightEnd()
	}

	if len(leftIt.taken) == 0 {
		leftStart = changeStart - last.AncestorEnd() + last.LeftEnd()
		leftEnd = changeEnd - last.AncestorEnd() + last.LeftEnd()
		kind = RightOnly
	} else {
		f, l := leftIt.taken[0], leftIt.taken[len(leftIt.taken)-1]
		leftStart = changeStart - f.LeftStart + f.RightStart
		leftEnd = changeEnd - l.LeftEnd() + l.RightEnd()
	}

	if kind == Conflict && spansEqual(right, rightStart, rightEnd-rightStart, left, leftStart, leftEnd-leftStart) {
		kind = AncestorOnly
	}

	return RangeDifference{
		Kind:           kind,
		LeftStart:      leftStart,
		LeftLength:     leftEnd - leftStart,
		RightStart:     rightStart,
		RightLength:    rightEnd - rightStart,
		AncestorStart:  changeStart,
		AncestorLength: changeEnd - changeStart,
	}
}

func spansEqual(right Comparator, rightStart, rightLength int, left Comparator, leftStart, leftLength int) bool {
	if rightLength != leftLength {
		return false
	}
	for i := 0; i < rightLength; i++ {
		if !right.ElementsEqual(rightStart+i, left, leftStart+i) {
			return false
		}
	}
	return true
}
