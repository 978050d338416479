package rangediff

import "context"

// lcs finds a longest common subsequence of left and right with Myers' linear-space bisection. Sub-problems are kept on an explicit work list, so deep inputs never grow the
// goroutine stack.
//
// When limit > 0, no bisection explores more than limit edits. A bisection that hits the limit splits at the point that made the most progress instead of the true middle, which
// keeps the result a valid (possibly non-minimal) common subsequence.
type lcs struct {
	left  Comparator
	right Comparator
	limit int

	match []int // match[i] is the right index matched with left index i, or -1.

	skipped  int  // sub-problems left unmatched because the comparator asked to skip them
	fellBack bool // at least one bisection hit the limit

	v1 []int
	v2 []int
}

// span is a half-open sub-problem: left[l0:l1] against right[r0:r1].
type span struct {
	l0, l1 int
	r0, r1 int
}

func newLCS(left, right Comparator, limit int) *lcs {
	match := make([]int, left.Len())
	for i := range match {
		match[i] = -1
	}
	return &lcs{left: left, right: right, limit: limit, match: match}
}

func (l *lcs) run(ctx context.Context) error {
	work := []span{{0, l.left.Len(), 0, l.right.Len()}}
	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		s := l.trim(work[len(work)-1])
		work = work[:len(work)-1]
		if s.l0 == s.l1 || s.r0 == s.r1 {
			continue
		}

		n, m := s.l1-s.l0, s.r1-s.r0
		if l.left.ShouldSkipDetailedComparison(n+m, max(n, m), l.right) {
			l.skipped++
			continue
		}

		x, y, ok, err := l.bisect(ctx, s)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		work = append(work, span{s.l0 + x, s.l1, s.r0 + y, s.r1}, span{s.l0, s.l0 + x, s.r0, s.r0 + y})
	}
	return nil
}

// trim matches the common prefix and suffix of s and returns what remains.
func (l *lcs) trim(s span) span {
	for s.l0 < s.l1 && s.r0 < s.r1 && l.left.ElementsEqual(s.l0, l.right, s.r0) {
		l.match[s.l0] = s.r0
		s.l0++
		s.r0++
	}
	for s.l0 < s.l1 && s.r0 < s.r1 && l.left.ElementsEqual(s.l1-1, l.right, s.r1-1) {
		s.l1--
		s.r1--
		l.match[s.l1] = s.r1
	}
	return s
}

// bisect finds a split point (x, y), relative to s, that lies on a shortest edit path through s. s must be trimmed and non-empty on both sides. ok is false when s has no
// common element (or no useful split point could be found), in which case s stays unmatched.
func (l *lcs) bisect(ctx context.Context, s span) (x, y int, ok bool, err error) {
	n, m := s.l1-s.l0, s.r1-s.r0
	limit := (n + m + 1) / 2
	capped := false
	if l.limit > 0 && l.limit < limit {
		limit = l.limit
		capped = true
	}

	offset := limit
	size := 2*limit + 2
	v1 := resetBuffer(&l.v1, size)
	v2 := resetBuffer(&l.v2, size)
	v1[offset+1] = 0
	v2[offset+1] = 0

	delta := n - m
	front := delta%2 != 0
	var k1start, k1end, k2start, k2end int
	var best furthest

	eq := func(i, j int) bool {
		return l.left.ElementsEqual(s.l0+i, l.right, s.r0+j)
	}

	for d := 0; d < limit; d++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, false, err
		}

		// Forward path.
		for k1 := -d + k1start; k1 <= d-k1end; k1 += 2 {
			k1Offset := offset + k1
			var x1 int
			if k1 == -d || (k1 != d && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < n && y1 < m && eq(x1, y1) {
				x1++
				y1++
			}
			v1[k1Offset] = x1

			switch {
			case x1 > n:
				k1end += 2
			case y1 > m:
				k1start += 2
			default:
				best.update(x1, y1, x1+y1, false)
				if front {
					k2Offset := offset + delta - k1
					if k2Offset >= 0 && k2Offset < size && v2[k2Offset] != -1 && x1 >= n-v2[k2Offset] {
						return splitPoint(x1, y1, n, m)
					}
				}
			}
		}

		// Reverse path.
		for k2 := -d + k2start; k2 <= d-k2end; k2 += 2 {
			k2Offset := offset + k2
			var x2 int
			if k2 == -d || (k2 != d && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < n && y2 < m && eq(n-x2-1, m-y2-1) {
				x2++
				y2++
			}
			v2[k2Offset] = x2

			switch {
			case x2 > n:
				k2end += 2
			case y2 > m:
				k2start += 2
			default:
				best.update(n-x2, m-y2, x2+y2, true)
				if !front {
					k1 := delta - k2
					k1Offset := offset + k1
					if k1Offset >= 0 && k1Offset < size && v1[k1Offset] != -1 {
						x1 := v1[k1Offset]
						if x1 >= n-x2 {
							return splitPoint(x1, x1-k1, n, m)
						}
					}
				}
			}
		}
	}

	if !capped {
		// Exhausting the full search means nothing in s matches.
		return 0, 0, false, nil
	}
	l.fellBack = true
	return splitPoint(best.x, best.y, n, m)
}

// splitPoint rejects split points that would not shrink the sub-problem.
func splitPoint(x, y, n, m int) (int, int, bool, error) {
	if (x <= 0 && y <= 0) || (x >= n && y >= m) || x < 0 || y < 0 || x > n || y > m {
		return 0, 0, false, nil
	}
	return x, y, true, nil
}

// furthest tracks the point that made the most progress from either end of a sub-problem. Ties go to the forward path.
type furthest struct {
	x, y     int
	progress int
	reverse  bool
}

func (f *furthest) update(x, y, progress int, reverse bool) {
	if progress > f.progress || (progress == f.progress && f.reverse && !reverse) {
		*f = furthest{x: x, y: y, progress: progress, reverse: reverse}
	}
}

func resetBuffer(buf *[]int, size int) []int {
	if cap(*buf) < size {
		*buf = make([]int, size)
	}
	v := (*buf)[:size]
	for i := range v {
		v[i] = -1
	}
	return v
}

// differences turns the match table into ordered Change ranges. Adjacent unmatched elements on either side form a single range.
func (l *lcs) differences() []RangeDifference {
	var out []RangeDifference
	n, m := l.left.Len(), l.right.Len()
	i, j := 0, 0
	for i < n || j < m {
		if i < n && l.match[i] == j {
			i++
			j++
			continue
		}
		ni := i
		for ni < n && l.match[ni] < 0 {
			ni++
		}
		nj := m
		if ni < n {
			nj = l.match[ni]
		}
		out = append(out, RangeDifference{
			Kind:        Change,
			LeftStart:   i,
			LeftLength:  ni - i,
			RightStart:  j,
			RightLength: nj - j,
		})
		i, j = ni, nj
	}
	return out
}

// length returns the number of matched pairs.
func (l *lcs) length() int {
	var c int
	for _, j := range l.match {
		if j >= 0 {
			c++
		}
	}
	return c
}
