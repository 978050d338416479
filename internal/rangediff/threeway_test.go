package rangediff

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRanges3(t *testing.T) {
	tests := []struct {
		name     string
		ancestor string
		left     string
		right    string
		want     []RangeDifference
	}{
		{
			name:     "left only",
			ancestor: "abc", left: "aXc", right: "abc",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(LeftOnly, 1, 1, 1, 1, 1, 1),
				three(NoChange, 2, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "right only",
			ancestor: "abc", left: "abc", right: "aYc",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(RightOnly, 1, 1, 1, 1, 1, 1),
				three(NoChange, 2, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "same change on both sides",
			ancestor: "abc", left: "aZc", right: "aZc",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(AncestorOnly, 1, 1, 1, 1, 1, 1),
				three(NoChange, 2, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "conflict",
			ancestor: "abc", left: "aXc", right: "aYc",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(Conflict, 1, 1, 1, 1, 1, 1),
				three(NoChange, 2, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "touching changes are combined",
			ancestor: "abcd", left: "aXcd", right: "abYd",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(Conflict, 1, 2, 1, 2, 1, 2),
				three(NoChange, 3, 1, 3, 1, 3, 1),
			},
		},
		{
			name:     "insertions at the same point",
			ancestor: "ab", left: "aXb", right: "aYb",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(Conflict, 1, 0, 1, 1, 1, 1),
				three(NoChange, 1, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "same insertion at the same point",
			ancestor: "ab", left: "aXb", right: "aXb",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(AncestorOnly, 1, 0, 1, 1, 1, 1),
				three(NoChange, 1, 1, 2, 1, 2, 1),
			},
		},
		{
			name:     "independent changes",
			ancestor: "abcde", left: "Xbcde", right: "abcdY",
			want: []RangeDifference{
				three(LeftOnly, 0, 1, 0, 1, 0, 1),
				three(NoChange, 1, 3, 1, 3, 1, 3),
				three(RightOnly, 4, 1, 4, 1, 4, 1),
			},
		},
		{
			name:     "right deletes left edits elsewhere",
			ancestor: "abcdef", left: "abcdeX", right: "adef",
			want: []RangeDifference{
				three(NoChange, 0, 1, 0, 1, 0, 1),
				three(RightOnly, 1, 2, 1, 2, 1, 0),
				three(NoChange, 3, 2, 3, 2, 1, 2),
				three(LeftOnly, 5, 1, 5, 1, 3, 1),
			},
		},
		{
			name:     "all empty",
			ancestor: "", left: "", right: "",
			want:     []RangeDifference{three(NoChange, 0, 0, 0, 0, 0, 0)},
		},
		{
			name:     "empty ancestor",
			ancestor: "", left: "ab", right: "ab",
			want:     []RangeDifference{three(AncestorOnly, 0, 0, 0, 2, 0, 2)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindRanges3(split(tt.ancestor), split(tt.left), split(tt.right))
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("FindRanges3(%q, %q, %q) mismatch (-want +got):\n%s", tt.ancestor, tt.left, tt.right, d)
			}
		})
	}
}

func TestFindRanges3_NilAncestor(t *testing.T) {
	got := FindRanges3(nil, split("abc"), split("aXc"))
	want := FindRanges(split("abc"), split("aXc"))
	assert.Equal(t, want, got)
	assert.Equal(t, Change, got[1].Kind)
}

func TestFindDifferences3_OnlyChanges(t *testing.T) {
	got, err := Differencer{}.FindDifferences3(context.Background(), split("abcde"), split("Xbcde"), split("abcdY"))
	require.NoError(t, err)
	assert.Equal(t, []RangeDifference{
		three(LeftOnly, 0, 1, 0, 1, 0, 1),
		three(RightOnly, 4, 1, 4, 1, 4, 1),
	}, got)
}

// blockScenario builds 5000 ancestor lines. Left inserts "outgoing" after every line i with i%10==1 and "conflict1" after i%10==4. Right inserts "conflict2" after i%10==4 and
// "incoming" after i%10==7.
func blockScenario() (ancestor, left, right strs) {
	for i := 0; i < 5000; i++ {
		line := fmt.Sprintf("line %d", i)
		ancestor = append(ancestor, line)
		left = append(left, line)
		right = append(right, line)
		switch i % 10 {
		case 1:
			left = append(left, "outgoing")
		case 4:
			left = append(left, "conflict1")
			right = append(right, "conflict2")
		case 7:
			right = append(right, "incoming")
		}
	}
	return ancestor, left, right
}

func TestFindRanges3_BlockScenario(t *testing.T) {
	ancestor, left, right := blockScenario()
	require.True(t, Differencer{}.IsCapped(ancestor, left, right))

	got := FindRanges3(ancestor, left, right)
	require.Len(t, got, 500*6+1)

	cycle := []Kind{NoChange, LeftOnly, NoChange, Conflict, NoChange, RightOnly}
	for i, r := range got[:len(got)-1] {
		require.Equal(t, cycle[i%6], r.Kind, "range %d: %v", i, r)
	}
	assert.Equal(t, three(NoChange, 4998, 2, 5998, 2, 5998, 2), got[len(got)-1])

	// First block, fully spelled out.
	want := []RangeDifference{
		three(NoChange, 0, 2, 0, 2, 0, 2),
		three(LeftOnly, 2, 0, 2, 1, 2, 0),
		three(NoChange, 2, 3, 3, 3, 2, 3),
		three(Conflict, 5, 0, 6, 1, 5, 1),
		three(NoChange, 5, 3, 7, 3, 6, 3),
		three(RightOnly, 8, 0, 10, 0, 9, 1),
	}
	if d := cmp.Diff(want, got[:6]); d != "" {
		t.Errorf("first block mismatch (-want +got):\n%s", d)
	}
}

func TestFindRanges3_Canceled(t *testing.T) {
	ancestor, left, right := blockScenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ranges, err := Differencer{}.FindRanges3(ctx, ancestor, left, right)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Nil(t, ranges)
}
