// Package tokencmp splits a single line into tokens (maximal runs of same-category characters) and compares token sequences, for word-level intra-line diffs.
//
// Classification is per grapheme cluster, by the cluster's first rune, so a cluster is never split across tokens.
package tokencmp

import (
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/codalotl/rangediff/internal/rangediff"
)

// Category is the character class of a token.
type Category int

const (
	Whitespace Category = iota
	Digit
	Letter
	Quote
	Other
)

func (c Category) String() string {
	switch c {
	case Whitespace:
		return "whitespace"
	case Digit:
		return "digit"
	case Letter:
		return "letter"
	case Quote:
		return "quote"
	default:
		return "other"
	}
}

// Classify returns the category of r.
func Classify(r rune) Category {
	switch {
	case unicode.IsSpace(r):
		return Whitespace
	case unicode.IsDigit(r):
		return Digit
	case unicode.IsLetter(r):
		return Letter
	case r == '"' || r == '\'':
		return Quote
	default:
		return Other
	}
}

// Token is a maximal run of same-category characters. Start and Length are byte offsets into the line.
type Token struct {
	Category Category
	Start    int
	Length   int
}

// End returns the byte offset just past the token.
func (t Token) End() int { return t.Start + t.Length }

// Tokenize splits line into tokens. The tokens partition line exactly: the first starts at 0, each starts where the previous ends, and the last ends at len(line).
func Tokenize(line string) []Token {
	var tokens []Token
	iter := graphemes.FromString(line)
	for iter.Next() {
		r, _ := utf8.DecodeRuneInString(iter.Value())
		cat := Classify(r)
		if n := len(tokens); n > 0 && tokens[n-1].Category == cat {
			tokens[n-1].Length = iter.End() - tokens[n-1].Start
			continue
		}
		tokens = append(tokens, Token{Category: cat, Start: iter.Start(), Length: iter.End() - iter.Start()})
	}
	return tokens
}

// SkipPolicy decides when two lines are too large and too different to diff token by token. Two lines are skipped when both have more than MinTokens tokens, the longer line has
// more than MinLongerChars characters, and the shorter line has fewer than (1 - Tolerance) of the longer line's characters.
//
// The zero SkipPolicy never skips.
type SkipPolicy struct {
	MinTokens      int
	MinLongerChars int
	Tolerance      float64
}

// DefaultSkipPolicy is the policy used by New.
var DefaultSkipPolicy = SkipPolicy{MinTokens: 50, MinLongerChars: 800, Tolerance: 0.25}

// Skip reports whether lines a and b should be compared as a whole.
func (p SkipPolicy) Skip(a, b *Comparator) bool {
	if p == (SkipPolicy{}) {
		return false
	}
	if len(a.tokens) <= p.MinTokens || len(b.tokens) <= p.MinTokens {
		return false
	}
	shorter, longer := min(a.chars, b.chars), max(a.chars, b.chars)
	if longer <= p.MinLongerChars {
		return false
	}
	return float64(shorter) < float64(longer)*(1-p.Tolerance)
}

// Comparator is a rangediff.Comparator over the tokens of one line. Tokens are equal when their text is equal.
type Comparator struct {
	text   string
	tokens []Token
	chars  int
	policy SkipPolicy
}

var _ rangediff.Comparator = (*Comparator)(nil)

// New tokenizes line with DefaultSkipPolicy.
func New(line string) *Comparator {
	return NewWithPolicy(line, DefaultSkipPolicy)
}

// NewWithPolicy tokenizes line with the given skip policy.
func NewWithPolicy(line string, policy SkipPolicy) *Comparator {
	return &Comparator{
		text:   line,
		tokens: Tokenize(line),
		chars:  utf8.RuneCountInString(line),
		policy: policy,
	}
}

// Text returns the line.
func (c *Comparator) Text() string { return c.text }

// Tokens returns the tokens of the line. The caller must not modify the slice.
func (c *Comparator) Tokens() []Token { return c.tokens }

// TokenText returns the text of token i.
func (c *Comparator) TokenText(i int) string {
	t := c.tokens[i]
	return c.text[t.Start:t.End()]
}

// TokenStart returns the byte offset of token i. An index at or past the last token maps to len(line), so a range end can be converted with TokenStart as well.
func (c *Comparator) TokenStart(i int) int {
	if i >= len(c.tokens) {
		return len(c.text)
	}
	return c.tokens[i].Start
}

// TokenLength returns the byte length of token i, or 0 when i is past the last token.
func (c *Comparator) TokenLength(i int) int {
	if i >= len(c.tokens) {
		return 0
	}
	return c.tokens[i].Length
}

// Span returns the text covered by tokens [start, start+length).
func (c *Comparator) Span(start, length int) string {
	return c.text[c.TokenStart(start):c.TokenStart(start+length)]
}

func (c *Comparator) Len() int { return len(c.tokens) }

func (c *Comparator) ElementsEqual(i int, other rangediff.Comparator, j int) bool {
	o, ok := other.(*Comparator)
	if !ok {
		return false
	}
	return c.tokens[i].Length == o.tokens[j].Length && c.TokenText(i) == o.TokenText(j)
}

// ShouldSkipDetailedComparison ignores the sub-problem sizes: the decision depends only on the two whole lines.
func (c *Comparator) ShouldSkipDetailedComparison(combinedLength, maxLength int, other rangediff.Comparator) bool {
	o, ok := other.(*Comparator)
	if !ok {
		return false
	}
	return c.policy.Skip(c, o)
}
