// Package linecmp provides a rangediff.Comparator over the lines of a document.
//
// Lines are split the way a line reader splits them: "\n", "\r\n", and "\r" each end a line, and a terminator at the very end of the text does not start an extra empty line.
// By default line terminators are not part of a line's identity, so "a\n" and "a\r\n" compare equal.
package linecmp

import (
	"io"
	"strings"
	"unicode"

	"github.com/codalotl/rangediff/internal/rangediff"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Options controls line comparison. A nil *Options means DefaultOptions.
type Options struct {
	// IgnoreWhitespace compares lines with all whitespace removed. Comparing two Comparators ignores whitespace if either of them has this set.
	IgnoreWhitespace bool

	// StrictEOL makes the line terminator part of the line's identity.
	StrictEOL bool

	// Skip decides when a sub-problem is compared coarsely. The zero value never skips.
	Skip rangediff.SkipPolicy
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{Skip: rangediff.DefaultSkipPolicy}
}

// Comparator is a rangediff.Comparator over lines.
type Comparator struct {
	raw      []string // lines including their terminator
	stripped []string // whitespace-free lines; only set when IgnoreWhitespace
	opts     Options
}

var _ rangediff.Comparator = (*Comparator)(nil)

// New returns a Comparator over lines. Each element may end with a line terminator.
func New(lines []string, opts *Options) *Comparator {
	if opts == nil {
		opts = DefaultOptions()
	}
	c := &Comparator{raw: lines, opts: *opts}
	if opts.IgnoreWhitespace {
		c.stripped = make([]string, len(lines))
		for i := range lines {
			c.stripped[i] = stripWhitespace(lines[i])
		}
	}
	return c
}

// FromString splits text into lines and returns a Comparator over them.
func FromString(text string, opts *Options) *Comparator {
	return New(Split(text), opts)
}

// Read reads all of r, decoding it with enc (nil means the bytes are used as is), and returns a Comparator over its lines.
func Read(r io.Reader, enc encoding.Encoding, opts *Options) (*Comparator, error) {
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromString(string(b), opts), nil
}

// Split splits text into lines, keeping each line's terminator.
func Split(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexAny(text, "\r\n")
		if i < 0 {
			lines = append(lines, text)
			break
		}
		end := i + 1
		if text[i] == '\r' && end < len(text) && text[end] == '\n' {
			end++
		}
		lines = append(lines, text[:end])
		text = text[end:]
	}
	return lines
}

// TrimEOL returns line without its terminator, and the terminator.
func TrimEOL(line string) (string, string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"), strings.HasSuffix(line, "\r"):
		return line[:len(line)-1], line[len(line)-1:]
	default:
		return line, ""
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Line returns line i without its terminator.
func (c *Comparator) Line(i int) string {
	line, _ := TrimEOL(c.raw[i])
	return line
}

// RawLine returns line i including its terminator, if any.
func (c *Comparator) RawLine(i int) string { return c.raw[i] }

// RawLines returns all lines including terminators. The caller must not modify the slice.
func (c *Comparator) RawLines() []string { return c.raw }

// Text returns lines [start, start+length) concatenated with their terminators.
func (c *Comparator) Text(start, length int) string {
	return strings.Join(c.raw[start:start+length], "")
}

func (c *Comparator) strippedLine(i int) string {
	if c.stripped != nil {
		return c.stripped[i]
	}
	return stripWhitespace(c.raw[i])
}

func (c *Comparator) Len() int { return len(c.raw) }

func (c *Comparator) ElementsEqual(i int, other rangediff.Comparator, j int) bool {
	o, ok := other.(*Comparator)
	if !ok {
		return false
	}
	switch {
	case c.opts.IgnoreWhitespace || o.opts.IgnoreWhitespace:
		return c.strippedLine(i) == o.strippedLine(j)
	case c.opts.StrictEOL || o.opts.StrictEOL:
		return c.raw[i] == o.raw[j]
	default:
		return c.Line(i) == o.Line(j)
	}
}

func (c *Comparator) ShouldSkipDetailedComparison(combinedLength, maxLength int, other rangediff.Comparator) bool {
	return c.opts.Skip.SkipCombined(combinedLength, maxLength)
}
