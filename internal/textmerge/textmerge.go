// Package textmerge merges a target and an "other" version of a text against their common ancestor, writing the merged text to an output stream.
//
// Unchanged regions, regions changed only by other, and regions changed identically by both are taken from other; regions changed only by target are taken from target. The
// merge stops at the first conflict: the output then holds exactly the text merged before it.
//
// Every emitted line ends with the merger's line separator, regardless of the input's terminators.
package textmerge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/codalotl/rangediff/internal/linecmp"
	"github.com/codalotl/rangediff/internal/rangediff"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultLineSeparator ends every emitted line unless Merger.LineSeparator is set.
const DefaultLineSeparator = "\n"

// Merger merges texts line by line. The zero value is ready to use.
type Merger struct {
	LineSeparator string                // "" means DefaultLineSeparator.
	Options       *linecmp.Options      // Line comparison options; nil means linecmp.DefaultOptions.
	Differencer   rangediff.Differencer // Limits of the underlying comparison.
	Logger        *slog.Logger          // Receives failures and a debug record per merge; may be nil.
}

// LookupEncoding returns the encoding with the given IANA or WHATWG name. The empty name means UTF-8, for which nil is returned (bytes pass through unchanged).
func LookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

type stream struct {
	name     string
	encoding string
	enc      encoding.Encoding
}

// Merge reads ancestor, target, and other (each decoded with its own encoding) and writes their merge to out in outEncoding. Encoding names are IANA or WHATWG names; "" means
// UTF-8.
//
// All encodings are resolved before anything is read or written. Each input is consumed once, front to back.
func (m *Merger) Merge(ctx context.Context, out io.Writer, outEncoding string, ancestor io.Reader, ancestorEncoding string, target io.Reader, targetEncoding string, other io.Reader,
	otherEncoding string) Status {

	streams := []*stream{
		{name: "output", encoding: outEncoding},
		{name: "ancestor", encoding: ancestorEncoding},
		{name: "target", encoding: targetEncoding},
		{name: "other", encoding: otherEncoding},
	}
	for _, s := range streams {
		enc, err := LookupEncoding(s.encoding)
		if err != nil {
			return logStatus(m.Logger, newStatus(CodeEncodingError, "unsupported encoding", err, "stream", s.name, "encoding", s.encoding))
		}
		s.enc = enc
	}

	var comparators [3]*linecmp.Comparator
	for i, r := range []io.Reader{ancestor, target, other} {
		if err := ctx.Err(); err != nil {
			return logStatus(m.Logger, newStatus(CodeCanceled, "merge canceled", err))
		}
		c, err := linecmp.Read(r, streams[i+1].enc, m.Options)
		if err != nil {
			return logStatus(m.Logger, newStatus(CodeIOError, "cannot read input", err, "stream", streams[i+1].name))
		}
		comparators[i] = c
	}
	anc, tgt, oth := comparators[0], comparators[1], comparators[2]

	ranges, err := m.Differencer.FindRanges3(ctx, anc, tgt, oth)
	if err != nil {
		return logStatus(m.Logger, newStatus(CodeCanceled, "merge canceled", err))
	}

	w := newLineWriter(out, streams[0].enc)
	status := m.emit(ctx, w, ranges, tgt, oth)
	if err := w.flush(); err != nil && status.OK() {
		status = newStatus(CodeIOError, "cannot write output", err)
	}
	if status.OK() && m.Logger != nil {
		m.Logger.Debug("merged", "ranges", len(ranges), "ancestor_lines", anc.Len(), "target_lines", tgt.Len(), "other_lines", oth.Len())
	}
	return logStatus(m.Logger, status)
}

// emit writes the merged lines for ranges, stopping at the first conflict. Every line is checked against the output encoding before the first one is written, so an
// encoding failure leaves the output empty.
func (m *Merger) emit(ctx context.Context, w *lineWriter, ranges []rangediff.RangeDifference, target, other *linecmp.Comparator) Status {
	lines, stop := m.plan(ctx, ranges, target, other)
	if stop.Code == CodeCanceled {
		return stop
	}
	for n, line := range lines {
		if err := w.check(line); err != nil {
			return newStatus(CodeEncodingError, "cannot encode line", err, "line", n+1)
		}
	}
	for _, line := range lines {
		if err := w.writeLine(line); err != nil {
			return newStatus(CodeIOError, "cannot write output", err)
		}
	}
	return stop
}

// plan returns the terminated output lines for ranges up to the first conflict, and the status the merge ends with: OK, a conflict, or cancellation.
func (m *Merger) plan(ctx context.Context, ranges []rangediff.RangeDifference, target, other *linecmp.Comparator) ([]string, Status) {
	sep := m.LineSeparator
	if sep == "" {
		sep = DefaultLineSeparator
	}

	var lines []string
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, newStatus(CodeCanceled, "merge canceled", err)
		}

		var src *linecmp.Comparator
		var start, length int
		switch r.Kind {
		case rangediff.NoChange, rangediff.RightOnly, rangediff.AncestorOnly:
			src, start, length = other, r.RightStart, r.RightLength
		case rangediff.LeftOnly:
			src, start, length = target, r.LeftStart, r.LeftLength
		case rangediff.Conflict:
			return lines, newStatus(CodeConflict, "merge conflict", nil, "ancestor_line", r.AncestorStart+1, "target_line", r.LeftStart+1, "other_line", r.RightStart+1)
		default:
			panic(fmt.Errorf("textmerge: unexpected %v range in three-way result", r.Kind))
		}

		for i := start; i < start+length; i++ {
			lines = append(lines, src.Line(i)+sep)
		}
	}
	return lines, newStatus(CodeOK, "", nil)
}

// MergeFiles is Merge over files. The output file is created (or truncated). On a conflict or a write failure it is left with partial content; on an encoding failure
// it is left empty.
func (m *Merger) MergeFiles(ctx context.Context, outPath, outEncoding, ancestorPath, ancestorEncoding, targetPath, targetEncoding, otherPath, otherEncoding string) (status Status) {
	for _, name := range []string{outEncoding, ancestorEncoding, targetEncoding, otherEncoding} {
		if _, err := LookupEncoding(name); err != nil {
			return logStatus(m.Logger, newStatus(CodeEncodingError, "unsupported encoding", err, "encoding", name))
		}
	}

	var inputs [3]*os.File
	for i, path := range []string{ancestorPath, targetPath, otherPath} {
		f, err := os.Open(path)
		if err != nil {
			return logStatus(m.Logger, newStatus(CodeIOError, "cannot open input", err, "path", path))
		}
		defer f.Close()
		inputs[i] = f
	}

	out, err := os.Create(outPath)
	if err != nil {
		return logStatus(m.Logger, newStatus(CodeIOError, "cannot create output", err, "path", outPath))
	}
	defer func() {
		if err := out.Close(); err != nil && status.OK() {
			status = logStatus(m.Logger, newStatus(CodeIOError, "cannot close output", err, "path", outPath))
		}
	}()

	return m.Merge(ctx, out, outEncoding, inputs[0], ancestorEncoding, inputs[1], targetEncoding, inputs[2], otherEncoding)
}

// lineWriter buffers output lines, encoding them when an output encoding is set.
type lineWriter struct {
	buf     *bufio.Writer
	w       io.Writer
	checker *encoding.Encoder // per-line representability check
	encoder *transform.Writer
}

func newLineWriter(out io.Writer, enc encoding.Encoding) *lineWriter {
	buf := bufio.NewWriter(out)
	lw := &lineWriter{buf: buf, w: buf}
	if enc != nil {
		lw.checker = enc.NewEncoder()
		lw.encoder = transform.NewWriter(buf, enc.NewEncoder())
		lw.w = lw.encoder
	}
	return lw
}

// check reports whether line can be represented in the output encoding.
func (lw *lineWriter) check(line string) error {
	if lw.checker == nil {
		return nil
	}
	_, err := lw.checker.String(line)
	return err
}

func (lw *lineWriter) writeLine(line string) error {
	_, err := io.WriteString(lw.w, line)
	return err
}

func (lw *lineWriter) flush() error {
	var errs []error
	if lw.encoder != nil {
		errs = append(errs, lw.encoder.Close())
	}
	errs = append(errs, lw.buf.Flush())
	return errors.Join(errs...)
}
