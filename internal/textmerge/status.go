package textmerge

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Code is the outcome of a merge.
type Code int

const (
	CodeOK            Code = iota // The merged text was written completely.
	CodeEncodingError             // An encoding is unsupported, or a line cannot be represented in the output encoding. Nothing is written.
	CodeIOError                   // Reading an input or writing the output failed. The output may be partial.
	CodeConflict                  // Both sides changed the same region differently. The output holds everything before the conflict.
	CodeCanceled                  // The context was canceled before any output was written.
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeEncodingError:
		return "encoding error"
	case CodeIOError:
		return "io error"
	case CodeConflict:
		return "conflict"
	case CodeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Status is the result of a merge. A Status whose Code is not CodeOK is also an error.
type Status struct {
	Code    Code
	Message string
	Err     error // underlying cause, if any
	attrs   []any // slog-style key/value pairs
}

func newStatus(code Code, msg string, err error, attrs ...any) Status {
	return Status{Code: code, Message: msg, Err: err, attrs: attrs}
}

// OK reports whether the merge succeeded.
func (s Status) OK() bool { return s.Code == CodeOK }

// Attrs returns the status's key/value pairs, in slog argument form.
func (s Status) Attrs() []any { return s.attrs }

// Error renders the message, the attributes in slog text form, and the cause. Ex: `unsupported encoding[stream=target encoding=klingon]`.
func (s Status) Error() string {
	var b strings.Builder
	b.WriteString(s.Message)
	if len(s.attrs) > 0 {
		b.WriteString("[")
		writeAttrs(&b, s.attrs)
		b.WriteString("]")
	}
	if s.Err != nil {
		b.WriteString(" via ")
		b.WriteString(s.Err.Error())
	}
	return b.String()
}

func (s Status) Unwrap() error { return s.Err }

// logStatus logs a failed status to logger (if non-nil) and returns it.
func logStatus(logger *slog.Logger, s Status) Status {
	if logger == nil || s.OK() {
		return s
	}
	args := make([]any, 0, len(s.attrs)+4)
	args = append(args, slog.String("code", s.Code.String()))
	args = append(args, s.attrs...)
	if s.Err != nil {
		args = append(args, slog.String("via", s.Err.Error()))
	}
	if s.Code == CodeConflict {
		logger.Info(s.Message, args...)
	} else {
		logger.Error(s.Message, args...)
	}
	return s
}

// writeAttrs writes attrs in the text handler's key=value format. Ex: `num=3 str="hi there"`.
func writeAttrs(b *strings.Builder, attrs []any) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey {
				return slog.Attr{}
			}
			return a
		},
	}
	logger := slog.New(slog.NewTextHandler(trimNewline{b}, opts))
	logger.Log(context.Background(), slog.LevelDebug, "", attrs...)
}

// trimNewline drops the trailing newline the text handler appends to each record.
type trimNewline struct {
	w io.Writer
}

func (t trimNewline) Write(p []byte) (int, error) {
	if len(p) == 0 || p[len(p)-1] != '\n' {
		return t.w.Write(p)
	}
	n, err := t.w.Write(p[:len(p)-1])
	if err != nil {
		return n, err
	}
	return len(p), nil
}
