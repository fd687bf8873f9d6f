package rdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a stable, programmatic classification of an rdf error.
type ErrorCode string

const (
	// ErrCodeUnsupportedFormat indicates an unsupported format.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeLineTooLong indicates a line exceeded the configured limit.
	ErrCodeLineTooLong ErrorCode = "LINE_TOO_LONG"
	// ErrCodeDepthExceeded indicates nesting exceeded the configured limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
	// ErrCodeTripleLimitExceeded indicates the triple limit was exceeded.
	ErrCodeTripleLimitExceeded ErrorCode = "TRIPLE_LIMIT_EXCEEDED"
	// ErrCodeParseError indicates malformed input.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"
	// ErrCodeSerializeError indicates a graph could not be written.
	ErrCodeSerializeError ErrorCode = "SERIALIZE_ERROR"
	// ErrCodeContextCanceled indicates the context was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
)

var (
	// ErrUnsupportedFormat indicates an unsupported format.
	ErrUnsupportedFormat = errors.New("unsupported RDF format")
	// ErrLineTooLong indicates a line exceeded the configured limit.
	ErrLineTooLong = errors.New("rdf: line exceeds configured limit")
	// ErrDepthExceeded indicates nesting exceeded the configured limit.
	ErrDepthExceeded = errors.New("rdf: nesting depth exceeded configured limit")
	// ErrTripleLimitExceeded indicates the triple limit was exceeded.
	ErrTripleLimitExceeded = errors.New("rdf: maximum number of triples exceeded")
	// ErrSerialize wraps encoder failures.
	ErrSerialize = errors.New("rdf: serialization failed")
)

// Code returns the error code for err. It returns "" for nil.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, ErrLineTooLong):
		return ErrCodeLineTooLong
	case errors.Is(err, ErrDepthExceeded):
		return ErrCodeDepthExceeded
	case errors.Is(err, ErrTripleLimitExceeded):
		return ErrCodeTripleLimitExceeded
	case errors.Is(err, ErrSerialize):
		return ErrCodeSerializeError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	}
	return ErrCodeParseError
}

// ParseError carries position information for a parse failure.
type ParseError struct {
	Format    string // format name, e.g. "turtle"
	Statement string // offending input line, if known
	Line      int    // 1-based line number (0 if unknown)
	Column    int    // 1-based column number (0 if unknown)
	Offset    int    // byte offset in input (-1 if unknown)
	Err       error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)
	switch {
	case e.Line > 0 && e.Column > 0:
		fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
	case e.Line > 0:
		fmt.Fprintf(&msg, ":%d", e.Line)
	case e.Offset >= 0:
		fmt.Fprintf(&msg, " (offset %d)", e.Offset)
	}
	msg.WriteString(": ")
	if e.Err != nil {
		msg.WriteString(e.Err.Error())
	}
	if excerpt := e.excerpt(); excerpt != "" {
		msg.WriteString("\n  ")
		msg.WriteString(excerpt)
	}
	return msg.String()
}

// excerpt returns up to 40 bytes either side of the column with a caret line.
func (e *ParseError) excerpt() string {
	if e.Statement == "" {
		return ""
	}
	const window = 40
	if e.Column <= 0 {
		if len(e.Statement) > 2*window {
			return e.Statement[:2*window] + "..."
		}
		return e.Statement
	}
	pos := min(e.Column-1, len(e.Statement))
	start := max(pos-window, 0)
	end := min(pos+window, len(e.Statement))
	text := e.Statement[start:end]
	caret := pos - start
	if start > 0 {
		text = "..." + text
		caret += 3
	}
	if end < len(e.Statement) {
		text += "..."
	}
	return text + "\n  " + strings.Repeat(" ", caret) + "^"
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(format string, line, column int, statement string, err error) error {
	return &ParseError{
		Format:    format,
		Statement: statement,
		Line:      line,
		Column:    column,
		Offset:    -1,
		Err:       err,
	}
}
