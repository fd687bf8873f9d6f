package transform

import (
	"context"
	"errors"

	"github.com/geoknoesis/shacl-go/extract"
	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/report"
	"github.com/geoknoesis/shacl-go/shapes"
	"github.com/geoknoesis/shacl-go/tree"
)

// ErrorCode is a stable, programmatic classification of a pipeline error.
type ErrorCode string

const (
	ErrCodeUnsupportedFormat      ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeUnsupportedValueKind   ErrorCode = "UNSUPPORTED_VALUE_KIND"
	ErrCodeMissingRequiredInput   ErrorCode = "MISSING_REQUIRED_INPUT"
	ErrCodeValidatorFailure       ErrorCode = "EXTERNAL_VALIDATOR_FAILURE"
	ErrCodeTransformerUnavailable ErrorCode = "TRANSFORMER_UNAVAILABLE"
	ErrCodeTransformerFailure     ErrorCode = "TRANSFORMER_FAILURE"
	ErrCodeInvalidSchema          ErrorCode = "INVALID_SCHEMA"
	ErrCodeDepthExceeded          ErrorCode = "DEPTH_EXCEEDED"
	ErrCodeLimitExceeded          ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeParseError             ErrorCode = "PARSE_ERROR"
	ErrCodeContextCanceled        ErrorCode = "CONTEXT_CANCELED"
	ErrCodeInternal               ErrorCode = "INTERNAL"
)

var (
	// ErrMissingRequiredInput is returned when a rule-based path receives
	// input it cannot work from, e.g. free text without a transformer.
	ErrMissingRequiredInput = errors.New("missing required input")
	// ErrTransformerUnavailable is returned for intelligent operations when
	// no Transformer is configured.
	ErrTransformerUnavailable = errors.New("intelligent transformer unavailable")
	// ErrTransformerFailure wraps transformer errors and unusable output.
	ErrTransformerFailure = errors.New("intelligent transformer failed")
	// ErrMalformedInput wraps decoding failures of tree documents.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInputTooLarge is returned when an input exceeds the byte limit.
	ErrInputTooLarge = errors.New("input exceeds size limit")
)

// Code returns the error code for err. It returns "" for nil.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var parseErr *rdf.ParseError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeContextCanceled
	case errors.Is(err, format.ErrUnsupportedFormat),
		errors.Is(err, rdf.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrUnsupported):
		return ErrCodeUnsupportedFormat
	case errors.Is(err, tree.ErrUnsupportedValueKind):
		return ErrCodeUnsupportedValueKind
	case errors.Is(err, ErrMissingRequiredInput):
		return ErrCodeMissingRequiredInput
	case errors.Is(err, report.ErrValidatorFailure):
		return ErrCodeValidatorFailure
	case errors.Is(err, ErrTransformerUnavailable):
		return ErrCodeTransformerUnavailable
	case errors.Is(err, ErrTransformerFailure):
		return ErrCodeTransformerFailure
	case errors.Is(err, shapes.ErrInvalidSchema):
		return ErrCodeInvalidSchema
	case errors.Is(err, tree.ErrDepthExceeded), errors.Is(err, tree.ErrTooDeep),
		errors.Is(err, rdf.ErrDepthExceeded):
		return ErrCodeDepthExceeded
	case errors.Is(err, ErrInputTooLarge), errors.Is(err, extract.ErrTooLarge),
		errors.Is(err, rdf.ErrTripleLimitExceeded), errors.Is(err, rdf.ErrLineTooLong):
		return ErrCodeLimitExceeded
	case errors.Is(err, ErrMalformedInput), errors.As(err, &parseErr):
		return ErrCodeParseError
	}
	return ErrCodeInternal
}
