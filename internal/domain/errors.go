package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline errors by the stage that produced them.
type ErrorKind string

const (
	KindExtraction    ErrorKind = "extraction"
	KindCaption       ErrorKind = "caption"
	KindSummarization ErrorKind = "summarization"
	KindRender        ErrorKind = "render"
	KindBuild         ErrorKind = "build"
	KindConfig        ErrorKind = "config"
	KindAPI           ErrorKind = "api"
)

// PipelineError carries the error kind alongside the message so callers can
// decide between fatal-for-document and drop-the-unit handling.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error.
func NewError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ExtractionError(message string, err error) *PipelineError {
	return NewError(KindExtraction, message, err)
}

func CaptionError(message string, err error) *PipelineError {
	return NewError(KindCaption, message, err)
}

func SummarizationError(message string, err error) *PipelineError {
	return NewError(KindSummarization, message, err)
}

func RenderError(message string, err error) *PipelineError {
	return NewError(KindRender, message, err)
}

func BuildError(message string, err error) *PipelineError {
	return NewError(KindBuild, message, err)
}

func ConfigError(message string, err error) *PipelineError {
	return NewError(KindConfig, message, err)
}

func APIError(message string, err error) *PipelineError {
	return NewError(KindAPI, message, err)
}

// IsKind reports whether err is (or wraps) a PipelineError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
