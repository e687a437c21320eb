package printing

import (
	"context"
	"errors"
	"strings"

	"github.com/printapi/backend/internal/domain/printing"
)

// RenderJob describes one renderer invocation.
type RenderJob struct {
	// Source is the URL or raw HTML to render
	Source printing.ContentIdentity
	// Args are the validated option arguments
	Args []string
	// Output is the PDF destination path
	Output string
}

// PDFRenderer defines the interface for rendering a content identity to PDF
type PDFRenderer interface {
	// Render writes the PDF to job.Output. Success means the process exited 0.
	Render(ctx context.Context, job *RenderJob) error
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error while preparing or running the renderer
type RenderError struct {
	Code    string
	Message string
	Cause   error
	// ExitCode is the renderer exit status, -1 when it did not exit normally
	ExitCode int
	// Output is the combined stdout and stderr of the renderer
	Output string
	// Command is the exact argument vector, binary first
	Command []string
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// CommandLine joins Command for display. It is not meant to be run by a shell.
func (e *RenderError) CommandLine() string {
	return strings.Join(e.Command, " ")
}

// IsConfiguration reports whether the error comes from the server setup
// rather than from the renderer run.
func (e *RenderError) IsConfiguration() bool {
	switch e.Code {
	case ErrCodeBinaryNotFound, ErrCodeScratchUnavailable, ErrCodeStorageFailed:
		return true
	}
	return false
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout      = "RENDER_TIMEOUT"
	ErrCodeRenderFailed       = "RENDER_FAILED"
	ErrCodeInvalidJob         = "INVALID_JOB"
	ErrCodeBinaryNotFound     = "BINARY_NOT_FOUND"
	ErrCodeScratchUnavailable = "SCRATCH_UNAVAILABLE"
	ErrCodeStorageFailed      = "STORAGE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		ExitCode: -1,
	}
}

// IsConfigurationError reports whether err is a setup problem such as a
// missing binary or an unwritable folder.
func IsConfigurationError(err error) bool {
	var renderErr *RenderError
	return errors.As(err, &renderErr) && renderErr.IsConfiguration()
}

// IsRenderFailure reports whether err is a failed or timed out renderer run.
func IsRenderFailure(err error) bool {
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		return false
	}
	return renderErr.Code == ErrCodeRenderFailed || renderErr.Code == ErrCodeRenderTimeout
}
