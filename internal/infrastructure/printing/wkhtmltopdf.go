package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultBinaryPath    = "wkhtmltopdf"
	defaultTimeout       = 60 * time.Second
	defaultMaxConcurrent = 4
	maxCapturedOutput    = 64 << 10
	waitDelay            = 2 * time.Second // pipe drain bound after a kill
)

// DefaultConstantArgs are appended after the option arguments on every run.
var DefaultConstantArgs = []string{"--quiet"}

// WkhtmltopdfConfig contains configuration for the wkhtmltopdf renderer
type WkhtmltopdfConfig struct {
	// BinaryPath is the path to the wkhtmltopdf binary
	// If relative, it is searched in PATH
	BinaryPath string
	// ConstantArgs are fixed arguments placed before input and output
	ConstantArgs []string
	// Timeout bounds a single run
	Timeout time.Duration
	// MaxConcurrent caps the number of simultaneous processes
	MaxConcurrent int64
	// Scratch receives materialized HTML payloads
	Scratch *ScratchDir
	// Logger for debug output
	Logger *zap.Logger
}

// WkhtmltopdfRenderer renders URLs and HTML payloads with the wkhtmltopdf binary
type WkhtmltopdfRenderer struct {
	config *WkhtmltopdfConfig
	sem    *semaphore.Weighted
	logger *zap.Logger
}

// NewWkhtmltopdfRenderer creates a renderer. A missing binary is reported as
// a configuration error so that startup fails.
func NewWkhtmltopdfRenderer(config *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	if config == nil {
		config = &WkhtmltopdfConfig{}
	}
	cfg := *config

	if cfg.BinaryPath == "" {
		cfg.BinaryPath = defaultBinaryPath
	}
	if cfg.ConstantArgs == nil {
		cfg.ConstantArgs = DefaultConstantArgs
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Scratch == nil {
		return nil, NewRenderError(ErrCodeScratchUnavailable, "scratch directory is required", nil)
	}

	binaryPath, err := resolveBinaryPath(cfg.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", cfg.BinaryPath), err)
	}
	cfg.BinaryPath = binaryPath

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WkhtmltopdfRenderer{
		config: &cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}, nil
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", path)
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// BinaryPath returns the resolved renderer binary
func (r *WkhtmltopdfRenderer) BinaryPath() string {
	return r.config.BinaryPath
}

// CheckBinary reports whether the renderer binary is still present.
func (r *WkhtmltopdfRenderer) CheckBinary() error {
	if _, err := os.Stat(r.config.BinaryPath); err != nil {
		return NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", r.config.BinaryPath), err)
	}
	return nil
}

// Render runs `<binary> <args> <constant args> <input> <output>`.
// Any file already at job.Output is removed first. The output file is not
// inspected after a zero exit status.
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, job *RenderJob) error {
	if job == nil {
		return NewRenderError(ErrCodeInvalidJob, "render job is nil", nil)
	}
	if job.Output == "" {
		return NewRenderError(ErrCodeInvalidJob, "output path is empty", nil)
	}
	if job.Source.Value() == "" {
		return NewRenderError(ErrCodeInvalidJob, "render input is empty", nil)
	}
	if err := r.CheckBinary(); err != nil {
		return err
	}

	input, err := r.resolveInput(ctx, job)
	if err != nil {
		return err
	}

	if err := os.Remove(job.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewRenderError(ErrCodeStorageFailed, "failed to remove previous artifact", err)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return NewRenderError(ErrCodeRenderTimeout, "cancelled while waiting for a render slot", err)
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	args := r.buildArgs(job.Args, input, job.Output)
	command := append([]string{r.config.BinaryPath}, args...)

	r.logger.Debug("executing wkhtmltopdf",
		zap.String("binary", r.config.BinaryPath),
		zap.Strings("args", args))

	startTime := time.Now()
	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)
	cmd.WaitDelay = waitDelay
	output := &cappedBuffer{limit: maxCapturedOutput}
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Run(); err != nil {
		return r.classifyRunError(ctx, err, output.String(), command)
	}

	r.logger.Info("PDF rendered",
		zap.String("output", job.Output),
		zap.Bool("from_url", job.Source.IsURL()),
		zap.Duration("duration", time.Since(startTime)))

	return nil
}

func (r *WkhtmltopdfRenderer) resolveInput(ctx context.Context, job *RenderJob) (string, error) {
	if job.Source.IsURL() {
		return job.Source.URL, nil
	}
	return r.config.Scratch.MaterializeHTML(ctx, job.Source.Fingerprint(), job.Source.HTML)
}

// buildArgs places the fixed arguments after the option arguments.
func (r *WkhtmltopdfRenderer) buildArgs(optionArgs []string, input, output string) []string {
	args := make([]string, 0, len(optionArgs)+len(r.config.ConstantArgs)+2)
	args = append(args, optionArgs...)
	args = append(args, r.config.ConstantArgs...)
	return append(args, input, output)
}

func (r *WkhtmltopdfRenderer) classifyRunError(ctx context.Context, err error, output string, command []string) error {
	var renderErr *RenderError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		renderErr = NewRenderError(ErrCodeRenderTimeout,
			fmt.Sprintf("PDF rendering timed out after %v", r.config.Timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		renderErr = NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	case errors.Is(err, fs.ErrNotExist):
		renderErr = NewRenderError(ErrCodeBinaryNotFound, "wkhtmltopdf binary disappeared", err)
	default:
		renderErr = NewRenderError(ErrCodeRenderFailed, "wkhtmltopdf execution failed", err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		renderErr.ExitCode = exitErr.ExitCode()
	}
	renderErr.Output = output
	renderErr.Command = command

	r.logger.Error("wkhtmltopdf failed",
		zap.Error(err),
		zap.String("code", renderErr.Code),
		zap.Int("exit_code", renderErr.ExitCode),
		zap.String("output", output))

	return renderErr
}

// Close releases resources (no-op for wkhtmltopdf)
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}

// cappedBuffer keeps the first limit bytes written to it and discards the rest.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

// Ensure WkhtmltopdfRenderer implements PDFRenderer
var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)
