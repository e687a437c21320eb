package printing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/printapi/backend/internal/domain/printing"
)

const (
	htmlDirName = "html"
	pdfDirName  = "pdf"
)

var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

// ScratchDir owns the working folders under the configured temp root:
// html/ for materialized payloads and pdf/ for rendered artifacts.
type ScratchDir struct {
	root string
}

// NewScratchDir creates the folder layout under root.
func NewScratchDir(root string) (*ScratchDir, error) {
	if root == "" {
		return nil, NewRenderError(ErrCodeScratchUnavailable, "scratch directory is not configured", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, NewRenderError(ErrCodeScratchUnavailable, "failed to resolve scratch directory", err)
	}
	s := &ScratchDir{root: abs}
	for _, dir := range []string{s.HTMLDir(), s.PDFDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewRenderError(ErrCodeScratchUnavailable,
				fmt.Sprintf("failed to create scratch directory: %s", dir), err)
		}
	}
	return s, nil
}

// HTMLDir returns the folder holding materialized HTML
func (s *ScratchDir) HTMLDir() string { return filepath.Join(s.root, htmlDirName) }

// PDFDir returns the folder holding rendered PDFs
func (s *ScratchDir) PDFDir() string { return filepath.Join(s.root, pdfDirName) }

// MaterializeHTML writes html to html/<fingerprint>.html and returns the path.
// The file is replaced atomically so a concurrent render never reads a
// partial payload.
func (s *ScratchDir) MaterializeHTML(ctx context.Context, fp printing.Fingerprint, html string) (string, error) {
	select {
	case <-ctx.Done():
		return "", NewRenderError(ErrCodeScratchUnavailable, "operation cancelled", ctx.Err())
	default:
	}

	if !fingerprintPattern.MatchString(fp.String()) {
		return "", NewRenderError(ErrCodeInvalidJob, "invalid content fingerprint", nil)
	}

	dir := s.HTMLDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", NewRenderError(ErrCodeScratchUnavailable, "failed to create html directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".payload-*.tmp")
	if err != nil {
		return "", NewRenderError(ErrCodeScratchUnavailable, "failed to create temp HTML file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", NewRenderError(ErrCodeScratchUnavailable, "failed to write HTML to temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", NewRenderError(ErrCodeScratchUnavailable, "failed to close temp HTML file", err)
	}

	target := filepath.Join(dir, fp.String()+".html")
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return "", NewRenderError(ErrCodeScratchUnavailable, "failed to move HTML into place", err)
	}
	return target, nil
}

// PruneHTML removes materialized payloads last modified before now-age.
func (s *ScratchDir) PruneHTML(ctx context.Context, age time.Duration) (int, error) {
	return pruneFiles(ctx, s.HTMLDir(), ".html", time.Now().Add(-age))
}

// pruneFiles deletes files with the given extension directly under dir whose
// mtime is before cutoff.
func pruneFiles(ctx context.Context, dir, ext string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, NewRenderError(ErrCodeStorageFailed, "failed to list directory", err)
	}

	deleted := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return deleted, ctx.Err()
		default:
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}
