package printing

import (
	domain "github.com/printapi/backend/internal/domain/printing"
)

// PrintCommand is one request to turn a URL or an HTML payload into a PDF.
type PrintCommand struct {
	UserID  int64
	URL     string
	Content string
	Options domain.RenderOptions

	// RawOptions holds options decoded from JSON. They are normalized
	// against the service's schema and take precedence over Options.
	RawOptions map[string]any
}

// PrintResult describes the delivered artifact.
type PrintResult struct {
	ArtifactPath string
	CacheHit     bool
	CacheKey     domain.CacheKey
	Record       *domain.PrintRecord
}

// OptionDescriptor documents one accepted render option.
type OptionDescriptor struct {
	Name      string `json:"name"`
	Default   string `json:"default"`
	Validator string `json:"validator"`
	Flag      bool   `json:"flag"`
}

// PruneReport counts the files removed by a maintenance run.
type PruneReport struct {
	PDFs      int `json:"pdfs"`
	HTMLFiles int `json:"html_files"`
}
