// Package printing provides the infrastructure around the wkhtmltopdf binary.
//
// WkhtmltopdfRenderer runs the binary with an argument vector built by the
// domain option schema. ScratchDir materializes raw HTML payloads so the
// renderer always receives a path or a URL. RenderCache keeps rendered PDFs
// on disk keyed by cache key and serves them while they are fresh.
//
// Example:
//
//	scratch, err := printing.NewScratchDir(cfg.TempDir)
//	renderer, err := printing.NewWkhtmltopdfRenderer(&printing.WkhtmltopdfConfig{
//		BinaryPath: cfg.BinaryPath,
//		Scratch:    scratch,
//	})
//	cache, err := printing.NewRenderCache(&printing.RenderCacheConfig{Dir: scratch.PDFDir()})
//
//	path, hit, err := cache.Lookup(ctx, key)
//	if !hit {
//		path, err = cache.Store(ctx, key, func(ctx context.Context, out string) error {
//			return renderer.Render(ctx, &printing.RenderJob{Source: identity, Args: args, Output: out})
//		})
//	}
package printing
