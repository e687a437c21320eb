package printing

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/printapi/backend/internal/domain/printing"
	"github.com/printapi/backend/internal/domain/identity"
	"github.com/printapi/backend/internal/domain/shared"
	infra "github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/infrastructure/logger"
	"github.com/printapi/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ArtifactStore is the PDF cache as seen by the print service.
type ArtifactStore interface {
	Lookup(ctx context.Context, key domain.CacheKey) (string, bool, error)
	Store(ctx context.Context, key domain.CacheKey, write infra.ArtifactWriter) (string, error)
}

// PrintService resolves print requests against the cache and the renderer.
type PrintService struct {
	schema   *domain.OptionSchema
	records  domain.PrintRecordRepository
	users    identity.APIUserRepository
	store    ArtifactStore
	renderer infra.PDFRenderer
	metrics  *telemetry.PrintMetrics
	logger   *zap.Logger
}

// PrintServiceOption customises a PrintService.
type PrintServiceOption func(*PrintService)

// WithSchema replaces the default option schema.
func WithSchema(schema *domain.OptionSchema) PrintServiceOption {
	return func(s *PrintService) { s.schema = schema }
}

// WithMetrics records cache and render metrics.
func WithMetrics(m *telemetry.PrintMetrics) PrintServiceOption {
	return func(s *PrintService) { s.metrics = m }
}

// NewPrintService creates a new PrintService
func NewPrintService(
	records domain.PrintRecordRepository,
	users identity.APIUserRepository,
	store ArtifactStore,
	renderer infra.PDFRenderer,
	log *zap.Logger,
	opts ...PrintServiceOption,
) *PrintService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &PrintService{
		schema:   domain.DefaultSchema(),
		records:  records,
		users:    users,
		store:    store,
		renderer: renderer,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Options describes the accepted render options in emission order.
func (s *PrintService) Options() []OptionDescriptor {
	specs := s.schema.Specs()
	out := make([]OptionDescriptor, len(specs))
	for i, spec := range specs {
		out[i] = OptionDescriptor{
			Name:      spec.Name,
			Default:   spec.Default,
			Validator: spec.Validator.Describe(),
			Flag:      spec.IsFlag(),
		}
	}
	return out
}

// Print returns the PDF for cmd, rendering it when no fresh cached copy exists.
// The record's counter goes up by one only when a PDF is delivered.
func (s *PrintService) Print(ctx context.Context, cmd PrintCommand) (*PrintResult, error) {
	result, err := s.print(ctx, cmd)
	s.metrics.RecordRequest(ctx, outcomeOf(result, err))
	return result, err
}

func (s *PrintService) print(ctx context.Context, cmd PrintCommand) (*PrintResult, error) {
	log := logger.L(ctx).With(zap.Int64("user_id", cmd.UserID))

	source, err := domain.NewContentIdentity(cmd.URL, cmd.Content)
	if err != nil {
		return nil, err
	}
	fp := source.Fingerprint()

	overrides := cmd.Options
	if len(cmd.RawOptions) > 0 {
		typed, err := s.schema.Normalize(cmd.RawOptions)
		if err != nil {
			return nil, err
		}
		overrides = domain.MergeOptions(cmd.Options, typed)
	}

	record, err := s.loadRecord(ctx, cmd.UserID, source)
	if err != nil {
		return nil, err
	}

	opts := domain.MergeOptions(s.schema.Defaults(), overrides)
	key := domain.DeriveCacheKey(fp, opts)

	path, hit, err := s.store.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCacheLookup(ctx, hit)

	if !hit {
		args, err := s.schema.BuildArgs(opts)
		if err != nil {
			return nil, err
		}
		path, err = s.render(ctx, source, key, args)
		if err != nil {
			log.Warn("render failed", zap.String("cache_key", key.String()), zap.Error(err))
			return nil, err
		}
	}

	record.MarkServed()
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save print record: %w", err)
	}
	if err := s.users.IncrementUsage(ctx, cmd.UserID, 1); err != nil {
		// the PDF exists and the record counted it; the lifetime total may lag
		log.Error("failed to increment user usage", zap.Error(err))
	}

	log.Info("PDF served",
		zap.String("fingerprint", fp.String()),
		zap.String("cache_key", key.String()),
		zap.Bool("cache_hit", hit),
		zap.Int64("count", record.Count),
	)

	return &PrintResult{
		ArtifactPath: path,
		CacheHit:     hit,
		CacheKey:     key,
		Record:       record,
	}, nil
}

func (s *PrintService) loadRecord(ctx context.Context, userID int64, source domain.ContentIdentity) (*domain.PrintRecord, error) {
	record, err := s.records.FindByUserAndFingerprint(ctx, userID, source.Fingerprint())
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to load print record: %w", err)
	}
	return domain.NewPrintRecord(userID, source)
}

func (s *PrintService) render(ctx context.Context, source domain.ContentIdentity, key domain.CacheKey, args []string) (string, error) {
	kind := "html"
	if source.IsURL() {
		kind = "url"
	}

	var (
		path string
		err  error
	)
	telemetry.WithRenderLabels(ctx, kind, func(ctx context.Context) {
		done := s.metrics.RenderStarted(ctx)
		path, err = s.store.Store(ctx, key, func(ctx context.Context, output string) error {
			return s.renderer.Render(ctx, &infra.RenderJob{Source: source, Args: args, Output: output})
		})
		done(errorCode(err))
	})
	return path, err
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var re *infra.RenderError
	if errors.As(err, &re) {
		return re.Code
	}
	return "UNKNOWN"
}

func outcomeOf(result *PrintResult, err error) string {
	switch {
	case err == nil && result.CacheHit:
		return telemetry.OutcomeCacheHit
	case err == nil:
		return telemetry.OutcomeRendered
	case IsClientError(err):
		return telemetry.OutcomeInvalidInput
	case infra.IsRenderFailure(err):
		return telemetry.OutcomeRenderFailed
	default:
		return telemetry.OutcomeServerError
	}
}

// IsClientError reports whether err was caused by the request content.
func IsClientError(err error) bool {
	var (
		inputErr   *domain.InputError
		unknownErr *domain.UnknownOptionError
		valueErr   *domain.InvalidOptionValueError
	)
	return errors.As(err, &inputErr) || errors.As(err, &unknownErr) || errors.As(err, &valueErr)
}
