package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	identityapp "github.com/printapi/backend/internal/application/identity"
	printingapp "github.com/printapi/backend/internal/application/printing"
	"github.com/printapi/backend/internal/infrastructure/cache"
	"github.com/printapi/backend/internal/infrastructure/config"
	"github.com/printapi/backend/internal/infrastructure/persistence"
	"github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/interfaces/http/handler"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
	"github.com/printapi/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingRenderer writes a tiny PDF and counts invocations.
type countingRenderer struct {
	calls atomic.Int32
	args  atomic.Value
}

func (r *countingRenderer) Render(_ context.Context, job *printing.RenderJob) error {
	r.calls.Add(1)
	r.args.Store(job.Args)
	return os.WriteFile(job.Output, []byte("%PDF-1.4 flow"), 0o644)
}

func (r *countingRenderer) Close() error { return nil }

type printStack struct {
	engine   http.Handler
	renderer *countingRenderer
	users    *identityapp.UserService
	apiKey   string
}

func newPrintStack(t *testing.T) *printStack {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: persistence.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx))
	t.Cleanup(func() { _ = db.Close() })

	userRepo := persistence.NewGormAPIUserRepository(db.DB)
	recordRepo := persistence.NewGormPrintRecordRepository(db.DB)

	credCache, err := cache.NewCredentialCacheFactory(config.RedisConfig{}, time.Minute).Create(ctx)
	require.NoError(t, err)

	scratch, err := printing.NewScratchDir(t.TempDir())
	require.NoError(t, err)
	store, err := printing.NewRenderCache(&printing.RenderCacheConfig{Dir: scratch.PDFDir(), TTL: time.Hour})
	require.NoError(t, err)

	renderer := &countingRenderer{}
	users := identityapp.NewUserService(userRepo, nil)
	created, err := users.Create(ctx, "Client@Example.com", "")
	require.NoError(t, err)

	auth := identityapp.NewAuthService(userRepo, credCache, identityapp.DefaultAuthServiceConfig(), nil)
	svc := printingapp.NewPrintService(recordRepo, userRepo, store, renderer, nil)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:      zap.NewNop(),
		ServiceName: "printapi-test",
		MaxBodySize: 1 << 20,
		CORS:        middleware.DefaultCORSConfig(),
		Security:    middleware.DefaultSecurityConfig(),
	})
	require.NoError(t, err)

	h := handler.NewPrintHandler(svc, false)
	authMW := middleware.APIKeyAuth(auth, zap.NewNop())
	router.NewRouter(engine).Register(handler.PrintRoutes(h, authMW)).Setup()
	handler.RegisterRootPrintRoutes(engine, h, authMW)

	return &printStack{engine: engine, renderer: renderer, users: users, apiKey: created.APIKey}
}

func (s *printStack) post(t *testing.T, path string, form url.Values, email, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if email != "" {
		req.Header.Set(middleware.APIEmailHeader, email)
	}
	if key != "" {
		req.Header.Set(middleware.APITokenHeader, key)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestPrintFlow_RenderThenCacheHit(t *testing.T) {
	s := newPrintStack(t)
	form := url.Values{"url": {"https://example.com/invoice"}}

	first := s.post(t, "/api/v1/print", form, "client@example.com", s.apiKey)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "application/pdf", first.Header().Get("Content-Type"))
	assert.Contains(t, first.Header().Get("Content-Disposition"), handler.DownloadName)
	assert.Equal(t, "MISS", first.Header().Get(handler.CacheHeader))
	assert.Equal(t, "1", first.Header().Get(handler.PrintCountHeader))
	assert.Equal(t, "%PDF-1.4 flow", first.Body.String())

	second := s.post(t, "/", form, "client@example.com", s.apiKey)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get(handler.CacheHeader))
	assert.Equal(t, "2", second.Header().Get(handler.PrintCountHeader))

	assert.Equal(t, int32(1), s.renderer.calls.Load())

	listed, err := s.users.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(2), listed[0].UsageCount)
}

func TestPrintFlow_OptionsChangeArtifact(t *testing.T) {
	s := newPrintStack(t)

	base := url.Values{"content": {"<h1>Hello</h1>"}}
	require.Equal(t, http.StatusOK, s.post(t, "/print", base, "client@example.com", s.apiKey).Code)

	landscape := url.Values{"content": {"<h1>Hello</h1>"}, "options[orientation]": {"Landscape"}}
	w := s.post(t, "/print", landscape, "client@example.com", s.apiKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get(handler.CacheHeader))
	assert.Equal(t, "2", w.Header().Get(handler.PrintCountHeader))
	assert.Equal(t, int32(2), s.renderer.calls.Load())

	args, _ := s.renderer.args.Load().([]string)
	assert.Contains(t, strings.Join(args, " "), "--orientation Landscape")
}

func TestPrintFlow_JSONOptionRejections(t *testing.T) {
	s := newPrintStack(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"nested unknown option", `{"url":"https://example.com","options":{"zoom":{"a":1}}}`, "ERR_UNKNOWN_OPTION"},
		{"nested known option", `{"url":"https://example.com","options":{"copies":[1]}}`, "ERR_INVALID_OPTION_VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.APIEmailHeader, "client@example.com")
			req.Header.Set(middleware.APITokenHeader, s.apiKey)
			w := httptest.NewRecorder()
			s.engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}

	assert.Equal(t, int32(0), s.renderer.calls.Load())
}

func TestPrintFlow_Rejections(t *testing.T) {
	s := newPrintStack(t)

	tests := []struct {
		name       string
		form       url.Values
		email, key string
		wantStatus int
		wantCode   string
	}{
		{"missing credentials", url.Values{"url": {"https://example.com"}}, "", "", http.StatusUnauthorized, "ERR_MISSING_CREDENTIALS"},
		{"wrong key", url.Values{"url": {"https://example.com"}}, "client@example.com", "nope", http.StatusUnauthorized, "ERR_LOGIN_FAILED"},
		{"no input", url.Values{}, "client@example.com", s.apiKey, http.StatusBadRequest, "ERR_INPUT_INVALID"},
		{"url and content", url.Values{"url": {"https://example.com"}, "content": {"<p>x</p>"}}, "client@example.com", s.apiKey, http.StatusBadRequest, "ERR_INPUT_INVALID"},
		{"file scheme", url.Values{"url": {"file:///etc/passwd"}}, "client@example.com", s.apiKey, http.StatusBadRequest, "ERR_INPUT_INVALID"},
		{"unknown option", url.Values{"url": {"https://example.com"}, "options[dpi]": {"300"}}, "client@example.com", s.apiKey, http.StatusBadRequest, "ERR_UNKNOWN_OPTION"},
		{"invalid value", url.Values{"url": {"https://example.com"}, "options[copies]": {"many"}}, "client@example.com", s.apiKey, http.StatusBadRequest, "ERR_INVALID_OPTION_VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.post(t, "/api/v1/print", tt.form, tt.email, tt.key)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}

	assert.Equal(t, int32(0), s.renderer.calls.Load())
}
