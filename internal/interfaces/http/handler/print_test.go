package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	printingapp "github.com/printapi/backend/internal/application/printing"
	domain "github.com/printapi/backend/internal/domain/printing"
	infra "github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockPrintService is a mock implementation of PrintService
type MockPrintService struct {
	mock.Mock
}

func (m *MockPrintService) Print(ctx context.Context, cmd printingapp.PrintCommand) (*printingapp.PrintResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printingapp.PrintResult), args.Error(1)
}

func (m *MockPrintService) Options() []printingapp.OptionDescriptor {
	return m.Called().Get(0).([]printingapp.OptionDescriptor)
}

const testUserID int64 = 11

func newPrintRouter(svc PrintService, debug bool) *gin.Engine {
	h := NewPrintHandler(svc, debug)
	router := gin.New()
	router.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.APIUserIDKey, testUserID)
		c.Next()
	})
	api := router.Group("/api/v1")
	PrintRoutes(h).RegisterRoutes(api)
	RegisterRootPrintRoutes(router, h)
	return router
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644))
	return path
}

func result(path string, hit bool, count int64) *printingapp.PrintResult {
	return &printingapp.PrintResult{
		ArtifactPath: path,
		CacheHit:     hit,
		Record:       &domain.PrintRecord{ID: 1, UserID: testUserID, Count: count},
	}
}

func decodeErrorInfo(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestPrintHandler_FormRequest(t *testing.T) {
	svc := &MockPrintService{}
	path := writeArtifact(t)
	svc.On("Print", mock.Anything, printingapp.PrintCommand{
		UserID:  testUserID,
		URL:     "https://example.com",
		Options: domain.RenderOptions{"orientation": "Landscape", "grayscale": "1"},
	}).Return(result(path, false, 1), nil)

	form := url.Values{}
	form.Set("url", "https://example.com")
	form.Set("options[orientation]", "Landscape")
	form.Set("options[grayscale]", "1")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newPrintRouter(svc, false).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transform.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))
	assert.Equal(t, "1", w.Header().Get(PrintCountHeader))
	assert.Equal(t, "%PDF-1.4 body", w.Body.String())
	svc.AssertExpectations(t)
}

func TestPrintHandler_JSONRequest(t *testing.T) {
	svc := &MockPrintService{}
	path := writeArtifact(t)
	svc.On("Print", mock.Anything, printingapp.PrintCommand{
		UserID:     testUserID,
		Content:    "<h1>Hello</h1>",
		RawOptions: map[string]any{"toc": true, "copies": float64(2)},
	}).Return(result(path, true, 4), nil)

	body := `{"content":"<h1>Hello</h1>","options":{"toc":true,"copies":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newPrintRouter(svc, false).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.Equal(t, "4", w.Header().Get(PrintCountHeader))
	svc.AssertExpectations(t)
}

func TestPrintHandler_RootRoutes(t *testing.T) {
	svc := &MockPrintService{}
	path := writeArtifact(t)
	svc.On("Print", mock.Anything, mock.Anything).Return(result(path, false, 1), nil)
	router := newPrintRouter(svc, false)

	for _, target := range []string{"/", "/print"} {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader("url=https%3A%2F%2Fexample.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}
}

func TestPrintHandler_EmptyArtifactIsStillServed(t *testing.T) {
	svc := &MockPrintService{}
	missing := filepath.Join(t.TempDir(), "never-written.pdf")
	svc.On("Print", mock.Anything, mock.Anything).Return(result(missing, false, 1), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader("url=https%3A%2F%2Fexample.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newPrintRouter(svc, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Zero(t, w.Body.Len())
}

func TestPrintHandler_RequestErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		code        string
	}{
		{"url too long", "application/x-www-form-urlencoded", "url=https%3A%2F%2Fexample.com%2F" + strings.Repeat("a", 2048), dto.ErrCodeValidation},
		{"malformed json", "application/json", `{"url":`, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPrintService{}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			newPrintRouter(svc, false).ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeErrorInfo(t, w).Code)
			svc.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)
		})
	}
}

func TestPrintHandler_URLSchemeLeftToService(t *testing.T) {
	svc := &MockPrintService{}
	svc.On("Print", mock.Anything, printingapp.PrintCommand{
		UserID: testUserID,
		URL:    "file:///etc/passwd",
	}).Return(nil, &domain.InputError{Reason: "url must be an absolute http or https URL"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader("url=file%3A%2F%2F%2Fetc%2Fpasswd"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	newPrintRouter(svc, false).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInputInvalid, decodeErrorInfo(t, w).Code)
	svc.AssertExpectations(t)
}

func TestPrintHandler_ServiceErrors(t *testing.T) {
	renderFailure := &infra.RenderError{
		Code:     infra.ErrCodeRenderFailed,
		Message:  "wkhtmltopdf exited with code 1",
		ExitCode: 1,
		Output:   "Error: Failed loading page",
		Command:  []string{"/usr/bin/wkhtmltopdf", "--quiet", "https://example.com", "/tmp/x.pdf"},
	}

	tests := []struct {
		name    string
		err     error
		debug   bool
		status  int
		code    string
		message string
		check   func(t *testing.T, info *dto.ErrorInfo)
	}{
		{
			name:    "missing input",
			err:     &domain.InputError{Reason: "URL ou contenu manquant"},
			status:  http.StatusBadRequest,
			code:    dto.ErrCodeInputInvalid,
			message: "URL ou contenu manquant",
		},
		{
			name:    "unknown option",
			err:     &domain.UnknownOptionError{Name: "zoom"},
			status:  http.StatusBadRequest,
			code:    dto.ErrCodeUnknownOption,
			message: "unknown option : zoom",
		},
		{
			name:    "invalid option value",
			err:     &domain.InvalidOptionValueError{Name: "orientation", Value: "Diagonal"},
			status:  http.StatusBadRequest,
			code:    dto.ErrCodeInvalidOptionValue,
			message: "The option orientation doesn't pass the test",
		},
		{
			name:    "render failure hides details",
			err:     renderFailure,
			status:  http.StatusServiceUnavailable,
			code:    dto.ErrCodeRenderFailed,
			message: "PDF rendering failed",
			check: func(t *testing.T, info *dto.ErrorInfo) {
				assert.Nil(t, info.Debug)
			},
		},
		{
			name:    "render failure in debug mode",
			err:     renderFailure,
			debug:   true,
			status:  http.StatusServiceUnavailable,
			code:    dto.ErrCodeRenderFailed,
			message: "PDF rendering failed",
			check: func(t *testing.T, info *dto.ErrorInfo) {
				require.NotNil(t, info.Debug)
				require.NotNil(t, info.Debug.ExitCode)
				assert.Equal(t, 1, *info.Debug.ExitCode)
				assert.Equal(t, "/usr/bin/wkhtmltopdf --quiet https://example.com /tmp/x.pdf", info.Debug.Command)
				assert.Equal(t, "Error: Failed loading page", info.Debug.Output)
			},
		},
		{
			name:    "timeout",
			err:     infra.NewRenderError(infra.ErrCodeRenderTimeout, "render timed out", context.DeadlineExceeded),
			status:  http.StatusServiceUnavailable,
			code:    dto.ErrCodeRenderTimeout,
			message: "PDF rendering failed",
		},
		{
			name:    "configuration error in debug mode",
			err:     infra.NewRenderError(infra.ErrCodeBinaryNotFound, "wkhtmltopdf binary not found", os.ErrNotExist),
			debug:   true,
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeConfiguration,
			message: genericErrorMessage,
			check: func(t *testing.T, info *dto.ErrorInfo) {
				require.NotNil(t, info.Debug)
				assert.Nil(t, info.Debug.ExitCode)
				assert.Contains(t, info.Debug.Cause, "binary not found")
			},
		},
		{
			name:    "unexpected error",
			err:     assert.AnError,
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeInternal,
			message: genericErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPrintService{}
			svc.On("Print", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/print", strings.NewReader("url=https%3A%2F%2Fexample.com"))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			newPrintRouter(svc, tt.debug).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			info := decodeErrorInfo(t, w)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.message, info.Message)
			assert.NotEmpty(t, info.RequestID)
			assert.Empty(t, w.Header().Get(CacheHeader))
			if tt.check != nil {
				tt.check(t, info)
			}
		})
	}
}

func TestPrintHandler_Options(t *testing.T) {
	svc := &MockPrintService{}
	svc.On("Options").Return([]printingapp.OptionDescriptor{
		{Name: "title", Default: "", Validator: "string"},
		{Name: "toc", Default: "0", Validator: "boolean", Flag: true},
	})

	w := httptest.NewRecorder()
	newPrintRouter(svc, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/print/options", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                          `json:"success"`
		Data    []printingapp.OptionDescriptor `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[1].Flag)
}
