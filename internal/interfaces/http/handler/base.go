package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	domain "github.com/printapi/backend/internal/domain/printing"
	"github.com/printapi/backend/internal/domain/shared"
	infra "github.com/printapi/backend/internal/infrastructure/printing"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"github.com/printapi/backend/internal/interfaces/http/middleware"
)

const genericErrorMessage = "An unexpected error occurred"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// Debug adds renderer diagnostics to 5xx responses
	Debug bool
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadRequest, code, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError maps service errors to HTTP responses. Client errors carry
// their own message; server errors get a generic one, plus diagnostics in
// debug mode.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code, message := classifyError(err)
	status := dto.GetHTTPStatus(code)
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if h.Debug {
			resp.Error.Debug = debugInfo(err)
		}
	}
	c.JSON(status, resp)
}

func classifyError(err error) (code, message string) {
	var renderErr *infra.RenderError
	if errors.As(err, &renderErr) {
		code = dto.NormalizeErrorCode(renderErr.Code)
		if code == dto.ErrCodeRenderFailed || code == dto.ErrCodeRenderTimeout {
			return code, "PDF rendering failed"
		}
		return code, genericErrorMessage
	}

	var coded domain.CodedError
	if errors.As(err, &coded) {
		return dto.NormalizeErrorCode(coded.Code()), coded.Error()
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = dto.NormalizeErrorCode(domainErr.Code)
		if dto.GetHTTPStatus(code) >= http.StatusInternalServerError {
			return dto.ErrCodeInternal, genericErrorMessage
		}
		return code, domainErr.Message
	}

	return dto.ErrCodeInternal, genericErrorMessage
}

func debugInfo(err error) *dto.DebugInfo {
	info := &dto.DebugInfo{Cause: err.Error()}
	var renderErr *infra.RenderError
	if errors.As(err, &renderErr) && infra.IsRenderFailure(renderErr) {
		exitCode := renderErr.ExitCode
		info.ExitCode = &exitCode
		info.Command = renderErr.CommandLine()
		info.Output = renderErr.Output
	}
	return info
}
