package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/printapi/backend/internal/application/identity"
	"github.com/printapi/backend/internal/infrastructure/logger"
	"github.com/printapi/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Credential headers and context keys
const (
	APIEmailHeader  = "X-API-EMAIL"
	APITokenHeader  = "X-API-TOKEN"
	APIUserIDKey    = "api_user_id"
	APIUserEmailKey = "api_user_email"
)

// Authenticator resolves the caller from its credential headers.
type Authenticator interface {
	Authenticate(ctx context.Context, email, apiKey string) (*identityapp.Principal, error)
}

// APIKeyAuth rejects requests without valid X-API-EMAIL / X-API-TOKEN headers.
func APIKeyAuth(auth Authenticator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request.Context(), c.GetHeader(APIEmailHeader), c.GetHeader(APITokenHeader))
		if err != nil {
			abortAuth(c, err, log)
			return
		}

		c.Set(APIUserIDKey, principal.UserID)
		c.Set(APIUserEmailKey, principal.Email)
		c.Request = c.Request.WithContext(logger.WithAPIUser(c.Request.Context(), principal.Email))

		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(attribute.Int64("api_user.id", principal.UserID))
		}

		c.Next()
	}
}

func abortAuth(c *gin.Context, err error, log *zap.Logger) {
	requestID := GetRequestID(c)
	switch {
	case errors.Is(err, identityapp.ErrMissingCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeMissingCredentials, identityapp.ErrMissingCredentials.Message, requestID))
	case errors.Is(err, identityapp.ErrLoginFailed):
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeLoginFailed, identityapp.ErrLoginFailed.Message, requestID))
	default:
		logger.GetGinLogger(c, log).Error("authentication backend failed", zap.Error(err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInternal, "An unexpected error occurred", requestID))
	}
}

// GetAPIUserID returns the authenticated user id, or 0.
func GetAPIUserID(c *gin.Context) int64 {
	return c.GetInt64(APIUserIDKey)
}

// GetAPIUserEmail returns the authenticated user email.
func GetAPIUserEmail(c *gin.Context) string {
	return c.GetString(APIUserEmailKey)
}
