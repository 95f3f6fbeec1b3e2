package handler

import (
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/middleware"
	"github.com/JideOgun/Pro-Dj-sub004/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleError converts domain errors to HTTP responses. Unknown errors are
// logged and reported without detail.
func handleError(c *gin.Context, err error) {
	switch {
	case domain.IsUnauthorizedError(err):
		response.Unauthorized(c, err.Error())
	case domain.IsForbiddenError(err):
		response.Forbidden(c, err.Error())
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case domain.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case domain.IsConflictError(err):
		response.Conflict(c, err.Error())
	default:
		logger.Get().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}

// actorFromContext builds the caller from the claims JWTAuth stored
func actorFromContext(c *gin.Context) domain.Actor {
	userID, _ := middleware.GetUserID(c)
	return domain.Actor{
		UserID: userID,
		Role:   domain.ParseRole(middleware.GetRole(c)),
	}
}
