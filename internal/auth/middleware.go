package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/util"
	"go.uber.org/zap"
)

// Middleware authenticates HTTP requests with the session cookie or an
// "Authorization: Bearer" header and stores the user in the gin context.
func Middleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := authn.ExtractToken(c.Request)
		if !ok {
			if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
				token, ok = strings.TrimPrefix(header, "Bearer "), true
			}
		}
		if !ok {
			util.RespondWithAPIError(c, errors.Unauthorized("authentication required"))
			c.Abort()
			return
		}

		user, err := authn.Validate(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Token rejected", zap.Error(err))
			util.RespondWithAPIError(c, errors.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}
