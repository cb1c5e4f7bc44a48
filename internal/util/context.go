package util

import (
	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/models"
)

// Keys under which the auth middleware stores the principal.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// If there is none it responds with 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		RespondWithAPIError(c, errors.Unauthorized("user not authenticated"))
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		RespondWithAPIError(c, errors.InternalError("invalid user data in context"))
		return nil, false
	}
	return user, true
}
