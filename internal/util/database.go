package util

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/errors"
	"gorm.io/gorm"
)

// HandleDBError responds for a failed query and reports whether it did.
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		RespondWithAPIError(c, errors.NotFound(resourceName))
		return true
	}
	RespondWithAPIError(c, errors.InternalError("failed to fetch "+resourceName).Wrap(err))
	return true
}

// ParseLimit reads a positive page size, clamped to max.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
