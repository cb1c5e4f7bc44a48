package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/util"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ListBatchUsers returns the users generated in a batch
// GET /data/users?batch_id=
func (h *Handlers) ListBatchUsers(c *gin.Context) {
	var users []models.User
	listBatch(c, h, &users)
}

// ListBatchPosts returns the posts generated in a batch
// GET /data/posts?batch_id=
func (h *Handlers) ListBatchPosts(c *gin.Context) {
	var posts []models.Post
	listBatch(c, h, &posts)
}

// ListBatchComments returns the comments generated in a batch
// GET /data/comments?batch_id=
func (h *Handlers) ListBatchComments(c *gin.Context) {
	var comments []models.Comment
	listBatch(c, h, &comments)
}

// ListBatches returns the caller's batches, newest first
// GET /data/batches
func (h *Handlers) ListBatches(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	limit := util.ParseLimit(c.Query("limit"), defaultPageSize, maxPageSize)
	var batches []models.Batch
	err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&batches).Error
	if util.HandleDBError(c, err, "batches") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// listBatch loads the rows of one batch into dest after checking the caller
// owns it. Foreign batches look the same as missing ones.
func listBatch[T any](c *gin.Context, h *Handlers, dest *[]T) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	batchID := c.Query("batch_id")
	if batchID == "" {
		util.RespondValidationError(c, "batch_id", "batch_id is required")
		return
	}
	if _, err := uuid.Parse(batchID); err != nil {
		util.RespondValidationError(c, "batch_id", "batch_id must be a UUID")
		return
	}

	ctx := c.Request.Context()
	var batch models.Batch
	if util.HandleDBError(c, h.db.WithContext(ctx).First(&batch, "id = ?", batchID).Error, "batch") {
		return
	}
	if batch.UserID != user.ID {
		util.RespondWithAPIError(c, errors.NotFound("batch"))
		return
	}

	limit := util.ParseLimit(c.Query("limit"), maxPageSize, maxPageSize)
	err := h.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Limit(limit).
		Find(dest).Error
	if util.HandleDBError(c, err, "batch data") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "data": *dest})
}
