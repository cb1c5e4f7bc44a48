package handlers

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/synthetic"
	"github.com/threadfit/backend/internal/util"
)

const (
	defaultPullAmount = 10
	maxPullAmount     = 1000
)

// pullRequest is the body of the pull-mode generation endpoints. Only the
// count field matching the route is read.
type pullRequest struct {
	NumUsers        *int     `json:"num_users"`
	NumPosts        *int     `json:"num_posts"`
	NumComments     *int     `json:"num_comments"`
	UserID          string   `json:"user_id"`
	PostID          string   `json:"post_id"`
	Seed            *int64   `json:"seed"`
	SpeedMultiplier *float64 `json:"speed_multiplier"`
}

type pullResponse struct {
	Msg     string           `json:"msg"`
	BatchID string           `json:"batch_id"`
	Data    []map[string]any `json:"data"`
}

// GenerateUsers creates fake users and returns them
// POST /synthetic/users
func (h *Handlers) GenerateUsers(c *gin.Context) {
	h.generate(c, synthetic.ActionGenerateUsers, "users")
}

// GeneratePosts creates fake posts for user_id (default: caller)
// POST /synthetic/posts
func (h *Handlers) GeneratePosts(c *gin.Context) {
	h.generate(c, synthetic.ActionGeneratePosts, "posts")
}

// GenerateComments creates fake comments on post_id
// POST /synthetic/comments
func (h *Handlers) GenerateComments(c *gin.Context) {
	h.generate(c, synthetic.ActionGenerateComments, "comments")
}

func (h *Handlers) generate(c *gin.Context, action synthetic.Action, noun string) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req pullRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, "invalid request body")
			return
		}
	}

	amount := defaultPullAmount
	switch action {
	case synthetic.ActionGenerateUsers:
		amount = valueOr(req.NumUsers, amount)
	case synthetic.ActionGeneratePosts:
		amount = valueOr(req.NumPosts, amount)
	case synthetic.ActionGenerateComments:
		amount = valueOr(req.NumComments, amount)
	}
	if amount > maxPullAmount {
		util.RespondValidationError(c, "amount", fmt.Sprintf("at most %d %s per request", maxPullAmount, noun))
		return
	}

	var batchID string
	run := synthetic.Request{
		Action:  action,
		Amount:  amount,
		OwnerID: user.ID,
		UserID:  req.UserID,
		PostID:  req.PostID,
		Seed:    req.Seed,
		Speed:   h.speed(req.SpeedMultiplier),
		OnBatch: func(b *models.Batch) { batchID = b.ID },
	}

	data := make([]map[string]any, 0, max(amount, 0))
	for res, err := range h.generator.Run(c.Request.Context(), run) {
		if err != nil {
			util.RespondWithError(c, err, fmt.Sprintf("failed to generate %s", noun))
			return
		}
		data = append(data, res.Entity.Payload())
	}

	c.JSON(http.StatusOK, pullResponse{
		Msg:     fmt.Sprintf("%d %s generated", len(data), noun),
		BatchID: batchID,
		Data:    data,
	})
}

// speed applies the streaming rules: missing or out-of-range values mean 1.0.
func (h *Handlers) speed(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 || *v > h.maxSpeed {
		return 1.0
	}
	return *v
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
