package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/util"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
	}
}

// Register creates an account
// POST /auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case stderrors.Is(err, auth.ErrUserExists):
		util.RespondWithAPIError(c, errors.Conflict("user").Wrap(err))
		return
	case stderrors.Is(err, auth.ErrInvalidCredentials):
		util.RespondWithAPIError(c, errors.ValidationError("credentials", err.Error()).Wrap(err))
		return
	case err != nil:
		util.RespondWithError(c, err, "failed to register user")
		return
	}

	logger.Log.Info("User registered", logger.WithUserID(user.ID))
	c.JSON(http.StatusCreated, newUserResponse(user))
}

// Login verifies credentials and sets the session cookie
// POST /auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "email and password are required")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case stderrors.Is(err, auth.ErrInvalidCredentials):
		util.RespondWithAPIError(c, errors.Unauthorized("invalid email or password"))
		return
	case stderrors.Is(err, auth.ErrInactiveUser):
		util.RespondWithAPIError(c, errors.Forbidden("account is inactive"))
		return
	case err != nil:
		util.RespondWithError(c, err, "failed to log in")
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), session.Token, maxAge, "/", "", h.secureCookie, true)

	logger.Log.Info("User logged in", logger.WithUserID(session.User.ID))
	c.Status(http.StatusNoContent)
}

// Logout clears the session cookie
// POST /auth/logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user
// GET /auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
