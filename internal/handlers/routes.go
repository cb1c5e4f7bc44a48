package handlers

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/middleware"
	"github.com/threadfit/backend/internal/websocket"
)

// RouteDeps are the collaborators mounted by RegisterRoutes.
type RouteDeps struct {
	Auth         auth.AuthServiceInterface
	AuthHandlers *AuthHandlers
	Handlers     *Handlers
	// WebSocket is optional; without it /ws routes are not mounted.
	WebSocket    *websocket.Handler
	HealthChecks []HealthCheck
	// DisableRateLimit skips the per-IP limiters (tests, load generation).
	DisableRateLimit bool
}

// RegisterRoutes mounts the HTTP surface on r.
func RegisterRoutes(r *gin.Engine, d RouteDeps) {
	r.GET("/health", Health(d.HealthChecks...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := auth.Middleware(d.Auth)
	limit := func(mw func() gin.HandlerFunc) gin.HandlerFunc {
		if d.DisableRateLimit {
			return func(c *gin.Context) { c.Next() }
		}
		return mw()
	}

	authGroup := r.Group("/auth")
	authGroup.Use(limit(middleware.RateLimitAuth))
	{
		authGroup.POST("/register", d.AuthHandlers.Register)
		authGroup.POST("/login", d.AuthHandlers.Login)
		authGroup.POST("/logout", d.AuthHandlers.Logout)
		authGroup.GET("/me", requireAuth, d.AuthHandlers.Me)
	}

	syntheticGroup := r.Group("/synthetic")
	syntheticGroup.Use(limit(middleware.RateLimitSynthetic), requireAuth)
	{
		syntheticGroup.POST("/users", d.Handlers.GenerateUsers)
		syntheticGroup.POST("/posts", d.Handlers.GeneratePosts)
		syntheticGroup.POST("/comments", d.Handlers.GenerateComments)
	}

	data := r.Group("/data")
	data.Use(requireAuth, gzip.Gzip(gzip.DefaultCompression))
	{
		data.GET("/batches", d.Handlers.ListBatches)
		data.GET("/users", d.Handlers.ListBatchUsers)
		data.GET("/posts", d.Handlers.ListBatchPosts)
		data.GET("/comments", d.Handlers.ListBatchComments)
	}

	if d.WebSocket != nil {
		// The upgrade authenticates itself so it can refuse with 403.
		r.GET("/ws/generate", d.WebSocket.HandleGenerate)
		r.GET("/ws/metrics", requireAuth, d.WebSocket.HandleMetrics)
	}
}
