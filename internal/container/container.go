// Package container wires the ThreadFit backend's services together and owns
// their shutdown order.
package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/cache"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/synthetic"
	"github.com/threadfit/backend/internal/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	db    *gorm.DB
	cache *cache.RedisClient

	// Services
	auth      *auth.Service
	admission websocket.Admitter
	pipeline  *synthetic.Pipeline
	registry  *websocket.Registry
	wsHandler *websocket.Handler

	// Lifecycle hooks
	cleanupFuncs []cleanupFunc
	mu           sync.RWMutex
}

type cleanupFunc struct {
	name string
	fn   func(context.Context) error
}

// New creates a new empty container.
func New() *Container {
	return &Container{}
}

// Build assembles every service from cfg on top of an open database.
// Redis is only dialed when it backs admission.
func Build(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Container, error) {
	c := New().WithDB(db)

	c.WithAuthService(auth.NewService(db, cfg.Auth))

	switch cfg.Stream.AdmissionBackend {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("admission backend: %w", err)
		}
		c.WithCache(client)
		c.OnCleanup("redis", func(context.Context) error { return client.Close() })
		c.WithAdmission(websocket.NewRedisAdmission(client.Client(), cfg.Stream.MaxSessionsPerUser))
	default:
		c.WithAdmission(websocket.NewMemoryAdmission(cfg.Stream.MaxSessionsPerUser))
	}

	pipeline := synthetic.NewPipeline(
		synthetic.NewGormGateway(db, bcrypt.DefaultCost),
		synthetic.NewFaker(nil),
		synthetic.Options{MinDelay: cfg.Stream.MinDelay},
	)
	c.WithPipeline(pipeline)

	registry := websocket.NewRegistry()
	c.WithRegistry(registry)

	sessionOpts := websocket.DefaultSessionOptions()
	sessionOpts.MaxSpeed = cfg.Stream.MaxSpeed
	c.WithWebSocketHandler(websocket.NewHandler(c.Auth(), c.Admission(), pipeline, registry, websocket.HandlerOptions{
		AllowedOrigins:     cfg.AllowedOrigins,
		InsecureSkipVerify: cfg.IsDevelopment() && len(cfg.AllowedOrigins) == 0,
		Session:            sessionOpts,
	}))
	// Registered last so it runs first: sessions release their slots while
	// Redis is still reachable.
	c.OnCleanup("streaming sessions", registry.Shutdown)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ============================================================================
// SETTERS/GETTERS
// ============================================================================

// WithDB registers the database connection
func (c *Container) WithDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// WithCache registers the Redis client
func (c *Container) WithCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, or nil when Redis is not in use
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// WithAuthService registers the auth service
func (c *Container) WithAuthService(service *auth.Service) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = service
	return c
}

// Auth returns the auth service
func (c *Container) Auth() *auth.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// WithAdmission registers the session admission controller
func (c *Container) WithAdmission(admission websocket.Admitter) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admission = admission
	return c
}

// Admission returns the session admission controller
func (c *Container) Admission() websocket.Admitter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admission
}

// WithPipeline registers the generation pipeline
func (c *Container) WithPipeline(pipeline *synthetic.Pipeline) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline = pipeline
	return c
}

// Pipeline returns the generation pipeline
func (c *Container) Pipeline() *synthetic.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipeline
}

// WithRegistry registers the streaming session registry
func (c *Container) WithRegistry(registry *websocket.Registry) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry = registry
	return c
}

// Registry returns the streaming session registry
func (c *Container) Registry() *websocket.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// WithWebSocketHandler registers the streaming handler
func (c *Container) WithWebSocketHandler(handler *websocket.Handler) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wsHandler = handler
	return c
}

// WebSocket returns the streaming handler
func (c *Container) WebSocket() *websocket.Handler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wsHandler
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(name string, fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, cleanupFunc{name: name, fn: fn})
	return c
}

// Cleanup runs every cleanup function, in reverse order of registration,
// and returns all of their errors joined.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i].fn(ctx); err != nil {
			logger.Log.Error("Cleanup function failed", zap.String("name", funcs[i].name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", funcs[i].name, err))
		}
	}
	return stderrors.Join(errs...)
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missingDeps []string
	if c.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if c.auth == nil {
		missingDeps = append(missingDeps, "auth service")
	}
	if c.admission == nil {
		missingDeps = append(missingDeps, "admission controller")
	}
	if c.pipeline == nil {
		missingDeps = append(missingDeps, "generation pipeline")
	}
	if c.wsHandler == nil {
		missingDeps = append(missingDeps, "streaming handler")
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}
	return nil
}
