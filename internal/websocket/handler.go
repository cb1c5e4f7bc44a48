package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/auth"
	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/metrics"
	"github.com/threadfit/backend/internal/synthetic"
	"github.com/threadfit/backend/internal/util"
	"go.uber.org/zap"
)

const admitTimeout = 3 * time.Second

// HandlerOptions configures the streaming endpoint.
type HandlerOptions struct {
	// AllowedOrigins are host patterns (path.Match syntax) accepted for
	// cross-origin upgrades. Empty means same-origin only.
	AllowedOrigins []string
	// InsecureSkipVerify disables origin checks entirely (development).
	InsecureSkipVerify bool
	Session            SessionOptions
}

// Handler upgrades authenticated requests into streaming sessions.
type Handler struct {
	authn     auth.Authenticator
	admission Admitter
	generator synthetic.Generator
	registry  *Registry
	opts      HandlerOptions
}

// NewHandler creates a new streaming handler
func NewHandler(authn auth.Authenticator, admission Admitter, generator synthetic.Generator, registry *Registry, opts HandlerOptions) *Handler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handler{
		authn:     authn,
		admission: admission,
		generator: generator,
		registry:  registry,
		opts:      opts,
	}
}

// Registry returns the registry sessions are tracked in.
func (h *Handler) Registry() *Registry {
	return h.registry
}

// HandleGenerate serves GET /ws/generate.
// Requests without a valid session, or from a principal already at its
// session ceiling, are refused with 403 before the upgrade. Once the
// registry is shutting down every upgrade gets 503.
func (h *Handler) HandleGenerate(c *gin.Context) {
	m := metrics.Get()

	if h.registry.Closing() {
		m.WebSocketAdmissionRejected.WithLabelValues("shutting_down").Inc()
		h.abort(c, apierrors.ServiceUnavailable("streaming"))
		return
	}

	token, ok := h.authn.ExtractToken(c.Request)
	if !ok {
		h.refuse(c, "missing_token", nil)
		return
	}
	user, err := h.authn.Validate(c.Request.Context(), token)
	if err != nil {
		h.refuse(c, "invalid_token", err)
		return
	}
	principal := user.ID

	admitCtx, cancel := context.WithTimeout(c.Request.Context(), admitTimeout)
	err = h.admission.TryAdmit(admitCtx, principal)
	cancel()
	switch {
	case errors.Is(err, ErrTooManySessions):
		h.registry.metrics.AdmissionRejected.Add(1)
		m.WebSocketAdmissionRejected.WithLabelValues("ceiling").Inc()
		logger.Log.Info("Session ceiling reached",
			logger.WithUserID(principal),
			logger.WithIP(c.ClientIP()),
		)
		h.abort(c, apierrors.PolicyViolation("too many concurrent sessions").WithDetails("session_limit"))
		return
	case err != nil:
		m.WebSocketAdmissionRejected.WithLabelValues("backend_error").Inc()
		h.abort(c, apierrors.ServiceUnavailable("streaming").Wrap(err))
		return
	}

	// gin refuses to hijack once a status is written, and Accept writes 101
	// before hijacking, so the upgrade goes through the underlying writer.
	conn, err := websocket.Accept(rawWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		OriginPatterns:     h.opts.AllowedOrigins,
		InsecureSkipVerify: h.opts.InsecureSkipVerify,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		// Accept has already written the HTTP error response.
		logger.Log.Warn("WebSocket upgrade failed", logger.WithUserID(principal), zap.Error(err))
		h.releaseUnused(principal)
		return
	}

	session := newSession(conn, principal, h.generator, h.admission, h.registry, h.opts.Session)
	session.Serve() // blocks until the session closes
}

func rawWriter(w gin.ResponseWriter) http.ResponseWriter {
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return w
}

func (h *Handler) refuse(c *gin.Context, reason string, err error) {
	h.registry.metrics.AuthRejected.Add(1)
	metrics.Get().WebSocketAdmissionRejected.WithLabelValues(reason).Inc()
	fields := []zap.Field{logger.WithIP(c.ClientIP()), zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Log.Info("WebSocket auth failed", fields...)

	h.abort(c, apierrors.PolicyViolation("a valid session is required").WithDetails(reason))
}

func (h *Handler) abort(c *gin.Context, apiErr *apierrors.APIError) {
	util.RespondWithAPIError(c, apiErr)
	c.Abort()
}

func (h *Handler) releaseUnused(principal string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := h.admission.Release(ctx, principal); err != nil {
		logger.Log.Error("Admission release failed", logger.WithUserID(principal), zap.Error(err))
	}
}

// HandleMetrics serves GET /ws/metrics.
func (h *Handler) HandleMetrics(c *gin.Context) {
	snapshot := h.registry.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"metrics": snapshot,
		"summary": snapshot.String(),
	})
}
