package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/threadfit/backend/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns the otelgin middleware for serviceName.
// Mount SpanAttributesMiddleware after it to decorate the request span.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanAttributesMiddleware adds user, batch and request attributes to the
// active span once the handler chain has run, while the span is still open.
func SpanAttributesMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if userID, exists := c.Get(util.ContextUserIDKey); exists {
			if userIDStr, ok := userID.(string); ok {
				span.SetAttributes(attribute.String("user.id", userIDStr))
			}
		}
		if batchID := c.Query("batch_id"); batchID != "" {
			span.SetAttributes(attribute.String("threadfit.batch_id", batchID))
		}
		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		for _, ginErr := range c.Errors {
			if ginErr.Err != nil {
				span.RecordError(ginErr.Err, trace.WithStackTrace(true))
				span.SetStatus(codes.Error, ginErr.Error())
			}
		}
	}
}
