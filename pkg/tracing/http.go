package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// GinMiddleware traces incoming HTTP requests. Health and scrape
// endpoints are excluded to keep the trace volume down.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		switch r.URL.Path {
		case "/health", "/metrics":
			return false
		}
		return true
	}))
}
