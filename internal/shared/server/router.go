package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/documents"
	"docflow-backend/internal/events"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

// RouterDeps carries everything the router wires up.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	Hub              *events.Hub
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	authed := api.Group("")
	authed.Use(middleware.Identity())
	deps.DocumentsHandler.RegisterRoutes(authed)
	authed.GET("/events", events.SSEHandler(deps.Hub))

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
