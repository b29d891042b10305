package handlers

import (
	"mistctl/internal/logger"
	"mistctl/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Status stream over WebSocket (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		h.registerModeRoutes(api)
		h.registerConfigRoutes(api)
		api.POST("/chip/reset", h.chipReset)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerModeRoutes(api *gin.RouterGroup) {
	mode := api.Group("/mode")
	{
		mode.GET("", h.getMode)
		// Body example: {"mode":"auto"}; empty body toggles.
		mode.POST("/change", h.changeMode)
	}
}

func (h *Handler) registerConfigRoutes(api *gin.RouterGroup) {
	cfg := api.Group("/config")
	{
		cfg.GET("", h.getConfig)
		cfg.POST("/update", h.updateConfig)
		cfg.POST("/reset", h.resetConfig)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
