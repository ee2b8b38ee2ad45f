package handlers

import (
	"electrometer_acquisition/internal/logger"
	"electrometer_acquisition/internal/service"

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

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Live sample/state stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerInstrumentRoutes(api)
		h.registerAcquisitionRoutes(api)
		h.registerBufferRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerInstrumentRoutes(api *gin.RouterGroup) {
	inst := api.Group("/instrument")
	{
		inst.POST("/connect", h.connectInstrument)
		inst.POST("/disconnect", h.disconnectInstrument)
		inst.GET("/", h.getInstrument)
	}
}

func (h *Handler) registerAcquisitionRoutes(api *gin.RouterGroup) {
	acq := api.Group("/acquisition")
	{
		acq.POST("/start", h.startAcquisition)
		acq.POST("/stop", h.stopAcquisition)
		// Body example: {"chunk_size": 25} — applied before the next chunk query
		acq.PUT("/chunk", h.setChunkSize)
		acq.GET("/state", h.getState)
	}
}

func (h *Handler) registerBufferRoutes(api *gin.RouterGroup) {
	buf := api.Group("/buffer")
	{
		buf.POST("/clear", h.clearBuffer)
		buf.POST("/export", h.exportBuffer)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
	runs := api.Group("/runs")
	{
		runs.GET("/", h.getRuns)
	}
}
