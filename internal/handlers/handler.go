package handlers

import (
	"relay_hub/internal/logger"
	"relay_hub/internal/service"

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

	h.registerAPIRoutes(router)

	// Paths the deployed firmware and dashboard already call.
	h.registerLegacyRoutes(router)

	// Live projected snapshot for the dashboard
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerDeviceRoutes(api)
		h.registerRelayRoutes(api)
		h.registerThresholdRoutes(api)
		h.registerLogRoutes(api)
		api.GET("/snapshot", h.getSnapshot)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.POST("/report", h.deviceReport)
		device.POST("/ping", h.devicePing)
		device.GET("/refresh", h.getRefreshToken)
		device.GET("/status", h.getDeviceStatus)
	}
}

func (h *Handler) registerRelayRoutes(api *gin.RouterGroup) {
	relays := api.Group("/relays")
	{
		relays.GET("", h.getRelays)
		// Body example: {"relay1":"on","relay2":"auto"}
		relays.POST("", h.setRelays)
		// Body example: {"mode":"off"}
		relays.PUT("/:relay/mode", h.setRelayMode)
	}
}

func (h *Handler) registerThresholdRoutes(api *gin.RouterGroup) {
	th := api.Group("/thresholds")
	{
		th.GET("", h.getThresholds)
		th.PUT("", h.putThresholds)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
		logs.GET("/", h.getLogs)
	}
}

func (h *Handler) registerLegacyRoutes(r *gin.Engine) {
	r.POST("/sensor_data", h.legacySensorData)
	r.POST("/ping", h.devicePing)
	r.GET("/sensor_data_live", h.getSnapshot)
	r.GET("/get_relays", h.getRelays)
	r.POST("/update_relays", h.legacyUpdateRelays)
	r.GET("/force_refresh", h.getRefreshToken)
	r.GET("/esp_status", h.getDeviceStatus)
	r.GET("/get_thresholds", h.getThresholds)
	r.POST("/update_thresholds", h.legacyUpdateThresholds)
}
