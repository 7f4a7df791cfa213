// internal/app/router.go
package app

import (
	customerHandler "fieldworks-service/internal/handlers/customer"
	syncHandler "fieldworks-service/internal/handlers/sync"
	tenantHandler "fieldworks-service/internal/handlers/tenant"
	"fieldworks-service/internal/middleware"
	"fieldworks-service/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	SyncHandler     *syncHandler.SyncHandler
	SettingsHandler *tenantHandler.SettingsHandler
	CustomerHandler *customerHandler.CustomerHandler
	Hub             *ws.Hub
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	wsGroup := r.Group("/ws")
	wsGroup.Use(h.AuthMiddleware.Auth())
	{
		wsGroup.GET("", h.Hub.HandleConnection)
	}

	// ==================== Sync Operations ====================
	sync := api.Group("/sync")
	sync.Use(h.AuthMiddleware.Auth())
	{
		sync.POST("/contacts", h.SyncHandler.SyncContacts)
		sync.POST("/opportunities", h.SyncHandler.PushOpportunity)
		sync.POST("/appointments", h.SyncHandler.PushAppointment)
		sync.POST("/calendar", h.SyncHandler.SyncCalendar)
		sync.POST("/workflows", h.SyncHandler.TriggerWorkflow)

		sync.GET("/runs", h.SyncHandler.ListRuns)
		sync.GET("/runs/:id", h.SyncHandler.GetRun)
	}

	// ==================== CRM Settings ====================
	settings := api.Group("/settings")
	settings.Use(h.AuthMiddleware.Auth())
	{
		settings.GET("/crm", h.SettingsHandler.GetCRMSettings)
		settings.PUT("/crm", h.SettingsHandler.UpdateCRMSettings)
	}

	// ==================== Customers ====================
	customers := api.Group("/customers")
	customers.Use(h.AuthMiddleware.Auth())
	{
		customers.POST("/:id/external-link", h.CustomerHandler.LinkExternalContact)
		customers.POST("/:id/push", h.CustomerHandler.PushToCRM)
	}
}
