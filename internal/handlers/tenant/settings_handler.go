// internal/handlers/tenant/settings_handler.go
package tenant

import (
	"errors"
	"net/http"

	"fieldworks-service/internal/domain/tenant"
	"fieldworks-service/internal/middleware"
	xerrors "fieldworks-service/internal/pkg/errors"
	"fieldworks-service/internal/pkg/response"
	tenantUsecase "fieldworks-service/internal/service/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	tenantService *tenantUsecase.TenantService
	logger        *zap.Logger
}

func NewSettingsHandler(tenantService *tenantUsecase.TenantService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		tenantService: tenantService,
		logger:        logger,
	}
}

// GetCRMSettings returns the tenant's CRM connection settings.
func (h *SettingsHandler) GetCRMSettings(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	settings, err := h.tenantService.GetCRMSettings(c.Request.Context(), tenantID)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "tenant not found")
			return
		}
		h.logger.Error("get crm settings failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	response.Success(c, http.StatusOK, "crm settings", settings)
}

// UpdateCRMSettings updates the fields present in the request body.
func (h *SettingsHandler) UpdateCRMSettings(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	var req tenant.UpdateCRMSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	settings, err := h.tenantService.UpdateCRMSettings(c.Request.Context(), tenantID, &req)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "tenant not found")
			return
		}
		h.logger.Error("update crm settings failed", zap.Int64("tenant_id", tenantID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	response.Success(c, http.StatusOK, "crm settings updated", settings)
}
