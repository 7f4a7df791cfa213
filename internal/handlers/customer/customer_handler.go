// internal/handlers/customer/customer_handler.go
package customer

import (
	"errors"
	"net/http"
	"strconv"

	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/middleware"
	xerrors "fieldworks-service/internal/pkg/errors"
	"fieldworks-service/internal/pkg/response"
	"fieldworks-service/internal/service/crmsync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	syncService *crmsync.Service
	logger      *zap.Logger
}

func NewCustomerHandler(syncService *crmsync.Service, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// LinkExternalContact manually binds a customer to a CRM contact id.
// Used when the calendar pull skips events whose contact was never
// synced.
func (h *CustomerHandler) LinkExternalContact(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || customerID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid customer id", nil)
		return
	}

	var req customer.LinkExternalContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	linked, err := h.syncService.LinkCustomer(c.Request.Context(), tenantID, customerID, req.ExternalContactID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "customer not found")
		case errors.Is(err, xerrors.ErrConflict):
			response.Error(c, http.StatusConflict, err.Error(), nil)
		default:
			h.logger.Error("link external contact failed",
				zap.Int64("tenant_id", tenantID),
				zap.Int64("customer_id", customerID),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, "customer linked", linked)
}

// PushToCRM ensures the customer exists as a CRM contact and returns
// its external id. Already-linked customers return their stored id
// without a remote call.
func (h *CustomerHandler) PushToCRM(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || customerID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid customer id", nil)
		return
	}

	externalID, err := h.syncService.PushContact(c.Request.Context(), tenantID, customerID)
	if err != nil {
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			response.NotFound(c, "customer not found")
		case errors.Is(err, xerrors.ErrAmbiguousMatch),
			errors.Is(err, xerrors.ErrConflict),
			errors.Is(err, xerrors.ErrSyncAlreadyRunning):
			response.Error(c, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, xerrors.ErrNotConfigured), xerrors.IsMapping(err):
			response.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		case errors.Is(err, xerrors.ErrRemoteUnavailable), errors.Is(err, xerrors.ErrRemoteRejected):
			response.Error(c, http.StatusBadGateway, err.Error(), nil)
		default:
			h.logger.Error("contact push failed",
				zap.Int64("tenant_id", tenantID),
				zap.Int64("customer_id", customerID),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, "contact pushed", customer.PushContactResponse{
		ExternalContactID: externalID,
	})
}
