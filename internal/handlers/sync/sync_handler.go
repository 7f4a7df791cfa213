// internal/handlers/sync/sync_handler.go
package sync

import (
	"errors"
	"net/http"
	"strconv"

	"fieldworks-service/internal/domain/syncrun"
	"fieldworks-service/internal/middleware"
	xerrors "fieldworks-service/internal/pkg/errors"
	"fieldworks-service/internal/pkg/response"
	"fieldworks-service/internal/service/crmsync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SyncHandler struct {
	syncService *crmsync.Service
	logger      *zap.Logger
}

func NewSyncHandler(syncService *crmsync.Service, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// ========== Contact sync ==========

// SyncContacts pulls the full remote contact list into local customers.
func (h *SyncHandler) SyncContacts(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	run, err := h.syncService.SyncContacts(c.Request.Context(), tenantID)
	if err != nil {
		h.logger.Error("contact sync failed",
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "contact sync finished", run.Summary())
}

// ========== Opportunity push ==========

func (h *SyncHandler) PushOpportunity(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	var req syncrun.PushOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	externalID, err := h.syncService.PushOpportunity(c.Request.Context(), tenantID, req.JobID, req.StageID)
	if err != nil {
		h.logger.Error("opportunity push failed",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("job_id", req.JobID),
			zap.Error(err),
		)
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "opportunity pushed", syncrun.PushOpportunityResponse{
		ExternalOpportunityID: externalID,
	})
}

// ========== Appointment push ==========

func (h *SyncHandler) PushAppointment(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	var req syncrun.PushAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	externalID, err := h.syncService.PushAppointment(c.Request.Context(), tenantID, req.AppointmentID)
	if err != nil {
		h.logger.Error("appointment push failed",
			zap.Int64("tenant_id", tenantID),
			zap.Int64("appointment_id", req.AppointmentID),
			zap.Error(err),
		)
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "appointment pushed", syncrun.PushAppointmentResponse{
		ExternalAppointmentID: externalID,
	})
}

// ========== Calendar pull ==========

func (h *SyncHandler) SyncCalendar(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	var req syncrun.CalendarSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	run, err := h.syncService.SyncCalendar(c.Request.Context(), tenantID, req.StartTime, req.EndTime)
	if err != nil {
		h.logger.Error("calendar sync failed",
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "calendar sync finished", run.Summary())
}

// ========== Workflow trigger ==========

func (h *SyncHandler) TriggerWorkflow(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	var req syncrun.TriggerWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	triggered, err := h.syncService.TriggerWorkflow(c.Request.Context(), tenantID,
		req.WorkflowID, req.ContactExternalID, req.CustomData)
	if err != nil {
		h.logger.Error("workflow trigger failed",
			zap.Int64("tenant_id", tenantID),
			zap.String("workflow_id", req.WorkflowID),
			zap.Error(err),
		)
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "workflow trigger processed", syncrun.TriggerWorkflowResponse{
		Triggered: triggered,
	})
}

// ========== Run inspection ==========

func (h *SyncHandler) GetRun(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)
	runID := c.Param("id")

	run, err := h.syncService.GetRun(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sync run", run)
}

func (h *SyncHandler) ListRuns(c *gin.Context) {
	tenantID := middleware.MustGetTenantID(c)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.syncService.ListRuns(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.respondSyncError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sync runs", runs)
}

// respondSyncError maps sync engine errors to HTTP statuses.
func (h *SyncHandler) respondSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, xerrors.ErrSyncAlreadyRunning),
		errors.Is(err, xerrors.ErrSchedulingConflict),
		errors.Is(err, xerrors.ErrConflict):
		response.Error(c, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, xerrors.ErrNotConfigured),
		errors.Is(err, xerrors.ErrCustomerNotSynced),
		xerrors.IsMapping(err):
		response.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)

	case errors.Is(err, xerrors.ErrRemoteUnavailable),
		errors.Is(err, xerrors.ErrRemoteRejected):
		response.Error(c, http.StatusBadGateway, err.Error(), nil)

	case errors.Is(err, xerrors.ErrNotFound):
		response.NotFound(c, err.Error())

	default:
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
