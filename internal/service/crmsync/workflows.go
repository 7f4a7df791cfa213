// internal/service/crmsync/workflows.go
package crmsync

import (
	"context"
	"fmt"

	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// TriggerWorkflow notifies the CRM that a business event occurred for a
// contact (estimate sent, job won). There are no local state changes and
// no audit run: a failed trigger is logged and reported as
// triggered=false, but it must never block the business action that
// caused it.
func (s *Service) TriggerWorkflow(ctx context.Context, tenantID int64, workflowID, contactExternalID string, customData map[string]string) (bool, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return false, err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return false, fmt.Errorf("workflow trigger needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}
	if !t.HasWorkflow(workflowID) {
		return false, fmt.Errorf("workflow %s not configured for tenant %d: %w", workflowID, tenantID, xerrors.ErrNotConfigured)
	}

	if err := s.gateway.TriggerWorkflow(ctx, locationID, workflowID, contactExternalID, customData); err != nil {
		s.logger.Warn("workflow trigger failed",
			zap.Int64("tenant_id", tenantID),
			zap.String("workflow_id", workflowID),
			zap.String("contact_external_id", contactExternalID),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}
