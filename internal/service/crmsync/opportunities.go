// internal/service/crmsync/opportunities.go
package crmsync

import (
	"context"
	"fmt"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/syncrun"
	xerrors "fieldworks-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// PushOpportunity computes a job's monetary value and creates the
// matching CRM opportunity. The push is idempotent: once an external
// opportunity id is stored on the job, repeat calls return it without
// touching the CRM.
func (s *Service) PushOpportunity(ctx context.Context, tenantID, jobID int64, stageID string) (string, error) {
	t, err := s.tenantByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	locationID, ok := t.LocationID()
	if !ok {
		return "", fmt.Errorf("opportunity push needs a CRM location id: %w", xerrors.ErrNotConfigured)
	}
	pipelineID, ok := t.PipelineID()
	if !ok {
		return "", fmt.Errorf("opportunity push needs a CRM pipeline id: %w", xerrors.ErrNotConfigured)
	}
	if stageID == "" {
		stageID = t.CRMStageID.String
	}

	j, err := s.jobs.FindByID(ctx, tenantID, jobID)
	if err != nil {
		return "", err
	}

	// Repeat push is a no-op, checked before any remote call.
	if j.ExternalOpportunityID.Valid && j.ExternalOpportunityID.String != "" {
		return j.ExternalOpportunityID.String, nil
	}

	c, err := s.customers.FindByID(ctx, tenantID, j.CustomerID)
	if err != nil {
		return "", err
	}
	if !c.ExternalContactID.Valid || c.ExternalContactID.String == "" {
		return "", fmt.Errorf("job %d customer %d: %w", jobID, c.ID, xerrors.ErrCustomerNotSynced)
	}

	run, finish, err := s.beginRun(ctx, tenantID, syncrun.EntityOpportunities)
	if err != nil {
		return "", err
	}
	defer finish()
	run.Processed = 1

	lines, err := s.jobs.ListBudgetLines(ctx, jobID)
	if err != nil {
		run.Fail()
		return "", fmt.Errorf("failed to load budget lines for job %d: %w", jobID, err)
	}
	totalCents := TotalCents(lines)

	payload := ToRemoteOpportunity(j, totalCents, c.ExternalContactID.String, pipelineID, stageID)
	idemKey := crm.IdempotencyKey(tenantID, "opportunity", jobID)

	externalID, err := s.gateway.CreateOpportunity(ctx, locationID, payload, idemKey)
	if err != nil {
		run.RecordError(syncrun.ItemError{
			LocalID: fmt.Sprintf("%d", jobID),
			Reason:  syncrun.ReasonRemote,
			Message: err.Error(),
		})
		run.Fail()
		return "", err
	}

	if err := s.jobs.SetExternalOpportunityID(ctx, tenantID, jobID, externalID); err != nil {
		// The remote record exists; losing the id would cause a
		// duplicate on retry, so surface loudly.
		run.RecordError(syncrun.ItemError{
			LocalID:    fmt.Sprintf("%d", jobID),
			ExternalID: externalID,
			Reason:     syncrun.ReasonStore,
			Message:    err.Error(),
		})
		run.Fail()
		return "", fmt.Errorf("opportunity %s created but not recorded on job %d: %w", externalID, jobID, err)
	}

	run.Created = 1
	run.Finish(false)
	s.logger.Info("opportunity pushed",
		zap.Int64("tenant_id", tenantID),
		zap.Int64("job_id", jobID),
		zap.String("external_opportunity_id", externalID),
		zap.Int64("total_cents", totalCents),
	)
	return externalID, nil
}
