// internal/domain/job/repository.go
package job

import "context"

type Repository interface {
	FindByID(ctx context.Context, tenantID, id int64) (*Job, error)
	ListBudgetLines(ctx context.Context, jobID int64) ([]BudgetLine, error)

	// SetExternalOpportunityID records the pushed opportunity. Set-once;
	// fails with xerrors.ErrConflict when a different id is already bound.
	SetExternalOpportunityID(ctx context.Context, tenantID, id int64, externalID string) error
}
