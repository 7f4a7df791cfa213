// internal/domain/syncrun/repository.go
package syncrun

import "context"

type Repository interface {
	Create(ctx context.Context, run *SyncRun) error
	Finalize(ctx context.Context, run *SyncRun) error
	FindByID(ctx context.Context, tenantID int64, id string) (*SyncRun, error)
	ListByTenant(ctx context.Context, tenantID int64, limit int) ([]SyncRun, error)
}
