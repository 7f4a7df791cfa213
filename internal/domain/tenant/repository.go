// internal/domain/tenant/repository.go
package tenant

import "context"

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Tenant, error)
	UpdateCRMSettings(ctx context.Context, id int64, req *UpdateCRMSettingsRequest) (*Tenant, error)
}
