// internal/service/tenant/service.go
package tenant

import (
	"context"
	"fmt"

	"fieldworks-service/internal/domain/tenant"

	"go.uber.org/zap"
)

type TenantService struct {
	tenantRepo tenant.Repository
	logger     *zap.Logger
}

func NewTenantService(tenantRepo tenant.Repository, logger *zap.Logger) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

// GetCRMSettings returns the tenant's CRM configuration.
func (s *TenantService) GetCRMSettings(ctx context.Context, tenantID int64) (*tenant.CRMSettingsResponse, error) {
	t, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return t.Settings(), nil
}

// UpdateCRMSettings updates the tenant's CRM identifiers. Only fields
// present in the request change.
func (s *TenantService) UpdateCRMSettings(ctx context.Context, tenantID int64, req *tenant.UpdateCRMSettingsRequest) (*tenant.CRMSettingsResponse, error) {
	t, err := s.tenantRepo.UpdateCRMSettings(ctx, tenantID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update CRM settings: %w", err)
	}

	s.logger.Info("tenant CRM settings updated",
		zap.Int64("tenant_id", tenantID),
		zap.Bool("connected", t.CRMLocationID.Valid),
	)
	return t.Settings(), nil
}
