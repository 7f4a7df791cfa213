// internal/service/crmsync/service.go
package crmsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldworks-service/internal/crm"
	"fieldworks-service/internal/domain/appointment"
	"fieldworks-service/internal/domain/customer"
	"fieldworks-service/internal/domain/job"
	"fieldworks-service/internal/domain/syncrun"
	"fieldworks-service/internal/domain/tenant"
	xerrors "fieldworks-service/internal/pkg/errors"
	"fieldworks-service/internal/pkg/lock"

	"go.uber.org/zap"
)

// EventPublisher pushes run status updates to connected UI clients.
type EventPublisher interface {
	PublishRunUpdate(tenantID int64, run *syncrun.SyncRun)
}

// Options tune the sync engine.
type Options struct {
	// DefaultRegion interprets phone numbers without a country prefix.
	DefaultRegion string
	// PageSize bounds one contact pull page.
	PageSize int
	// LockTTL is the advisory lock safety net against crashed holders.
	LockTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultRegion == "" {
		o.DefaultRegion = "US"
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 15 * time.Minute
	}
	return o
}

// Service orchestrates the sync operations: it sequences mapper,
// resolver and CRM gateway against the local store, enforces at most one
// in-flight operation per (tenant, entity type), and records every
// outcome as a SyncRun.
type Service struct {
	tenants      tenant.Repository
	customers    customer.Repository
	jobs         job.Repository
	appointments appointment.Repository
	runs         syncrun.Repository

	gateway  crm.Gateway
	resolver *Resolver
	locks    lock.Locker
	events   EventPublisher

	opts   Options
	logger *zap.Logger
}

func NewService(
	tenants tenant.Repository,
	customers customer.Repository,
	jobs job.Repository,
	appointments appointment.Repository,
	runs syncrun.Repository,
	gateway crm.Gateway,
	locks lock.Locker,
	events EventPublisher,
	opts Options,
	logger *zap.Logger,
) *Service {
	opts = opts.withDefaults()
	return &Service{
		tenants:      tenants,
		customers:    customers,
		jobs:         jobs,
		appointments: appointments,
		runs:         runs,
		gateway:      gateway,
		resolver:     NewResolver(customers, gateway, opts.DefaultRegion, logger),
		locks:        locks,
		events:       events,
		opts:         opts,
		logger:       logger,
	}
}

// Resolver exposes the identity resolver for callers outside the batch
// operations (manual linking).
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// GetRun returns one run for status polling.
func (s *Service) GetRun(ctx context.Context, tenantID int64, runID string) (*syncrun.SyncRun, error) {
	return s.runs.FindByID(ctx, tenantID, runID)
}

// ListRuns returns the tenant's recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, tenantID int64, limit int) ([]syncrun.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.ListByTenant(ctx, tenantID, limit)
}

// LinkCustomer manually binds a customer to a CRM contact, for calendar
// pulls that arrived before the contact was ever synced. The same
// sticky-identity and uniqueness rules as automatic resolution apply.
func (s *Service) LinkCustomer(ctx context.Context, tenantID, customerID int64, externalID string) (*customer.Customer, error) {
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if c.ExternalContactID.Valid && c.ExternalContactID.String != "" {
		if c.ExternalContactID.String == externalID {
			return c, nil
		}
		return nil, fmt.Errorf("customer already linked to CRM contact %s: %w",
			c.ExternalContactID.String, xerrors.ErrConflict)
	}
	if err := s.resolver.bind(ctx, c, externalID); err != nil {
		return nil, err
	}
	return c, nil
}

// beginRun acquires the (tenant, entity) advisory lock and opens the
// audit record. The returned finish function releases the lock and
// finalizes the run on every exit path; defer it immediately.
func (s *Service) beginRun(ctx context.Context, tenantID int64, entity syncrun.EntityType) (*syncrun.SyncRun, func(), error) {
	release, err := s.locks.Acquire(ctx, lockKey(tenantID, entity), s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return nil, nil, fmt.Errorf("%s sync for tenant %d: %w", entity, tenantID, xerrors.ErrSyncAlreadyRunning)
		}
		return nil, nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}

	run := syncrun.New(tenantID, entity)
	if err := s.runs.Create(ctx, run); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to record sync run: %w", err)
	}

	finish := func() {
		defer release()
		// A cancelled context must not lose the audit record.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.runs.Finalize(fctx, run); err != nil {
			s.logger.Error("failed to finalize sync run",
				zap.String("run_id", run.ID),
				zap.Int64("tenant_id", tenantID),
				zap.Error(err),
			)
		}
		if s.events != nil {
			s.events.PublishRunUpdate(tenantID, run)
		}
	}
	return run, finish, nil
}

func (s *Service) tenantByID(ctx context.Context, tenantID int64) (*tenant.Tenant, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}
	return t, nil
}

func lockKey(tenantID int64, entity syncrun.EntityType) string {
	return fmt.Sprintf("synclock:%d:%s", tenantID, entity)
}
