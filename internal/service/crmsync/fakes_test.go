// internal/service/crmsync/fakes_test.go
package crmsync

import (
	"context"
	"strings"
	"sync"
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

// In-memory repository and gateway fakes for the sync engine tests.

type fakeTenantRepo struct {
	tenants map[int64]*tenant.Tenant
}

func newFakeTenantRepo(ts ...*tenant.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{tenants: make(map[int64]*tenant.Tenant)}
	for _, t := range ts {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *fakeTenantRepo) FindByID(_ context.Context, id int64) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTenantRepo) UpdateCRMSettings(_ context.Context, id int64, req *tenant.UpdateCRMSettingsRequest) (*tenant.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	if req.LocationID != nil {
		t.CRMLocationID.String, t.CRMLocationID.Valid = *req.LocationID, true
	}
	if req.PipelineID != nil {
		t.CRMPipelineID.String, t.CRMPipelineID.Valid = *req.PipelineID, true
	}
	if req.StageID != nil {
		t.CRMStageID.String, t.CRMStageID.Valid = *req.StageID, true
	}
	if req.CalendarID != nil {
		t.CRMCalendarID.String, t.CRMCalendarID.Valid = *req.CalendarID, true
	}
	if req.WorkflowIDs != nil {
		t.CRMWorkflowIDs = req.WorkflowIDs
	}
	cp := *t
	return &cp, nil
}

type fakeCustomerRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*customer.Customer

	updateErr error
	createErr error
}

func newFakeCustomerRepo(cs ...*customer.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{rows: make(map[int64]*customer.Customer), nextID: 1000}
	for _, c := range cs {
		r.rows[c.ID] = c
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, tenantID, id int64) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) FindByExternalID(_ context.Context, tenantID int64, externalID string) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.TenantID == tenantID && c.ExternalContactID.Valid && c.ExternalContactID.String == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeCustomerRepo) FindByEmail(_ context.Context, tenantID int64, email string) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.TenantID == tenantID && c.Email.Valid &&
			strings.ToLower(strings.TrimSpace(c.Email.String)) == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeCustomerRepo) FindByPhone(_ context.Context, tenantID int64, phone string) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.rows {
		if c.TenantID == tenantID && c.Phone.Valid && c.Phone.String == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now()
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *customer.Customer) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[c.ID]
	if !ok || existing.TenantID != c.TenantID {
		return xerrors.ErrNotFound
	}
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) SetExternalContactID(_ context.Context, tenantID, id int64, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	if c.ExternalContactID.Valid && c.ExternalContactID.String != externalID {
		return xerrors.ErrConflict
	}
	c.ExternalContactID.String, c.ExternalContactID.Valid = externalID, true
	return nil
}

type fakeJobRepo struct {
	jobs  map[int64]*job.Job
	lines map[int64][]job.BudgetLine
}

func newFakeJobRepo(js ...*job.Job) *fakeJobRepo {
	r := &fakeJobRepo{jobs: make(map[int64]*job.Job), lines: make(map[int64][]job.BudgetLine)}
	for _, j := range js {
		r.jobs[j.ID] = j
	}
	return r
}

func (r *fakeJobRepo) FindByID(_ context.Context, tenantID, id int64) (*job.Job, error) {
	j, ok := r.jobs[id]
	if !ok || j.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) ListBudgetLines(_ context.Context, jobID int64) ([]job.BudgetLine, error) {
	return r.lines[jobID], nil
}

func (r *fakeJobRepo) SetExternalOpportunityID(_ context.Context, tenantID, id int64, externalID string) error {
	j, ok := r.jobs[id]
	if !ok || j.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	if j.ExternalOpportunityID.Valid && j.ExternalOpportunityID.String != externalID {
		return xerrors.ErrConflict
	}
	j.ExternalOpportunityID.String, j.ExternalOpportunityID.Valid = externalID, true
	return nil
}

type fakeAppointmentRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*appointment.Appointment
}

func newFakeAppointmentRepo(as ...*appointment.Appointment) *fakeAppointmentRepo {
	r := &fakeAppointmentRepo{rows: make(map[int64]*appointment.Appointment), nextID: 5000}
	for _, a := range as {
		r.rows[a.ID] = a
	}
	return r
}

func (r *fakeAppointmentRepo) FindByID(_ context.Context, tenantID, id int64) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) FindByExternalID(_ context.Context, tenantID int64, externalID string) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.TenantID == tenantID && a.ExternalAppointmentID.Valid && a.ExternalAppointmentID.String == externalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[a.ID]
	if !ok || existing.TenantID != a.TenantID {
		return xerrors.ErrNotFound
	}
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) SetExternalAppointmentID(_ context.Context, tenantID, id int64, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok || a.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	if a.ExternalAppointmentID.Valid && a.ExternalAppointmentID.String != externalID {
		return xerrors.ErrConflict
	}
	a.ExternalAppointmentID.String, a.ExternalAppointmentID.Valid = externalID, true
	return nil
}

type fakeRunRepo struct {
	mu        sync.Mutex
	created   []*syncrun.SyncRun
	finalized []*syncrun.SyncRun
}

func (r *fakeRunRepo) Create(_ context.Context, run *syncrun.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, run)
	return nil
}

func (r *fakeRunRepo) Finalize(_ context.Context, run *syncrun.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.finalized = append(r.finalized, &cp)
	return nil
}

func (r *fakeRunRepo) FindByID(_ context.Context, tenantID int64, id string) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.finalized {
		if run.TenantID == tenantID && run.ID == id {
			return run, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *fakeRunRepo) ListByTenant(_ context.Context, tenantID int64, limit int) ([]syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []syncrun.SyncRun
	for _, run := range r.finalized {
		if run.TenantID == tenantID && len(out) < limit {
			out = append(out, *run)
		}
	}
	return out, nil
}

// fakeGateway substitutes the CRM. Unset hooks return empty results.
type fakeGateway struct {
	mu sync.Mutex

	findContacts      func(locationID string, q crm.ContactQuery) ([]crm.RemoteContact, error)
	listContacts      func(locationID string, page crm.Page) ([]crm.RemoteContact, string, error)
	upsertContact     func(locationID string, p crm.ContactPayload, idemKey string) (*crm.RemoteContact, error)
	createOpportunity func(locationID string, p crm.OpportunityPayload, idemKey string) (string, error)
	createAppointment func(locationID string, p crm.AppointmentPayload, idemKey string) (string, error)
	listAppointments  func(locationID, calendarID string, from, to time.Time) ([]crm.RemoteAppointment, error)
	triggerWorkflow   func(locationID, workflowID, contactExternalID string, customData map[string]string) error

	findCalls    int
	triggerCalls int
}

func (g *fakeGateway) FindContacts(_ context.Context, locationID string, q crm.ContactQuery) ([]crm.RemoteContact, error) {
	g.mu.Lock()
	g.findCalls++
	g.mu.Unlock()
	if g.findContacts == nil {
		return nil, nil
	}
	return g.findContacts(locationID, q)
}

func (g *fakeGateway) ListContacts(_ context.Context, locationID string, page crm.Page) ([]crm.RemoteContact, string, error) {
	if g.listContacts == nil {
		return nil, "", nil
	}
	return g.listContacts(locationID, page)
}

func (g *fakeGateway) UpsertContact(_ context.Context, locationID string, p crm.ContactPayload, idemKey string) (*crm.RemoteContact, error) {
	if g.upsertContact == nil {
		return &crm.RemoteContact{ID: "upserted"}, nil
	}
	return g.upsertContact(locationID, p, idemKey)
}

func (g *fakeGateway) CreateOpportunity(_ context.Context, locationID string, p crm.OpportunityPayload, idemKey string) (string, error) {
	if g.createOpportunity == nil {
		return "opp-1", nil
	}
	return g.createOpportunity(locationID, p, idemKey)
}

func (g *fakeGateway) CreateAppointment(_ context.Context, locationID string, p crm.AppointmentPayload, idemKey string) (string, error) {
	if g.createAppointment == nil {
		return "appt-1", nil
	}
	return g.createAppointment(locationID, p, idemKey)
}

func (g *fakeGateway) ListAppointments(_ context.Context, locationID, calendarID string, from, to time.Time) ([]crm.RemoteAppointment, error) {
	if g.listAppointments == nil {
		return nil, nil
	}
	return g.listAppointments(locationID, calendarID, from, to)
}

func (g *fakeGateway) TriggerWorkflow(_ context.Context, locationID, workflowID, contactExternalID string, customData map[string]string) error {
	g.mu.Lock()
	g.triggerCalls++
	g.mu.Unlock()
	if g.triggerWorkflow == nil {
		return nil
	}
	return g.triggerWorkflow(locationID, workflowID, contactExternalID, customData)
}

type testEnv struct {
	svc          *Service
	tenants      *fakeTenantRepo
	customers    *fakeCustomerRepo
	jobs         *fakeJobRepo
	appointments *fakeAppointmentRepo
	runs         *fakeRunRepo
	gateway      *fakeGateway
	locker       *lock.MemoryLocker
}

func newTestEnv(ts ...*tenant.Tenant) *testEnv {
	env := &testEnv{
		tenants:      newFakeTenantRepo(ts...),
		customers:    newFakeCustomerRepo(),
		jobs:         newFakeJobRepo(),
		appointments: newFakeAppointmentRepo(),
		runs:         &fakeRunRepo{},
		gateway:      &fakeGateway{},
		locker:       lock.NewMemoryLocker(),
	}
	env.svc = NewService(
		env.tenants,
		env.customers,
		env.jobs,
		env.appointments,
		env.runs,
		env.gateway,
		env.locker,
		nil,
		Options{DefaultRegion: "US", PageSize: 5},
		zap.NewNop(),
	)
	return env
}
