package services

import (
	"context"
	"fmt"
	"time"

	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
)

// PortfolioService manages properties, tenants, leases, mortgages and
// maintenance requests. Every reference to another record must resolve for
// the same owner.
type PortfolioService struct {
	store  ports.Store
	cache  Invalidator
	logger *applog.Logger
	now    func() time.Time
}

// NewPortfolioService wires the service. cache is told about property
// writes because summaries show property names.
func NewPortfolioService(store ports.Store, cache Invalidator, logger *applog.Logger) *PortfolioService {
	return &PortfolioService{
		store:  store,
		cache:  orInvalidator(cache),
		logger: componentLogger(logger, applog.ComponentPortfolio),
		now:    time.Now,
	}
}

func (s *PortfolioService) logChange(ctx context.Context, op, kind, ownerID, id string) {
	s.logger.InfoContext(ctx, kind+" "+op+"d",
		applog.FieldOperation, op,
		applog.FieldOwnerID, ownerID,
		"id", id)
}

func (s *PortfolioService) propertyExists(ownerID string) func(context.Context, string) error {
	return func(ctx context.Context, id string) error {
		_, err := s.store.GetProperty(ctx, ownerID, id)
		return err
	}
}

func (s *PortfolioService) tenantExists(ownerID string) func(context.Context, string) error {
	return func(ctx context.Context, id string) error {
		_, err := s.store.GetTenant(ctx, ownerID, id)
		return err
	}
}

// Properties

func (s *PortfolioService) CreateProperty(ctx context.Context, ownerID string, p core.Property) (core.Property, error) {
	p.ID = ""
	p.OwnerID = ownerID
	p.Defaults()
	if err := validate(p.Validate()); err != nil {
		return core.Property{}, err
	}
	created, err := s.store.CreateProperty(ctx, p)
	if err != nil {
		return core.Property{}, fmt.Errorf("save property: %w", err)
	}
	s.cache.Invalidate(ownerID)
	s.logChange(ctx, applog.OpCreate, "Property", ownerID, created.ID)
	return created, nil
}

func (s *PortfolioService) GetProperty(ctx context.Context, ownerID, id string) (core.Property, error) {
	return s.store.GetProperty(ctx, ownerID, id)
}

func (s *PortfolioService) ListProperties(ctx context.Context, ownerID string) ([]core.Property, error) {
	return s.store.ListProperties(ctx, ownerID)
}

func (s *PortfolioService) UpdateProperty(ctx context.Context, ownerID, id string, apply func(*core.Property) error) (core.Property, error) {
	old, err := s.store.GetProperty(ctx, ownerID, id)
	if err != nil {
		return core.Property{}, err
	}
	next := old
	if err := apply(&next); err != nil {
		return core.Property{}, validate(err)
	}
	next.ID, next.OwnerID, next.CreatedAt = old.ID, ownerID, old.CreatedAt
	next.Defaults()
	if err := validate(next.Validate()); err != nil {
		return core.Property{}, err
	}
	updated, err := s.store.UpdateProperty(ctx, next)
	if err != nil {
		return core.Property{}, fmt.Errorf("update property: %w", err)
	}
	s.cache.Invalidate(ownerID)
	s.logChange(ctx, applog.OpUpdate, "Property", ownerID, id)
	return updated, nil
}

// DeleteProperty removes the property with its leases and maintenance
// requests. Its transactions become unassigned.
func (s *PortfolioService) DeleteProperty(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteProperty(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.Invalidate(ownerID)
	s.logChange(ctx, applog.OpDelete, "Property", ownerID, id)
	return nil
}

// Tenants

func (s *PortfolioService) CreateTenant(ctx context.Context, ownerID string, t core.Tenant) (core.Tenant, error) {
	t.ID = ""
	t.OwnerID = ownerID
	t.Defaults()
	if err := validate(t.Validate()); err != nil {
		return core.Tenant{}, err
	}
	if err := requireRef(ctx, t.Property, "property", s.propertyExists(ownerID)); err != nil {
		return core.Tenant{}, err
	}
	created, err := s.store.CreateTenant(ctx, t)
	if err != nil {
		return core.Tenant{}, fmt.Errorf("save tenant: %w", err)
	}
	s.logChange(ctx, applog.OpCreate, "Tenant", ownerID, created.ID)
	return created, nil
}

func (s *PortfolioService) GetTenant(ctx context.Context, ownerID, id string) (core.Tenant, error) {
	return s.store.GetTenant(ctx, ownerID, id)
}

func (s *PortfolioService) ListTenants(ctx context.Context, ownerID string) ([]core.Tenant, error) {
	return s.store.ListTenants(ctx, ownerID)
}

func (s *PortfolioService) UpdateTenant(ctx context.Context, ownerID, id string, apply func(*core.Tenant) error) (core.Tenant, error) {
	old, err := s.store.GetTenant(ctx, ownerID, id)
	if err != nil {
		return core.Tenant{}, err
	}
	next := old
	next.Property = cloneRef(old.Property)
	if err := apply(&next); err != nil {
		return core.Tenant{}, validate(err)
	}
	next.ID, next.OwnerID, next.CreatedAt = old.ID, ownerID, old.CreatedAt
	next.Defaults()
	if err := validate(next.Validate()); err != nil {
		return core.Tenant{}, err
	}
	if err := requireRef(ctx, next.Property, "property", s.propertyExists(ownerID)); err != nil {
		return core.Tenant{}, err
	}
	updated, err := s.store.UpdateTenant(ctx, next)
	if err != nil {
		return core.Tenant{}, fmt.Errorf("update tenant: %w", err)
	}
	s.logChange(ctx, applog.OpUpdate, "Tenant", ownerID, id)
	return updated, nil
}

func (s *PortfolioService) DeleteTenant(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTenant(ctx, ownerID, id); err != nil {
		return err
	}
	s.logChange(ctx, applog.OpDelete, "Tenant", ownerID, id)
	return nil
}

// Leases

func (s *PortfolioService) checkLeaseRefs(ctx context.Context, ownerID string, l core.Lease) error {
	if err := requireRef(ctx, l.Property, "property", s.propertyExists(ownerID)); err != nil {
		return err
	}
	return requireRef(ctx, l.Tenant, "tenant", s.tenantExists(ownerID))
}

func (s *PortfolioService) CreateLease(ctx context.Context, ownerID string, l core.Lease) (core.Lease, error) {
	l.ID = ""
	l.OwnerID = ownerID
	l.Defaults()
	if err := validate(l.Validate()); err != nil {
		return core.Lease{}, err
	}
	if err := s.checkLeaseRefs(ctx, ownerID, l); err != nil {
		return core.Lease{}, err
	}
	created, err := s.store.CreateLease(ctx, l)
	if err != nil {
		return core.Lease{}, fmt.Errorf("save lease: %w", err)
	}
	s.logChange(ctx, applog.OpCreate, "Lease", ownerID, created.ID)
	return created, nil
}

func (s *PortfolioService) GetLease(ctx context.Context, ownerID, id string) (core.Lease, error) {
	return s.store.GetLease(ctx, ownerID, id)
}

// ListLeases lists every lease of the owner, or those of one property. An
// unknown property is reported as not found.
func (s *PortfolioService) ListLeases(ctx context.Context, ownerID, propertyID string) ([]core.Lease, error) {
	if propertyID != "" {
		if err := requireRef(ctx, &core.Ref{ID: propertyID}, "property", s.propertyExists(ownerID)); err != nil {
			return nil, err
		}
	}
	return s.store.ListLeases(ctx, ownerID, propertyID)
}

func (s *PortfolioService) UpdateLease(ctx context.Context, ownerID, id string, apply func(*core.Lease) error) (core.Lease, error) {
	old, err := s.store.GetLease(ctx, ownerID, id)
	if err != nil {
		return core.Lease{}, err
	}
	next := old
	next.Property = cloneRef(old.Property)
	next.Tenant = cloneRef(old.Tenant)
	if err := apply(&next); err != nil {
		return core.Lease{}, validate(err)
	}
	next.ID, next.OwnerID, next.CreatedAt = old.ID, ownerID, old.CreatedAt
	next.Defaults()
	if err := validate(next.Validate()); err != nil {
		return core.Lease{}, err
	}
	if err := s.checkLeaseRefs(ctx, ownerID, next); err != nil {
		return core.Lease{}, err
	}
	updated, err := s.store.UpdateLease(ctx, next)
	if err != nil {
		return core.Lease{}, fmt.Errorf("update lease: %w", err)
	}
	s.logChange(ctx, applog.OpUpdate, "Lease", ownerID, id)
	return updated, nil
}

func (s *PortfolioService) DeleteLease(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteLease(ctx, ownerID, id); err != nil {
		return err
	}
	s.logChange(ctx, applog.OpDelete, "Lease", ownerID, id)
	return nil
}

// Maintenance requests

func (s *PortfolioService) checkMaintenanceRefs(ctx context.Context, ownerID string, m core.MaintenanceRequest) error {
	if err := requireRef(ctx, m.Property, "property", s.propertyExists(ownerID)); err != nil {
		return err
	}
	return requireRef(ctx, m.Tenant, "tenant", s.tenantExists(ownerID))
}

func (s *PortfolioService) CreateMaintenance(ctx context.Context, ownerID string, m core.MaintenanceRequest) (core.MaintenanceRequest, error) {
	m.ID = ""
	m.OwnerID = ownerID
	m.Defaults()
	m.Stamp(s.now())
	if err := validate(m.Validate()); err != nil {
		return core.MaintenanceRequest{}, err
	}
	if err := s.checkMaintenanceRefs(ctx, ownerID, m); err != nil {
		return core.MaintenanceRequest{}, err
	}
	created, err := s.store.CreateMaintenance(ctx, m)
	if err != nil {
		return core.MaintenanceRequest{}, fmt.Errorf("save maintenance request: %w", err)
	}
	s.logChange(ctx, applog.OpCreate, "Maintenance request", ownerID, created.ID)
	return created, nil
}

func (s *PortfolioService) GetMaintenance(ctx context.Context, ownerID, id string) (core.MaintenanceRequest, error) {
	return s.store.GetMaintenance(ctx, ownerID, id)
}

// ListMaintenance filters by property and status. An unknown status is a
// validation error.
func (s *PortfolioService) ListMaintenance(ctx context.Context, ownerID string, q ports.MaintenanceQuery) ([]core.MaintenanceRequest, error) {
	if q.Status != "" && !core.IsMaintenanceStatus(q.Status) {
		return nil, validate(fmt.Errorf("%w: %q", core.ErrInvalidStatus, q.Status))
	}
	return s.store.ListMaintenance(ctx, ownerID, q)
}

func (s *PortfolioService) UpdateMaintenance(ctx context.Context, ownerID, id string, apply func(*core.MaintenanceRequest) error) (core.MaintenanceRequest, error) {
	old, err := s.store.GetMaintenance(ctx, ownerID, id)
	if err != nil {
		return core.MaintenanceRequest{}, err
	}
	next := old
	next.Property = cloneRef(old.Property)
	next.Tenant = cloneRef(old.Tenant)
	if err := apply(&next); err != nil {
		return core.MaintenanceRequest{}, validate(err)
	}
	next.ID, next.OwnerID, next.CreatedAt = old.ID, ownerID, old.CreatedAt
	next.Defaults()
	next.Stamp(s.now())
	if err := validate(next.Validate()); err != nil {
		return core.MaintenanceRequest{}, err
	}
	if err := s.checkMaintenanceRefs(ctx, ownerID, next); err != nil {
		return core.MaintenanceRequest{}, err
	}
	updated, err := s.store.UpdateMaintenance(ctx, next)
	if err != nil {
		return core.MaintenanceRequest{}, fmt.Errorf("update maintenance request: %w", err)
	}
	s.logChange(ctx, applog.OpUpdate, "Maintenance request", ownerID, id)
	return updated, nil
}

func (s *PortfolioService) DeleteMaintenance(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteMaintenance(ctx, ownerID, id); err != nil {
		return err
	}
	s.logChange(ctx, applog.OpDelete, "Maintenance request", ownerID, id)
	return nil
}

// Mortgages

func (s *PortfolioService) CreateMortgage(ctx context.Context, ownerID string, m core.Mortgage) (core.Mortgage, error) {
	m.ID = ""
	m.OwnerID = ownerID
	m.Defaults()
	m.Stamp(s.now())
	if err := validate(m.Validate()); err != nil {
		return core.Mortgage{}, err
	}
	if err := requireRef(ctx, m.Property, "property", s.propertyExists(ownerID)); err != nil {
		return core.Mortgage{}, err
	}
	created, err := s.store.CreateMortgage(ctx, m)
	if err != nil {
		return core.Mortgage{}, fmt.Errorf("save mortgage: %w", err)
	}
	s.logChange(ctx, applog.OpCreate, "Mortgage", ownerID, created.ID)
	return created, nil
}

func (s *PortfolioService) GetMortgage(ctx context.Context, ownerID, id string) (core.Mortgage, error) {
	return s.store.GetMortgage(ctx, ownerID, id)
}

// ListMortgages narrows to one property when propertyID is set.
func (s *PortfolioService) ListMortgages(ctx context.Context, ownerID, propertyID string) ([]core.Mortgage, error) {
	if propertyID != "" {
		if err := requireRef(ctx, &core.Ref{ID: propertyID}, "property", s.propertyExists(ownerID)); err != nil {
			return nil, err
		}
	}
	return s.store.ListMortgages(ctx, ownerID, propertyID)
}

func (s *PortfolioService) UpdateMortgage(ctx context.Context, ownerID, id string, apply func(*core.Mortgage) error) (core.Mortgage, error) {
	old, err := s.store.GetMortgage(ctx, ownerID, id)
	if err != nil {
		return core.Mortgage{}, err
	}
	next := old
	next.Property = cloneRef(old.Property)
	next.Documents = append([]core.MortgageDocument(nil), old.Documents...)
	if err := apply(&next); err != nil {
		return core.Mortgage{}, validate(err)
	}
	next.ID, next.OwnerID, next.CreatedAt = old.ID, ownerID, old.CreatedAt
	next.Defaults()
	next.Stamp(s.now())
	if err := validate(next.Validate()); err != nil {
		return core.Mortgage{}, err
	}
	if err := requireRef(ctx, next.Property, "property", s.propertyExists(ownerID)); err != nil {
		return core.Mortgage{}, err
	}
	updated, err := s.store.UpdateMortgage(ctx, next)
	if err != nil {
		return core.Mortgage{}, fmt.Errorf("update mortgage: %w", err)
	}
	s.logChange(ctx, applog.OpUpdate, "Mortgage", ownerID, id)
	return updated, nil
}

func (s *PortfolioService) DeleteMortgage(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteMortgage(ctx, ownerID, id); err != nil {
		return err
	}
	s.logChange(ctx, applog.OpDelete, "Mortgage", ownerID, id)
	return nil
}
