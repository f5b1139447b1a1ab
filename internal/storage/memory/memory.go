// Package memory is an in-process implementation of ports.Store, used for
// local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"propledger/internal/core"
	"propledger/internal/ports"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	users        map[string]core.User
	properties   map[string]core.Property
	tenants      map[string]core.Tenant
	leases       map[string]core.Lease
	transactions map[string]core.Transaction
	maintenance  map[string]core.MaintenanceRequest
	mortgages    map[string]core.Mortgage
	reports      map[string]core.Report
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:          time.Now,
		users:        make(map[string]core.User),
		properties:   make(map[string]core.Property),
		tenants:      make(map[string]core.Tenant),
		leases:       make(map[string]core.Lease),
		transactions: make(map[string]core.Transaction),
		maintenance:  make(map[string]core.MaintenanceRequest),
		mortgages:    make(map[string]core.Mortgage),
		reports:      make(map[string]core.Report),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) stamp() time.Time { return s.now().UTC() }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = core.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
		}
	}
	u.ID = newID(u.ID)
	u.CreatedAt = s.stamp()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = core.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, notFound("user", email)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return core.User{}, notFound("user", u.ID)
	}
	u.Email = core.NormalizeEmail(u.Email)
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return core.User{}, fmt.Errorf("email %s: %w", u.Email, core.ErrConflict)
		}
	}
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteUser removes the account together with every record it owns.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)
	deleteOwned(s.properties, id, func(p core.Property) string { return p.OwnerID })
	deleteOwned(s.tenants, id, func(t core.Tenant) string { return t.OwnerID })
	deleteOwned(s.leases, id, func(l core.Lease) string { return l.OwnerID })
	deleteOwned(s.transactions, id, func(t core.Transaction) string { return t.OwnerID })
	deleteOwned(s.maintenance, id, func(m core.MaintenanceRequest) string { return m.OwnerID })
	deleteOwned(s.mortgages, id, func(m core.Mortgage) string { return m.OwnerID })
	deleteOwned(s.reports, id, func(r core.Report) string { return r.OwnerID })
	return nil
}

func deleteOwned[T any](records map[string]T, ownerID string, owner func(T) string) {
	for id, rec := range records {
		if owner(rec) == ownerID {
			delete(records, id)
		}
	}
}

// Properties

func (s *Store) CreateProperty(_ context.Context, p core.Property) (core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = newID(p.ID)
	p.CreatedAt = s.stamp()
	p.UpdatedAt = p.CreatedAt
	s.properties[p.ID] = p
	return p, nil
}

func (s *Store) GetProperty(_ context.Context, ownerID, id string) (core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok || p.OwnerID != ownerID {
		return core.Property{}, notFound("property", id)
	}
	return p, nil
}

func (s *Store) ListProperties(_ context.Context, ownerID string) ([]core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Property, 0)
	for _, p := range s.properties {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProperty(_ context.Context, p core.Property) (core.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.properties[p.ID]
	if !ok || existing.OwnerID != p.OwnerID {
		return core.Property{}, notFound("property", p.ID)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.stamp()
	s.properties[p.ID] = p
	return p, nil
}

func (s *Store) DeleteProperty(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok || p.OwnerID != ownerID {
		return notFound("property", id)
	}
	delete(s.properties, id)
	for lid, l := range s.leases {
		if l.Property.RefID() == id {
			delete(s.leases, lid)
		}
	}
	for mid, m := range s.maintenance {
		if m.Property.RefID() == id {
			delete(s.maintenance, mid)
		}
	}
	for mid, m := range s.mortgages {
		if m.Property.RefID() == id {
			delete(s.mortgages, mid)
		}
	}
	for tid, t := range s.transactions {
		if t.Property.RefID() == id {
			t.Property = nil
			s.transactions[tid] = t
		}
	}
	for tid, t := range s.tenants {
		if t.Property.RefID() == id {
			t.Property = nil
			s.tenants[tid] = t
		}
	}
	return nil
}

// Tenants

func (s *Store) CreateTenant(_ context.Context, t core.Tenant) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID(t.ID)
	t.CreatedAt = s.stamp()
	t.UpdatedAt = t.CreatedAt
	t.Property = idRef(t.Property)
	s.tenants[t.ID] = t
	return s.resolveTenant(t), nil
}

func (s *Store) GetTenant(_ context.Context, ownerID, id string) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok || t.OwnerID != ownerID {
		return core.Tenant{}, notFound("tenant", id)
	}
	return s.resolveTenant(t), nil
}

func (s *Store) ListTenants(_ context.Context, ownerID string) ([]core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Tenant, 0)
	for _, t := range s.tenants {
		if t.OwnerID == ownerID {
			out = append(out, s.resolveTenant(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return out, nil
}

func (s *Store) UpdateTenant(_ context.Context, t core.Tenant) (core.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tenants[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return core.Tenant{}, notFound("tenant", t.ID)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.stamp()
	t.Property = idRef(t.Property)
	s.tenants[t.ID] = t
	return s.resolveTenant(t), nil
}

func (s *Store) DeleteTenant(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok || t.OwnerID != ownerID {
		return notFound("tenant", id)
	}
	delete(s.tenants, id)
	for lid, l := range s.leases {
		if l.Tenant.RefID() == id {
			delete(s.leases, lid)
		}
	}
	for xid, x := range s.transactions {
		if x.Tenant.RefID() == id {
			x.Tenant = nil
			s.transactions[xid] = x
		}
	}
	for mid, m := range s.maintenance {
		if m.Tenant.RefID() == id {
			m.Tenant = nil
			s.maintenance[mid] = m
		}
	}
	return nil
}

// Leases

func (s *Store) CreateLease(_ context.Context, l core.Lease) (core.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = newID(l.ID)
	l.CreatedAt = s.stamp()
	l.UpdatedAt = l.CreatedAt
	l.Property, l.Tenant = idRef(l.Property), idRef(l.Tenant)
	s.leases[l.ID] = l
	return s.resolveLease(l), nil
}

func (s *Store) GetLease(_ context.Context, ownerID, id string) (core.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[id]
	if !ok || l.OwnerID != ownerID {
		return core.Lease{}, notFound("lease", id)
	}
	return s.resolveLease(l), nil
}

func (s *Store) ListLeases(_ context.Context, ownerID, propertyID string) ([]core.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Lease, 0)
	for _, l := range s.leases {
		if l.OwnerID != ownerID {
			continue
		}
		if propertyID != "" && l.Property.RefID() != propertyID {
			continue
		}
		out = append(out, s.resolveLease(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate.Time) })
	return out, nil
}

func (s *Store) UpdateLease(_ context.Context, l core.Lease) (core.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.leases[l.ID]
	if !ok || existing.OwnerID != l.OwnerID {
		return core.Lease{}, notFound("lease", l.ID)
	}
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = s.stamp()
	l.Property, l.Tenant = idRef(l.Property), idRef(l.Tenant)
	s.leases[l.ID] = l
	return s.resolveLease(l), nil
}

func (s *Store) DeleteLease(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leases[id]
	if !ok || l.OwnerID != ownerID {
		return notFound("lease", id)
	}
	delete(s.leases, id)
	return nil
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = newID(t.ID)
	t.CreatedAt = s.stamp()
	t.UpdatedAt = t.CreatedAt
	t.Property, t.Tenant = idRef(t.Property), idRef(t.Tenant)
	s.transactions[t.ID] = t
	return s.resolveTransaction(t), nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return core.Transaction{}, notFound("transaction", id)
	}
	return s.resolveTransaction(t), nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID string, q ports.TransactionQuery) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.OwnerID != ownerID {
			continue
		}
		if q.PropertyID != "" && t.Property.RefID() != q.PropertyID {
			continue
		}
		if q.Category != "" && t.Category != q.Category {
			continue
		}
		out = append(out, s.resolveTransaction(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[t.ID]
	if !ok || existing.OwnerID != t.OwnerID {
		return core.Transaction{}, notFound("transaction", t.ID)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.stamp()
	t.Property, t.Tenant = idRef(t.Property), idRef(t.Tenant)
	s.transactions[t.ID] = t
	return s.resolveTransaction(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok || t.OwnerID != ownerID {
		return notFound("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

// Maintenance

func (s *Store) CreateMaintenance(_ context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = newID(m.ID)
	m.CreatedAt = s.stamp()
	m.UpdatedAt = m.CreatedAt
	m.Property, m.Tenant = idRef(m.Property), idRef(m.Tenant)
	s.maintenance[m.ID] = m
	return s.resolveMaintenance(m), nil
}

func (s *Store) GetMaintenance(_ context.Context, ownerID, id string) (core.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[id]
	if !ok || m.OwnerID != ownerID {
		return core.MaintenanceRequest{}, notFound("maintenance request", id)
	}
	return s.resolveMaintenance(m), nil
}

func (s *Store) ListMaintenance(_ context.Context, ownerID string, q ports.MaintenanceQuery) ([]core.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MaintenanceRequest, 0)
	for _, m := range s.maintenance {
		if m.OwnerID != ownerID {
			continue
		}
		if q.PropertyID != "" && m.Property.RefID() != q.PropertyID {
			continue
		}
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		out = append(out, s.resolveMaintenance(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateMaintenance(_ context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.maintenance[m.ID]
	if !ok || existing.OwnerID != m.OwnerID {
		return core.MaintenanceRequest{}, notFound("maintenance request", m.ID)
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.stamp()
	m.Property, m.Tenant = idRef(m.Property), idRef(m.Tenant)
	s.maintenance[m.ID] = m
	return s.resolveMaintenance(m), nil
}

func (s *Store) DeleteMaintenance(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[id]
	if !ok || m.OwnerID != ownerID {
		return notFound("maintenance request", id)
	}
	delete(s.maintenance, id)
	return nil
}

// Reports

func (s *Store) SaveReport(_ context.Context, r core.Report) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.reports {
		if existing.OwnerID == r.OwnerID && existing.Kind == r.Kind && existing.Year == r.Year && existing.Month == r.Month {
			r.ID = id
			break
		}
	}
	r.ID = newID(r.ID)
	s.reports[r.ID] = r
	return r, nil
}

func (s *Store) GetReport(_ context.Context, ownerID, id string) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok || r.OwnerID != ownerID {
		return core.Report{}, notFound("report", id)
	}
	return r, nil
}

func (s *Store) ListReports(_ context.Context, ownerID string) ([]core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Report, 0)
	for _, r := range s.reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

// Mortgages

func (s *Store) CreateMortgage(_ context.Context, m core.Mortgage) (core.Mortgage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = newID(m.ID)
	m.CreatedAt = s.stamp()
	m.UpdatedAt = m.CreatedAt
	m.Property = idRef(m.Property)
	m.Documents = copyDocuments(m.Documents)
	s.mortgages[m.ID] = m
	return s.resolveMortgage(m), nil
}

func (s *Store) GetMortgage(_ context.Context, ownerID, id string) (core.Mortgage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mortgages[id]
	if !ok || m.OwnerID != ownerID {
		return core.Mortgage{}, notFound("mortgage", id)
	}
	return s.resolveMortgage(m), nil
}

func (s *Store) ListMortgages(_ context.Context, ownerID, propertyID string) ([]core.Mortgage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Mortgage, 0)
	for _, m := range s.mortgages {
		if m.OwnerID != ownerID {
			continue
		}
		if propertyID != "" && m.Property.RefID() != propertyID {
			continue
		}
		out = append(out, s.resolveMortgage(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate.Time) })
	return out, nil
}

func (s *Store) UpdateMortgage(_ context.Context, m core.Mortgage) (core.Mortgage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.mortgages[m.ID]
	if !ok || existing.OwnerID != m.OwnerID {
		return core.Mortgage{}, notFound("mortgage", m.ID)
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.stamp()
	m.Property = idRef(m.Property)
	m.Documents = copyDocuments(m.Documents)
	s.mortgages[m.ID] = m
	return s.resolveMortgage(m), nil
}

func (s *Store) DeleteMortgage(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mortgages[id]
	if !ok || m.OwnerID != ownerID {
		return notFound("mortgage", id)
	}
	delete(s.mortgages, id)
	return nil
}

func copyDocuments(docs []core.MortgageDocument) []core.MortgageDocument {
	return append(make([]core.MortgageDocument, 0, len(docs)), docs...)
}

// idRef drops the display name so only the id is stored; names are
// resolved on read.
func idRef(r *core.Ref) *core.Ref {
	if r.RefID() == "" {
		return nil
	}
	return &core.Ref{ID: r.ID}
}

// resolve functions must be called with s.mu held.

func (s *Store) propertyRef(r *core.Ref) *core.Ref {
	if r == nil {
		return nil
	}
	out := &core.Ref{ID: r.ID}
	if p, ok := s.properties[r.ID]; ok {
		out.Name = p.Name
	}
	return out
}

func (s *Store) tenantRef(r *core.Ref) *core.Ref {
	if r == nil {
		return nil
	}
	out := &core.Ref{ID: r.ID}
	if t, ok := s.tenants[r.ID]; ok {
		out.Name = t.FullName()
	}
	return out
}

func (s *Store) resolveTransaction(t core.Transaction) core.Transaction {
	t.Property, t.Tenant = s.propertyRef(t.Property), s.tenantRef(t.Tenant)
	return t
}

func (s *Store) resolveTenant(t core.Tenant) core.Tenant {
	t.Property = s.propertyRef(t.Property)
	return t
}

func (s *Store) resolveLease(l core.Lease) core.Lease {
	l.Property, l.Tenant = s.propertyRef(l.Property), s.tenantRef(l.Tenant)
	return l
}

func (s *Store) resolveMortgage(m core.Mortgage) core.Mortgage {
	m.Property = s.propertyRef(m.Property)
	m.Documents = copyDocuments(m.Documents)
	return m
}

func (s *Store) resolveMaintenance(m core.MaintenanceRequest) core.MaintenanceRequest {
	m.Property, m.Tenant = s.propertyRef(m.Property), s.tenantRef(m.Tenant)
	return m
}
