package memory

import (
	"context"
	"errors"
	"testing"

	"propledger/internal/core"
	"propledger/internal/ports"
)

func seed(t *testing.T, s *Store) (core.Property, core.Tenant) {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProperty(ctx, core.Property{OwnerID: "o1", Name: "Oak Street", Type: core.PropertyCondo, Status: core.StatusRented})
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	tn, err := s.CreateTenant(ctx, core.Tenant{OwnerID: "o1", FirstName: "Ada", LastName: "Lovelace", Status: core.TenantActive, Property: &core.Ref{ID: p.ID}})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return p, tn
}

func TestStoreOwnerScoping(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := seed(t, s)

	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := s.GetProperty(ctx, "o2", p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner must see ErrNotFound, got %v", err)
	}
	if err := s.DeleteProperty(ctx, "o2", p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner delete must fail with ErrNotFound, got %v", err)
	}
	list, _ := s.ListProperties(ctx, "o2")
	if len(list) != 0 {
		t.Fatalf("o2 should see no properties")
	}
}

func TestStoreTransactionsResolveNames(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, tn := seed(t, s)

	created, err := s.CreateTransaction(ctx, core.Transaction{
		OwnerID:  "o1",
		Property: &core.Ref{ID: p.ID, Name: "stale name"},
		Tenant:   &core.Ref{ID: tn.ID},
		Date:     core.NewDate(2025, 4, 1),
		Amount:   core.Money{Cents: 150000},
		Type:     core.Income,
		Category: core.CategoryRent,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.Property.Name != "Oak Street" || created.Tenant.Name != "Ada Lovelace" {
		t.Fatalf("names not resolved: %+v %+v", created.Property, created.Tenant)
	}

	_, _ = s.CreateTransaction(ctx, core.Transaction{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Date: core.NewDate(2025, 4, 10), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: core.CategoryUtilities})
	_, _ = s.CreateTransaction(ctx, core.Transaction{OwnerID: "o2", Date: core.NewDate(2025, 4, 10), Amount: core.Money{Cents: 100}, Type: core.Expense, Category: core.CategoryUtilities})

	all, err := s.ListTransactions(ctx, "o1", ports.TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Date.Day() != 10 {
		t.Fatalf("expected 2 transactions newest first, got %+v", all)
	}
	rent, _ := s.ListTransactions(ctx, "o1", ports.TransactionQuery{Category: core.CategoryRent})
	if len(rent) != 1 {
		t.Fatalf("category filter returned %d", len(rent))
	}
}

func TestStoreDeletePropertyDetachesTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, tn := seed(t, s)

	tx, _ := s.CreateTransaction(ctx, core.Transaction{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Date: core.NewDate(2025, 4, 1), Amount: core.Money{Cents: 100}, Type: core.Income, Category: core.CategoryRent})
	_, _ = s.CreateLease(ctx, core.Lease{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Tenant: &core.Ref{ID: tn.ID}})
	_, _ = s.CreateMaintenance(ctx, core.MaintenanceRequest{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Title: "Leak"})
	_, _ = s.CreateMortgage(ctx, core.Mortgage{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Lender: "First Bank"})

	if err := s.DeleteProperty(ctx, "o1", p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetTransaction(ctx, "o1", tx.ID)
	if err != nil {
		t.Fatalf("transaction must survive property deletion: %v", err)
	}
	if got.Property != nil {
		t.Fatalf("transaction should be unassigned, got %+v", got.Property)
	}
	leases, _ := s.ListLeases(ctx, "o1", "")
	reqs, _ := s.ListMaintenance(ctx, "o1", ports.MaintenanceQuery{})
	mortgages, _ := s.ListMortgages(ctx, "o1", "")
	if len(leases) != 0 || len(reqs) != 0 || len(mortgages) != 0 {
		t.Fatalf("leases, mortgages and requests should be removed with the property")
	}
}

func TestStoreUsers(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, core.User{Name: "Ada", Email: " Ada@Example.com ", Role: core.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if _, err := s.CreateUser(ctx, core.User{Name: "Ada 2", Email: "ADA@example.com", Role: core.RoleUser}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email must conflict, got %v", err)
	}
	found, err := s.GetUserByEmail(ctx, "ada@EXAMPLE.com")
	if err != nil || found.ID != u.ID {
		t.Fatalf("lookup by email: %+v %v", found, err)
	}
}

func TestStoreMortgages(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := seed(t, s)

	docs := []core.MortgageDocument{{Name: "Note", FileURL: "https://files.example.com/note.pdf"}}
	m, err := s.CreateMortgage(ctx, core.Mortgage{OwnerID: "o1", Property: &core.Ref{ID: p.ID, Name: "stale"}, Lender: "First Bank", Documents: docs})
	if err != nil {
		t.Fatalf("create mortgage: %v", err)
	}
	if m.Property.Name != "Oak Street" {
		t.Fatalf("property name not resolved: %+v", m.Property)
	}
	docs[0].Name = "changed by caller"
	got, err := s.GetMortgage(ctx, "o1", m.ID)
	if err != nil {
		t.Fatalf("get mortgage: %v", err)
	}
	if got.Documents[0].Name != "Note" {
		t.Fatalf("stored documents alias the caller's slice: %+v", got.Documents)
	}
	if _, err := s.GetMortgage(ctx, "o2", m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner must see ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateMortgage(ctx, core.Mortgage{ID: m.ID, OwnerID: "o2"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner update must fail with ErrNotFound, got %v", err)
	}
	other, _ := s.ListMortgages(ctx, "o1", "elsewhere")
	if len(other) != 0 {
		t.Fatalf("property filter returned %d", len(other))
	}
	if err := s.DeleteMortgage(ctx, "o1", m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteMortgage(ctx, "o1", m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must fail with ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteUserRemovesOwnedRecords(t *testing.T) {
	s := New()
	ctx := context.Background()
	u, _ := s.CreateUser(ctx, core.User{ID: "o1", Name: "Ada", Email: "ada@example.com", Role: core.RoleUser})
	p, _ := seed(t, s)
	_, _ = s.CreateMortgage(ctx, core.Mortgage{OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Lender: "First Bank"})
	_, _ = s.CreateProperty(ctx, core.Property{OwnerID: "o2", Name: "Elm"})

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	props, _ := s.ListProperties(ctx, "o1")
	tenants, _ := s.ListTenants(ctx, "o1")
	mortgages, _ := s.ListMortgages(ctx, "o1", "")
	if len(props) != 0 || len(tenants) != 0 || len(mortgages) != 0 {
		t.Fatalf("owned records survived: %d properties, %d tenants, %d mortgages", len(props), len(tenants), len(mortgages))
	}
	if kept, _ := s.ListProperties(ctx, "o2"); len(kept) != 1 {
		t.Fatalf("other owners keep their records, got %d", len(kept))
	}
	if err := s.DeleteUser(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete must fail with ErrNotFound, got %v", err)
	}
}

func TestStoreSaveReportUpserts(t *testing.T) {
	s := New()
	ctx := context.Background()
	first, _ := s.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Year: 2025, Month: 3, Title: "v1"})
	second, _ := s.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Year: 2025, Month: 3, Title: "v2"})
	if first.ID != second.ID {
		t.Fatalf("expected upsert to keep id %s, got %s", first.ID, second.ID)
	}
	_, _ = s.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Year: 2025, Month: 4})
	list, _ := s.ListReports(ctx, "o1")
	if len(list) != 2 || list[0].Month != 4 {
		t.Fatalf("reports = %+v", list)
	}
	got, _ := s.GetReport(ctx, "o1", first.ID)
	if got.Title != "v2" {
		t.Fatalf("title = %q", got.Title)
	}
}
