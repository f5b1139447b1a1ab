package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"propledger/internal/core"
	"propledger/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	first, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != 2 || second != first {
		t.Fatalf("schema versions = %d, %d; want 2, 2", first, second)
	}
}

func TestRepositoryUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: "Ada@Example.com", PasswordHash: "x", Role: core.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := repo.CreateUser(ctx, core.User{Name: "Other", Email: "ada@example.com", PasswordHash: "y", Role: core.RoleUser}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, " ADA@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("get by email: %+v %v", got, err)
	}
	if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryPortfolioRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateProperty(ctx, core.Property{
		OwnerID:      "o1",
		Name:         "Harbor View",
		Address:      core.Address{City: "Lisbon"},
		Type:         core.PropertyApartment,
		Status:       core.StatusRented,
		Bathrooms:    1.5,
		PurchaseDate: core.NewDate(2020, 6, 1),
	})
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	tn, err := repo.CreateTenant(ctx, core.Tenant{OwnerID: "o1", FirstName: "Grace", LastName: "Hopper", Status: core.TenantActive, Property: &core.Ref{ID: p.ID}})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if tn.Property == nil || tn.Property.Name != "Harbor View" {
		t.Fatalf("tenant property not resolved: %+v", tn.Property)
	}

	lease, err := repo.CreateLease(ctx, core.Lease{
		OwnerID:    "o1",
		Property:   &core.Ref{ID: p.ID},
		Tenant:     &core.Ref{ID: tn.ID},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 12, 31),
		RentAmount: core.Money{Cents: 120000},
		PaymentDue: core.PaymentDue{Day: 1, Frequency: core.FrequencyMonthly},
		Status:     core.LeaseActive,
	})
	if err != nil {
		t.Fatalf("create lease: %v", err)
	}
	if lease.Tenant.Name != "Grace Hopper" || lease.EndDate.String() != "2025-12-31" {
		t.Fatalf("lease = %+v", lease)
	}

	got, err := repo.GetProperty(ctx, "o1", p.ID)
	if err != nil {
		t.Fatalf("get property: %v", err)
	}
	if got.Bathrooms != 1.5 || got.PurchaseDate.String() != "2020-06-01" || got.Address.City != "Lisbon" {
		t.Fatalf("property = %+v", got)
	}
	if _, err := repo.GetProperty(ctx, "o2", p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner must not see the property, got %v", err)
	}
}

func TestRepositoryTransactionsAndCascade(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p, _ := repo.CreateProperty(ctx, core.Property{OwnerID: "o1", Name: "Oak", Type: core.PropertyCondo, Status: core.StatusRented})
	_, err := repo.CreateMaintenance(ctx, core.MaintenanceRequest{
		OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Title: "Leak", Description: "Kitchen sink",
		Priority: core.PriorityHigh, Status: core.RequestOpen, Category: "Plumbing",
	})
	if err != nil {
		t.Fatalf("create maintenance: %v", err)
	}

	first, err := repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Property: &core.Ref{ID: p.ID}, Date: core.NewDate(2025, 3, 1),
		Amount: core.Money{Cents: 100000}, Type: core.Income, Category: core.CategoryRent,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	_, _ = repo.CreateTransaction(ctx, core.Transaction{
		OwnerID: "o1", Date: core.NewDate(2025, 3, 15),
		Amount: core.Money{Cents: 2500}, Type: core.Expense, Category: core.CategoryUtilities,
	})

	all, err := repo.ListTransactions(ctx, "o1", ports.TransactionQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Date.Day() != 15 {
		t.Fatalf("expected newest first, got %+v", all)
	}
	byProp, _ := repo.ListTransactions(ctx, "o1", ports.TransactionQuery{PropertyID: p.ID})
	if len(byProp) != 1 || byProp[0].Property.Name != "Oak" {
		t.Fatalf("property filter = %+v", byProp)
	}

	first.Amount = core.Money{Cents: 110000}
	updated, err := repo.UpdateTransaction(ctx, first)
	if err != nil || updated.Amount.Cents != 110000 {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := repo.DeleteProperty(ctx, "o1", p.ID); err != nil {
		t.Fatalf("delete property: %v", err)
	}
	kept, err := repo.GetTransaction(ctx, "o1", first.ID)
	if err != nil {
		t.Fatalf("transaction should survive: %v", err)
	}
	if kept.Property != nil {
		t.Fatalf("property should be cleared, got %+v", kept.Property)
	}
	reqs, _ := repo.ListMaintenance(ctx, "o1", ports.MaintenanceQuery{})
	if len(reqs) != 0 {
		t.Fatalf("maintenance should cascade, got %d", len(reqs))
	}
	if err := repo.DeleteTransaction(ctx, "o1", "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositorySaveReportUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sum := core.Summary{TotalIncome: core.Money{Cents: 500}, ByProperty: map[string]core.PropertyTotals{}}
	first, err := repo.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Title: "v1", Year: 2025, Month: 3, Summary: sum})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	sum.TotalIncome = core.Money{Cents: 900}
	second, err := repo.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Title: "v2", Year: 2025, Month: 3, Summary: sum})
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if second.ID != first.ID || second.Title != "v2" || second.Summary.TotalIncome.Cents != 900 {
		t.Fatalf("upsert = %+v", second)
	}

	_, _ = repo.SaveReport(ctx, core.Report{OwnerID: "o1", Kind: core.ReportMonthlyCashFlow, Title: "apr", Year: 2025, Month: 4})
	list, err := repo.ListReports(ctx, "o1")
	if err != nil || len(list) != 2 || list[0].Month != 4 {
		t.Fatalf("list = %+v %v", list, err)
	}
}

func TestRepositoryMortgages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p, _ := repo.CreateProperty(ctx, core.Property{OwnerID: "o1", Name: "Oak", Type: core.PropertyCondo, Status: core.StatusRented})
	m, err := repo.CreateMortgage(ctx, core.Mortgage{
		OwnerID:        "o1",
		Property:       &core.Ref{ID: p.ID},
		Lender:         "First Bank",
		LoanNumber:     "LN-42",
		OriginalAmount: core.Money{Cents: 30000000},
		CurrentBalance: core.Money{Cents: 28000000},
		InterestRate:   4.25,
		Term:           360,
		StartDate:      core.NewDate(2020, 1, 1),
		MaturityDate:   core.NewDate(2050, 1, 1),
		MonthlyPayment: core.Money{Cents: 147500},
		PaymentDay:     5,
		Escrow:         true,
		EscrowAmount:   core.Money{Cents: 30000},
		Documents: []core.MortgageDocument{
			{Name: "Note", FileURL: "https://files.example.com/note.pdf", UploadDate: core.NewDate(2020, 1, 2)},
		},
	})
	if err != nil {
		t.Fatalf("create mortgage: %v", err)
	}
	if m.Property == nil || m.Property.Name != "Oak" {
		t.Fatalf("mortgage property not resolved: %+v", m.Property)
	}
	if !m.Escrow || m.InterestRate != 4.25 || m.MaturityDate.String() != "2050-01-01" {
		t.Fatalf("mortgage = %+v", m)
	}
	if len(m.Documents) != 1 || m.Documents[0].UploadDate.String() != "2020-01-02" {
		t.Fatalf("documents = %+v", m.Documents)
	}
	if _, err := repo.GetMortgage(ctx, "o2", m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner must not see the mortgage, got %v", err)
	}

	m.CurrentBalance = core.Money{Cents: 27500000}
	m.Documents = nil
	updated, err := repo.UpdateMortgage(ctx, m)
	if err != nil {
		t.Fatalf("update mortgage: %v", err)
	}
	if updated.CurrentBalance.Cents != 27500000 || updated.Documents == nil || len(updated.Documents) != 0 {
		t.Fatalf("updated = %+v", updated)
	}

	list, err := repo.ListMortgages(ctx, "o1", p.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list by property: %d %v", len(list), err)
	}
	if err := repo.DeleteProperty(ctx, "o1", p.ID); err != nil {
		t.Fatalf("delete property: %v", err)
	}
	if _, err := repo.GetMortgage(ctx, "o1", m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("mortgage should cascade with its property, got %v", err)
	}
	if err := repo.DeleteMortgage(ctx, "o1", m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryDeleteUserRemovesOwnedRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x", Role: core.RoleUser})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, _ = repo.CreateProperty(ctx, core.Property{OwnerID: u.ID, Name: "Oak", Type: core.PropertyCondo, Status: core.StatusRented})
	_, _ = repo.CreateProperty(ctx, core.Property{OwnerID: "someone-else", Name: "Elm", Type: core.PropertyCondo, Status: core.StatusRented})

	if err := repo.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := repo.GetUser(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if props, _ := repo.ListProperties(ctx, u.ID); len(props) != 0 {
		t.Fatalf("owned properties should be removed, got %d", len(props))
	}
	if props, _ := repo.ListProperties(ctx, "someone-else"); len(props) != 1 {
		t.Fatalf("other owners keep their properties, got %d", len(props))
	}
	if err := repo.DeleteUser(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
}
