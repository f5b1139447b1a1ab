package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"propledger/internal/core"
	"propledger/internal/ports"
	"propledger/internal/storage/memory"
)

func newPortfolioService(store *memory.Store) (*PortfolioService, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	svc := NewPortfolioService(store, inv, quietLogger())
	svc.now = func() time.Time { return testNow }
	return svc, inv
}

func TestPortfolioServiceProperties(t *testing.T) {
	store := memory.New()
	svc, inv := newPortfolioService(store)
	ctx := context.Background()

	if _, err := svc.CreateProperty(ctx, "o1", core.Property{Name: "  "}); !errors.Is(err, core.ErrEmptyName) || !core.IsValidation(err) {
		t.Fatalf("expected empty name validation, got %v", err)
	}

	p, err := svc.CreateProperty(ctx, "o1", core.Property{Name: "Oak Street", Bathrooms: 1.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != core.StatusVacant || p.Type != core.PropertyOther || p.OwnerID != "o1" {
		t.Fatalf("defaults not applied: %+v", p)
	}

	updated, err := svc.UpdateProperty(ctx, "o1", p.ID, func(next *core.Property) error {
		return json.Unmarshal([]byte(`{"status":"Rented","bedrooms":3}`), next)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Oak Street" || updated.Status != core.StatusRented || updated.Bedrooms != 3 || updated.Bathrooms != 1.5 {
		t.Fatalf("partial update = %+v", updated)
	}

	_, err = svc.UpdateProperty(ctx, "o1", p.ID, func(next *core.Property) error {
		return json.Unmarshal([]byte(`{"status":"Demolished"}`), next)
	})
	if !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}

	if err := svc.DeleteProperty(ctx, "o2", p.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := svc.DeleteProperty(ctx, "o1", p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(inv.owners) != 3 {
		t.Fatalf("each property write must invalidate summaries, got %v", inv.owners)
	}
}

func TestPortfolioServiceTenantsCheckProperty(t *testing.T) {
	store := memory.New()
	svc, _ := newPortfolioService(store)
	ctx := context.Background()
	foreign := mustProperty(t, store, "o2", "Elm")

	_, err := svc.CreateTenant(ctx, "o1", core.Tenant{FirstName: "Ada", LastName: "Lovelace", Property: &core.Ref{ID: foreign.ID}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected property not found, got %v", err)
	}

	tn, err := svc.CreateTenant(ctx, "o1", core.Tenant{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tn.Status != core.TenantActive {
		t.Fatalf("status = %q", tn.Status)
	}
	updated, err := svc.UpdateTenant(ctx, "o1", tn.ID, func(next *core.Tenant) error {
		return json.Unmarshal([]byte(`{"phone":"555-0100"}`), next)
	})
	if err != nil || updated.Email != "ada@example.com" || updated.Phone != "555-0100" {
		t.Fatalf("update = %+v, %v", updated, err)
	}
}

func TestPortfolioServiceLeases(t *testing.T) {
	store := memory.New()
	svc, _ := newPortfolioService(store)
	ctx := context.Background()
	p := mustProperty(t, store, "o1", "Oak Street")
	tn := mustTenant(t, store, "o1", "Ada", "Lovelace")

	lease := core.Lease{
		Property:   &core.Ref{ID: p.ID},
		Tenant:     &core.Ref{ID: "missing"},
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 12, 31),
		RentAmount: core.Money{Cents: 120000},
	}
	if _, err := svc.CreateLease(ctx, "o1", lease); !errors.Is(err, core.ErrNotFound) || err.Error() != "tenant not found" {
		t.Fatalf("expected tenant not found, got %v", err)
	}

	lease.Tenant = &core.Ref{ID: tn.ID}
	lease.EndDate = core.NewDate(2024, 12, 31)
	if _, err := svc.CreateLease(ctx, "o1", lease); !core.IsValidation(err) {
		t.Fatalf("end before start must be rejected, got %v", err)
	}

	lease.EndDate = core.NewDate(2025, 12, 31)
	created, err := svc.CreateLease(ctx, "o1", lease)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != core.LeasePending || created.PaymentDue.Day != 1 || created.PaymentDue.Frequency != core.FrequencyMonthly {
		t.Fatalf("defaults = %+v", created)
	}

	byProperty, err := svc.ListLeases(ctx, "o1", p.ID)
	if err != nil || len(byProperty) != 1 {
		t.Fatalf("list by property = %v, %v", byProperty, err)
	}
	if _, err := svc.ListLeases(ctx, "o1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown property must be not found, got %v", err)
	}
}

func TestPortfolioServiceMaintenance(t *testing.T) {
	store := memory.New()
	svc, _ := newPortfolioService(store)
	ctx := context.Background()
	p := mustProperty(t, store, "o1", "Oak Street")

	req, err := svc.CreateMaintenance(ctx, "o1", core.MaintenanceRequest{
		Property:    &core.Ref{ID: p.ID},
		Title:       "Leak",
		Description: "Kitchen sink",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != core.RequestOpen || req.Priority != core.PriorityMedium || req.CompletedDate.Valid() {
		t.Fatalf("defaults = %+v", req)
	}

	done, err := svc.UpdateMaintenance(ctx, "o1", req.ID, func(next *core.MaintenanceRequest) error {
		return json.Unmarshal([]byte(`{"status":"Completed","cost":"120.50"}`), next)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if done.CompletedDate.String() != "2025-03-15" || done.Cost.Cents != 12050 || done.Title != "Leak" {
		t.Fatalf("completed request = %+v", done)
	}

	open, err := svc.ListMaintenance(ctx, "o1", ports.MaintenanceQuery{Status: core.RequestOpen})
	if err != nil || len(open) != 0 {
		t.Fatalf("open requests = %v, %v", open, err)
	}
	if _, err := svc.ListMaintenance(ctx, "o1", ports.MaintenanceQuery{Status: "Someday"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPortfolioServiceMortgages(t *testing.T) {
	store := memory.New()
	svc, inv := newPortfolioService(store)
	ctx := context.Background()
	p := mustProperty(t, store, "o1", "Oak Street")
	foreign := mustProperty(t, store, "o2", "Elm")

	m := core.Mortgage{
		Property:       &core.Ref{ID: p.ID},
		Lender:         " First Bank ",
		OriginalAmount: core.Money{Cents: 30000000},
		CurrentBalance: core.Money{Cents: 28000000},
		InterestRate:   4.25,
		Term:           360,
		StartDate:      core.NewDate(2020, 1, 1),
		MaturityDate:   core.NewDate(2050, 1, 1),
		MonthlyPayment: core.Money{Cents: 147500},
		PaymentDay:     1,
		Documents:      []core.MortgageDocument{{Name: "Note", FileURL: "https://files.example.com/note.pdf"}},
	}

	bad := m
	bad.Property = &core.Ref{ID: foreign.ID}
	if _, err := svc.CreateMortgage(ctx, "o1", bad); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected property not found, got %v", err)
	}
	bad = m
	bad.PaymentDay = 40
	if _, err := svc.CreateMortgage(ctx, "o1", bad); !errors.Is(err, core.ErrInvalidDay) || !core.IsValidation(err) {
		t.Fatalf("expected invalid day validation, got %v", err)
	}

	created, err := svc.CreateMortgage(ctx, "o1", m)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Lender != "First Bank" || created.Property.Name != "Oak Street" || created.OwnerID != "o1" {
		t.Fatalf("created = %+v", created)
	}
	if got := created.Documents[0].UploadDate.String(); got != "2025-03-15" {
		t.Fatalf("document upload date = %s", got)
	}

	updated, err := svc.UpdateMortgage(ctx, "o1", created.ID, func(next *core.Mortgage) error {
		return json.Unmarshal([]byte(`{"currentBalance":275000,"escrow":true,"escrowAmount":"300.00"}`), next)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CurrentBalance.Cents != 27500000 || !updated.Escrow || updated.EscrowAmount.Cents != 30000 || updated.Lender != "First Bank" {
		t.Fatalf("partial update = %+v", updated)
	}
	_, err = svc.UpdateMortgage(ctx, "o1", created.ID, func(next *core.Mortgage) error {
		return json.Unmarshal([]byte(`{"maturityDate":"2019-01-01"}`), next)
	})
	if err == nil || !core.IsValidation(err) {
		t.Fatalf("maturity before start must be rejected, got %v", err)
	}

	if _, err := svc.GetMortgage(ctx, "o2", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other owner must not see the mortgage, got %v", err)
	}
	if _, err := svc.ListMortgages(ctx, "o1", foreign.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("listing by a foreign property must be not found, got %v", err)
	}
	list, err := svc.ListMortgages(ctx, "o1", p.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d %v", len(list), err)
	}

	if err := svc.DeleteMortgage(ctx, "o1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteMortgage(ctx, "o1", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(inv.owners) != 0 {
		t.Fatalf("mortgage writes do not touch summaries, got %v", inv.owners)
	}
}
