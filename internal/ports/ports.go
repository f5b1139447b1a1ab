// Package ports declares the persistence interfaces the services depend on.
// Every owner-scoped lookup reports a record belonging to another owner as
// core.ErrNotFound.
package ports

import (
	"context"

	"propledger/internal/core"
)

type (
	UserStore interface {
		// CreateUser fails with core.ErrConflict when the email is taken.
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdateUser(ctx context.Context, u core.User) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	PropertyStore interface {
		CreateProperty(ctx context.Context, p core.Property) (core.Property, error)
		GetProperty(ctx context.Context, ownerID, id string) (core.Property, error)
		ListProperties(ctx context.Context, ownerID string) ([]core.Property, error)
		UpdateProperty(ctx context.Context, p core.Property) (core.Property, error)
		// DeleteProperty removes the property with its leases, mortgages and
		// maintenance requests; transactions and tenants keep existing without
		// a property.
		DeleteProperty(ctx context.Context, ownerID, id string) error
	}

	TenantStore interface {
		CreateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error)
		GetTenant(ctx context.Context, ownerID, id string) (core.Tenant, error)
		ListTenants(ctx context.Context, ownerID string) ([]core.Tenant, error)
		UpdateTenant(ctx context.Context, t core.Tenant) (core.Tenant, error)
		DeleteTenant(ctx context.Context, ownerID, id string) error
	}

	LeaseStore interface {
		CreateLease(ctx context.Context, l core.Lease) (core.Lease, error)
		GetLease(ctx context.Context, ownerID, id string) (core.Lease, error)
		// ListLeases returns every lease of the owner, or only those of
		// propertyID when it is not empty.
		ListLeases(ctx context.Context, ownerID, propertyID string) ([]core.Lease, error)
		UpdateLease(ctx context.Context, l core.Lease) (core.Lease, error)
		DeleteLease(ctx context.Context, ownerID, id string) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		// ListTransactions returns transactions newest first with property and
		// tenant names resolved.
		ListTransactions(ctx context.Context, ownerID string, q TransactionQuery) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	MaintenanceStore interface {
		CreateMaintenance(ctx context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error)
		GetMaintenance(ctx context.Context, ownerID, id string) (core.MaintenanceRequest, error)
		ListMaintenance(ctx context.Context, ownerID string, q MaintenanceQuery) ([]core.MaintenanceRequest, error)
		UpdateMaintenance(ctx context.Context, m core.MaintenanceRequest) (core.MaintenanceRequest, error)
		DeleteMaintenance(ctx context.Context, ownerID, id string) error
	}

	MortgageStore interface {
		CreateMortgage(ctx context.Context, m core.Mortgage) (core.Mortgage, error)
		GetMortgage(ctx context.Context, ownerID, id string) (core.Mortgage, error)
		// ListMortgages returns every mortgage of the owner, or only those of
		// propertyID when it is not empty.
		ListMortgages(ctx context.Context, ownerID, propertyID string) ([]core.Mortgage, error)
		UpdateMortgage(ctx context.Context, m core.Mortgage) (core.Mortgage, error)
		DeleteMortgage(ctx context.Context, ownerID, id string) error
	}

	ReportStore interface {
		// SaveReport inserts or replaces the report for the same owner, kind,
		// year and month, keeping the existing id.
		SaveReport(ctx context.Context, r core.Report) (core.Report, error)
		GetReport(ctx context.Context, ownerID, id string) (core.Report, error)
		ListReports(ctx context.Context, ownerID string) ([]core.Report, error)
	}

	// Store is the full persistence surface of the application.
	Store interface {
		UserStore
		PropertyStore
		TenantStore
		LeaseStore
		TransactionStore
		MaintenanceStore
		MortgageStore
		ReportStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// TransactionQuery narrows a transaction listing. Empty fields match all.
type TransactionQuery struct {
	PropertyID string
	Category   string
}

// MaintenanceQuery narrows a maintenance listing. Empty fields match all.
type MaintenanceQuery struct {
	PropertyID string
	Status     string
}
