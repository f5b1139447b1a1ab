package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"propledger/internal/amqp"
	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionChangedMessage
	err  error
}

func (p *fakePublisher) PublishTransactionChanged(_ context.Context, msg *amqp.TransactionChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) published() []*amqp.TransactionChangedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.TransactionChangedMessage(nil), p.msgs...)
}

type recordingInvalidator struct {
	owners []string
}

func (r *recordingInvalidator) Invalidate(ownerID string) {
	r.owners = append(r.owners, ownerID)
}

type failingExporter struct{}

func (failingExporter) ExportReport(context.Context, core.Report) (string, error) {
	return "", errors.New("sheets unavailable")
}

func mustProperty(t *testing.T, s *memory.Store, owner, name string) core.Property {
	t.Helper()
	p, err := s.CreateProperty(context.Background(), core.Property{OwnerID: owner, Name: name, Type: core.PropertyApartment, Status: core.StatusRented})
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	return p
}

func mustTenant(t *testing.T, s *memory.Store, owner, first, last string) core.Tenant {
	t.Helper()
	tn, err := s.CreateTenant(context.Background(), core.Tenant{OwnerID: owner, FirstName: first, LastName: last, Status: core.TenantActive})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tn
}

func mustTransaction(t *testing.T, s *memory.Store, tx core.Transaction) core.Transaction {
	t.Helper()
	created, err := s.CreateTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return created
}

func income(owner, propertyID string, d core.Date, cents int64) core.Transaction {
	return core.Transaction{
		OwnerID:  owner,
		Property: &core.Ref{ID: propertyID},
		Date:     d,
		Amount:   core.Money{Cents: cents},
		Type:     core.Income,
		Category: core.CategoryRent,
	}
}

func expense(owner, propertyID string, d core.Date, cents int64, category string) core.Transaction {
	return core.Transaction{
		OwnerID:  owner,
		Property: &core.Ref{ID: propertyID},
		Date:     d,
		Amount:   core.Money{Cents: cents},
		Type:     core.Expense,
		Category: category,
	}
}
