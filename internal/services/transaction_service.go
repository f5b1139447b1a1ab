package services

import (
	"context"
	"fmt"
	"time"

	"propledger/internal/amqp"
	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
	"propledger/internal/summary"
)

// TransactionService orchestrates transaction writes across the store,
// the summary cache and the report worker's queue.
type TransactionService struct {
	store      ports.Store
	publisher  Publisher
	cache      Invalidator
	logger     *applog.Logger
	structured *applog.StructuredLogger
	now        func() time.Time
}

// NewTransactionService wires the service. publisher may be nil when no
// broker is configured.
func NewTransactionService(store ports.Store, publisher Publisher, cache Invalidator, logger *applog.Logger) *TransactionService {
	logger = componentLogger(logger, applog.ComponentFinancial)
	return &TransactionService{
		store:      store,
		publisher:  publisher,
		cache:      orInvalidator(cache),
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
		now:        time.Now,
	}
}

// checkRefs verifies that the property, and the tenant when given, belong
// to the owner.
func (s *TransactionService) checkRefs(ctx context.Context, ownerID string, tx core.Transaction) error {
	if err := requireRef(ctx, tx.Property, "property", func(ctx context.Context, id string) error {
		_, err := s.store.GetProperty(ctx, ownerID, id)
		return err
	}); err != nil {
		return err
	}
	return requireRef(ctx, tx.Tenant, "tenant", func(ctx context.Context, id string) error {
		_, err := s.store.GetTenant(ctx, ownerID, id)
		return err
	})
}

// Create saves the transaction and announces it to the report worker.
func (s *TransactionService) Create(ctx context.Context, ownerID string, tx core.Transaction) (core.Transaction, error) {
	tx.ID = ""
	tx.OwnerID = ownerID
	if err := validate(tx.Validate()); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkRefs(ctx, ownerID, tx); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.cache.Invalidate(ownerID)
	s.structured.LogTransactionChanged(ctx, applog.OpCreate, ownerID, txInfo(created))
	s.publishChange(ctx, ownerID, created, amqp.ActionCreated)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, ownerID, id)
}

// List returns the owner's transactions newest first, narrowed by the store
// query and then by the summary filter.
func (s *TransactionService) List(ctx context.Context, ownerID string, q ports.TransactionQuery, filter summary.Filter) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return summary.Apply(txs, s.now(), filter, nil), nil
}

// Update loads the transaction, applies the change and saves the result.
// Both the old and the new month are announced when the date moves.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, apply func(*core.Transaction) error) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	next := old
	next.Property = cloneRef(old.Property)
	next.Tenant = cloneRef(old.Tenant)
	if err := apply(&next); err != nil {
		return core.Transaction{}, validate(err)
	}
	next.ID = old.ID
	next.OwnerID = ownerID
	next.CreatedAt = old.CreatedAt
	if err := validate(next.Validate()); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkRefs(ctx, ownerID, next); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, next)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.cache.Invalidate(ownerID)
	s.structured.LogTransactionChanged(ctx, applog.OpUpdate, ownerID, txInfo(updated))
	s.publishChange(ctx, ownerID, updated, amqp.ActionUpdated)
	if old.Date.Valid() && (old.Date.Year() != updated.Date.Year() || old.Date.Month() != updated.Date.Month()) {
		s.publishChange(ctx, ownerID, old, amqp.ActionUpdated)
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	old, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.cache.Invalidate(ownerID)
	s.structured.LogTransactionChanged(ctx, applog.OpDelete, ownerID, txInfo(old))
	s.publishChange(ctx, ownerID, old, amqp.ActionDeleted)
	return nil
}

// publishChange only logs failures; the write is already stored.
func (s *TransactionService) publishChange(ctx context.Context, ownerID string, tx core.Transaction, action string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping change message",
			applog.FieldTransactionID, tx.ID)
		return
	}
	if !tx.Date.Valid() {
		return
	}

	msg := amqp.NewTransactionChangedMessage(ownerID, tx.ID, action, tx.Date.Year(), tx.Date.Month())
	if err := s.publisher.PublishTransactionChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction change",
			applog.FieldTransactionID, tx.ID,
			applog.FieldOwnerID, ownerID,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err.Error())
	}
}

func txInfo(tx core.Transaction) applog.TransactionInfo {
	return applog.TransactionInfo{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Category:    tx.Category,
		AmountCents: tx.Amount.Cents,
	}
}
