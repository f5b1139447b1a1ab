// Package services holds the application use cases. Each service validates
// input, talks to the stores through the ports interfaces and reports
// side effects (cache invalidation, change messages) without failing the
// caller when those side effects break.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propledger/internal/amqp"
	"propledger/internal/core"
	applog "propledger/internal/log"
)

// Publisher announces transaction changes to the report worker.
type Publisher interface {
	PublishTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error
}

// Invalidator drops cached data derived from an owner's records.
type Invalidator interface {
	Invalidate(ownerID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

func componentLogger(logger *applog.Logger, component string) *applog.Logger {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return logger.WithComponent(component)
}

func orInvalidator(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// validate wraps a domain validation failure so transports report it as
// bad input.
func validate(err error) error {
	if err == nil {
		return nil
	}
	return core.Invalid(err)
}

// requireRef checks that a referenced record exists for the owner. A
// missing record is reported as "<kind> not found".
func requireRef(ctx context.Context, ref *core.Ref, kind string, get func(ctx context.Context, id string) error) error {
	id := ref.RefID()
	if id == "" {
		return nil
	}
	if err := get(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("%s %w", kind, core.ErrNotFound)
		}
		return fmt.Errorf("load %s: %w", kind, err)
	}
	return nil
}

func cloneRef(r *core.Ref) *core.Ref {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func today(now time.Time) core.Date {
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
