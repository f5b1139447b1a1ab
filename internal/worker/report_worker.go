package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"propledger/internal/amqp"
	applog "propledger/internal/log"
)

// Reports regenerates monthly cash-flow reports.
type Reports interface {
	HandleTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error
	RegenerateRecent(ctx context.Context) error
}

// Consumer delivers transaction change messages until ctx is done.
type Consumer interface {
	ConsumeTransactionChanged(ctx context.Context, handler amqp.Handler) error
}

// ReportWorker keeps reports current from two sources: change messages,
// and a ticker that regenerates the current and previous month for every
// owner in case messages were lost.
type ReportWorker struct {
	reports  Reports
	consumer Consumer
	interval time.Duration
	logger   *applog.Logger
}

// NewReportWorker wires the worker. consumer may be nil, leaving the
// ticker as the only trigger.
func NewReportWorker(reports Reports, consumer Consumer, interval time.Duration, logger *applog.Logger) *ReportWorker {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &ReportWorker{
		reports:  reports,
		consumer: consumer,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleMessage regenerates the month named by msg. A returned error makes
// the consumer requeue the message.
func (w *ReportWorker) HandleMessage(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction change",
		applog.FieldOwnerID, msg.OwnerID,
		applog.FieldTransactionID, msg.TransactionID,
		"action", msg.Action,
		applog.FieldYear, msg.Year,
		applog.FieldMonth, msg.Month)

	if err := w.reports.HandleTransactionChanged(ctx, msg); err != nil {
		return fmt.Errorf("regenerate %d-%02d for %s: %w", msg.Year, msg.Month, msg.OwnerID, err)
	}
	return nil
}

// Run performs a startup regeneration, then consumes messages and ticks
// until ctx is cancelled. It returns nil on cancellation and the consumer's
// error when consumption stops for another reason.
func (w *ReportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup report regeneration")
	w.regenerate(ctx)

	g, gctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeTransactionChanged(gctx, w.HandleMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume transaction changes: %w", err)
			}
			return nil
		})
	} else {
		w.logger.InfoContext(ctx, "Skipping AMQP message consumption - no consumer configured")
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				w.regenerate(gctx)
			}
		}
	})

	err := g.Wait()
	w.logger.InfoContext(ctx, "Report worker stopped", applog.FieldOperation, applog.OpShutdown)
	return err
}

func (w *ReportWorker) regenerate(ctx context.Context) {
	start := time.Now()
	if err := w.reports.RegenerateRecent(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.ErrorContext(ctx, "Periodic report regeneration failed", applog.FieldError, err.Error())
		return
	}
	w.logger.DebugContext(ctx, "Periodic report regeneration finished", applog.FieldDuration, time.Since(start).Milliseconds())
}
