package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"propledger/internal/amqp"
	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
	"propledger/internal/sheets"
	"propledger/internal/summary"
)

// regenerateConcurrency bounds the owners processed at once by RegenerateRecent.
const regenerateConcurrency = 4

// ReportService generates monthly cash-flow reports and exports them.
type ReportService struct {
	store    ports.Store
	exporter sheets.ReportExporter
	logger   *applog.Logger
	now      func() time.Time
}

// NewReportService wires the service. exporter may be nil.
func NewReportService(store ports.Store, exporter sheets.ReportExporter, logger *applog.Logger) *ReportService {
	return &ReportService{
		store:    store,
		exporter: exporter,
		logger:   componentLogger(logger, applog.ComponentReport),
		now:      time.Now,
	}
}

// GenerateMonthlyCashFlow summarises one calendar month of the owner's
// transactions and stores it, replacing an earlier report for that month.
// Export failures are logged; the stored report is still returned.
func (s *ReportService) GenerateMonthlyCashFlow(ctx context.Context, ownerID string, year, month int) (core.Report, error) {
	if month < 1 || month > 12 {
		return core.Report{}, validate(fmt.Errorf("%w: %d", core.ErrInvalidMonth, month))
	}
	if year < 1 || year > 9999 {
		return core.Report{}, validate(fmt.Errorf("invalid year %d", year))
	}

	txs, err := s.store.ListTransactions(ctx, ownerID, ports.TransactionQuery{})
	if err != nil {
		return core.Report{}, fmt.Errorf("list transactions: %w", err)
	}
	props, err := s.store.ListProperties(ctx, ownerID)
	if err != nil {
		return core.Report{}, fmt.Errorf("list properties: %w", err)
	}

	report, err := s.store.SaveReport(ctx, core.Report{
		OwnerID:     ownerID,
		Kind:        core.ReportMonthlyCashFlow,
		Title:       core.MonthlyCashFlowTitle(year, month),
		Year:        year,
		Month:       month,
		Summary:     summary.ForMonth(txs, year, month, summary.NamesFromProperties(props)),
		GeneratedAt: s.now().UTC(),
	})
	if err != nil {
		return core.Report{}, fmt.Errorf("save report: %w", err)
	}

	fields := applog.NewFields().
		WithOwner(ownerID).
		WithPeriod(year, month).
		WithOperation(applog.OpGenerate)
	fields[applog.FieldReportID] = report.ID
	s.logger.InfoContext(ctx, "Monthly cash flow report generated", fields.ToSlice()...)

	s.export(ctx, report)
	return report, nil
}

func (s *ReportService) export(ctx context.Context, r core.Report) {
	if s.exporter == nil {
		return
	}
	ref, err := s.exporter.ExportReport(ctx, r)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to export report",
			applog.FieldReportID, r.ID,
			applog.FieldOwnerID, r.OwnerID,
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err.Error())
		return
	}
	s.logger.InfoContext(ctx, "Report exported", applog.FieldReportID, r.ID, "row_ref", ref)
}

func (s *ReportService) List(ctx context.Context, ownerID string) ([]core.Report, error) {
	return s.store.ListReports(ctx, ownerID)
}

func (s *ReportService) Get(ctx context.Context, ownerID, id string) (core.Report, error) {
	return s.store.GetReport(ctx, ownerID, id)
}

// HandleTransactionChanged regenerates the month named by the message. It
// has the shape of an amqp.Handler.
func (s *ReportService) HandleTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	_, err := s.GenerateMonthlyCashFlow(ctx, msg.OwnerID, msg.Year, msg.Month)
	return err
}

// RegenerateRecent regenerates the current and previous month for every
// user. Failures of single owners are collected and returned together.
func (s *ReportService) RegenerateRecent(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := s.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previous := current.AddDate(0, -1, 0)

	errs := make([]error, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(regenerateConcurrency)
	for i, u := range users {
		g.Go(func() error {
			for _, m := range []time.Time{previous, current} {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if _, err := s.GenerateMonthlyCashFlow(gctx, u.ID, m.Year(), int(m.Month())); err != nil {
					errs[i] = fmt.Errorf("owner %s %d-%02d: %w", u.ID, m.Year(), m.Month(), err)
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Recent reports regenerated", applog.FieldCount, len(users))
	return errors.Join(errs...)
}
