package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
	"propledger/internal/summary"
)

const (
	recentTransactions = 5
	leaseExpiryWindow  = 30 * 24 * time.Hour
)

type (
	MonthTotals struct {
		Year     int        `json:"year"`
		Month    int        `json:"month"`
		Income   core.Money `json:"income"`
		Expenses core.Money `json:"expenses"`
		Net      core.Money `json:"net"`
	}

	PropertyStats struct {
		Total         int            `json:"total"`
		ByStatus      map[string]int `json:"byStatus"`
		OccupancyRate float64        `json:"occupancyRate"`
	}

	MaintenanceStats struct {
		ByStatus          map[string]int `json:"byStatus"`
		OpenRequests      int            `json:"openRequests"`
		EmergencyRequests int            `json:"emergencyRequests"`
	}

	TenantStats struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	}

	// Dashboard is the owner's landing page in one payload.
	Dashboard struct {
		CurrentMonth       MonthTotals        `json:"currentMonth"`
		Properties         PropertyStats      `json:"properties"`
		Maintenance        MaintenanceStats   `json:"maintenance"`
		Tenants            TenantStats        `json:"tenants"`
		Chart              []core.MonthBucket `json:"chart"`
		RecentTransactions []core.Transaction `json:"recentTransactions"`
		ExpiringLeases     []core.Lease       `json:"expiringLeases"`
	}
)

type DashboardService struct {
	store  ports.Store
	logger *applog.Logger
	now    func() time.Time
}

func NewDashboardService(store ports.Store, logger *applog.Logger) *DashboardService {
	return &DashboardService{
		store:  store,
		logger: componentLogger(logger, applog.ComponentDashboard),
		now:    time.Now,
	}
}

// Load fetches the owner's records concurrently and derives the dashboard.
func (s *DashboardService) Load(ctx context.Context, ownerID string) (Dashboard, error) {
	var (
		props   []core.Property
		tenants []core.Tenant
		leases  []core.Lease
		reqs    []core.MaintenanceRequest
		txs     []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		props, err = s.store.ListProperties(gctx, ownerID)
		return wrap("list properties", err)
	})
	g.Go(func() (err error) {
		tenants, err = s.store.ListTenants(gctx, ownerID)
		return wrap("list tenants", err)
	})
	g.Go(func() (err error) {
		leases, err = s.store.ListLeases(gctx, ownerID, "")
		return wrap("list leases", err)
	})
	g.Go(func() (err error) {
		reqs, err = s.store.ListMaintenance(gctx, ownerID, ports.MaintenanceQuery{})
		return wrap("list maintenance", err)
	})
	g.Go(func() (err error) {
		txs, err = s.store.ListTransactions(gctx, ownerID, ports.TransactionQuery{})
		return wrap("list transactions", err)
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load dashboard", applog.FieldOwnerID, ownerID, applog.FieldError, err.Error())
		return Dashboard{}, err
	}

	return buildDashboard(s.now(), props, tenants, leases, reqs, txs), nil
}

func buildDashboard(now time.Time, props []core.Property, tenants []core.Tenant, leases []core.Lease, reqs []core.MaintenanceRequest, txs []core.Transaction) Dashboard {
	names := summary.NamesFromProperties(props)
	month := summary.ForMonth(txs, now.Year(), int(now.Month()), names)
	trailing := summary.Summarize(txs, now, summary.Options{Months: summary.DashboardMonths, Names: names})

	d := Dashboard{
		CurrentMonth: MonthTotals{
			Year:     now.Year(),
			Month:    int(now.Month()),
			Income:   month.TotalIncome,
			Expenses: month.TotalExpenses,
			Net:      month.NetCashFlow,
		},
		Properties:         PropertyStats{Total: len(props), ByStatus: make(map[string]int)},
		Maintenance:        MaintenanceStats{ByStatus: make(map[string]int)},
		Tenants:            TenantStats{Total: len(tenants)},
		Chart:              trailing.ByMonth,
		RecentTransactions: make([]core.Transaction, 0, recentTransactions),
		ExpiringLeases:     []core.Lease{},
	}

	for _, p := range props {
		d.Properties.ByStatus[p.Status]++
	}
	if len(props) > 0 {
		d.Properties.OccupancyRate = float64(d.Properties.ByStatus[core.StatusRented]) / float64(len(props))
	}

	for _, m := range reqs {
		d.Maintenance.ByStatus[m.Status]++
		if m.IsOpen() {
			d.Maintenance.OpenRequests++
			if m.Priority == core.PriorityEmergency {
				d.Maintenance.EmergencyRequests++
			}
		}
	}

	for _, t := range tenants {
		if t.Status == core.TenantActive {
			d.Tenants.Active++
		}
	}

	// The store lists transactions newest first.
	for i := 0; i < len(txs) && i < recentTransactions; i++ {
		d.RecentTransactions = append(d.RecentTransactions, txs[i])
	}

	for _, l := range leases {
		if l.EndsWithin(now, leaseExpiryWindow) {
			d.ExpiringLeases = append(d.ExpiringLeases, l)
		}
	}
	return d
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
