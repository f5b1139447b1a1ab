package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"propledger/internal/cache"
	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
	"propledger/internal/summary"
)

const summaryKeyPrefix = "summary:"

// SummaryQuery selects the transactions and month buckets of a summary.
type SummaryQuery struct {
	Filter summary.Filter
	Months int
}

// FinancialService serves aggregated views of an owner's transactions.
type FinancialService struct {
	transactions ports.TransactionStore
	properties   ports.PropertyStore
	cache        cache.Cache[core.Summary]
	logger       *applog.Logger
	now          func() time.Time
}

// NewFinancialService wires the service. summaries may be nil to disable
// caching.
func NewFinancialService(transactions ports.TransactionStore, properties ports.PropertyStore, summaries cache.Cache[core.Summary], logger *applog.Logger) *FinancialService {
	return &FinancialService{
		transactions: transactions,
		properties:   properties,
		cache:        summaries,
		logger:       componentLogger(logger, applog.ComponentSummary),
		now:          time.Now,
	}
}

// Summary aggregates every transaction of the owner with the server clock
// as "now". Results are cached per owner, query and day.
func (s *FinancialService) Summary(ctx context.Context, ownerID string, q SummaryQuery) (core.Summary, error) {
	now := s.now()
	key, cacheable := summaryKey(ownerID, q, now)
	if cacheable && s.cache != nil {
		if sum, ok := s.cache.Get(key); ok {
			return sum, nil
		}
	}

	txs, err := s.transactions.ListTransactions(ctx, ownerID, ports.TransactionQuery{})
	if err != nil {
		return core.Summary{}, fmt.Errorf("list transactions: %w", err)
	}
	names, err := s.names(ctx, ownerID)
	if err != nil {
		return core.Summary{}, err
	}

	sum := summary.Summarize(txs, now, summary.Options{Filter: q.Filter, Months: q.Months, Names: names})
	if cacheable && s.cache != nil {
		s.cache.Set(key, sum)
	}
	s.logger.DebugContext(ctx, "Summary computed",
		applog.FieldOwnerID, ownerID,
		applog.FieldCount, sum.Count,
		applog.FieldOperation, applog.OpSummarize)
	return sum, nil
}

// PropertySummary restricts Summary to one property of the owner.
func (s *FinancialService) PropertySummary(ctx context.Context, ownerID, propertyID string, months int) (core.Summary, error) {
	if _, err := s.properties.GetProperty(ctx, ownerID, propertyID); err != nil {
		return core.Summary{}, err
	}
	return s.Summary(ctx, ownerID, SummaryQuery{
		Filter: summary.Filter{PropertyID: propertyID},
		Months: months,
	})
}

// Chart returns the January to December buckets of year.
func (s *FinancialService) Chart(ctx context.Context, ownerID string, year int) ([]core.MonthBucket, error) {
	if year < 1 || year > 9999 {
		return nil, validate(fmt.Errorf("invalid year %d", year))
	}
	txs, err := s.transactions.ListTransactions(ctx, ownerID, ports.TransactionQuery{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return summary.CalendarYear(txs, year), nil
}

// Summarize aggregates a caller-supplied list without touching the store
// beyond loading property names. A zero now means the server clock.
func (s *FinancialService) Summarize(ctx context.Context, ownerID string, txs []core.Transaction, now time.Time, opts summary.Options) (core.Summary, error) {
	if now.IsZero() {
		now = s.now()
	}
	names, err := s.names(ctx, ownerID)
	if err != nil {
		return core.Summary{}, err
	}
	for id, name := range opts.Names {
		if _, ok := names[id]; !ok {
			names[id] = name
		}
	}
	opts.Names = names
	return summary.Summarize(txs, now, opts), nil
}

// CacheStats reports the summary cache counters; ok is false when caching
// is disabled.
func (s *FinancialService) CacheStats() (stats cache.Stats, ok bool) {
	if s.cache == nil {
		return cache.Stats{}, false
	}
	return s.cache.Stats(), true
}

// Invalidate drops every cached summary of the owner.
func (s *FinancialService) Invalidate(ownerID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(summaryKeyPrefix + ownerID + ":"); n > 0 {
		s.logger.Debug("Summary cache invalidated", applog.FieldOwnerID, ownerID, applog.FieldCount, n)
	}
}

func (s *FinancialService) names(ctx context.Context, ownerID string) (summary.PropertyNames, error) {
	props, err := s.properties.ListProperties(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return summary.NamesFromProperties(props), nil
}

// summaryKey normalises the query into a cache key. Queries with an
// explicit window are not cached.
func summaryKey(ownerID string, q SummaryQuery, now time.Time) (string, bool) {
	if q.Filter.Window != nil {
		return "", false
	}
	var b strings.Builder
	b.WriteString(summaryKeyPrefix)
	b.WriteString(ownerID)
	b.WriteString(":")
	b.WriteString(strconv.Itoa(q.Months))
	b.WriteString("|")
	b.WriteString(string(q.Filter.Type))
	b.WriteString("|")
	b.WriteString(q.Filter.PropertyID)
	b.WriteString("|")
	b.WriteString(string(q.Filter.DateRange))
	b.WriteString("|")
	b.WriteString(strings.ToLower(strings.TrimSpace(q.Filter.Search)))
	b.WriteString("|")
	b.WriteString(today(now).String())
	return b.String(), true
}
