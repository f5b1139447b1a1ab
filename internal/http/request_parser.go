// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating query strings
// and request bodies shared by several handlers.

package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"propledger/internal/core"
	"propledger/internal/summary"
)

// FilterParams is the wire form of a transaction filter, used both as query
// parameters and inside JSON bodies.
type FilterParams struct {
	Search     string `json:"search"`
	Type       string `json:"type"`
	PropertyID string `json:"propertyId"`
	DateRange  string `json:"dateRange"`
}

// FilterParamsFromQuery reads search, type, propertyId and dateRange.
func FilterParamsFromQuery(q url.Values) FilterParams {
	return FilterParams{
		Search:     q.Get("search"),
		Type:       q.Get("type"),
		PropertyID: q.Get("propertyId"),
		DateRange:  q.Get("dateRange"),
	}
}

// Filter validates the parameters. A blank or "all" type and a blank or
// "all" date range match everything.
func (p FilterParams) Filter() (summary.Filter, error) {
	f := summary.Filter{
		Search:     sanitizeInput(p.Search),
		PropertyID: strings.TrimSpace(p.PropertyID),
	}

	if t := strings.TrimSpace(p.Type); t != "" && !strings.EqualFold(t, "all") {
		typ, err := core.ParseTransactionType(t)
		if err != nil {
			return summary.Filter{}, core.Invalid(fmt.Errorf("%w %q", err, t))
		}
		f.Type = typ
	}

	dr, err := summary.ParseDateRange(p.DateRange)
	if err != nil {
		return summary.Filter{}, core.Invalid(err)
	}
	f.DateRange = dr
	return f, nil
}

// ParseMonths reads the months query parameter. A missing value yields 0,
// which the aggregator treats as its default.
func ParseMonths(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("months"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(fmt.Errorf("invalid months %q", v))
	}
	return n, nil
}

// ParseYear reads the year query parameter, defaulting to the year of now.
func ParseYear(q url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(q.Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(fmt.Errorf("invalid year %q", v))
	}
	return y, nil
}

// ParseNow accepts an RFC 3339 timestamp or a YYYY-MM-DD date. Blank yields
// the zero time.
func ParseNow(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, core.Invalid(fmt.Errorf("invalid now %q: want RFC 3339 or YYYY-MM-DD", s))
}

// LastMonth returns the calendar month before the one containing now.
func LastMonth(now time.Time) (year, month int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}

// SummarizeRequest is the body of POST /api/financial/summarize.
type SummarizeRequest struct {
	Transactions []core.Transaction `json:"transactions"`
	Now          string             `json:"now"`
	Months       int                `json:"months"`
	Filter       FilterParams       `json:"filter"`
}

// ReportRequest is the body of POST /api/reports/monthly-cash-flow. Zero
// fields default to last month.
type ReportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Period resolves the requested month against now.
func (r ReportRequest) Period(now time.Time) (year, month int) {
	if r.Year == 0 && r.Month == 0 {
		return LastMonth(now)
	}
	year, month = r.Year, r.Month
	if year == 0 {
		year = now.Year()
	}
	return year, month
}
