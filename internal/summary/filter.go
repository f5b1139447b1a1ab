package summary

import (
	"fmt"
	"strings"
	"time"

	"propledger/internal/core"
)

// DateRange names a preset window relative to "now".
type DateRange string

const (
	AllTime    DateRange = "all"
	ThisMonth  DateRange = "thisMonth"
	LastMonth  DateRange = "lastMonth"
	ThisYear   DateRange = "thisYear"
	Last30Days DateRange = "last30Days"
	Last90Days DateRange = "last90Days"
)

// Window is an inclusive range of calendar days.
type Window struct {
	From core.Date
	To   core.Date
}

// windowStrategy computes the window for a preset given "now".
type windowStrategy func(today core.Date) Window

var windowStrategies = map[DateRange]windowStrategy{
	ThisMonth: func(today core.Date) Window {
		return Window{From: core.NewDate(today.Year(), today.Month(), 1), To: today}
	},
	LastMonth: func(today core.Date) Window {
		first := core.NewDate(today.Year(), today.Month(), 1)
		from := first.AddDate(0, -1, 0)
		return Window{
			From: core.Date{Time: from},
			To:   core.Date{Time: first.AddDate(0, 0, -1)},
		}
	},
	ThisYear: func(today core.Date) Window {
		return Window{From: core.NewDate(today.Year(), 1, 1), To: today}
	},
	Last30Days: func(today core.Date) Window {
		return Window{From: core.Date{Time: today.AddDate(0, 0, -30)}, To: today}
	},
	Last90Days: func(today core.Date) Window {
		return Window{From: core.Date{Time: today.AddDate(0, 0, -90)}, To: today}
	},
}

// ParseDateRange accepts the preset names in any case; blank means AllTime.
func ParseDateRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllTime, nil
	}
	if strings.EqualFold(s, string(AllTime)) {
		return AllTime, nil
	}
	for r := range windowStrategies {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown date range %q", s)
}

// Window returns the inclusive day window for r, or false for AllTime.
func (r DateRange) Window(now time.Time) (Window, bool) {
	strategy, ok := windowStrategies[r]
	if !ok {
		return Window{}, false
	}
	return strategy(today(now)), true
}

// Contains reports whether d falls inside the window. Malformed dates never do.
func (w Window) Contains(d core.Date) bool {
	if !d.Valid() {
		return false
	}
	k := dayKey(d)
	return k >= dayKey(w.From) && k <= dayKey(w.To)
}

// MonthWindow covers the whole calendar month.
func MonthWindow(year, month int) Window {
	first := core.NewDate(year, month, 1)
	return Window{From: first, To: core.Date{Time: first.AddDate(0, 1, -1)}}
}

func today(now time.Time) core.Date {
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

func dayKey(d core.Date) int {
	return d.Year()*10000 + d.Month()*100 + d.Day()
}

// Filter holds independent predicates that are ANDed together.
// The zero value matches every transaction.
type Filter struct {
	Search     string
	Type       core.TransactionType
	PropertyID string
	DateRange  DateRange
	// Window, when set, takes precedence over DateRange.
	Window *Window
}

// matcher is a Filter resolved against a fixed "now".
type matcher struct {
	search     string
	typ        core.TransactionType
	propertyID string
	window     Window
	hasWindow  bool
	names      PropertyNames
}

func (f Filter) compile(now time.Time, names PropertyNames) matcher {
	m := matcher{
		search:     strings.ToLower(strings.TrimSpace(f.Search)),
		typ:        f.Type,
		propertyID: strings.TrimSpace(f.PropertyID),
		names:      names,
	}
	if f.Window != nil {
		m.window, m.hasWindow = *f.Window, true
	} else {
		m.window, m.hasWindow = f.DateRange.Window(now)
	}
	return m
}

func (m matcher) match(tx core.Transaction) bool {
	if m.typ != "" && tx.Type != m.typ {
		return false
	}
	if m.propertyID != "" && tx.Property.RefID() != m.propertyID {
		return false
	}
	if m.hasWindow && !m.window.Contains(tx.Date) {
		return false
	}
	if m.search != "" && !m.matchesSearch(tx) {
		return false
	}
	return true
}

func (m matcher) matchesSearch(tx core.Transaction) bool {
	fields := []string{tx.Description, tx.Category, tx.Notes, searchName(tx.Property, m.names)}
	if tx.Tenant != nil {
		fields = append(fields, tx.Tenant.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.search) {
			return true
		}
	}
	return false
}
