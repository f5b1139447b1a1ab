package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"propledger/internal/core"
	ports "propledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configures the exporter.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// PerOwnerSheets gives every owner their own yearly sheet.
	PerOwnerSheets bool
}

// Client exports monthly cash-flow reports to a Google spreadsheet, one
// sheet per year and one row per month.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	perOwner      bool
	logger        *slog.Logger

	mu    sync.Mutex
	known map[string]bool // sheets known to exist
}

var _ ports.ReportExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Cash Flow"
	}

	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", opts.SpreadsheetID, "sheet", base)
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetBase:     base,
		perOwner:      opts.PerOwnerSheets,
		logger:        logger,
		known:         make(map[string]bool),
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportReport writes the report to its month row, creating the yearly
// sheet and header on first use.
func (c *Client) ExportReport(ctx context.Context, r core.Report) (string, error) {
	if r.Month < 1 || r.Month > 12 {
		return "", fmt.Errorf("%w: %d", core.ErrInvalidMonth, r.Month)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := ownerSheetName(c.sheetBase, r.Year, r.OwnerID, c.perOwner)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	rng := monthRange(sheet, r.Month)
	vr := &gsheet.ValueRange{Values: [][]any{reportRow(r)}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Exported report", "report_id", r.ID, "range", rng)
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, sheet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known[sheet] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	exists := false
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add sheet %s: %w", sheet, err)
		}
		c.logger.InfoContext(ctx, "Created report sheet", "sheet", sheet)
	}

	header := &gsheet.ValueRange{Values: [][]any{reportHeader}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange(sheet), header).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header for %s: %w", sheet, err)
	}

	c.known[sheet] = true
	return nil
}
