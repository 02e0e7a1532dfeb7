// Package google mirrors transactions and budgets into a Google spreadsheet
// authenticated with a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// Row positions are remembered between writes. Rows are cleared, never
// removed, so a position only goes stale if someone edits the sheet by hand.
const (
	rowCacheSize = 4096
	rowCacheTTL  = 10 * time.Minute
)

var _ sheets.Mirror = (*Client)(nil)

// Config selects the spreadsheet, its two tabs and the credentials.
type Config struct {
	SpreadsheetID     string
	TransactionsSheet string
	BudgetsSheet      string
	CredentialsFile   string
	CredentialsJSON   string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	budgetsSheet      string

	rows    *cache.LRU[int]
	sweeper *cache.Manager
}

// New creates a Sheets client from service account credentials; inline JSON
// wins over a file path.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", cfg.CredentialsFile)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	rows := cache.NewLRU[int](rowCacheSize, rowCacheTTL)
	sweeper := cache.NewManager()
	sweeper.Register(rows)
	sweeper.Start(rowCacheTTL)

	return &Client{
		svc:               svc,
		spreadsheetID:     cfg.SpreadsheetID,
		transactionsSheet: cfg.TransactionsSheet,
		budgetsSheet:      cfg.BudgetsSheet,
		rows:              rows,
		sweeper:           sweeper,
	}, nil
}

// Close stops the row cache sweeper.
func (c *Client) Close() error {
	c.sweeper.Stop()
	return nil
}

// UpsertTransaction rewrites the row whose column A holds t.ID, or appends one.
func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	key := transactionCacheKey(t.ID)
	n, keys, err := c.locate(ctx, key, a1(c.transactionsSheet, "A:A"), transactionKey(t.ID))
	if err != nil {
		return err
	}
	row := sheets.TransactionRow(t)
	if n > 0 {
		return c.writeRow(ctx, key, a1(c.transactionsSheet, rowRange("A", "I", n)), row)
	}
	return c.appendRow(ctx, c.transactionsSheet, "A:I", keys, sheets.TransactionHeader, row)
}

// DeleteTransaction clears the row keyed by id. Rows are cleared rather than
// removed so other row numbers stay stable.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	key := transactionCacheKey(id)
	n, _, err := c.locate(ctx, key, a1(c.transactionsSheet, "A:A"), transactionKey(id))
	if err != nil {
		return err
	}
	if n == 0 {
		slog.DebugContext(ctx, "Transaction not in mirror, nothing to clear", "id", id)
		return nil
	}
	rng := a1(c.transactionsSheet, rowRange("A", "I", n))
	c.rows.Delete(key)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// UpsertBudget rewrites the row keyed by category and month, or appends one.
func (c *Client) UpsertBudget(ctx context.Context, b core.Budget) error {
	month := b.Month.String()
	key := budgetCacheKey(b.Category, month)
	n, keys, err := c.locate(ctx, key, a1(c.budgetsSheet, "A:B"), budgetKey(b.Category, month))
	if err != nil {
		return err
	}
	row := sheets.BudgetRow(b)
	if n > 0 {
		return c.writeRow(ctx, key, a1(c.budgetsSheet, rowRange("A", "C", n)), row)
	}
	return c.appendRow(ctx, c.budgetsSheet, "A:C", keys, sheets.BudgetHeader, row)
}

// locate finds the row for key, from the cache when possible. On a cache miss
// the key columns read from the sheet are returned too so an append can tell
// whether the sheet is empty.
func (c *Client) locate(ctx context.Context, key, keyRange string, match func([]string) bool) (int, [][]any, error) {
	if n, ok := c.rows.Get(key); ok {
		return n, nil, nil
	}
	keys, err := c.readRange(ctx, keyRange)
	if err != nil {
		return 0, nil, err
	}
	n := findRow(keys, match)
	if n > 0 {
		c.rows.Set(key, n)
	}
	return n, keys, nil
}

// writeRow overwrites a located row, forgetting its position if the write fails.
func (c *Client) writeRow(ctx context.Context, key, rng string, row []any) error {
	if err := c.write(ctx, rng, row); err != nil {
		c.rows.Delete(key)
		return err
	}
	return nil
}

func (c *Client) readRange(ctx context.Context, rng string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) write(ctx context.Context, rng string, row []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// appendRow adds row after the last used row, writing header first on an
// empty sheet.
func (c *Client) appendRow(ctx context.Context, sheet, cols string, existing [][]any, header, row []any) error {
	values := [][]any{row}
	if len(existing) == 0 {
		values = [][]any{header, row}
	}
	rng := a1(sheet, cols)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	return nil
}
