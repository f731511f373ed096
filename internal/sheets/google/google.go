// Package google mirrors entries into a Google Sheets spreadsheet, one
// sheet per collection, one row per entry keyed by the entry id in column A.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

// Options selects the spreadsheet and the credentials used to reach it.
// A service account wins over an OAuth client when both are set.
type Options struct {
	SpreadsheetID   string
	IncomeSheet     string
	ExpenseSheet    string
	CredentialsJSON string
	CredentialsFile string

	// OAuth user credentials; the token file is written by cmd/oauth-init.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	incomeSheet   string
	expenseSheet  string
}

// New creates a Sheets client with the configured credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, opts), nil
}

func newClient(svc *gsheet.Service, opts Options) *Client {
	income := strings.TrimSpace(opts.IncomeSheet)
	if income == "" {
		income = "Income"
	}
	expense := strings.TrimSpace(opts.ExpenseSheet)
	if expense == "" {
		expense = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		incomeSheet:   income,
		expenseSheet:  expense,
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	saJSON, err := readInlineOrFile(opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	if saJSON != nil {
		slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(saJSON),
			"scope", gsheet.SpreadsheetsScope)

		service, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	ts, err := oauthTokenSource(ctx, opts)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth user token",
		"token_file", opts.OAuthTokenFile)

	service, err := gsheet.NewService(ctx, goption.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// oauthTokenSource refreshes the stored user token with the OAuth client.
func oauthTokenSource(ctx context.Context, opts Options) (oauth2.TokenSource, error) {
	clientJSON, err := readInlineOrFile(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	tokenFile := strings.TrimSpace(opts.OAuthTokenFile)
	if clientJSON == nil || tokenFile == "" {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON/FILE, or GOOGLE_OAUTH_CLIENT_JSON/FILE with GOOGLE_OAUTH_TOKEN_FILE)")
	}

	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

// readInlineOrFile prefers the inline value. Both empty yields nil.
func readInlineOrFile(inline, file string) ([]byte, error) {
	if v := strings.TrimSpace(inline); v != "" {
		return []byte(v), nil
	}
	file = strings.TrimSpace(file)
	if file == "" {
		return nil, nil
	}
	return os.ReadFile(file)
}

// AppendIncome writes e below the last used row of the income sheet. An
// entry whose id is already present is left alone, so redelivered events
// never duplicate rows.
func (c *Client) AppendIncome(ctx context.Context, e core.IncomeEntry) error {
	return c.appendRow(ctx, c.incomeSheet, incomeHeader, incomeRow(e))
}

func (c *Client) AppendExpense(ctx context.Context, e core.ExpenseEntry) error {
	return c.appendRow(ctx, c.expenseSheet, expenseHeader, expenseRow(e))
}

// ClearEntry blanks the row holding id. A missing row is not an error.
func (c *Client) ClearEntry(ctx context.Context, collection records.Collection, id string) error {
	sheet, header, err := c.sheetFor(collection)
	if err != nil {
		return err
	}
	ids, err := c.readIDs(ctx, sheet)
	if err != nil {
		return err
	}

	row := findRow(ids, id)
	if row < 0 {
		slog.WarnContext(ctx, "Entry not found in sheet, nothing to clear",
			"sheet", sheet,
			"id", id)
		return nil
	}

	rng := rowRange(sheet, row, len(header))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Entry cleared from sheet", "range", rng, "id", id)
	return nil
}

func (c *Client) sheetFor(collection records.Collection) (string, []any, error) {
	switch collection {
	case records.Income:
		return c.incomeSheet, incomeHeader, nil
	case records.Expenses:
		return c.expenseSheet, expenseHeader, nil
	}
	return "", nil, records.ErrUnknownCollection
}

func (c *Client) appendRow(ctx context.Context, sheet string, header, row []any) error {
	ids, err := c.readIDs(ctx, sheet)
	if err != nil {
		return err
	}
	id := fmt.Sprint(row[0])
	if findRow(ids, id) >= 0 {
		slog.InfoContext(ctx, "Entry already mirrored", "sheet", sheet, "id", id)
		return nil
	}

	values := [][]any{row}
	nextRow := len(ids) + 1
	if len(ids) == 0 {
		values = [][]any{header, row}
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", sheet, nextRow, columnName(len(header)), nextRow+len(values)-1)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Entry mirrored to sheet", "range", rng, "id", id)
	return nil
}

// readIDs returns column A of sheet, header included.
func (c *Client) readIDs(ctx context.Context, sheet string) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, safeGet(toStrings(row), 0))
	}
	return out, nil
}
