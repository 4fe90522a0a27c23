package export

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/portfel/tracker/internal/domain"
)

const netWorthSheet = "NETWORTH"

// SheetsWriter implements RowAppender using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Append ensures the net-worth sheet exists and appends one dated summary row.
// Columns: Date | Net Worth | Holdings | Unrealized P/L | Realized P/L | Cash | Currency | Degraded
func (w *SheetsWriter) Append(ctx context.Context, date time.Time, s domain.Summary) error {
	if err := w.ensureSheets(ctx, netWorthSheet); err != nil {
		return err
	}

	degraded := 0
	if s.Degraded {
		degraded = 1
	}
	row := []any{
		date.Format("2006-01-02"),
		toFloat(s.NetWorth),
		toFloat(s.HoldingsValue),
		toFloat(s.UnrealizedPL),
		toFloat(s.RealizedPL),
		toFloat(s.Cash),
		s.Currency,
		degraded,
	}

	_, err := w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		netWorthSheet+"!A:H",
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending net worth row: %w", err)
	}

	return nil
}

// ensureSheets creates any of the named sheets that do not already exist.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	existing := make(map[string]bool, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		existing[s.Properties.Title] = true
	}

	var requests []*sheets.Request
	for _, name := range names {
		if !existing[name] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheets: %w", err)
	}

	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
