package storage

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
)

// SheetsStore persists tables as tabs of one Google spreadsheet. The
// clear-then-write in ReplaceAll is not atomic: a crash between the two calls
// leaves the tab empty until the next run. The file backend is the atomic
// alternative.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	firstFallback string
	logger        *common.Logger
}

// SheetsOption configures the store
type SheetsOption func(*SheetsStore)

// WithFirstSheetFallback names the one table that maps onto the spreadsheet's
// first tab when no tab carries the table's name. Every other missing table
// gets a new tab instead.
func WithFirstSheetFallback(table string) SheetsOption {
	return func(s *SheetsStore) {
		s.firstFallback = table
	}
}

// NewSheetsStore creates a store over the configured spreadsheet,
// authenticating with the service-account credentials from configuration.
// Extra client options are for tests, which point the service at a fake
// endpoint.
func NewSheetsStore(logger *common.Logger, config *common.SheetsConfig, opts ...interface{}) (*SheetsStore, error) {
	s := &SheetsStore{
		spreadsheetID: config.SpreadsheetID,
		logger:        logger,
	}

	var clientOpts []option.ClientOption
	for _, opt := range opts {
		switch o := opt.(type) {
		case SheetsOption:
			o(s)
		case option.ClientOption:
			clientOpts = append(clientOpts, o)
		default:
			return nil, fmt.Errorf("unsupported sheets store option %T", opt)
		}
	}

	ctx := context.Background()
	if len(clientOpts) == 0 {
		creds, err := serviceAccountJSON(config)
		if err != nil {
			return nil, err
		}
		jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(jwt.Client(ctx)))
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	s.service = service

	logger.Debug().Str("spreadsheet", s.spreadsheetID).Msg("SheetsStore opened")
	return s, nil
}

// serviceAccountJSON returns the credential JSON, inline or from the
// configured file path.
func serviceAccountJSON(config *common.SheetsConfig) ([]byte, error) {
	if config.CredentialsJSON != "" {
		return []byte(config.CredentialsJSON), nil
	}
	if config.CredentialsFile != "" {
		data, err := os.ReadFile(config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account file: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no service account credentials configured")
}

// resolveTab returns the tab title backing a table, creating the tab when the
// table has no fallback and no tab carries its name.
func (s *SheetsStore) resolveTab(ctx context.Context, table string, create bool) (string, error) {
	doc, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to load spreadsheet: %w", err)
	}

	for _, sheet := range doc.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == table {
			return table, nil
		}
	}

	if table == s.firstFallback && len(doc.Sheets) > 0 && doc.Sheets[0].Properties != nil {
		title := doc.Sheets[0].Properties.Title
		s.logger.Warn().Str("table", table).Str("tab", title).Msg("named tab missing, using first tab")
		return title, nil
	}

	if !create {
		return "", nil
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to add tab %s: %w", table, err)
	}

	s.logger.Info().Str("table", table).Msg("created missing tab")
	return table, nil
}

// ReplaceAll clears the tab and writes header plus rows in one batch update.
func (s *SheetsStore) ReplaceAll(ctx context.Context, table string, header []string, rows [][]string) error {
	tab, err := s.resolveTab(ctx, table, true)
	if err != nil {
		return err
	}

	tabRange := fmt.Sprintf("'%s'", tab)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, tabRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", tab, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toCells(header))
	for _, row := range rows {
		values = append(values, toCells(row))
	}

	_, err = s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, tabRange+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", tab, err)
	}

	s.logger.Debug().Str("table", table).Str("tab", tab).Int("rows", len(rows)).Msg("table replaced")
	return nil
}

// ReadAll returns the tab's rows including the header. A table without a
// backing tab reads as empty.
func (s *SheetsStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	tab, err := s.resolveTab(ctx, table, false)
	if err != nil {
		return nil, err
	}
	if tab == "" {
		return nil, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, fmt.Sprintf("'%s'", tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", tab, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, cells := range resp.Values {
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = fmt.Sprint(c)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SheetsStore) Close() error {
	return nil
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// Compile-time check
var _ interfaces.TableStore = (*SheetsStore)(nil)
