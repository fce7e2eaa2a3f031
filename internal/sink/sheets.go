package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"watch_bot/internal/model"
)

// SheetsOptions configures the Google Sheets sink.
type SheetsOptions struct {
	CredentialsFile  string
	SpreadsheetID    string
	SpreadsheetTitle string
	Worksheet        string
}

// Sheets implements Sink on top of a Google Sheets worksheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	log           *slog.Logger
}

// NewSheets authorizes with a service account and bootstraps the target
// spreadsheet: created if no id is configured, the worksheet added if
// missing, and the header row written exactly once.
func NewSheets(ctx context.Context, opts SheetsOptions, log *slog.Logger) (*Sheets, error) {
	raw, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	s := &Sheets{svc: svc, worksheet: opts.Worksheet, log: log}

	newSheet := false
	if opts.SpreadsheetID == "" {
		id, err := s.createSpreadsheet(ctx, opts.SpreadsheetTitle)
		if err != nil {
			return nil, err
		}
		s.spreadsheetID = id
		newSheet = true
		log.Info("created spreadsheet", "spreadsheet_id", id, "title", opts.SpreadsheetTitle)
	} else {
		s.spreadsheetID = opts.SpreadsheetID
		added, err := s.ensureWorksheet(ctx)
		if err != nil {
			return nil, err
		}
		newSheet = added
	}

	if err := s.ensureHeader(ctx, newSheet); err != nil {
		return nil, err
	}
	return s, nil
}

// SpreadsheetID returns the id of the spreadsheet in use, which may
// have been created during bootstrap.
func (s *Sheets) SpreadsheetID() string {
	return s.spreadsheetID
}

// Close is a no-op; the HTTP client holds no resources to release.
func (s *Sheets) Close() error {
	return nil
}

// Append adds one row below the existing data.
func (s *Sheets) Append(ctx context.Context, ev model.MatchEvent) error {
	vr := &sheets.ValueRange{Values: [][]any{Row(ev)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeAll(), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (s *Sheets) createSpreadsheet(ctx context.Context, title string) (string, error) {
	resp, err := s.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: s.worksheet}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create spreadsheet: %w", err)
	}
	return resp.SpreadsheetId, nil
}

// ensureWorksheet adds the configured worksheet if the spreadsheet does
// not have it yet and reports whether it was added.
func (s *Sheets) ensureWorksheet(ctx context.Context) (bool, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.worksheet {
			return false, nil
		}
	}

	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: s.worksheet},
			}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("add worksheet %q: %w", s.worksheet, err)
	}
	s.log.Info("created worksheet", "worksheet", s.worksheet)
	return true, nil
}

// ensureHeader writes the header row once. An existing non-matching
// header on an old worksheet is left untouched to protect data.
func (s *Sheets) ensureHeader(ctx context.Context, newSheet bool) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeHeader()).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		if !newSheet && !headerMatches(resp.Values[0]) {
			s.log.Warn("worksheet header differs from the expected columns, leaving it untouched",
				"worksheet", s.worksheet)
		}
		return nil
	}

	row := make([]any, len(Header))
	for i, h := range Header {
		row[i] = h
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeHeader(),
		&sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	s.log.Info("initialized worksheet header", "worksheet", s.worksheet)
	return nil
}

func headerMatches(got []any) bool {
	if len(got) != len(Header) {
		return false
	}
	for i, v := range got {
		text, ok := v.(string)
		if !ok || text != Header[i] {
			return false
		}
	}
	return true
}

func (s *Sheets) rangeAll() string {
	return fmt.Sprintf("'%s'", s.worksheet)
}

func (s *Sheets) rangeHeader() string {
	return fmt.Sprintf("'%s'!1:1", s.worksheet)
}

var _ Sink = (*Sheets)(nil)
