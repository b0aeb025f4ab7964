// Package sheets keeps the row store in a Google spreadsheet, one sheet per
// table, with a header row naming the columns.
package sheets

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/store"
)

type Store struct {
	svc           *sheets.Service
	spreadsheetID string

	mu     sync.Mutex
	sheets map[string]int64 // title -> sheet id
}

var _ store.Store = (*Store)(nil)

// New connects to the spreadsheet. Pass option.WithCredentialsFile for a
// service account, or option.WithEndpoint/WithHTTPClient in tests.
func New(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheets: map[string]int64{}}, nil
}

// table is a snapshot of one sheet's values.
type table struct {
	title  string
	header []string
	rows   [][]string // data rows, header excluded
}

// find returns the data row index whose first cell equals id, or -1.
func (t *table) find(id string) int {
	for i, row := range t.rows {
		if len(row) > 0 && row[0] == id {
			return i
		}
	}
	return -1
}

func (t *table) records() []store.Record {
	out := make([]store.Record, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, store.NewRecord(t.header, row))
	}
	return out
}

func (s *Store) sheetID(ctx context.Context, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.sheets[title]; ok {
		return id, nil
	}

	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			s.sheets[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	if id, ok := s.sheets[title]; ok {
		return id, nil
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %s: empty reply", title)
	}
	id := resp.Replies[0].AddSheet.Properties.SheetId
	s.sheets[title] = id
	return id, nil
}

func (s *Store) load(ctx context.Context, title string) (*table, error) {
	if _, err := s.sheetID(ctx, title); err != nil {
		return nil, err
	}
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, title).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", title, err)
	}
	t := &table{title: title}
	for i, raw := range vr.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		if i == 0 {
			t.header = row
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// ensureHeader writes the header row on first use and appends any columns
// the existing header lacks.
func (s *Store) ensureHeader(ctx context.Context, t *table, columns []string) error {
	have := make(map[string]bool, len(t.header))
	for _, h := range t.header {
		have[h] = true
	}
	header := append([]string(nil), t.header...)
	for _, c := range columns {
		if !have[c] {
			header = append(header, c)
		}
	}
	if len(header) == len(t.header) {
		return nil
	}
	if err := s.write(ctx, t.title, 0, header); err != nil {
		return err
	}
	t.header = header
	return nil
}

// write overwrites one row in a single call. sheetRow is zero-based and
// counts the header as row 0.
func (s *Store) write(ctx context.Context, title string, sheetRow int, row []string) error {
	rng := fmt.Sprintf("%s!A%d", title, sheetRow+1)
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (s *Store) appendRow(ctx context.Context, title string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, title, valueRange(row)).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", title, err)
	}
	return nil
}

func (s *Store) deleteRow(ctx context.Context, title string, dataIndex int) error {
	id, err := s.sheetID(ctx, title)
	if err != nil {
		return err
	}
	start := int64(dataIndex + 1) // skip header
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{Range: &sheets.DimensionRange{
				SheetId: id, Dimension: "ROWS", StartIndex: start, EndIndex: start + 1,
			}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete row from %s: %w", title, err)
	}
	return nil
}

// upsert overwrites the row with rec's id or appends a new one.
func (s *Store) upsert(ctx context.Context, title string, columns []string, rec store.Record) error {
	t, err := s.load(ctx, title)
	if err != nil {
		return err
	}
	if err := s.ensureHeader(ctx, t, columns); err != nil {
		return err
	}
	row := rec.Row(t.header)
	if i := t.find(rec["id"]); i >= 0 {
		return s.write(ctx, title, i+1, row)
	}
	return s.appendRow(ctx, title, row)
}

func (s *Store) remove(ctx context.Context, title, id string) error {
	t, err := s.load(ctx, title)
	if err != nil {
		return err
	}
	i := t.find(id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", title, id, store.ErrNotFound)
	}
	return s.deleteRow(ctx, title, i)
}

// Migrate creates any missing sheet and header row.
func (s *Store) Migrate(ctx context.Context) error {
	tables := []struct {
		title   string
		columns []string
	}{
		{store.TableProducts, store.ProductColumns},
		{store.TableCategories, store.CategoryColumns},
		{store.TableOrders, store.OrderColumns},
	}
	for _, tb := range tables {
		t, err := s.load(ctx, tb.title)
		if err != nil {
			return err
		}
		if err := s.ensureHeader(ctx, t, tb.columns); err != nil {
			return err
		}
	}
	return nil
}

func valueRange(row []string) *sheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return &sheets.ValueRange{Values: [][]interface{}{cells}}
}

func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	t, err := s.load(ctx, store.TableProducts)
	if err != nil {
		return nil, err
	}
	out := []models.Product{}
	for _, r := range t.records() {
		out = append(out, r.Product())
	}
	return out, nil
}

func (s *Store) SaveProduct(ctx context.Context, p models.Product) error {
	return s.upsert(ctx, store.TableProducts, store.ProductColumns, store.ProductRecord(p))
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.remove(ctx, store.TableProducts, id)
}

func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	t, err := s.load(ctx, store.TableCategories)
	if err != nil {
		return nil, err
	}
	out := []models.Category{}
	for _, r := range t.records() {
		out = append(out, r.Category())
	}
	return out, nil
}

func (s *Store) SaveCategory(ctx context.Context, c models.Category) error {
	return s.upsert(ctx, store.TableCategories, store.CategoryColumns, store.CategoryRecord(c))
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.remove(ctx, store.TableCategories, id)
}

func (s *Store) Orders(ctx context.Context) ([]models.Order, error) {
	t, err := s.load(ctx, store.TableOrders)
	if err != nil {
		return nil, err
	}
	out := []models.Order{}
	for _, r := range t.records() {
		out = append(out, r.Order())
	}
	return out, nil
}

func (s *Store) Order(ctx context.Context, id string) (models.Order, error) {
	t, err := s.load(ctx, store.TableOrders)
	if err != nil {
		return models.Order{}, err
	}
	i := t.find(id)
	if i < 0 {
		return models.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	return store.NewRecord(t.header, t.rows[i]).Order(), nil
}

func (s *Store) CreateOrder(ctx context.Context, o models.Order) error {
	t, err := s.load(ctx, store.TableOrders)
	if err != nil {
		return err
	}
	if t.find(o.ID) >= 0 {
		return fmt.Errorf("order %s: %w", o.ID, store.ErrDuplicate)
	}
	if err := s.ensureHeader(ctx, t, store.OrderColumns); err != nil {
		return err
	}
	return s.appendRow(ctx, store.TableOrders, store.OrderRecord(o).Row(t.header))
}

func (s *Store) ReplaceOrder(ctx context.Context, o models.Order) error {
	t, err := s.load(ctx, store.TableOrders)
	if err != nil {
		return err
	}
	i := t.find(o.ID)
	if i < 0 {
		return fmt.Errorf("order %s: %w", o.ID, store.ErrNotFound)
	}
	if err := s.ensureHeader(ctx, t, store.OrderColumns); err != nil {
		return err
	}
	return s.write(ctx, store.TableOrders, i+1, store.OrderRecord(o).Row(t.header))
}
