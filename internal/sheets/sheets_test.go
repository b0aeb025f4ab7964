package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/store"
)

// fakeSpreadsheet answers the handful of Sheets API calls the store makes.
type fakeSpreadsheet struct {
	mu     sync.Mutex
	ids    map[string]int64
	data   map[string][][]string
	nextID int64
}

func newFake() *fakeSpreadsheet {
	return &fakeSpreadsheet{ids: map[string]int64{}, data: map[string][][]string{}, nextID: 1}
}

func (f *fakeSpreadsheet) seed(title string, rows ...[]string) {
	f.ids[title] = f.nextID
	f.nextID++
	f.data[title] = rows
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sid")
	switch {
	case path == "" && r.Method == http.MethodGet:
		doc := &sheets.Spreadsheet{SpreadsheetId: "sid"}
		for title, id := range f.ids {
			doc.Sheets = append(doc.Sheets, &sheets.Sheet{Properties: &sheets.SheetProperties{Title: title, SheetId: id}})
		}
		writeJSON(w, doc)

	case path == ":batchUpdate":
		var req sheets.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "sid"}
		for _, q := range req.Requests {
			switch {
			case q.AddSheet != nil:
				title := q.AddSheet.Properties.Title
				f.seed(title)
				resp.Replies = append(resp.Replies, &sheets.Response{AddSheet: &sheets.AddSheetResponse{
					Properties: &sheets.SheetProperties{Title: title, SheetId: f.ids[title]},
				}})
			case q.DeleteDimension != nil:
				title := f.titleOf(q.DeleteDimension.Range.SheetId)
				rows := f.data[title]
				i := int(q.DeleteDimension.Range.StartIndex)
				f.data[title] = append(rows[:i:i], rows[i+1:]...)
				resp.Replies = append(resp.Replies, &sheets.Response{})
			}
		}
		writeJSON(w, resp)

	case strings.HasPrefix(path, "/values/"):
		rng := strings.TrimPrefix(path, "/values/")
		switch {
		case strings.HasSuffix(rng, ":append"):
			title := strings.TrimSuffix(rng, ":append")
			f.data[title] = append(f.data[title], decodeRows(r)...)
			writeJSON(w, &sheets.AppendValuesResponse{SpreadsheetId: "sid"})
		case r.Method == http.MethodGet:
			vr := &sheets.ValueRange{Range: rng, MajorDimension: "ROWS"}
			for _, row := range f.data[rng] {
				cells := make([]interface{}, len(row))
				for i, c := range row {
					cells[i] = c
				}
				vr.Values = append(vr.Values, cells)
			}
			writeJSON(w, vr)
		case r.Method == http.MethodPut:
			title, cell, _ := strings.Cut(rng, "!A")
			n, err := strconv.Atoi(cell)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rows := f.data[title]
			for len(rows) < n {
				rows = append(rows, nil)
			}
			rows[n-1] = decodeRows(r)[0]
			f.data[title] = rows
			writeJSON(w, &sheets.UpdateValuesResponse{UpdatedRows: 1})
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSpreadsheet) titleOf(id int64) string {
	for title, sid := range f.ids {
		if sid == id {
			return title
		}
	}
	return ""
}

func (f *fakeSpreadsheet) rows(title string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[title]
}

func decodeRows(r *http.Request) [][]string {
	var vr sheets.ValueRange
	_ = json.NewDecoder(r.Body).Decode(&vr)
	out := make([][]string, 0, len(vr.Values))
	for _, raw := range vr.Values {
		row := make([]string, len(raw))
		for i, c := range raw {
			row[i] = fmt.Sprint(c)
		}
		out = append(out, row)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, fake *fakeSpreadsheet) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), "sid",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}

func TestProductsCreateSheetAndHeaderLazily(t *testing.T) {
	fake := newFake()
	s := newTestStore(t, fake)
	ctx := context.Background()

	got, err := s.Products(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	p := models.Product{
		ID: "P-1", Name: "Cocoa", Category: "Chocolate", ProductType: models.ProductDrink,
		Prices: models.Prices{models.ServingIced: {General: 40, Teacher: 35, Student: 30}},
	}
	require.NoError(t, s.SaveProduct(ctx, p))

	rows := fake.rows(store.TableProducts)
	require.Len(t, rows, 2)
	assert.Equal(t, store.ProductColumns, rows[0])

	p.Name = "Dark Cocoa"
	require.NoError(t, s.SaveProduct(ctx, p))
	got, err = s.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dark Cocoa", got[0].Name)
	assert.Equal(t, p.Prices, got[0].Prices)

	require.NoError(t, s.SaveProduct(ctx, models.Product{ID: "P-2", Name: "Toast", ProductType: models.ProductSnack}))
	require.NoError(t, s.DeleteProduct(ctx, "P-1"))
	got, err = s.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-2", got[0].ID)

	assert.ErrorIs(t, s.DeleteProduct(ctx, "P-1"), store.ErrNotFound)
}

func TestCategories(t *testing.T) {
	s := newTestStore(t, newFake())
	ctx := context.Background()

	require.NoError(t, s.SaveCategory(ctx, models.Category{ID: "1", Name: "Coffee"}))
	require.NoError(t, s.SaveCategory(ctx, models.Category{ID: "2", Name: "Tea"}))
	require.NoError(t, s.DeleteCategory(ctx, "1"))

	got, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: "2", Name: "Tea"}}, got)
}

func TestOrdersOnLegacySheet(t *testing.T) {
	fake := newFake()
	// An older sheet without the paymentStatus column.
	legacy := store.OrderColumns[:len(store.OrderColumns)-1]
	fake.seed(store.TableOrders,
		legacy,
		[]string{"ORD-OLD", "Mali", "teacher", "[]", "90", "cash", "Room 2", "completed", "", "1700000000000"},
	)
	s := newTestStore(t, fake)
	ctx := context.Background()

	old, err := s.Order(ctx, "ORD-OLD")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, old.PaymentStatus)
	assert.Equal(t, 90.0, old.TotalAmount)
	assert.Equal(t, int64(1700000000000), old.Timestamp)

	old.PaymentStatus = models.PaymentPaid
	require.NoError(t, s.ReplaceOrder(ctx, old))

	rows := fake.rows(store.TableOrders)
	assert.Equal(t, store.OrderColumns, rows[0], "missing column is added to the header")
	assert.Equal(t, "paid", rows[1][len(rows[1])-1])

	o := models.Order{ID: "ORD-NEW", CustomerName: "Nok", Status: models.StatusPending, PaymentStatus: models.PaymentPending}
	require.NoError(t, s.CreateOrder(ctx, o))
	assert.ErrorIs(t, s.CreateOrder(ctx, o), store.ErrDuplicate)

	all, err := s.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.PaymentPaid, all[0].PaymentStatus)

	_, err = s.Order(ctx, "ORD-404")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.ReplaceOrder(ctx, models.Order{ID: "ORD-404"}), store.ErrNotFound)
}

func TestMigrateWritesHeaders(t *testing.T) {
	fake := newFake()
	s := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	assert.Equal(t, [][]string{store.ProductColumns}, fake.rows(store.TableProducts))
	assert.Equal(t, [][]string{store.CategoryColumns}, fake.rows(store.TableCategories))
	assert.Equal(t, [][]string{store.OrderColumns}, fake.rows(store.TableOrders))
}
