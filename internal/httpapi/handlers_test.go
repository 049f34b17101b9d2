package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"posledger/internal/domain"
	"posledger/internal/metrics"
	"posledger/internal/service"
	"posledger/internal/store/memory"
)

// newTestAPI builds a full API over a seeded in-memory store so handler tests
// exercise the complete request path.
func newTestAPI(t *testing.T, opts Options) (*API, *memory.Store) {
	t.Helper()

	repo := memory.NewSeeded()
	repo.SetClock(func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) })
	logger := zaptest.NewLogger(t)
	svc := service.New(repo, service.Options{Logger: logger})

	if opts.Logger == nil {
		opts.Logger = logger
	}
	return New(svc, opts), repo
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v (body: %s)", err, rec.Body.String())
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	api, _ := newTestAPI(t, Options{})

	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{"employee_id": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	opened := decodeBody[struct {
		Sale domain.Sale `json:"sale"`
	}](t, rec).Sale
	if opened.EmployeeName != "Alice" || opened.Total != 0 {
		t.Fatalf("unexpected opened sale: %+v", opened)
	}

	itemPath := "/api/v1/sales/" + itoa(opened.ID) + "/items"
	rec = doJSON(t, handler, http.MethodPost, itemPath, map[string]any{
		"product_id":   1,
		"quantity":     2,
		"extra_amount": 0.5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("append item: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	item := decodeBody[struct {
		Item domain.SaleItem `json:"item"`
	}](t, rec).Item
	if item.ProductName != "Coffee" || item.Price != 3 {
		t.Fatalf("unexpected item: %+v", item)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales/"+itoa(opened.ID)+"/finalize", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	finalized := decodeBody[struct {
		Sale domain.Sale `json:"sale"`
	}](t, rec).Sale
	if finalized.Total != 7 {
		t.Fatalf("expected total 7.00, got %v", finalized.Total)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales/"+itoa(opened.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get sale: expected 200, got %d", rec.Code)
	}
	detail := decodeBody[domain.SaleDetail](t, rec)
	if len(detail.Items) != 1 || detail.Sale.Total != 7 {
		t.Fatalf("unexpected sale detail: %+v", detail)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/sales", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sales: expected 200, got %d", rec.Code)
	}
	lines := decodeBody[struct {
		Sales []domain.SaleLine `json:"sales"`
	}](t, rec).Sales
	if len(lines) != 1 || lines[0].Total != 7 || lines[0].EmployeeName != "Alice" {
		t.Fatalf("unexpected sale lines: %+v", lines)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/sales?start_date=2024-05-01&end_date=2024-05-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	report := decodeBody[domain.SalesReport](t, rec)
	if report.TotalSales != 7 || report.TotalTransactions != 1 || len(report.Sales) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	handler := api.Handler()

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown employee", http.MethodPost, "/api/v1/sales", map[string]any{"employee_id": 999}, http.StatusNotFound},
		{"missing employee id", http.MethodPost, "/api/v1/sales", map[string]any{}, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/sales", map[string]any{"employee_id": 1, "terminal": "t1"}, http.StatusBadRequest},
		{"item on missing sale", http.MethodPost, "/api/v1/sales/999/items", map[string]any{"product_id": 1, "quantity": 1}, http.StatusNotFound},
		{"zero quantity", http.MethodPost, "/api/v1/sales/1/items", map[string]any{"product_id": 1, "quantity": 0}, http.StatusBadRequest},
		{"quantity above column range", http.MethodPost, "/api/v1/sales/1/items", map[string]any{"product_id": 1, "quantity": 2147483648}, http.StatusBadRequest},
		{"negative price", http.MethodPost, "/api/v1/sales/1/items", map[string]any{"product_id": 1, "quantity": 1, "price": -1}, http.StatusBadRequest},
		{"bad sale id", http.MethodPost, "/api/v1/sales/abc/finalize", nil, http.StatusBadRequest},
		{"finalize missing sale", http.MethodPost, "/api/v1/sales/999/finalize", nil, http.StatusNotFound},
		{"get missing sale", http.MethodGet, "/api/v1/sales/999", nil, http.StatusNotFound},
		{"bad report date", http.MethodGet, "/api/v1/reports/sales?start_date=01-05-2024", nil, http.StatusBadRequest},
		{"reversed report range", http.MethodGet, "/api/v1/reports/sales?start_date=2024-05-02&end_date=2024-05-01", nil, http.StatusBadRequest},
		{"unknown report format", http.MethodGet, "/api/v1/reports/sales?format=pdf", nil, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/refunds", nil, http.StatusNotFound},
		{"wrong method", http.MethodPut, "/api/v1/sales", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, tc.method, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (body: %s)", tc.status, rec.Code, rec.Body.String())
			}
			body := decodeBody[map[string]string](t, rec)
			if strings.TrimSpace(body["error"]) == "" {
				t.Fatalf("expected error message in body")
			}
		})
	}
}

func TestSalesReportCSVAndHTML(t *testing.T) {
	api, repo := newTestAPI(t, Options{})
	handler := api.Handler()

	doJSON(t, handler, http.MethodPost, "/api/v1/sales", map[string]any{"employee_id": 2})
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales/1/items", map[string]any{"product_id": 2, "quantity": 3})
	if rec.Code != http.StatusCreated {
		t.Fatalf("append item: expected 201, got %d", rec.Code)
	}
	_, _ = repo.RenameEmployee(t.Context(), 2, "<b>Budi</b>")

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/sales?start_date=2024-05-01&end_date=2024-05-31&format=csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv report: expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("expected csv content type, got %q", got)
	}
	if got := rec.Header().Get("X-Report-Total-Sales"); got != "7.50" {
		t.Fatalf("expected total header 7.50, got %q", got)
	}
	reader := csv.NewReader(rec.Body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("expected summary block, item header and one item, got %d records", len(records))
	}
	summary := map[string]string{}
	for _, record := range records[1:5] {
		if len(record) != 3 || record[0] != "summary" {
			t.Fatalf("unexpected summary row: %v", record)
		}
		summary[record[1]] = record[2]
	}
	if summary["start_date"] != "2024-05-01" || summary["end_date"] != "2024-05-31" {
		t.Fatalf("unexpected summary dates: %v", summary)
	}
	if summary["total_transactions"] != "1" || summary["total_sales"] != "7.50" {
		t.Fatalf("unexpected summary totals: %v", summary)
	}
	if records[5][1] != "sale_id" {
		t.Fatalf("expected item header, got %v", records[5])
	}
	item := records[6]
	if item[0] != "item" || item[3] != "Budi" || item[4] != "Tea" || item[6] != "7.50" {
		t.Fatalf("unexpected csv row: %v", item)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/reports/sales?start_date=2024-05-01&end_date=2024-05-31&format=html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("html report: expected 200, got %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "Transactions: 1") || !strings.Contains(page, "7.50") {
		t.Fatalf("html report missing totals: %s", page)
	}
}

func TestReportHTMLEscapesNames(t *testing.T) {
	page, err := salesReportToPrintableHTML(domain.SalesReport{
		StartDate: "2024-05-01",
		EndDate:   "2024-05-01",
		Sales: []domain.ReportLine{
			{SaleID: 1, ProductName: "<script>alert(1)</script>", Quantity: 1, EmployeeName: "Alice", TotalPrice: 1},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(page), "<script>") {
		t.Fatalf("expected product name to be escaped")
	}
}

func TestCatalogEndpoints(t *testing.T) {
	api, _ := newTestAPI(t, Options{})
	handler := api.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{"name": "Matcha", "price": 4.25})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	product := decodeBody[struct {
		Product domain.Product `json:"product"`
	}](t, rec).Product

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/products/"+itoa(product.ID), map[string]any{"price": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("update product: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/products/"+itoa(product.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete product: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/products/"+itoa(product.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/employees", map[string]any{"name": "Citra"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create employee: expected 201, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/employees", map[string]any{"name": "Citra"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate employee: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/employees/1", map[string]any{"name": "Alicia"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename employee: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/employees/2", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete employee: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/employees", nil)
	employees := decodeBody[struct {
		Employees []domain.Employee `json:"employees"`
	}](t, rec).Employees
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api, _ := newTestAPI(t, Options{Metrics: metrics.New()})
	handler := api.Handler()

	doJSON(t, handler, http.MethodGet, "/api/v1/products", nil)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `posledger_http_requests_total{code="200",route="/api/v1/products`) {
		t.Fatalf("expected request counter for products route, got:\n%s", rec.Body.String())
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
