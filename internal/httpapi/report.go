package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"posledger/internal/domain"
	"posledger/internal/store"
)

func (a *API) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	switch format {
	case "", "json", "csv", "html":
	default:
		a.fail(w, r, fmt.Errorf("%w: unsupported format %q", store.ErrInvalidInput, format))
		return
	}

	report, err := a.service.SalesReport(r.Context(), query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	switch format {
	case "csv":
		body, err := salesReportToCSV(report)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"sales-report-%s-%s.csv\"", report.StartDate, report.EndDate))
		w.Header().Set("X-Report-Total-Sales", formatAmount(report.TotalSales))
		w.Header().Set("X-Report-Total-Transactions", strconv.FormatInt(report.TotalTransactions, 10))
		_, _ = w.Write(body)
	case "html":
		body, err := salesReportToPrintableHTML(report)
		if err != nil {
			a.fail(w, r, fmt.Errorf("render sales report: %w", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// salesReportToCSV writes section,key,value summary rows, then a header and
// one row per item. Item rows are wider than summary rows.
func salesReportToCSV(report domain.SalesReport) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	records := [][]string{
		{"section", "key", "value"},
		{"summary", "start_date", report.StartDate},
		{"summary", "end_date", report.EndDate},
		{"summary", "total_transactions", strconv.FormatInt(report.TotalTransactions, 10)},
		{"summary", "total_sales", formatAmount(report.TotalSales)},
		{"section", "sale_id", "timestamp", "employee_name", "product_name", "quantity", "total_price"},
	}
	for _, line := range report.Sales {
		records = append(records, []string{
			"item",
			strconv.FormatInt(line.SaleID, 10),
			line.Timestamp.UTC().Format(time.RFC3339),
			line.EmployeeName,
			line.ProductName,
			strconv.Itoa(line.Quantity),
			formatAmount(line.TotalPrice),
		})
	}
	if err := cw.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var salesReportHTMLTmpl = template.Must(template.New("sales-report").Funcs(template.FuncMap{
	"amount": formatAmount,
	"stamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05")
	},
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Sales Report {{.StartDate}} to {{.EndDate}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
  </style>
</head>
<body>
  <h2>Sales Report {{.StartDate}} to {{.EndDate}}</h2>
  <p>Transactions: {{.TotalTransactions}} | Total sales: {{amount .TotalSales}}</p>
  <table>
    <thead><tr><th>Sale</th><th>Time (UTC)</th><th>Employee</th><th>Product</th><th>Qty</th><th>Total</th></tr></thead>
    <tbody>{{range .Sales}}<tr><td class="num">{{.SaleID}}</td><td>{{stamp .Timestamp}}</td><td>{{.EmployeeName}}</td><td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td class="num">{{amount .TotalPrice}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

func salesReportToPrintableHTML(report domain.SalesReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := salesReportHTMLTmpl.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
