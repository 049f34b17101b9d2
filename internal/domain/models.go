package domain

import "time"

type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type EmployeeRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Barcode   string    `json:"barcode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name    string  `json:"name" validate:"required,max=160"`
	Price   float64 `json:"price" validate:"gte=0"`
	Barcode string  `json:"barcode,omitempty" validate:"omitempty,max=64"`
}

type ProductUpdateRequest struct {
	Name    *string  `json:"name,omitempty" validate:"omitempty,max=160"`
	Price   *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Barcode *string  `json:"barcode,omitempty" validate:"omitempty,max=64"`
}

// Sale is one checkout. EmployeeName is captured when the sale is opened and
// never follows later renames. Total is only meaningful after FinalizeSale.
type Sale struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Total        float64   `json:"total"`
	Timestamp    time.Time `json:"timestamp"`
}

// SaleItem is an immutable line of a sale. ProductID becomes nil once the
// product is deleted from the catalog; ProductName and Price stay as sold.
type SaleItem struct {
	ID          int64   `json:"id"`
	SaleID      int64   `json:"sale_id"`
	ProductID   *int64  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	ExtraAmount float64 `json:"extra_amount"`
}

// LineTotal is the revenue of the line: quantity x (price + extra_amount).
func (i SaleItem) LineTotal() float64 {
	return LineTotal(i.Quantity, i.Price, i.ExtraAmount)
}

func LineTotal(quantity int, price float64, extraAmount float64) float64 {
	return float64(quantity) * (price + extraAmount)
}

type SaleOpenRequest struct {
	EmployeeID int64 `json:"employee_id" validate:"required,gt=0"`
}

// SaleItemRequest appends one line. A nil Price sells at the current catalog
// price.
type SaleItemRequest struct {
	ProductID   int64    `json:"product_id" validate:"required,gt=0"`
	Quantity    int      `json:"quantity" validate:"gt=0,lte=2147483647"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	ExtraAmount float64  `json:"extra_amount" validate:"gte=0"`
}

type SaleDetail struct {
	Sale  Sale       `json:"sale"`
	Items []SaleItem `json:"items"`
}

// SaleLine is one row of the all-sales listing: an item joined with its sale.
type SaleLine struct {
	ID           int64     `json:"id"`
	SaleID       int64     `json:"sale_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	EmployeeName string    `json:"employee_name"`
	Total        float64   `json:"total"`
	Timestamp    time.Time `json:"timestamp"`
}

type ReportLine struct {
	SaleID       int64     `json:"sale_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	EmployeeName string    `json:"employee_name"`
	TotalPrice   float64   `json:"total_price"`
	Timestamp    time.Time `json:"timestamp"`
}

type SalesReport struct {
	StartDate         string       `json:"start_date"`
	EndDate           string       `json:"end_date"`
	TotalSales        float64      `json:"total_sales"`
	TotalTransactions int64        `json:"total_transactions"`
	Sales             []ReportLine `json:"sales"`
}
