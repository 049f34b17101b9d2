package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"posledger/internal/domain"
	"posledger/internal/store"
)

// Store keeps the ledger in process memory with the same referential rules
// as the postgres schema: deleting an employee removes their sales and items,
// deleting a product clears the product reference on sold items.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	employees map[int64]domain.Employee
	products  map[int64]domain.Product
	sales     map[int64]domain.Sale
	items     map[int64]domain.SaleItem

	nextEmployeeID int64
	nextProductID  int64
	nextSaleID     int64
	nextItemID     int64
}

func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		employees: make(map[int64]domain.Employee),
		products:  make(map[int64]domain.Product),
		sales:     make(map[int64]domain.Sale),
		items:     make(map[int64]domain.SaleItem),
	}
}

// NewSeeded returns a store with a couple of employees and a small catalog
// for development mode.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()
	for _, name := range []string{"Alice", "Budi"} {
		_, _ = s.CreateEmployee(ctx, name)
	}
	for _, p := range []domain.Product{
		{Name: "Coffee", Price: 3.00, Barcode: "8990001000011"},
		{Name: "Tea", Price: 2.50, Barcode: "8990001000028"},
		{Name: "Croissant", Price: 2.75, Barcode: "8990001000035"},
		{Name: "Mineral Water", Price: 1.20, Barcode: "8990001000042"},
		{Name: "Custom Cake", Price: 0},
	} {
		_, _ = s.CreateProduct(ctx, p)
	}
	return s
}

// SetClock overrides the timestamp source used for new sales.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) EmployeeName(_ context.Context, employeeID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, ok := s.employees[employeeID]
	if !ok {
		return "", store.ErrNotFound
	}
	return employee.Name, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return employees, nil
}

func (s *Store) CreateEmployee(_ context.Context, name string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.employeeNameTaken(name, 0) {
		return nil, store.ErrInvalidInput
	}
	s.nextEmployeeID++
	employee := domain.Employee{ID: s.nextEmployeeID, Name: name, CreatedAt: s.now()}
	s.employees[employee.ID] = employee
	return &employee, nil
}

func (s *Store) RenameEmployee(_ context.Context, employeeID int64, name string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	employee, ok := s.employees[employeeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.employeeNameTaken(name, employeeID) {
		return nil, store.ErrInvalidInput
	}
	employee.Name = name
	s.employees[employeeID] = employee
	return &employee, nil
}

func (s *Store) DeleteEmployee(_ context.Context, employeeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[employeeID]; !ok {
		return store.ErrNotFound
	}
	delete(s.employees, employeeID)
	for id, sale := range s.sales {
		if sale.EmployeeID == employeeID {
			s.deleteSaleLocked(id)
		}
	}
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Barcode = strings.TrimSpace(product.Barcode)
	if product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.barcodeTaken(product.Barcode, 0) {
		return nil, store.ErrInvalidInput
	}
	s.nextProductID++
	now := s.now()
	product.ID = s.nextProductID
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Barcode = strings.TrimSpace(product.Barcode)
	if product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.barcodeTaken(product.Barcode, product.ID) {
		return nil, store.ErrInvalidInput
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.now()
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, productID)
	for id, item := range s.items {
		if item.ProductID != nil && *item.ProductID == productID {
			item.ProductID = nil
			s.items[id] = item
		}
	}
	return nil
}

func (s *Store) CreateSale(_ context.Context, employeeID int64, employeeName string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[employeeID]; !ok {
		return nil, store.ErrNotFound
	}
	s.nextSaleID++
	sale := domain.Sale{
		ID:           s.nextSaleID,
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		Total:        0,
		Timestamp:    s.now(),
	}
	s.sales[sale.ID] = sale
	return &sale, nil
}

func (s *Store) GetSale(_ context.Context, saleID int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sale, nil
}

func (s *Store) ListSaleItems(_ context.Context, saleID int64) ([]domain.SaleItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sales[saleID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.itemsOfLocked(saleID), nil
}

func (s *Store) CreateSaleItem(_ context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	if item.Quantity < 1 || item.Price < 0 || item.ExtraAmount < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[item.SaleID]; !ok {
		return nil, store.ErrNotFound
	}
	if item.ProductID != nil {
		if _, ok := s.products[*item.ProductID]; !ok {
			return nil, store.ErrNotFound
		}
		productID := *item.ProductID
		item.ProductID = &productID
	}
	s.nextItemID++
	item.ID = s.nextItemID
	s.items[item.ID] = item
	return &item, nil
}

func (s *Store) FinalizeSale(_ context.Context, saleID int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	total := 0.0
	for _, item := range s.itemsOfLocked(saleID) {
		total += item.LineTotal()
	}
	sale.Total = total
	s.sales[saleID] = sale
	return &sale, nil
}

func (s *Store) ListSaleLines(_ context.Context) ([]domain.SaleLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.SaleLine, 0, len(s.items))
	for _, item := range s.sortedItemsLocked(time.Time{}, time.Time{}) {
		sale := s.sales[item.SaleID]
		lines = append(lines, domain.SaleLine{
			ID:           item.ID,
			SaleID:       sale.ID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			EmployeeName: sale.EmployeeName,
			Total:        item.LineTotal(),
			Timestamp:    sale.Timestamp,
		})
	}
	return lines, nil
}

func (s *Store) SalesReport(_ context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.SalesReport{Sales: make([]domain.ReportLine, 0, 32)}
	seen := make(map[int64]struct{})
	for _, item := range s.sortedItemsLocked(from, to) {
		sale := s.sales[item.SaleID]
		lineTotal := item.LineTotal()
		report.TotalSales += lineTotal
		seen[sale.ID] = struct{}{}
		report.Sales = append(report.Sales, domain.ReportLine{
			SaleID:       sale.ID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			EmployeeName: sale.EmployeeName,
			TotalPrice:   lineTotal,
			Timestamp:    sale.Timestamp,
		})
	}
	report.TotalTransactions = int64(len(seen))
	return report, nil
}

// sortedItemsLocked returns items newest sale first, then by insertion order
// within a sale. Zero bounds disable the window.
func (s *Store) sortedItemsLocked(from time.Time, to time.Time) []domain.SaleItem {
	items := make([]domain.SaleItem, 0, len(s.items))
	for _, item := range s.items {
		sale, ok := s.sales[item.SaleID]
		if !ok {
			continue
		}
		if !from.IsZero() && sale.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.Timestamp.Before(to) {
			continue
		}
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b domain.SaleItem) int {
		saleA, saleB := s.sales[a.SaleID], s.sales[b.SaleID]
		if c := saleB.Timestamp.Compare(saleA.Timestamp); c != 0 {
			return c
		}
		if c := cmp.Compare(saleB.ID, saleA.ID); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}

func (s *Store) itemsOfLocked(saleID int64) []domain.SaleItem {
	items := make([]domain.SaleItem, 0, 8)
	for _, item := range s.items {
		if item.SaleID == saleID {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b domain.SaleItem) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}

func (s *Store) deleteSaleLocked(saleID int64) {
	delete(s.sales, saleID)
	for id, item := range s.items {
		if item.SaleID == saleID {
			delete(s.items, id)
		}
	}
}

func (s *Store) employeeNameTaken(name string, exceptID int64) bool {
	for id, e := range s.employees {
		if id != exceptID && e.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) barcodeTaken(barcode string, exceptID int64) bool {
	if barcode == "" {
		return false
	}
	for id, p := range s.products {
		if id != exceptID && p.Barcode == barcode {
			return true
		}
	}
	return false
}
