package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"posledger/internal/domain"
	"posledger/internal/store"
)

func TestDeleteEmployeeCascadesSalesAndItems(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	sale, err := s.CreateSale(ctx, 1, "Alice")
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	productID := int64(1)
	if _, err := s.CreateSaleItem(ctx, domain.SaleItem{SaleID: sale.ID, ProductID: &productID, ProductName: "Coffee", Quantity: 1, Price: 3}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := s.DeleteEmployee(ctx, 1); err != nil {
		t.Fatalf("delete employee: %v", err)
	}

	if _, err := s.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected sale to be removed with its employee, got %v", err)
	}
	lines, err := s.ListSaleLines(ctx)
	if err != nil {
		t.Fatalf("list lines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected cascaded items to be gone, got %d lines", len(lines))
	}
}

func TestDeleteProductKeepsSoldItems(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	sale, _ := s.CreateSale(ctx, 2, "Budi")
	productID := int64(2)
	item, err := s.CreateSaleItem(ctx, domain.SaleItem{SaleID: sale.ID, ProductID: &productID, ProductName: "Tea", Quantity: 3, Price: 2.5})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := s.DeleteProduct(ctx, productID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	items, err := s.ListSaleItems(ctx, sale.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("expected sold item to survive product deletion, got %+v", items)
	}
	if items[0].ProductID != nil {
		t.Fatalf("expected product reference to be cleared, got %d", *items[0].ProductID)
	}
	if items[0].ProductName != "Tea" || items[0].Price != 2.5 {
		t.Fatalf("expected snapshot to be intact, got %+v", items[0])
	}
}

func TestCreateSaleItemRequiresExistingSale(t *testing.T) {
	s := NewSeeded()
	_, err := s.CreateSaleItem(context.Background(), domain.SaleItem{SaleID: 42, ProductName: "Coffee", Quantity: 1, Price: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for missing sale, got %v", err)
	}
}

func TestIDsIncreaseMonotonically(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	var last int64
	for i := 0; i < 5; i++ {
		sale, err := s.CreateSale(ctx, 1, "Alice")
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
		if sale.ID <= last {
			t.Fatalf("expected increasing ids, got %d after %d", sale.ID, last)
		}
		last = sale.ID
	}
}

func TestSalesReportUsesHalfOpenWindow(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		day.Add(-time.Nanosecond),
		day,
		day.Add(24*time.Hour - time.Nanosecond),
		day.Add(24 * time.Hour),
	}
	for _, at := range stamps {
		at := at
		s.SetClock(func() time.Time { return at })
		sale, err := s.CreateSale(ctx, 1, "Alice")
		if err != nil {
			t.Fatalf("create sale: %v", err)
		}
		if _, err := s.CreateSaleItem(ctx, domain.SaleItem{SaleID: sale.ID, ProductName: "Coffee", Quantity: 1, Price: 1}); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	report, err := s.SalesReport(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalTransactions != 2 {
		t.Fatalf("expected 2 sales inside the window, got %d", report.TotalTransactions)
	}
	if !report.Sales[0].Timestamp.After(report.Sales[1].Timestamp) {
		t.Fatalf("expected newest line first, got %v then %v", report.Sales[0].Timestamp, report.Sales[1].Timestamp)
	}
}

func TestDuplicateEmployeeNameRejected(t *testing.T) {
	s := NewSeeded()
	if _, err := s.CreateEmployee(context.Background(), "Alice"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicate name, got %v", err)
	}
}
