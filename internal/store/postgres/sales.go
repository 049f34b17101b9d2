package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"posledger/internal/domain"
	"posledger/internal/store"
)

func (s *Store) CreateSale(ctx context.Context, employeeID int64, employeeName string) (*domain.Sale, error) {
	sale := domain.Sale{
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO sales (employee_id, employee_name, total)
		VALUES ($1, $2, 0)
		RETURNING id, total, created_at
	`, employeeID, employeeName).Scan(&sale.ID, &sale.Total, &sale.Timestamp)
	if err != nil {
		return nil, classify("create sale", err)
	}
	sale.Timestamp = sale.Timestamp.UTC()
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRow(ctx, `
		SELECT id, employee_id, employee_name, total, created_at
		FROM sales
		WHERE id = $1
	`, saleID).Scan(&sale.ID, &sale.EmployeeID, &sale.EmployeeName, &sale.Total, &sale.Timestamp)
	if err != nil {
		return nil, classify("get sale", err)
	}
	sale.Timestamp = sale.Timestamp.UTC()
	return &sale, nil
}

func (s *Store) ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, price, extra_amount
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id ASC
	`, saleID)
	if err != nil {
		return nil, storeErr("list sale items", err)
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price, &item.ExtraAmount); err != nil {
			return nil, storeErr("list sale items", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list sale items", err)
	}
	return items, nil
}

// CreateSaleItem inserts one line. A sale or product that vanished since the
// caller looked it up surfaces as store.ErrNotFound through the foreign keys.
func (s *Store) CreateSaleItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error) {
	if item.Quantity < 1 || item.Price < 0 || item.ExtraAmount < 0 {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO sale_items (sale_id, product_id, product_name, quantity, price, extra_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, item.SaleID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.ExtraAmount).Scan(&item.ID)
	if err != nil {
		return nil, classify("create sale item", err)
	}
	return &item, nil
}

// FinalizeSale recomputes the total from the stored items and writes it back.
// The sale row is locked first so an append that is still in flight (it holds
// a key-share lock through the foreign key) commits before the sum is taken.
func (s *Store) FinalizeSale(ctx context.Context, saleID int64) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.withTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id, employee_id, employee_name, created_at
			FROM sales
			WHERE id = $1
			FOR UPDATE
		`, saleID).Scan(&sale.ID, &sale.EmployeeID, &sale.EmployeeName, &sale.Timestamp)
		if err != nil {
			return classify("lock sale", err)
		}

		err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(quantity * (price + extra_amount)), 0)::float8
			FROM sale_items
			WHERE sale_id = $1
		`, saleID).Scan(&sale.Total)
		if err != nil {
			return storeErr("sum sale items", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE sales
			SET total = $2
			WHERE id = $1
		`, saleID, sale.Total); err != nil {
			return storeErr("update sale total", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sale.Timestamp = sale.Timestamp.UTC()
	return &sale, nil
}

func (s *Store) ListSaleLines(ctx context.Context) ([]domain.SaleLine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT si.id, s.id, si.product_name, si.quantity, s.employee_name,
			(si.quantity * (si.price + si.extra_amount))::float8, s.created_at
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		ORDER BY s.created_at DESC, s.id DESC, si.id ASC
	`)
	if err != nil {
		return nil, storeErr("list sale lines", err)
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0, 128)
	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductName, &line.Quantity, &line.EmployeeName, &line.Total, &line.Timestamp); err != nil {
			return nil, storeErr("list sale lines", err)
		}
		line.Timestamp = line.Timestamp.UTC()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list sale lines", err)
	}
	return lines, nil
}

// SalesReport reads the summary and the itemized rows from one snapshot so the
// two always agree.
func (s *Store) SalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error) {
	report := domain.SalesReport{Sales: make([]domain.ReportLine, 0, 32)}

	err := s.withTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT
				COALESCE(SUM(si.quantity * (si.price + si.extra_amount)), 0)::float8,
				COUNT(DISTINCT s.id)::bigint
			FROM sales s
			JOIN sale_items si ON si.sale_id = s.id
			WHERE s.created_at >= $1
				AND s.created_at < $2
		`, from, to).Scan(&report.TotalSales, &report.TotalTransactions)
		if err != nil {
			return storeErr("report summary", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT s.id, si.product_name, si.quantity, s.employee_name,
				(si.quantity * (si.price + si.extra_amount))::float8, s.created_at
			FROM sales s
			JOIN sale_items si ON si.sale_id = s.id
			WHERE s.created_at >= $1
				AND s.created_at < $2
			ORDER BY s.created_at DESC, s.id DESC, si.id ASC
		`, from, to)
		if err != nil {
			return storeErr("report details", err)
		}
		defer rows.Close()

		for rows.Next() {
			var line domain.ReportLine
			if err := rows.Scan(&line.SaleID, &line.ProductName, &line.Quantity, &line.EmployeeName, &line.TotalPrice, &line.Timestamp); err != nil {
				return storeErr("report details", err)
			}
			line.Timestamp = line.Timestamp.UTC()
			report.Sales = append(report.Sales, line)
		}
		if err := rows.Err(); err != nil {
			return storeErr("report details", err)
		}
		return nil
	})
	if err != nil {
		return domain.SalesReport{}, err
	}
	return report, nil
}
