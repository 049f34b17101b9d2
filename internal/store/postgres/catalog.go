package postgres

import (
	"context"
	"strings"

	"posledger/internal/domain"
	"posledger/internal/store"
)

func (s *Store) EmployeeName(ctx context.Context, employeeID int64) (string, error) {
	var name string
	err := s.db.QueryRow(ctx, `
		SELECT name
		FROM employees
		WHERE id = $1
	`, employeeID).Scan(&name)
	if err != nil {
		return "", classify("employee name", err)
	}
	return name, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, created_at
		FROM employees
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, storeErr("list employees", err)
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, storeErr("list employees", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list employees", err)
	}
	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, name string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	employee := domain.Employee{Name: name}
	err := s.db.QueryRow(ctx, `
		INSERT INTO employees (name)
		VALUES ($1)
		RETURNING id, created_at
	`, name).Scan(&employee.ID, &employee.CreatedAt)
	if err != nil {
		return nil, classify("create employee", err)
	}
	employee.CreatedAt = employee.CreatedAt.UTC()
	return &employee, nil
}

func (s *Store) RenameEmployee(ctx context.Context, employeeID int64, name string) (*domain.Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrInvalidInput
	}

	employee := domain.Employee{ID: employeeID}
	err := s.db.QueryRow(ctx, `
		UPDATE employees
		SET name = $2
		WHERE id = $1
		RETURNING name, created_at
	`, employeeID, name).Scan(&employee.Name, &employee.CreatedAt)
	if err != nil {
		return nil, classify("rename employee", err)
	}
	employee.CreatedAt = employee.CreatedAt.UTC()
	return &employee, nil
}

// DeleteEmployee removes the employee; their sales and sale items go with it
// through ON DELETE CASCADE.
func (s *Store) DeleteEmployee(ctx context.Context, employeeID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, employeeID)
	if err != nil {
		return storeErr("delete employee", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRow(ctx, `
		SELECT id, name, price, COALESCE(barcode, ''), created_at, updated_at
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.Barcode, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify("get product", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, price, COALESCE(barcode, ''), created_at, updated_at
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Barcode, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storeErr("list products", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list products", err)
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Barcode = strings.TrimSpace(product.Barcode)
	if product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO products (name, price, barcode, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, created_at, updated_at
	`, product.Name, product.Price, nullIfEmpty(product.Barcode)).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, classify("create product", err)
	}
	product.CreatedAt = product.CreatedAt.UTC()
	product.UpdatedAt = product.UpdatedAt.UTC()
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	product.Barcode = strings.TrimSpace(product.Barcode)
	if product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRow(ctx, `
		UPDATE products
		SET name = $2, price = $3, barcode = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, product.ID, product.Name, product.Price, nullIfEmpty(product.Barcode)).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, classify("update product", err)
	}
	product.CreatedAt = product.CreatedAt.UTC()
	product.UpdatedAt = product.UpdatedAt.UTC()
	return &product, nil
}

// DeleteProduct removes a catalog entry. Sold items keep their snapshot and
// lose only the product reference (ON DELETE SET NULL).
func (s *Store) DeleteProduct(ctx context.Context, productID int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return storeErr("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
