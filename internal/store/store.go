package store

import (
	"context"
	"errors"
	"time"

	"posledger/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrStore        = errors.New("store failure")
)

type Repository interface {
	Ping(ctx context.Context) error

	EmployeeName(ctx context.Context, employeeID int64) (string, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, name string) (*domain.Employee, error)
	RenameEmployee(ctx context.Context, employeeID int64, name string) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, employeeID int64) error

	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error

	CreateSale(ctx context.Context, employeeID int64, employeeName string) (*domain.Sale, error)
	GetSale(ctx context.Context, saleID int64) (*domain.Sale, error)
	ListSaleItems(ctx context.Context, saleID int64) ([]domain.SaleItem, error)
	CreateSaleItem(ctx context.Context, item domain.SaleItem) (*domain.SaleItem, error)
	FinalizeSale(ctx context.Context, saleID int64) (*domain.Sale, error)
	ListSaleLines(ctx context.Context) ([]domain.SaleLine, error)
	// SalesReport aggregates items of sales created in [from, to).
	SalesReport(ctx context.Context, from time.Time, to time.Time) (domain.SalesReport, error)
}
