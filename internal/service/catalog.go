package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"posledger/internal/domain"
	"posledger/internal/store"
)

func (s *Service) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx)
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeRequest) (domain.Employee, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Employee{}, invalidInput("name is required")
	}

	employee, err := s.repo.CreateEmployee(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return domain.Employee{}, invalidInput(fmt.Sprintf("employee %q already exists", name))
		}
		return domain.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	return *employee, nil
}

// RenameEmployee changes the catalog name only; sales opened earlier keep the
// name they were opened with.
func (s *Service) RenameEmployee(ctx context.Context, employeeID int64, req domain.EmployeeRequest) (domain.Employee, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Employee{}, invalidInput("name is required")
	}

	employee, err := s.repo.RenameEmployee(ctx, employeeID, name)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return domain.Employee{}, invalidInput(fmt.Sprintf("employee %q already exists", name))
		}
		return domain.Employee{}, fmt.Errorf("employee %d: %w", employeeID, err)
	}
	return *employee, nil
}

// DeleteEmployee removes the employee together with all of their sales.
func (s *Service) DeleteEmployee(ctx context.Context, employeeID int64) error {
	if err := s.repo.DeleteEmployee(ctx, employeeID); err != nil {
		return fmt.Errorf("employee %d: %w", employeeID, err)
	}
	s.logger.Info("employee deleted with their sales", zap.Int64("employee_id", employeeID))
	s.invalidateReports(ctx)
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	product := domain.Product{
		Name:    strings.TrimSpace(req.Name),
		Price:   req.Price,
		Barcode: strings.TrimSpace(req.Barcode),
	}
	if err := validateProduct(product); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return domain.Product{}, invalidInput(fmt.Sprintf("barcode %q already in use", product.Barcode))
		}
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return *created, nil
}

// UpdateProduct applies the fields present in req. Items already sold keep
// the name and price they were sold with.
func (s *Service) UpdateProduct(ctx context.Context, productID int64, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, err)
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		updated.Price = *req.Price
	}
	if req.Barcode != nil {
		updated.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if err := validateProduct(updated); err != nil {
		return domain.Product{}, err
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return domain.Product{}, invalidInput(fmt.Sprintf("barcode %q already in use", updated.Barcode))
		}
		return domain.Product{}, fmt.Errorf("product %d: %w", productID, err)
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("product %d: %w", productID, err)
	}
	return nil
}

func validateProduct(p domain.Product) error {
	if p.Name == "" {
		return invalidInput("name is required")
	}
	if !validAmount(p.Price) {
		return invalidInput("price must be a finite amount >= 0")
	}
	return nil
}
