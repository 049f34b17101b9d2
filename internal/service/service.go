package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"posledger/internal/cache"
	"posledger/internal/domain"
	"posledger/internal/metrics"
	"posledger/internal/store"
)

type Options struct {
	ReportCache cache.ReportCache
	ReportTTL   time.Duration
	// Location decides which calendar day a sale belongs to in reports.
	Location *time.Location
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	reportTTL time.Duration
	location  *time.Location
	logger    *zap.Logger
	metrics   *metrics.Metrics
	builds    singleflight.Group
}

func New(repo store.Repository, opts Options) *Service {
	if opts.ReportCache == nil {
		opts.ReportCache = cache.NoopReportCache{}
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		reports:   opts.ReportCache,
		reportTTL: opts.ReportTTL,
		location:  opts.Location,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// OpenSale starts a sale for the employee with a zero total. The employee's
// current name is copied onto the sale.
func (s *Service) OpenSale(ctx context.Context, employeeID int64) (domain.Sale, error) {
	name, err := s.repo.EmployeeName(ctx, employeeID)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("employee %d: %w", employeeID, err)
	}

	sale, err := s.repo.CreateSale(ctx, employeeID, name)
	if err != nil {
		s.logger.Error("failed to open sale", zap.Int64("employee_id", employeeID), zap.Error(err))
		return domain.Sale{}, fmt.Errorf("open sale: %w", err)
	}

	s.metrics.SaleOpened()
	s.logger.Info("sale opened", zap.Int64("sale_id", sale.ID), zap.Int64("employee_id", employeeID))
	return *sale, nil
}

// AppendSaleItem records one line on an existing sale. It does not touch the
// sale total; FinalizeSale derives that from the items.
func (s *Service) AppendSaleItem(ctx context.Context, saleID int64, req domain.SaleItemRequest) (domain.SaleItem, error) {
	if req.Quantity < 1 {
		return domain.SaleItem{}, invalidInput("quantity must be greater than zero")
	}
	if req.Quantity > math.MaxInt32 {
		return domain.SaleItem{}, invalidInput("quantity is too large")
	}
	if req.Price != nil && !validAmount(*req.Price) {
		return domain.SaleItem{}, invalidInput("price must be a finite amount >= 0")
	}
	if !validAmount(req.ExtraAmount) {
		return domain.SaleItem{}, invalidInput("extra_amount must be a finite amount >= 0")
	}

	// Checked here rather than left to the foreign key so a missing sale is
	// reported the same way by every store.
	if _, err := s.repo.GetSale(ctx, saleID); err != nil {
		return domain.SaleItem{}, fmt.Errorf("sale %d: %w", saleID, err)
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return domain.SaleItem{}, fmt.Errorf("product %d: %w", req.ProductID, err)
	}

	price := product.Price
	if req.Price != nil {
		price = *req.Price
	}
	productID := product.ID
	item, err := s.repo.CreateSaleItem(ctx, domain.SaleItem{
		SaleID:      saleID,
		ProductID:   &productID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Price:       price,
		ExtraAmount: req.ExtraAmount,
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("failed to append sale item", zap.Int64("sale_id", saleID), zap.Int64("product_id", req.ProductID), zap.Error(err))
		}
		return domain.SaleItem{}, fmt.Errorf("append item to sale %d: %w", saleID, err)
	}

	s.metrics.ItemAppended()
	s.invalidateReports(ctx)
	return *item, nil
}

// FinalizeSale recomputes and stores the sale total. Calling it again without
// new items stores the same total.
func (s *Service) FinalizeSale(ctx context.Context, saleID int64) (domain.Sale, error) {
	sale, err := s.repo.FinalizeSale(ctx, saleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("failed to finalize sale", zap.Int64("sale_id", saleID), zap.Error(err))
		}
		return domain.Sale{}, fmt.Errorf("sale %d: %w", saleID, err)
	}

	s.metrics.SaleFinalized()
	s.logger.Info("sale finalized", zap.Int64("sale_id", sale.ID), zap.Float64("total", sale.Total))
	return *sale, nil
}

func (s *Service) GetSale(ctx context.Context, saleID int64) (domain.SaleDetail, error) {
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.SaleDetail{}, fmt.Errorf("sale %d: %w", saleID, err)
	}
	items, err := s.repo.ListSaleItems(ctx, saleID)
	if err != nil {
		return domain.SaleDetail{}, fmt.Errorf("sale %d items: %w", saleID, err)
	}
	return domain.SaleDetail{Sale: *sale, Items: items}, nil
}

// ListAllSales lists every sold item with its sale, newest first.
func (s *Service) ListAllSales(ctx context.Context) ([]domain.SaleLine, error) {
	lines, err := s.repo.ListSaleLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return lines, nil
}

// invalidateReports makes every cached report unreachable. Failures only
// cost freshness until the cache TTL runs out.
func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Bump(ctx); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, msg)
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
