package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"posledger/internal/domain"
)

const (
	dateLayout = "2006-01-02"

	openStartDate = "1970-01-01"
	openEndDate   = "9999-12-31"

	reportBuildTimeout = 30 * time.Second
)

// SalesReport aggregates sales whose timestamp falls on a calendar day in
// [startDate, endDate], both inclusive. Empty bounds are open.
func (s *Service) SalesReport(ctx context.Context, startDate string, endDate string) (domain.SalesReport, error) {
	start, end, from, to, err := s.reportWindow(startDate, endDate)
	if err != nil {
		return domain.SalesReport{}, err
	}

	gen, err := s.reports.Generation(ctx)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("report cache generation unavailable", zap.Error(err))
	}
	key := fmt.Sprintf("posledger:report:v%d:%s:%s:%s", gen, s.location.String(), start, end)

	if cacheable {
		cached, ok, err := s.reports.Get(ctx, key)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			s.metrics.ReportLookup(true)
			return *cached, nil
		}
	}
	s.metrics.ReportLookup(false)

	val, err, _ := s.buildOnce(ctx, key, func(ctx context.Context) (any, error) {
		report, err := s.repo.SalesReport(ctx, from, to)
		if err != nil {
			return nil, err
		}
		report.StartDate = start
		report.EndDate = end
		if cacheable {
			if err := s.reports.Set(ctx, key, &report, s.reportTTL); err != nil {
				s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return report, nil
	})
	if err != nil {
		s.logger.Error("failed to build sales report", zap.String("start_date", start), zap.String("end_date", end), zap.Error(err))
		return domain.SalesReport{}, fmt.Errorf("sales report: %w", err)
	}
	return val.(domain.SalesReport), nil
}

// buildOnce collapses concurrent builds of the same report into one store
// round trip. The shared build is detached from the caller that started it,
// so one caller going away does not fail the others; each caller still stops
// waiting when its own ctx is done.
func (s *Service) buildOnce(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := s.builds.DoChan(key, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportBuildTimeout)
		defer cancel()
		return fn(buildCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

// reportWindow turns inclusive calendar dates into the half-open instant
// range [start 00:00, end+1 00:00) in the report location.
func (s *Service) reportWindow(startDate string, endDate string) (string, string, time.Time, time.Time, error) {
	start := strings.TrimSpace(startDate)
	if start == "" {
		start = openStartDate
	}
	end := strings.TrimSpace(endDate)
	if end == "" {
		end = openEndDate
	}

	startDay, err := time.ParseInLocation(dateLayout, start, s.location)
	if err != nil {
		return "", "", time.Time{}, time.Time{}, invalidInput("start_date must be YYYY-MM-DD")
	}
	endDay, err := time.ParseInLocation(dateLayout, end, s.location)
	if err != nil {
		return "", "", time.Time{}, time.Time{}, invalidInput("end_date must be YYYY-MM-DD")
	}
	if endDay.Before(startDay) {
		return "", "", time.Time{}, time.Time{}, invalidInput("start_date must not be after end_date")
	}

	return startDay.Format(dateLayout), endDay.Format(dateLayout), startDay, endDay.AddDate(0, 0, 1), nil
}
