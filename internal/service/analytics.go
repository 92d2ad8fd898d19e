package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/store"
)

// CounterReader is the read side of the counter repository.
type CounterReader interface {
	VisitorsByDate(ctx context.Context, f store.RollupFilter) ([]*model.VisitorsByDate, error)
	ClicksByDate(ctx context.Context, f store.RollupFilter) ([]*model.ClicksByDate, error)
	DeviceTotals(ctx context.Context, f store.RollupFilter) ([]*model.DeviceShare, error)
	DevicesByDate(ctx context.Context, f store.RollupFilter) ([]*model.DeviceByDate, error)
}

// DeviceDistribution combines the aggregate device split with per-date
// distinct-visitor counts.
type DeviceDistribution struct {
	Totals []*model.DeviceShare  `json:"totals"`
	ByDate []*model.DeviceByDate `json:"by_date"`
}

// AnalyticsService computes dashboard rollups on read. The write side already
// pre-aggregates to one row per visitor per day, so no materialized rollup
// table is needed.
type AnalyticsService struct {
	counters CounterReader
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(counters CounterReader) *AnalyticsService {
	return &AnalyticsService{counters: counters}
}

// VisitorsByDate reports per-date visitor totals with the revisit rate
// formatted as a percentage string.
func (s *AnalyticsService) VisitorsByDate(ctx context.Context, f store.RollupFilter) ([]*model.VisitorsByDate, error) {
	rows, err := s.counters.VisitorsByDate(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("mall_id", f.MallID).Msg("Failed to aggregate visitors by date")
		return nil, err
	}
	for _, row := range rows {
		row.RevisitRate = revisitRate(row.ReturningVisitors, row.TotalVisitors)
	}
	return rows, nil
}

// ClicksByDate reports per-date product and coupon click sums.
func (s *AnalyticsService) ClicksByDate(ctx context.Context, f store.RollupFilter) ([]*model.ClicksByDate, error) {
	rows, err := s.counters.ClicksByDate(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("mall_id", f.MallID).Msg("Failed to aggregate clicks by date")
		return nil, err
	}
	return rows, nil
}

// DeviceDistribution reports the device split, aggregate and per date.
func (s *AnalyticsService) DeviceDistribution(ctx context.Context, f store.RollupFilter) (*DeviceDistribution, error) {
	totals, err := s.counters.DeviceTotals(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("mall_id", f.MallID).Msg("Failed to aggregate device totals")
		return nil, err
	}
	byDate, err := s.counters.DevicesByDate(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("mall_id", f.MallID).Msg("Failed to aggregate devices by date")
		return nil, err
	}
	return &DeviceDistribution{Totals: totals, ByDate: byDate}, nil
}

// revisitRate formats returning/total as a rounded percentage, "0 %" when
// there were no visitors.
func revisitRate(returning, total int) string {
	if total == 0 {
		return "0 %"
	}
	pct := math.Round(float64(returning) / float64(total) * 100)
	return fmt.Sprintf("%d %%", int(pct))
}
