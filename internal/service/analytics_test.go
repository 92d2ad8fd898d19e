package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/store"
)

type fakeCounterReader struct {
	visitors []*model.VisitorsByDate
	clicks   []*model.ClicksByDate
	totals   []*model.DeviceShare
	byDate   []*model.DeviceByDate
}

func (f *fakeCounterReader) VisitorsByDate(ctx context.Context, _ store.RollupFilter) ([]*model.VisitorsByDate, error) {
	return f.visitors, nil
}

func (f *fakeCounterReader) ClicksByDate(ctx context.Context, _ store.RollupFilter) ([]*model.ClicksByDate, error) {
	return f.clicks, nil
}

func (f *fakeCounterReader) DeviceTotals(ctx context.Context, _ store.RollupFilter) ([]*model.DeviceShare, error) {
	return f.totals, nil
}

func (f *fakeCounterReader) DevicesByDate(ctx context.Context, _ store.RollupFilter) ([]*model.DeviceByDate, error) {
	return f.byDate, nil
}

func TestVisitorsByDate_RevisitRate(t *testing.T) {
	// One new and one returning visitor on the same day: 50 %.
	reader := &fakeCounterReader{visitors: []*model.VisitorsByDate{
		{DateKey: "2026-03-01", TotalVisitors: 2, NewVisitors: 1, ReturningVisitors: 1},
		{DateKey: "2026-03-02", TotalVisitors: 3, NewVisitors: 2, ReturningVisitors: 1},
		{DateKey: "2026-03-03", TotalVisitors: 3, NewVisitors: 1, ReturningVisitors: 2},
	}}
	svc := NewAnalyticsService(reader)

	rows, err := svc.VisitorsByDate(context.Background(), store.RollupFilter{})
	assert.NoError(t, err)
	assert.Equal(t, "50 %", rows[0].RevisitRate)
	assert.Equal(t, "33 %", rows[1].RevisitRate)
	assert.Equal(t, "67 %", rows[2].RevisitRate)
}

func TestVisitorsByDate_ZeroVisitors(t *testing.T) {
	reader := &fakeCounterReader{visitors: []*model.VisitorsByDate{
		{DateKey: "2026-03-01", TotalVisitors: 0},
	}}
	svc := NewAnalyticsService(reader)

	rows, err := svc.VisitorsByDate(context.Background(), store.RollupFilter{})
	assert.NoError(t, err)
	assert.Equal(t, "0 %", rows[0].RevisitRate)
}

func TestDeviceDistribution_CombinesTotalsAndByDate(t *testing.T) {
	reader := &fakeCounterReader{
		totals: []*model.DeviceShare{{Device: "mobile", Weight: 7}, {Device: "pc", Weight: 3}},
		byDate: []*model.DeviceByDate{{DateKey: "2026-03-01", Device: "mobile", Visitors: 4}},
	}
	svc := NewAnalyticsService(reader)

	dist, err := svc.DeviceDistribution(context.Background(), store.RollupFilter{})
	assert.NoError(t, err)
	assert.Len(t, dist.Totals, 2)
	assert.Len(t, dist.ByDate, 1)
	assert.Equal(t, "mobile", dist.Totals[0].Device)
}
