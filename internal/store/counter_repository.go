package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

// CounterRepository handles database operations for visit counters
type CounterRepository struct {
	db *sql.DB
}

// NewCounterRepository creates a new CounterRepository
func NewCounterRepository(db *sql.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Upsert applies one tracking event to the counter row keyed by
// (mall, page, visitor, dateKey). The whole read-modify-write is a single
// statement, so concurrent events for the same key never lose an increment.
// first_visit is set on row creation only; last_visit, page_url, referrer and
// device are overwritten on every event.
func (r *CounterRepository) Upsert(ctx context.Context, c *model.VisitCounter) error {
	query := `
		INSERT INTO visit_counters (mall_id, page_id, visitor_id, date_key,
			first_visit, last_visit, page_url, referrer, device,
			view_count, revisit_count, click_count, url_click_count, coupon_click_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (mall_id, page_id, visitor_id, date_key) DO UPDATE SET
			last_visit = EXCLUDED.last_visit,
			page_url = EXCLUDED.page_url,
			referrer = EXCLUDED.referrer,
			device = EXCLUDED.device,
			view_count = visit_counters.view_count + EXCLUDED.view_count,
			revisit_count = visit_counters.revisit_count + EXCLUDED.revisit_count,
			click_count = visit_counters.click_count + EXCLUDED.click_count,
			url_click_count = visit_counters.url_click_count + EXCLUDED.url_click_count,
			coupon_click_count = visit_counters.coupon_click_count + EXCLUDED.coupon_click_count
	`
	_, err := r.db.ExecContext(ctx, query,
		c.MallID, c.PageID, c.VisitorID, c.DateKey,
		c.FirstVisit, c.LastVisit, c.PageURL, c.Referrer, c.Device,
		c.ViewCount, c.RevisitCount, c.ClickCount, c.URLClickCount, c.CouponClickCount,
	)
	return err
}

// RollupFilter scopes an aggregation query. From and To are inclusive
// dateKeys; PageURL is optional.
type RollupFilter struct {
	MallID  string
	PageID  uuid.UUID
	From    string
	To      string
	PageURL string
}

func (f RollupFilter) where() (string, []interface{}) {
	clause := "WHERE mall_id = $1 AND page_id = $2 AND date_key BETWEEN $3 AND $4"
	args := []interface{}{f.MallID, f.PageID, f.From, f.To}
	if f.PageURL != "" {
		clause += " AND page_url = $5"
		args = append(args, f.PageURL)
	}
	return clause, args
}

// VisitorsByDate counts distinct visitors per date. Rows are already one per
// visitor per day, so a plain COUNT is a distinct-visitor count.
func (r *CounterRepository) VisitorsByDate(ctx context.Context, f RollupFilter) ([]*model.VisitorsByDate, error) {
	clause, args := f.where()
	query := `
		SELECT date_key,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE view_count > 0),
		       COUNT(*) FILTER (WHERE revisit_count > 0)
		FROM visit_counters
		` + clause + `
		GROUP BY date_key
		ORDER BY date_key
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.VisitorsByDate
	for rows.Next() {
		v := &model.VisitorsByDate{}
		if err := rows.Scan(&v.DateKey, &v.TotalVisitors, &v.NewVisitors, &v.ReturningVisitors); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ClicksByDate sums product and coupon clicks per date.
func (r *CounterRepository) ClicksByDate(ctx context.Context, f RollupFilter) ([]*model.ClicksByDate, error) {
	clause, args := f.where()
	query := `
		SELECT date_key,
		       COALESCE(SUM(url_click_count), 0),
		       COALESCE(SUM(coupon_click_count), 0)
		FROM visit_counters
		` + clause + `
		GROUP BY date_key
		ORDER BY date_key
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ClicksByDate
	for rows.Next() {
		c := &model.ClicksByDate{}
		if err := rows.Scan(&c.DateKey, &c.ProductClicks, &c.CouponClicks); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeviceTotals aggregates the device distribution weighted by views plus
// revisits.
func (r *CounterRepository) DeviceTotals(ctx context.Context, f RollupFilter) ([]*model.DeviceShare, error) {
	clause, args := f.where()
	query := `
		SELECT device, COALESCE(SUM(view_count + revisit_count), 0)
		FROM visit_counters
		` + clause + `
		GROUP BY device
		ORDER BY 2 DESC, device
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DeviceShare
	for rows.Next() {
		d := &model.DeviceShare{}
		if err := rows.Scan(&d.Device, &d.Weight); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DevicesByDate counts distinct visitors per (date, device).
func (r *CounterRepository) DevicesByDate(ctx context.Context, f RollupFilter) ([]*model.DeviceByDate, error) {
	clause, args := f.where()
	query := `
		SELECT date_key, device, COUNT(*)
		FROM visit_counters
		` + clause + `
		GROUP BY date_key, device
		ORDER BY date_key, device
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DeviceByDate
	for rows.Next() {
		d := &model.DeviceByDate{}
		if err := rows.Scan(&d.DateKey, &d.Device, &d.Visitors); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
