package model

import (
	"time"

	"github.com/google/uuid"
)

// VisitCounter represents the visit_counters table. One row per
// (mall, page, visitor, tenant-calendar day); events for an existing key
// increment the counters in place rather than appending raw events.
type VisitCounter struct {
	MallID           string    `json:"mall_id"`
	PageID           uuid.UUID `json:"page_id"`
	VisitorID        string    `json:"visitor_id"`
	DateKey          string    `json:"date_key"` // YYYY-MM-DD in the tenant calendar timezone
	FirstVisit       time.Time `json:"first_visit"`
	LastVisit        time.Time `json:"last_visit"`
	PageURL          string    `json:"page_url"`
	Referrer         string    `json:"referrer"`
	Device           string    `json:"device"`
	ViewCount        int       `json:"view_count"`
	RevisitCount     int       `json:"revisit_count"`
	ClickCount       int       `json:"click_count"`
	URLClickCount    int       `json:"url_click_count"`
	CouponClickCount int       `json:"coupon_click_count"`
}

// VisitorsByDate is one row of the visitors-by-date rollup.
type VisitorsByDate struct {
	DateKey           string `json:"date"`
	TotalVisitors     int    `json:"total_visitors"`
	NewVisitors       int    `json:"new_visitors"`
	ReturningVisitors int    `json:"returning_visitors"`
	RevisitRate       string `json:"revisit_rate"`
}

// ClicksByDate is one row of the clicks-by-date rollup.
type ClicksByDate struct {
	DateKey       string `json:"date"`
	ProductClicks int    `json:"product"`
	CouponClicks  int    `json:"coupon"`
}

// DeviceShare is the aggregate device distribution row, weighted by views plus
// revisits.
type DeviceShare struct {
	Device string `json:"device"`
	Weight int    `json:"weight"`
}

// DeviceByDate counts distinct visitors per (date, device).
type DeviceByDate struct {
	DateKey  string `json:"date"`
	Device   string `json:"device"`
	Visitors int    `json:"visitors"`
}
