package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/monitoring"
)

// Tracking event types and click elements sent by the browser beacon.
const (
	EventView    = "view"
	EventRevisit = "revisit"
	EventClick   = "click"

	ElementProduct = "product"
	ElementCoupon  = "coupon"
)

// PageExistenceChecker answers whether a live page backs an incoming event.
type PageExistenceChecker interface {
	Exists(ctx context.Context, mallID string, id uuid.UUID) (bool, error)
}

// CounterWriter applies one event's deltas to a counter row.
type CounterWriter interface {
	Upsert(ctx context.Context, c *model.VisitCounter) error
}

// TrackingEvent is one inbound visit or click event.
type TrackingEvent struct {
	MallID    string    `json:"mall_id"`
	PageID    string    `json:"page_id"`
	PageURL   string    `json:"page_url"`
	VisitorID string    `json:"visitor_id"`
	Referrer  string    `json:"referrer"`
	Device    string    `json:"device"`
	Type      string    `json:"type"`
	Element   string    `json:"element"`
	Timestamp time.Time `json:"timestamp"`
}

// TrackingService turns at-least-once event delivery into idempotent daily
// counters. Malformed or stale events are acknowledged as no-ops; only
// persistence failures surface as errors.
type TrackingService struct {
	pages    PageExistenceChecker
	counters CounterWriter
	loc      *time.Location // tenant calendar timezone
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(pages PageExistenceChecker, counters CounterWriter, loc *time.Location) *TrackingService {
	return &TrackingService{pages: pages, counters: counters, loc: loc}
}

// Record validates and applies one event. A nil return with no side effect
// means the event was acknowledged as a no-op.
func (s *TrackingService) Record(ctx context.Context, ev TrackingEvent) error {
	// Stale clients replay beacons for pages that no longer exist and ship
	// malformed ids; both are acknowledged, not failed.
	pageID, err := uuid.Parse(ev.PageID)
	if err != nil {
		monitoring.TrackingEvents.WithLabelValues(ev.Type, "invalid_page_id").Inc()
		return nil
	}
	if ev.VisitorID == "" {
		monitoring.TrackingEvents.WithLabelValues(ev.Type, "missing_visitor").Inc()
		return nil
	}

	exists, err := s.pages.Exists(ctx, ev.MallID, pageID)
	if err != nil {
		log.Error().Err(err).Str("mall_id", ev.MallID).Msg("Failed to check page existence")
		return err
	}
	if !exists {
		monitoring.TrackingEvents.WithLabelValues(ev.Type, "page_missing").Inc()
		return nil
	}

	delta, ok := counterDelta(ev.Type, ev.Element)
	if !ok {
		// Forward-compatible: unknown event types acknowledge without
		// touching storage.
		monitoring.TrackingEvents.WithLabelValues(ev.Type, "unknown_type").Inc()
		return nil
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	local := ts.In(s.loc)

	counter := &model.VisitCounter{
		MallID:           ev.MallID,
		PageID:           pageID,
		VisitorID:        ev.VisitorID,
		DateKey:          local.Format("2006-01-02"),
		FirstVisit:       local,
		LastVisit:        local,
		PageURL:          pathOnly(ev.PageURL),
		Referrer:         ev.Referrer,
		Device:           normalizeDevice(ev.Device),
		ViewCount:        delta.view,
		RevisitCount:     delta.revisit,
		ClickCount:       delta.click,
		URLClickCount:    delta.urlClick,
		CouponClickCount: delta.couponClick,
	}
	if err := s.counters.Upsert(ctx, counter); err != nil {
		log.Error().Err(err).
			Str("mall_id", ev.MallID).
			Str("page_id", pageID.String()).
			Msg("Failed to record tracking event")
		monitoring.TrackingEvents.WithLabelValues(ev.Type, "error").Inc()
		return err
	}

	monitoring.TrackingEvents.WithLabelValues(ev.Type, "ok").Inc()
	return nil
}

type counterDeltas struct {
	view, revisit, click, urlClick, couponClick int
}

// counterDelta maps an event to counter increments. A click with an
// unrecognized element still counts as a plain click.
func counterDelta(typ, element string) (counterDeltas, bool) {
	var d counterDeltas
	switch typ {
	case EventView:
		d.view = 1
	case EventRevisit:
		d.revisit = 1
	case EventClick:
		d.click = 1
		switch element {
		case ElementProduct:
			d.urlClick = 1
		case ElementCoupon:
			d.couponClick = 1
		}
	default:
		return d, false
	}
	return d, true
}

// pathOnly strips scheme and host so the same page matches regardless of the
// domain the visitor loaded it from.
func pathOnly(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

func normalizeDevice(device string) string {
	device = strings.ToLower(strings.TrimSpace(device))
	if device == "" {
		return "unknown"
	}
	return device
}
