package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MarketingPage represents the marketing_pages table
type MarketingPage struct {
	ID        uuid.UUID       `json:"id"`
	MallID    string          `json:"mall_id"`
	Title     string          `json:"title"`
	Blocks    json.RawMessage `json:"blocks"` // Content blocks, each with a generated id
	Images    json.RawMessage `json:"images"` // Legacy image regions, same id scheme
	TabType   string          `json:"tab_type"`
	CouponNos []string        `json:"coupon_nos"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}
