package model

import "github.com/shopspring/decimal"

// ScopeKind says how a coupon rule restricts products or categories.
type ScopeKind string

const (
	ScopeAll     ScopeKind = "all"
	ScopeInclude ScopeKind = "include"
	ScopeExclude ScopeKind = "exclude"
)

// CouponRule is a live promotional rule fetched from the platform for one
// evaluation pass. Never persisted or cached beyond a single request.
type CouponRule struct {
	CouponNo          string          `json:"coupon_no"`
	Name              string          `json:"coupon_name"`
	BenefitPercentage decimal.Decimal `json:"benefit_percentage"`
	BenefitAmount     decimal.Decimal `json:"benefit_amount"`
	ProductScope      ScopeKind       `json:"product_scope"`
	ProductNos        []int           `json:"product_nos"`
	CategoryScope     ScopeKind       `json:"category_scope"`
	CategoryNos       []int           `json:"category_nos"`
}

// PriceQuote is the computed best-price result for one product. Derived,
// never stored. Monetary values are rounded to 2 decimal places; currency
// formatting is left to the presentation layer.
type PriceQuote struct {
	ProductNo            int              `json:"product_no"`
	ListPrice            decimal.Decimal  `json:"list_price"`
	InstantSalePrice     *decimal.Decimal `json:"instant_sale_price,omitempty"`
	BestCouponNo         string           `json:"best_coupon_no,omitempty"`
	BestCouponPrice      *decimal.Decimal `json:"best_coupon_price,omitempty"`
	BestCouponPercentage *decimal.Decimal `json:"best_coupon_percentage,omitempty"`
}
