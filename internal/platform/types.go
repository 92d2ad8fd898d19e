package platform

import (
	"github.com/shopspring/decimal"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

// Wire payloads for the platform admin API. Each struct decodes only the
// fields this service consumes; unknown or extra fields are ignored.

type productsEnvelope struct {
	Products []productPayload `json:"products"`
}

type productEnvelope struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	ProductNo   int             `json:"product_no"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Categories  []struct {
		CategoryNo int `json:"category_no"`
	} `json:"category"`
}

func (p productPayload) toModel() model.Product {
	out := model.Product{
		ProductNo: p.ProductNo,
		Name:      p.ProductName,
		ListPrice: p.Price,
	}
	for _, c := range p.Categories {
		out.CategoryNos = append(out.CategoryNos, c.CategoryNo)
	}
	return out
}

type categoriesEnvelope struct {
	Categories []categoryPayload `json:"categories"`
}

type categoryPayload struct {
	CategoryNo       int    `json:"category_no"`
	CategoryName     string `json:"category_name"`
	ParentCategoryNo int    `json:"parent_category_no"`
}

func (c categoryPayload) toModel() model.Category {
	return model.Category{
		CategoryNo: c.CategoryNo,
		Name:       c.CategoryName,
		ParentNo:   c.ParentCategoryNo,
	}
}

type couponsEnvelope struct {
	Coupons []couponPayload `json:"coupons"`
}

type couponPayload struct {
	CouponNo              string              `json:"coupon_no"`
	CouponName            string              `json:"coupon_name"`
	BenefitPercentage     decimal.NullDecimal `json:"benefit_percentage"`
	BenefitAmount         decimal.NullDecimal `json:"benefit_amount"`
	AvailableProduct      string              `json:"available_product"`
	AvailableProductList  []int               `json:"available_product_list"`
	AvailableCategory     string              `json:"available_category"`
	AvailableCategoryList []int               `json:"available_category_list"`
}

func (c couponPayload) toModel() model.CouponRule {
	return model.CouponRule{
		CouponNo:          c.CouponNo,
		Name:              c.CouponName,
		BenefitPercentage: nullToZero(c.BenefitPercentage),
		BenefitAmount:     nullToZero(c.BenefitAmount),
		ProductScope:      scopeKind(c.AvailableProduct),
		ProductNos:        c.AvailableProductList,
		CategoryScope:     scopeKind(c.AvailableCategory),
		CategoryNos:       c.AvailableCategoryList,
	}
}

type discountPriceEnvelope struct {
	DiscountPrice struct {
		PCDiscountPrice decimal.NullDecimal `json:"pc_discount_price"`
	} `json:"discountprice"`
}

// scopeKind maps the platform's one-letter scope markers. Unknown markers are
// treated as "all"; a coupon with an unparseable scope should not silently
// vanish from evaluation.
func scopeKind(s string) model.ScopeKind {
	switch s {
	case "I":
		return model.ScopeInclude
	case "E":
		return model.ScopeExclude
	default:
		return model.ScopeAll
	}
}

func nullToZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
