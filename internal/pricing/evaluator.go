// Package pricing computes coupon eligibility and best discounted prices.
// Pure computation: no I/O, deterministic for given inputs.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// Evaluate computes the best-price quote for one product against a set of
// live coupon rules. instantSale is the platform's sale price, nil when no
// sale is configured; categoryNos overrides the product's own category
// context when non-nil.
//
// Coupons stack on top of an existing sale: the discount basis is the
// instant-sale price when one exists and is lower than list price.
//
// Among eligible coupons the winner is the one with the highest benefit
// percentage, ties broken by first-seen order. An amount-based coupon ranks
// at zero percent even when it would yield a lower price. Compatibility
// behavior; changing it would alter externally visible prices.
func Evaluate(product model.Product, instantSale *decimal.Decimal, coupons []model.CouponRule, categoryNos []int) model.PriceQuote {
	quote := model.PriceQuote{
		ProductNo: product.ProductNo,
		ListPrice: product.ListPrice,
	}

	basis := product.ListPrice
	if instantSale != nil && instantSale.LessThan(product.ListPrice) {
		basis = *instantSale
		quote.InstantSalePrice = instantSale
	}

	cats := categoryNos
	if cats == nil {
		cats = product.CategoryNos
	}

	var (
		best      *model.CouponRule
		bestPrice decimal.Decimal
		bestPct   decimal.Decimal
	)
	for i := range coupons {
		c := &coupons[i]
		if !productScopePasses(c, product.ProductNo) {
			continue
		}
		if !categoryScopePasses(c, cats) {
			continue
		}
		price, pct, ok := couponPrice(basis, c)
		if !ok {
			continue
		}
		// Strict greater-than keeps the first-seen coupon on ties.
		if best == nil || pct.GreaterThan(bestPct) {
			best, bestPrice, bestPct = c, price, pct
		}
	}

	if best != nil {
		quote.BestCouponNo = best.CouponNo
		quote.BestCouponPrice = &bestPrice
		quote.BestCouponPercentage = &bestPct
	}
	return quote
}

// couponPrice resolves the discounted price one coupon yields on the basis.
// Percentage takes precedence over amount; a coupon carrying neither yields
// no price and is treated as ineligible.
func couponPrice(basis decimal.Decimal, c *model.CouponRule) (price, pct decimal.Decimal, ok bool) {
	switch {
	case c.BenefitPercentage.IsPositive():
		price = basis.Mul(oneHundred.Sub(c.BenefitPercentage)).Div(oneHundred).Round(2)
		return price, c.BenefitPercentage, true
	case c.BenefitAmount.IsPositive():
		return basis.Sub(c.BenefitAmount).Round(2), decimal.Zero, true
	}
	return decimal.Decimal{}, decimal.Decimal{}, false
}

func productScopePasses(c *model.CouponRule, productNo int) bool {
	switch c.ProductScope {
	case model.ScopeInclude:
		return containsInt(c.ProductNos, productNo)
	case model.ScopeExclude:
		return !containsInt(c.ProductNos, productNo)
	default:
		return true
	}
}

// categoryScopePasses checks the product's categories against the rule:
// include passes when any category is listed, exclude passes when none is.
func categoryScopePasses(c *model.CouponRule, categoryNos []int) bool {
	switch c.CategoryScope {
	case model.ScopeInclude:
		for _, no := range categoryNos {
			if containsInt(c.CategoryNos, no) {
				return true
			}
		}
		return false
	case model.ScopeExclude:
		for _, no := range categoryNos {
			if containsInt(c.CategoryNos, no) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
