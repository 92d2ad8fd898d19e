package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(no int, price string, categories ...int) model.Product {
	return model.Product{ProductNo: no, Name: "Test Product", ListPrice: d(price), CategoryNos: categories}
}

func percentCoupon(no string, pct string) model.CouponRule {
	return model.CouponRule{
		CouponNo:          no,
		BenefitPercentage: d(pct),
		ProductScope:      model.ScopeAll,
		CategoryScope:     model.ScopeAll,
	}
}

func amountCoupon(no string, amount string) model.CouponRule {
	return model.CouponRule{
		CouponNo:      no,
		BenefitAmount: d(amount),
		ProductScope:  model.ScopeAll,
		CategoryScope: model.ScopeAll,
	}
}

func TestEvaluate_PercentageWinsOnEqualOutcome(t *testing.T) {
	coupons := []model.CouponRule{
		amountCoupon("C-AMOUNT", "1000"),
		percentCoupon("C-PERCENT", "10"),
	}
	quote := Evaluate(product(1, "10000"), nil, coupons, nil)

	assert.Equal(t, "C-PERCENT", quote.BestCouponNo)
	assert.True(t, quote.BestCouponPrice.Equal(d("9000")))
	assert.True(t, quote.BestCouponPercentage.Equal(d("10")))
}

func TestEvaluate_PercentageBeatsCheaperAmount(t *testing.T) {
	// At list price 5000 the amount coupon yields 4000, cheaper than the 10%
	// coupon's 4500. Percentage still wins; this ranking is externally
	// visible and must not change.
	coupons := []model.CouponRule{
		amountCoupon("C-AMOUNT", "1000"),
		percentCoupon("C-PERCENT", "10"),
	}
	quote := Evaluate(product(1, "5000"), nil, coupons, nil)

	assert.Equal(t, "C-PERCENT", quote.BestCouponNo)
	assert.True(t, quote.BestCouponPrice.Equal(d("4500")))
}

func TestEvaluate_TieBrokenByFirstSeen(t *testing.T) {
	coupons := []model.CouponRule{
		percentCoupon("C-FIRST", "10"),
		percentCoupon("C-SECOND", "10"),
	}
	quote := Evaluate(product(1, "10000"), nil, coupons, nil)

	assert.Equal(t, "C-FIRST", quote.BestCouponNo)
}

func TestEvaluate_ExcludeListBlocksProduct(t *testing.T) {
	coupon := percentCoupon("C-EXCL", "10")
	coupon.ProductScope = model.ScopeExclude
	coupon.ProductNos = []int{42}

	quote := Evaluate(product(42, "10000", 7), nil, []model.CouponRule{coupon}, nil)

	assert.Empty(t, quote.BestCouponNo)
	assert.Nil(t, quote.BestCouponPrice)
}

func TestEvaluate_IncludeListRequiresMembership(t *testing.T) {
	coupon := percentCoupon("C-INCL", "20")
	coupon.ProductScope = model.ScopeInclude
	coupon.ProductNos = []int{42}

	quote := Evaluate(product(42, "10000"), nil, []model.CouponRule{coupon}, nil)
	assert.Equal(t, "C-INCL", quote.BestCouponNo)
	assert.True(t, quote.BestCouponPrice.Equal(d("8000")))

	quote = Evaluate(product(43, "10000"), nil, []model.CouponRule{coupon}, nil)
	assert.Empty(t, quote.BestCouponNo)
}

func TestEvaluate_CategoryScopeBothMustPass(t *testing.T) {
	coupon := percentCoupon("C-CAT", "10")
	coupon.CategoryScope = model.ScopeInclude
	coupon.CategoryNos = []int{5}

	quote := Evaluate(product(1, "10000", 5, 9), nil, []model.CouponRule{coupon}, nil)
	assert.Equal(t, "C-CAT", quote.BestCouponNo)

	quote = Evaluate(product(1, "10000", 9), nil, []model.CouponRule{coupon}, nil)
	assert.Empty(t, quote.BestCouponNo)

	// Explicit category context overrides the product's own categories.
	quote = Evaluate(product(1, "10000", 9), nil, []model.CouponRule{coupon}, []int{5})
	assert.Equal(t, "C-CAT", quote.BestCouponNo)
}

func TestEvaluate_CouponStacksOnInstantSale(t *testing.T) {
	sale := d("8000")
	quote := Evaluate(product(1, "10000"), &sale, []model.CouponRule{percentCoupon("C", "10")}, nil)

	assert.NotNil(t, quote.InstantSalePrice)
	assert.True(t, quote.InstantSalePrice.Equal(d("8000")))
	assert.True(t, quote.BestCouponPrice.Equal(d("7200")))
}

func TestEvaluate_SaleAboveListPriceIgnored(t *testing.T) {
	sale := d("12000")
	quote := Evaluate(product(1, "10000"), &sale, []model.CouponRule{percentCoupon("C", "10")}, nil)

	assert.Nil(t, quote.InstantSalePrice)
	assert.True(t, quote.BestCouponPrice.Equal(d("9000")))
}

func TestEvaluate_CouponWithoutBenefitIgnored(t *testing.T) {
	noBenefit := model.CouponRule{CouponNo: "C-EMPTY", ProductScope: model.ScopeAll, CategoryScope: model.ScopeAll}
	quote := Evaluate(product(1, "10000"), nil, []model.CouponRule{noBenefit}, nil)

	assert.Empty(t, quote.BestCouponNo)
	assert.True(t, quote.ListPrice.Equal(d("10000")))
}

func TestEvaluate_RoundsToTwoDecimals(t *testing.T) {
	quote := Evaluate(product(1, "9999"), nil, []model.CouponRule{percentCoupon("C", "33")}, nil)

	// 9999 * 0.67 = 6699.33
	assert.True(t, quote.BestCouponPrice.Equal(d("6699.33")), "got %s", quote.BestCouponPrice)
}

func TestEvaluate_AmountCouponAppliesWhenAlone(t *testing.T) {
	quote := Evaluate(product(1, "10000"), nil, []model.CouponRule{amountCoupon("C-AMOUNT", "1500")}, nil)

	assert.Equal(t, "C-AMOUNT", quote.BestCouponNo)
	assert.True(t, quote.BestCouponPrice.Equal(d("8500")))
	assert.True(t, quote.BestCouponPercentage.Equal(decimal.Zero))
}
