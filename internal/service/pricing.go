package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/promopage-solution/mall-integration-service/internal/model"
	"github.com/promopage-solution/mall-integration-service/internal/pricing"
)

// CatalogClient is the slice of the platform client the pricing service uses.
type CatalogClient interface {
	GetProduct(ctx context.Context, mallID string, productNo int) (*model.Product, error)
	GetDiscountPrice(ctx context.Context, mallID string, productNo int) (*model.DiscountPrice, error)
	ListCoupons(ctx context.Context, mallID string) ([]model.CouponRule, error)
}

// PricingService reconciles live catalog prices against the mall's current
// coupon rules.
type PricingService struct {
	catalog CatalogClient
}

// NewPricingService creates a new PricingService
func NewPricingService(catalog CatalogClient) *PricingService {
	return &PricingService{catalog: catalog}
}

// QuoteProducts computes best-price quotes for the given products. Coupon
// rules are fetched once per request and never cached beyond it.
func (s *PricingService) QuoteProducts(ctx context.Context, mallID string, productNos []int) ([]model.PriceQuote, error) {
	coupons, err := s.catalog.ListCoupons(ctx, mallID)
	if err != nil {
		log.Error().Err(err).Str("mall_id", mallID).Msg("Failed to fetch coupons")
		return nil, err
	}

	quotes := make([]model.PriceQuote, 0, len(productNos))
	for _, no := range productNos {
		product, err := s.catalog.GetProduct(ctx, mallID, no)
		if err != nil {
			return nil, err
		}
		discount, err := s.catalog.GetDiscountPrice(ctx, mallID, no)
		if err != nil {
			return nil, err
		}
		var sale *decimal.Decimal
		if discount != nil {
			sale = discount.InstantSalePrice
		}
		quotes = append(quotes, pricing.Evaluate(*product, sale, coupons, nil))
	}
	return quotes, nil
}
