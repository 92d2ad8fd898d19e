package model

import "github.com/shopspring/decimal"

// Product is a catalog product as returned by the platform admin API.
type Product struct {
	ProductNo   int             `json:"product_no"`
	Name        string          `json:"product_name"`
	ListPrice   decimal.Decimal `json:"price"`
	CategoryNos []int           `json:"category_nos"`
}

// Category is a catalog category.
type Category struct {
	CategoryNo int    `json:"category_no"`
	Name       string `json:"category_name"`
	ParentNo   int    `json:"parent_category_no"`
}

// DiscountPrice is the platform's instant-sale price for one product.
// InstantSalePrice is nil when no sale is configured.
type DiscountPrice struct {
	ProductNo        int              `json:"product_no"`
	InstantSalePrice *decimal.Decimal `json:"instant_sale_price"`
}
