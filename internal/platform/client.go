package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

// pageSize is the upstream's maximum page size for list endpoints.
const pageSize = 100

// Caller is the authenticated-request contract the client is built on.
// Satisfied by *gateway.Gateway.
type Caller interface {
	DoJSON(ctx context.Context, mallID, method, path string, query url.Values, body, out interface{}) error
}

// Client provides typed queries over the platform admin API.
type Client struct {
	gw Caller
}

// NewClient creates a new Client
func NewClient(gw Caller) *Client {
	return &Client{gw: gw}
}

func pageQuery(offset int) url.Values {
	return url.Values{
		"limit":  {strconv.Itoa(pageSize)},
		"offset": {strconv.Itoa(offset)},
	}
}

// ListProducts fetches the whole catalog with offset pagination. The platform
// does not signal end-of-list explicitly, so the loop stops when a page comes
// back empty or shorter than the requested limit.
func (c *Client) ListProducts(ctx context.Context, mallID string) ([]model.Product, error) {
	var all []model.Product
	for offset := 0; ; offset += pageSize {
		q := pageQuery(offset)
		q.Set("embed", "category")
		var env productsEnvelope
		if err := c.gw.DoJSON(ctx, mallID, http.MethodGet, "/api/v2/admin/products", q, nil, &env); err != nil {
			return nil, err
		}
		for _, p := range env.Products {
			all = append(all, p.toModel())
		}
		if len(env.Products) < pageSize {
			return all, nil
		}
	}
}

// GetProduct fetches one product by number.
func (c *Client) GetProduct(ctx context.Context, mallID string, productNo int) (*model.Product, error) {
	path := fmt.Sprintf("/api/v2/admin/products/%d", productNo)
	q := url.Values{"embed": {"category"}}
	var env productEnvelope
	if err := c.gw.DoJSON(ctx, mallID, http.MethodGet, path, q, nil, &env); err != nil {
		return nil, err
	}
	p := env.Product.toModel()
	return &p, nil
}

// ListCategories fetches all catalog categories.
func (c *Client) ListCategories(ctx context.Context, mallID string) ([]model.Category, error) {
	var all []model.Category
	for offset := 0; ; offset += pageSize {
		var env categoriesEnvelope
		if err := c.gw.DoJSON(ctx, mallID, http.MethodGet, "/api/v2/admin/categories", pageQuery(offset), nil, &env); err != nil {
			return nil, err
		}
		for _, cat := range env.Categories {
			all = append(all, cat.toModel())
		}
		if len(env.Categories) < pageSize {
			return all, nil
		}
	}
}

// ListCoupons fetches the mall's live coupon rules. Results are used for one
// evaluation pass and never cached.
func (c *Client) ListCoupons(ctx context.Context, mallID string) ([]model.CouponRule, error) {
	var all []model.CouponRule
	for offset := 0; ; offset += pageSize {
		var env couponsEnvelope
		if err := c.gw.DoJSON(ctx, mallID, http.MethodGet, "/api/v2/admin/coupons", pageQuery(offset), nil, &env); err != nil {
			return nil, err
		}
		for _, cp := range env.Coupons {
			all = append(all, cp.toModel())
		}
		if len(env.Coupons) < pageSize {
			return all, nil
		}
	}
}

// GetDiscountPrice fetches the instant-sale price for one product.
// InstantSalePrice is nil when no sale is configured.
func (c *Client) GetDiscountPrice(ctx context.Context, mallID string, productNo int) (*model.DiscountPrice, error) {
	path := fmt.Sprintf("/api/v2/admin/products/%d/discountprice", productNo)
	var env discountPriceEnvelope
	if err := c.gw.DoJSON(ctx, mallID, http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, err
	}
	out := &model.DiscountPrice{ProductNo: productNo}
	if env.DiscountPrice.PCDiscountPrice.Valid {
		price := env.DiscountPrice.PCDiscountPrice.Decimal
		out.InstantSalePrice = &price
	}
	return out, nil
}
