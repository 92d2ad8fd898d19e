package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/promopage-solution/mall-integration-service/internal/model"
)

const pageExistsCacheTTL = 1 * time.Minute

// PageRepository handles database operations for marketing pages
type PageRepository struct {
	db    *sql.DB
	redis RedisClient
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *sql.DB, rdb RedisClient) *PageRepository {
	return &PageRepository{db: db, redis: rdb}
}

func pageExistsCacheKey(mallID string, id uuid.UUID) string {
	return fmt.Sprintf("page:exists:%s:%s", mallID, id.String())
}

// Create inserts a new marketing page
func (r *PageRepository) Create(ctx context.Context, page *model.MarketingPage) error {
	query := `
		INSERT INTO marketing_pages (id, mall_id, title, blocks, images, tab_type, coupon_nos, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	page.ID = uuid.New()
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		page.ID, page.MallID, page.Title, normalizeJSON(page.Blocks), normalizeJSON(page.Images),
		page.TabType, pq.Array(page.CouponNos), page.CreatedAt, page.UpdatedAt,
	)
	if err != nil {
		return err
	}

	r.redis.Del(ctx, pageExistsCacheKey(page.MallID, page.ID))
	return nil
}

// GetByID retrieves a page by ID within a mall. Returns nil when absent or
// soft-deleted.
func (r *PageRepository) GetByID(ctx context.Context, mallID string, id uuid.UUID) (*model.MarketingPage, error) {
	query := `
		SELECT id, mall_id, title, blocks, images, tab_type, coupon_nos, created_at, updated_at, deleted_at
		FROM marketing_pages
		WHERE id = $1 AND mall_id = $2 AND deleted_at IS NULL
	`
	page := &model.MarketingPage{}
	var blocks, images []byte
	err := r.db.QueryRowContext(ctx, query, id, mallID).Scan(
		&page.ID, &page.MallID, &page.Title, &blocks, &images,
		&page.TabType, pq.Array(&page.CouponNos), &page.CreatedAt, &page.UpdatedAt, &page.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	page.Blocks = blocks
	page.Images = images
	return page, nil
}

// ListByMall retrieves all live pages of a mall, newest first.
func (r *PageRepository) ListByMall(ctx context.Context, mallID string) ([]*model.MarketingPage, error) {
	query := `
		SELECT id, mall_id, title, blocks, images, tab_type, coupon_nos, created_at, updated_at, deleted_at
		FROM marketing_pages
		WHERE mall_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, mallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*model.MarketingPage
	for rows.Next() {
		page := &model.MarketingPage{}
		var blocks, images []byte
		if err := rows.Scan(
			&page.ID, &page.MallID, &page.Title, &blocks, &images,
			&page.TabType, pq.Array(&page.CouponNos), &page.CreatedAt, &page.UpdatedAt, &page.DeletedAt,
		); err != nil {
			return nil, err
		}
		page.Blocks = blocks
		page.Images = images
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// Update updates a page in place
func (r *PageRepository) Update(ctx context.Context, page *model.MarketingPage) error {
	query := `
		UPDATE marketing_pages
		SET title = $3, blocks = $4, images = $5, tab_type = $6, coupon_nos = $7, updated_at = now()
		WHERE id = $1 AND mall_id = $2 AND deleted_at IS NULL
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		page.ID, page.MallID, page.Title, normalizeJSON(page.Blocks), normalizeJSON(page.Images),
		page.TabType, pq.Array(page.CouponNos),
	).Scan(&page.UpdatedAt)
	if err != nil {
		return err
	}

	r.redis.Del(ctx, pageExistsCacheKey(page.MallID, page.ID))
	return nil
}

// Delete performs a soft delete. Already-collected counters stay; the
// existence check starts failing, which stops new ingestion for the page.
func (r *PageRepository) Delete(ctx context.Context, mallID string, id uuid.UUID) error {
	query := `
		UPDATE marketing_pages
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND mall_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, mallID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	r.redis.Del(ctx, pageExistsCacheKey(mallID, id))
	return nil
}

// Exists reports whether a live page with this id belongs to the mall.
// Cached briefly in Redis; every write path invalidates the key.
func (r *PageRepository) Exists(ctx context.Context, mallID string, id uuid.UUID) (bool, error) {
	key := pageExistsCacheKey(mallID, id)
	cached, err := r.redis.Get(ctx, key).Result()
	if err == nil {
		return cached == "1", nil
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM marketing_pages
			WHERE id = $1 AND mall_id = $2 AND deleted_at IS NULL
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id, mallID).Scan(&exists); err != nil {
		return false, err
	}

	val := "0"
	if exists {
		val = "1"
	}
	r.redis.SetEx(ctx, key, val, pageExistsCacheTTL)
	return exists, nil
}

// normalizeJSON keeps empty raw messages valid for JSONB columns.
func normalizeJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("[]")
	}
	return raw
}
