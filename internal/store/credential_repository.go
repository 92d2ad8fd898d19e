package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/promopage-solution/mall-integration-service/internal/crypto"
	"github.com/promopage-solution/mall-integration-service/internal/model"
)

const credentialCacheTTL = 1 * time.Hour

// CredentialRepository persists per-mall OAuth token pairs with a Redis cache
// layered over Postgres. The cache fills lazily on Get and is rewritten on
// every Put, so a refresh always observes its own write. Tokens are encrypted
// at rest; the cache holds the decrypted record.
type CredentialRepository struct {
	db    *sql.DB
	redis RedisClient
}

// NewCredentialRepository creates a new CredentialRepository
func NewCredentialRepository(db *sql.DB, rdb RedisClient) *CredentialRepository {
	return &CredentialRepository{db: db, redis: rdb}
}

func credentialCacheKey(mallID string) string {
	return fmt.Sprintf("credential:%s", mallID)
}

// Get retrieves the live credential for a mall. Returns ErrCredentialNotFound
// when the mall never completed the install flow.
func (r *CredentialRepository) Get(ctx context.Context, mallID string) (*model.MallCredential, error) {
	// Check cache first
	key := credentialCacheKey(mallID)
	cached, err := r.redis.Get(ctx, key).Result()
	if err == nil {
		cred := &model.MallCredential{}
		if err := json.Unmarshal([]byte(cached), cred); err == nil {
			return cred, nil
		}
	}

	// Cache miss, query database
	query := `
		SELECT mall_id, encrypted_access_token, access_token_iv,
		       encrypted_refresh_token, refresh_token_iv,
		       obtained_at, expires_in, created_at, updated_at
		FROM mall_credentials
		WHERE mall_id = $1
	`
	cred := &model.MallCredential{}
	err = r.db.QueryRowContext(ctx, query, mallID).Scan(
		&cred.MallID, &cred.EncryptedAccessToken, &cred.AccessTokenIV,
		&cred.EncryptedRefreshToken, &cred.RefreshTokenIV,
		&cred.ObtainedAt, &cred.ExpiresIn, &cred.CreatedAt, &cred.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}

	if cred.AccessToken, err = crypto.Decrypt(cred.EncryptedAccessToken, cred.AccessTokenIV); err != nil {
		return nil, err
	}
	if cred.RefreshToken, err = crypto.Decrypt(cred.EncryptedRefreshToken, cred.RefreshTokenIV); err != nil {
		return nil, err
	}

	// Cache the result
	if data, err := json.Marshal(cred); err == nil {
		r.redis.SetEx(ctx, key, data, credentialCacheTTL)
	}

	return cred, nil
}

// Put atomically overwrites the mall's credential record and refreshes the
// cache with the new pair.
func (r *CredentialRepository) Put(ctx context.Context, cred *model.MallCredential) error {
	var err error
	if cred.EncryptedAccessToken, cred.AccessTokenIV, err = crypto.Encrypt(cred.AccessToken); err != nil {
		return err
	}
	if cred.EncryptedRefreshToken, cred.RefreshTokenIV, err = crypto.Encrypt(cred.RefreshToken); err != nil {
		return err
	}

	cred.UpdatedAt = time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = cred.UpdatedAt
	}

	query := `
		INSERT INTO mall_credentials (mall_id, encrypted_access_token, access_token_iv,
			encrypted_refresh_token, refresh_token_iv, obtained_at, expires_in,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (mall_id) DO UPDATE SET
			encrypted_access_token = EXCLUDED.encrypted_access_token,
			access_token_iv = EXCLUDED.access_token_iv,
			encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
			refresh_token_iv = EXCLUDED.refresh_token_iv,
			obtained_at = EXCLUDED.obtained_at,
			expires_in = EXCLUDED.expires_in,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		cred.MallID, cred.EncryptedAccessToken, cred.AccessTokenIV,
		cred.EncryptedRefreshToken, cred.RefreshTokenIV,
		cred.ObtainedAt, cred.ExpiresIn, cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if data, err := json.Marshal(cred); err == nil {
		r.redis.SetEx(ctx, credentialCacheKey(cred.MallID), data, credentialCacheTTL)
	}
	return nil
}
