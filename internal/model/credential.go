package model

import "time"

// MallCredential represents the mall_credentials table
type MallCredential struct {
	MallID                string    `json:"mall_id"`
	AccessToken           string    // Plaintext (transient, cached but not stored in DB)
	RefreshToken          string    // Plaintext (transient, cached but not stored in DB)
	EncryptedAccessToken  []byte    `json:"-"` // Stored in DB
	AccessTokenIV         []byte    `json:"-"` // Stored in DB
	EncryptedRefreshToken []byte    `json:"-"` // Stored in DB
	RefreshTokenIV        []byte    `json:"-"` // Stored in DB
	ObtainedAt            time.Time `json:"obtained_at"`
	ExpiresIn             int       `json:"expires_in"` // Seconds
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ExpiresAt returns the moment the access token stops being accepted upstream.
func (c *MallCredential) ExpiresAt() time.Time {
	return c.ObtainedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}
