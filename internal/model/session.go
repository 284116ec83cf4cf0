package model

import "time"

// Session is the stored binding between a browser's gateway cookie and the
// upstream bearer token. The cookie token itself is never stored, only its
// hash; the upstream token may be encrypted at rest.
type Session struct {
	ID            string    `db:"id" json:"id"`
	TokenHash     string    `db:"token_hash" json:"-"`
	UpstreamToken string    `db:"upstream_token" json:"-"`
	ExpiresAt     time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateSessionParams struct {
	TokenHash     string
	UpstreamToken string
	ExpiresAt     time.Time
}
