package domain

import (
	"time"

	"github.com/aussiebroadwan/consoleauth/pkg/jwtx"
)

// CredentialPair is the access/refresh token pair of an authenticated
// session. ExpiresAt is derived from the access token's exp claim and is nil
// when the claim is missing or the token cannot be decoded. Realm names the
// realm that issued the pair, so a restored session refreshes against it.
type CredentialPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	Realm        string     `json:"realm,omitempty"`
	ExpiresAt    *time.Time `json:"-"`
}

// NewCredentialPair decodes access (without verifying it) to fill ExpiresAt.
func NewCredentialPair(access, refresh string) CredentialPair {
	return CredentialPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    jwtx.Expiry(access),
	}
}

func (p CredentialPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Equal compares tokens only; ExpiresAt is derived from AccessToken.
func (p CredentialPair) Equal(other CredentialPair) bool {
	return p.AccessToken == other.AccessToken && p.RefreshToken == other.RefreshToken
}

// ExpiresAtMillis is ExpiresAt as Unix milliseconds, or nil.
func (p CredentialPair) ExpiresAtMillis() *int64 {
	if p.ExpiresAt == nil {
		return nil
	}
	ms := p.ExpiresAt.UnixMilli()
	return &ms
}

// IsExpired reports whether now is within skew of the expiry. A pair without
// a known expiry is always expired.
func (p CredentialPair) IsExpired(now time.Time, skew time.Duration) bool {
	if p.ExpiresAt == nil {
		return true
	}
	return !now.Before(p.ExpiresAt.Add(-skew))
}
