package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// Claims is the decoded payload of an access token.
//
// Nothing in here has been verified. The identity provider is the only party
// that can vouch for a token, so treat these values as hints for display and
// refresh scheduling, never for authorization decisions.
type Claims struct {
	jwt.MapClaims
}

// parser is only used for its segment decoder; it never sees a key.
var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode extracts the claims from a compact JWS without checking the
// signature. The token must have exactly three segments, the middle one must
// be valid base64url and it must hold a JSON object.
func Decode(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: payload is not base64url: %v", ErrMalformed, err)
	}

	var mc jwt.MapClaims
	if err := json.Unmarshal(payload, &mc); err != nil {
		return Claims{}, fmt.Errorf("%w: payload is not a JSON object: %v", ErrMalformed, err)
	}
	if mc == nil {
		mc = jwt.MapClaims{}
	}

	return Claims{MapClaims: mc}, nil
}

// ExpiresAt returns the exp claim as an absolute instant, or nil when the
// token carries no exp.
func (c Claims) ExpiresAt() (*time.Time, error) {
	exp, err := c.MapClaims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp: %v", ErrInvalidClaim, err)
	}
	if exp == nil {
		return nil, nil
	}

	t := exp.Time
	return &t, nil
}

// String returns a string claim, or "" when it is absent or not a string.
func (c Claims) String(name string) string {
	v, _ := c.MapClaims[name].(string)
	return v
}

func (c Claims) Email() string             { return c.String("email") }
func (c Claims) PreferredUsername() string { return c.String("preferred_username") }

func (c Claims) Subject() string {
	sub, _ := c.MapClaims.GetSubject()
	return sub
}

// Expiry decodes token and returns its expiry in one step. Any decode or
// claim error yields nil so callers can treat the expiry as unknown.
func Expiry(token string) *time.Time {
	claims, err := Decode(token)
	if err != nil {
		return nil
	}

	exp, err := claims.ExpiresAt()
	if err != nil {
		return nil
	}
	return exp
}
