package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// token, expired claims, wrong token type. Callers never see partial
// claims alongside it.
var ErrInvalidToken = errors.New("invalid token")

const RefreshTokenType = "refresh"

// AccessClaims carries the caller's identity in Subject. Access tokens
// have no type tag on the wire.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// RefreshClaims is distinguished from an access token by the explicit
// type claim, checked at decode time.
type RefreshClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}
