package session

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown email and wrong
	// password alike, so callers cannot enumerate accounts. The two
	// cases stay distinguishable in internal logs only.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrDuplicateIdentity = errors.New("email or nickname already registered")

	// ErrRevokedOrStale means the refresh token's signature checked out
	// but the store no longer holds it as current: it was rotated away,
	// deleted at logout, or expired server-side.
	ErrRevokedOrStale = errors.New("refresh token revoked or superseded")

	ErrStoreUnavailable = errors.New("session store unavailable")

	ErrNotFound = errors.New("session: key not found")
)
