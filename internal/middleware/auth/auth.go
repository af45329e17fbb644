package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/monolog_auth/internal/logging"
	"github.com/Skotchmaster/monolog_auth/internal/repo"
	"github.com/Skotchmaster/monolog_auth/internal/session"
	"github.com/Skotchmaster/monolog_auth/internal/tokens"
)

const (
	ContextEmailKey       = "email"
	ContextAccessTokenKey = "access_token"
)

type Gate struct {
	Codec *tokens.Codec
	Store session.Store
	Users *repo.UserRepo
}

func NewGate(codec *tokens.Codec, store session.Store, users *repo.UserRepo) *Gate {
	return &Gate{Codec: codec, Store: store, Users: users}
}

// RequireAuth resolves the caller's identity from the access_token
// cookie, falling back to an Authorization: Bearer header.
//
// If the store is unreachable for the revocation check, the gate fails
// open and trusts the token's signature and expiry alone. This is a
// deliberate availability-over-strict-revocation tradeoff: a revoked
// token stays usable for at most its remaining lifetime while the store
// is down.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := tokenFromRequest(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
		}

		claims, err := g.Codec.ParseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid_token")
		}

		revoked, err := g.Store.IsRevoked(c.Request().Context(), raw)
		if err != nil {
			logging.FromContext(c.Request().Context()).
				Warn("revocation_check_unavailable", "error", err)
		} else if revoked {
			return echo.NewHTTPError(http.StatusUnauthorized, "token_revoked")
		}

		c.Set(ContextEmailKey, claims.Subject)
		c.Set(ContextAccessTokenKey, raw)
		return next(c)
	}
}

// RequireAdmin re-reads the user record on every call; the admin flag
// is never cached.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		email, ok := c.Get(ContextEmailKey).(string)
		if !ok || email == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
		}

		user, err := g.Users.ByEmail(c.Request().Context(), email)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
		}
		if !user.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
