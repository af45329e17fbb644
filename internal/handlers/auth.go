package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/monolog_auth/internal/events"
	"github.com/Skotchmaster/monolog_auth/internal/logging"
	mwauth "github.com/Skotchmaster/monolog_auth/internal/middleware/auth"
	"github.com/Skotchmaster/monolog_auth/internal/repo"
	"github.com/Skotchmaster/monolog_auth/internal/session"
	"github.com/Skotchmaster/monolog_auth/internal/tokens"
)

type AuthHandler struct {
	Svc          *session.Service
	Users        *repo.UserRepo
	Producer     *events.Producer
	CookieSecure bool
}

type registerRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_body")
	}
	if req.Email == "" || req.Nickname == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_body")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Nickname, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.publish(ctx, user.Email, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"nickname": user.Nickname,
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "registered"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid_body")
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password, req.RememberMe)
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, pair)

	h.publish(ctx, req.Email, map[string]any{
		"type":  "user_logged_in",
		"email": req.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"tokenType":    "bearer",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	presented := ""
	if cookie, err := c.Cookie("refresh_token"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.Bind(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		l.Warn("refresh_error", "status", 401, "reason", "no refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	pair, err := h.Svc.Refresh(ctx, presented)
	if err != nil {
		return httpError(err)
	}

	h.setTokenCookies(c, pair)

	return c.JSON(http.StatusOK, echo.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"tokenType":    "bearer",
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	email, _ := c.Get(mwauth.ContextEmailKey).(string)
	accessToken, _ := c.Get(mwauth.ContextAccessTokenKey).(string)

	if err := h.Svc.Logout(ctx, email, accessToken); err != nil {
		return httpError(err)
	}

	c.SetCookie(DeleteCookie("access_token", h.CookieSecure))
	c.SetCookie(DeleteCookie("refresh_token", h.CookieSecure))

	h.publish(ctx, email, map[string]any{
		"type":  "user_logged_out",
		"email": email,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	email, _ := c.Get(mwauth.ContextEmailKey).(string)
	user, err := h.Users.ByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookies(c echo.Context, pair *session.TokenPair) {
	c.SetCookie(CreateCookie("access_token", pair.AccessToken, time.Until(pair.AccessExp), h.CookieSecure))
	c.SetCookie(CreateCookie("refresh_token", pair.RefreshToken, time.Until(pair.RefreshExp), h.CookieSecure))
}

func (h *AuthHandler) publish(ctx context.Context, key string, event map[string]any) {
	if h.Producer == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.Producer.PublishEvent(pubCtx, "user_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "error", err)
	}
}

// httpError maps every service failure to one status and a stable tag;
// wrapped store and codec errors never reach the response body.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, session.ErrDuplicateIdentity):
		return echo.NewHTTPError(http.StatusBadRequest, "duplicate_identity")
	case errors.Is(err, tokens.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid_token")
	case errors.Is(err, session.ErrRevokedOrStale):
		return echo.NewHTTPError(http.StatusUnauthorized, "revoked_or_stale")
	case errors.Is(err, session.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "store_unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal_error")
	}
}
