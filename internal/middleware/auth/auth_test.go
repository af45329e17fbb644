package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/monolog_auth/internal/models"
	"github.com/Skotchmaster/monolog_auth/internal/repo"
	"github.com/Skotchmaster/monolog_auth/internal/session"
	"github.com/Skotchmaster/monolog_auth/internal/tokens"
)

func newTestGate(t *testing.T) (*Gate, *miniredis.Miniredis) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec, err := tokens.NewCodec([]byte("test-secret"), "HS256")
	require.NoError(t, err)

	return NewGate(codec, session.NewRedisStore(client, time.Second), &repo.UserRepo{DB: db}), mr
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, decorate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"email": c.Get(ContextEmailKey)})
	})
	return rec, handler(c)
}

func TestGate_RequireAuth_MissingToken(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := doRequest(t, gate.RequireAuth, nil)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGate_RequireAuth_CookieToken(t *testing.T) {
	gate, _ := newTestGate(t)

	token, err := gate.Codec.MintAccess("a@example.com", time.Minute)
	require.NoError(t, err)

	rec, err := doRequest(t, gate.RequireAuth, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@example.com")
}

func TestGate_RequireAuth_BearerFallback(t *testing.T) {
	gate, _ := newTestGate(t)

	token, err := gate.Codec.MintAccess("a@example.com", time.Minute)
	require.NoError(t, err)

	rec, err := doRequest(t, gate.RequireAuth, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_RequireAuth_InvalidToken(t *testing.T) {
	gate, _ := newTestGate(t)

	otherCodec, err := tokens.NewCodec([]byte("other-secret"), "HS256")
	require.NoError(t, err)
	forged, err := otherCodec.MintAccess("a@example.com", time.Minute)
	require.NoError(t, err)

	for _, token := range []string{"garbage", forged} {
		_, err := doRequest(t, gate.RequireAuth, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
		})
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	}
}

func TestGate_RequireAuth_RevokedToken(t *testing.T) {
	gate, _ := newTestGate(t)

	token, err := gate.Codec.MintAccess("a@example.com", time.Minute)
	require.NoError(t, err)
	require.NoError(t, gate.Store.Revoke(context.Background(), token, time.Minute))

	_, err = doRequest(t, gate.RequireAuth, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	})
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, "token_revoked", he.Message)
}

func TestGate_RequireAuth_FailsOpenWhenStoreDown(t *testing.T) {
	gate, mr := newTestGate(t)

	token, err := gate.Codec.MintAccess("a@example.com", time.Minute)
	require.NoError(t, err)

	mr.Close()

	rec, err := doRequest(t, gate.RequireAuth, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_RequireAdmin(t *testing.T) {
	gate, _ := newTestGate(t)

	require.NoError(t, gate.Users.DB.Create(&models.User{
		Email: "admin@example.com", Nickname: "admin", PasswordHash: "x", IsAdmin: true,
	}).Error)
	require.NoError(t, gate.Users.DB.Create(&models.User{
		Email: "user@example.com", Nickname: "user", PasswordHash: "x", IsAdmin: false,
	}).Error)

	chain := func(next echo.HandlerFunc) echo.HandlerFunc {
		return gate.RequireAuth(gate.RequireAdmin(next))
	}

	adminToken, err := gate.Codec.MintAccess("admin@example.com", time.Minute)
	require.NoError(t, err)
	rec, err := doRequest(t, chain, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: adminToken})
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	userToken, err := gate.Codec.MintAccess("user@example.com", time.Minute)
	require.NoError(t, err)
	_, err = doRequest(t, chain, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: userToken})
	})
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}
