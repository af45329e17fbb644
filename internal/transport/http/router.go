package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/monolog_auth/internal/handlers"
	"github.com/Skotchmaster/monolog_auth/internal/middleware/auth"
)

type Deps struct {
	AuthHandler *handlers.AuthHandler
	Gate        *auth.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)

	private := authGroup.Group("", d.Gate.RequireAuth)
	private.POST("/logout", d.AuthHandler.Logout)
	private.GET("/me", d.AuthHandler.Me)

	admin := api.Group("/admin", d.Gate.RequireAuth, d.Gate.RequireAdmin)
	admin.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "pong"})
	})
}
