package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// New constructs and returns a configured Echo instance.
func New(h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", h.handleHealthz)
	e.POST("/login", h.handleLogin)
	e.GET("/", h.handleHome)
	e.GET("/games", h.handleListRounds)
	e.POST("/games", h.handleCreateRound)
	e.GET("/play/:id", h.handleGetRound)
	e.POST("/play/:id", h.handleSubmitMove)

	return e
}
