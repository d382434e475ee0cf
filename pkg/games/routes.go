package games

import (
	"net/http"

	"github.com/gamedex/gamedex/pkg/binder"
	"github.com/gamedex/gamedex/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers game routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	gameService := NewService(db)
	client := &http.Client{Timeout: cfg.ImportTimeout}

	h := &handler{
		gameService: gameService,
		importer:    NewImporter(gameService, client, cfg.ImportSourceURLs, cfg.ImportTimeout),
	}

	// Clients resend whole records, id and timestamps included.
	g.Use(allowUnknownFields)

	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/search", h.search, allowEmptyBody)
	g.POST("/populate", h.populate)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.deleteGame)
}

func allowUnknownFields(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(binder.DisallowUnknownFieldsKey, false)
		return next(c)
	}
}

func allowEmptyBody(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(binder.DisallowEmptyBodyKey, false)
		return next(c)
	}
}
