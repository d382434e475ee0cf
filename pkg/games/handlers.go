package games

import (
	"net/http"
	"strconv"

	"github.com/gamedex/gamedex/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const populatedMessage = "Database populated successfully"

type handler struct {
	gameService *Service
	importer    *Importer
}

// parseID returns the game id from the path. Anything that isn't a positive
// integer can't name a game.
func parseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, errcodes.NotFound("Game")
	}
	return id, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListGamesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	games, err := h.gameService.ListGames(ctx, ListGamesOptions{
		Name:     params.Name,
		Platform: params.Platform,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, games))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := GamePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	game := params.toModel()
	if err := h.gameService.CreateGame(ctx, game); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, game))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	params := GamePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	game, err := h.gameService.UpdateGame(ctx, id, params.toModel())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, game))
}

func (h *handler) deleteGame(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.gameService.DeleteGame(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]int{"id": id}))
}

func (h *handler) search(c echo.Context) error {
	ctx := c.Request().Context()

	params := SearchGamesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	games, err := h.gameService.ListGames(ctx, ListGamesOptions{
		Name:     params.Name,
		Platform: params.Platform,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, games))
}

func (h *handler) populate(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	count, err := h.importer.Import(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	log.Info("database populated", logger.Data{"games": count})

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": populatedMessage}))
}
