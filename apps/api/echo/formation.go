package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/portal"
)

type formationApi struct {
	svc *portal.Service
}

func registerFormationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *portal.Service) {
	api := formationApi{svc: svc}

	fg := g.Group("/formations", jwt)
	fg.GET("", api.query)
	fg.GET("/:id", api.retrieve)
}

func (api *formationApi) query(ctx echo.Context) error {
	fs, err := api.svc.Formations()
	if err != nil {
		return errors.Wrap(err, "querying formations")
	}
	if fs == nil {
		fs = []formation.Formation{}
	}
	return ctx.JSON(http.StatusOK, fs)
}

func (api *formationApi) retrieve(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}
	f, err := api.svc.Formation(id)
	if err != nil {
		if errors.Cause(err) == formation.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding formation by ID")
	}
	return ctx.JSON(http.StatusOK, f)
}
