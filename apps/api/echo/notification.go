package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/portal"
	"github.com/trezcool/masomo/core/user"
)

type notificationApi struct {
	usrSvc *user.Service
	svc    *portal.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc *user.Service, svc *portal.Service) {
	api := notificationApi{usrSvc: usrSvc, svc: svc}

	ng := g.Group("/notifications", jwt)
	ng.POST("", api.create)
	ng.GET("/mine", api.inbox)
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data enrollment.Notification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Notification")
	}
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	n, err := api.svc.Notify(usr, data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *notificationApi) inbox(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	ns, err := api.svc.Inbox(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if ns == nil {
		ns = []portal.Notification{}
	}
	return ctx.JSON(http.StatusOK, ns)
}
