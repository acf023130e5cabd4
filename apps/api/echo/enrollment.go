package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core/enrollment"
	"github.com/trezcool/masomo/core/portal"
	"github.com/trezcool/masomo/core/user"
)

// msgCreatedSuccessfully is what the production backend puts in its 500 for a created request.
const msgCreatedSuccessfully = "Request created successfully"

type enrollmentApi struct {
	usrSvc         *user.Service
	svc            *portal.Service
	validate       *validator.Validate
	successAsError func() bool
}

func registerEnrollmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	usrSvc *user.Service,
	svc *portal.Service,
	validate *validator.Validate,
	successAsError func() bool,
) {
	api := enrollmentApi{
		usrSvc:         usrSvc,
		svc:            svc,
		validate:       validate,
		successAsError: successAsError,
	}

	eg := g.Group("/enrollment-requests", jwt)
	eg.POST("", api.create)
	eg.GET("/mine", api.mine)
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data NewEnrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollmentRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}

	req, err := api.svc.RequestEnrollment(usr, data.FormationID)
	if err != nil {
		return errors.Wrap(err, "requesting enrollment")
	}
	if api.successAsError() {
		return echo.NewHTTPError(http.StatusInternalServerError, msgCreatedSuccessfully)
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *enrollmentApi) mine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	reqs, err := api.svc.PendingRequests(usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying pending requests")
	}
	if reqs == nil {
		reqs = []enrollment.Request{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

type NewEnrollmentRequest struct {
	FormationID int `json:"formationId" validate:"required,gt=0"`
}
