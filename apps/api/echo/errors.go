package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/formation"
	"github.com/trezcool/masomo/core/portal"
	"github.com/trezcool/masomo/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")

	// domain sentinels answered with a fixed status and their own message
	sentinelStatus = map[error]int{
		portal.ErrAlreadyPending: http.StatusConflict,
		portal.ErrFormationFull:  http.StatusBadRequest,
		formation.ErrNotFound:    http.StatusNotFound,
		user.ErrNotFound:         http.StatusNotFound,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, message := httpResponse(err, translator)

		if code == http.StatusInternalServerError && !isHTTPError(err) {
			logger.Error(message.(string), errors.Wrap(err, message.(string)), claimsUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			body := echo.Map{"error": m}
			if ctx.Echo().Debug {
				body["debug"] = err.Error()
			}
			message = body
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// httpResponse maps err to a status and a body: a string message or a map of field errors.
func httpResponse(err error, translator ut.Translator) (int, interface{}) {
	cause := errors.Cause(err)
	if code, ok := sentinelStatus[cause]; ok {
		return code, cause.Error()
	}

	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, origErr.Message
		}
		if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
			origErr = herr
		}
		return origErr.Code, origErr.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(translator)
		}
		return http.StatusBadRequest, fldErrs
	case *core.ValidationError:
		// clients look for the reason in a single message, not in field errors
		if origErr.Err == user.ErrProfileMissing {
			return http.StatusBadRequest, origErr.Error() + ": missing " + strings.Join(origErr.FieldNames(), ", ")
		}
		if origErr.Fields == nil {
			return http.StatusBadRequest, origErr.Error()
		}
		fldErrs := make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fldErrs[fErr.Field] = fErr.Error
		}
		return http.StatusBadRequest, fldErrs
	default: // any other error is a server error
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func isHTTPError(err error) bool {
	_, ok := errors.Cause(err).(*echo.HTTPError)
	return ok
}

// claimsUser identifies the requester in error reports without a repository lookup.
func claimsUser(ctx echo.Context) user.User {
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID, _ = strconv.Atoi(claims.Subject)
		usr.Username = claims.Username
		usr.Email = claims.Email
	}
	return usr
}
