package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/guard"
	"github.com/EduardoBullon/SEM16-PC04/core/notify"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/services/backend"
)

var (
	errHttpBadRequest = echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// An invalidated session is recovered by sending the user to the login page. Other domain errors
// are also shown as error notifications.
func newAppHTTPErrorHandler(logger core.Logger, sessions *session.Store, notes *notify.Center) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}
		notice := true

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
			notice = false
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.AuthorizationError:
			code = http.StatusForbidden
			message = origErr.Error()
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.NetworkError:
			code = http.StatusBadGateway
			if origErr.Timeout() {
				code = http.StatusGatewayTimeout
			}
			message = origErr.Error()
		default:
			switch {
			case core.IsAuthentication(err):
				if !ctx.Response().Committed {
					if rErr := ctx.Redirect(http.StatusSeeOther, guard.LoginPath); rErr != nil {
						ctx.Echo().Logger.Error(rErr)
					}
				}
				return
			case origErr == backend.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				notice = false
				logger.Error(msg, errors.Wrap(err, msg), sessions.Identity())
			}
		}

		if notice && notes != nil {
			notes.ShowError(err.Error())
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
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
