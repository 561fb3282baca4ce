package echoportal

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/EduardoBullon/SEM16-PC04/core/guard"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/core/user"
)

type authApi struct {
	s *server
}

func registerAuthRoutes(app *echo.Echo, s *server) {
	api := authApi{s: s}

	app.GET(guard.LoginPath, api.loginPage)
	app.POST(guard.LoginPath, api.login)
	app.POST("/logout", api.logout)
	app.GET("/me", api.me, s.requireSession(""))
}

// loginPage describes the login view. from is echoed back but the login flow always lands on /tasks.
func (api *authApi) loginPage(ctx echo.Context) error {
	if api.s.deps.Sessions.Snapshot().Authenticated() {
		return ctx.Redirect(http.StatusSeeOther, "/tasks")
	}
	api.s.nav.Visit(guard.LoginPath)
	return ctx.JSON(http.StatusOK, echo.Map{
		"page": "login",
		"from": ctx.QueryParam("from"),
	})
}

func (api *authApi) login(ctx echo.Context) error {
	var creds user.Credentials
	if err := ctx.Bind(&creds); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	identity, err := api.s.deps.Backend.Auth.Login(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	api.s.deps.Notifications.ShowSuccess(fmt.Sprintf("welcome back, %s", identity.Username))
	return ctx.Redirect(http.StatusSeeOther, "/tasks")
}

func (api *authApi) logout(ctx echo.Context) error {
	api.s.deps.Backend.Auth.Logout()
	api.s.nav.Visit(guard.LoginPath)
	api.s.deps.Notifications.ShowInfo("you have been logged out")
	return ctx.Redirect(http.StatusSeeOther, guard.LoginPath)
}

type sessionView struct {
	User      *session.Identity `json:"user"`
	Role      string            `json:"role"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

func (api *authApi) me(ctx echo.Context) error {
	snap := api.s.deps.Sessions.Snapshot()
	view := sessionView{User: snap.Identity}
	if snap.Identity != nil {
		view.Role = snap.Identity.CanonicalRole().String()
	}
	if exp, ok := session.TokenExpiry(snap.Credential); ok {
		view.ExpiresAt = &exp
	}
	return ctx.JSON(http.StatusOK, view)
}
