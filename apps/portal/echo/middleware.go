package echoportal

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// requireSession guards a route. An empty role admits any authenticated user.
// Denials are 303 redirects; the attempted location travels as ?from=.
func (s *server) requireSession(required string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			location := ctx.Request().URL.Path
			d := s.guard.Evaluate(required, location)
			if d.Allow {
				s.nav.Visit(location)
				return next(ctx)
			}
			target := d.Redirect
			if d.From != "" {
				target += "?" + url.Values{"from": {d.From}}.Encode()
			}
			return ctx.Redirect(http.StatusSeeOther, target)
		}
	}
}
