package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/juthworks/webapp/internal/api/metrics"
	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/service"
)

// Gate guards a protected route. It re-runs the admission decision on every
// request (it is not a one-time check at login) and applies redirect outcomes
// as 303 See Other, so the browser replaces the denied navigation instead of
// offering it again through history or a form resubmission.
//
// The decision itself is pure (service.Decide); this wrapper only performs
// the side effect. Should anything below panic anyway, the recover path
// denies access rather than granting it.
func Gate(route service.Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := decide(c, route)
			metrics.GateDecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()

			if d.Outcome == service.Render {
				return next(c)
			}
			return c.Redirect(http.StatusSeeOther, d.Target)
		}
	}
}

func decide(c echo.Context, route service.Route) (d service.Decision) {
	defer func() {
		if recover() != nil {
			d = service.Decision{Outcome: service.RedirectLogin, Target: service.LoginPath}
		}
	}()

	sess, _ := c.Get(CtxSession).(*domain.Session)
	return service.Decide(sess, route, c.Request().URL.Path)
}
