package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
)

// Context keys set by the Session middleware and read by handlers.
const (
	CtxSession = "session"
	CtxSID     = "sid"
)

// Session resolves the session cookie to a *domain.Session and injects it
// into the request context for the gate and the handlers. Every request gets
// a session object: no cookie, an unknown session ID, or a store failure all
// read as an anonymous session, so downstream code never branches on
// presence, only on Authenticated(). A store failure is logged but still
// degrades to anonymous: fail closed, never fail the request here.
func Session(cookieName string, store ports.SessionStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				c.Set(CtxSession, &domain.Session{})
				return next(c)
			}

			sess, err := store.Load(c.Request().Context(), cookie.Value)
			if err != nil {
				log.Warn().Err(err).Msg("session load failed, treating as anonymous")
				sess = &domain.Session{}
			}

			c.Set(CtxSID, cookie.Value)
			c.Set(CtxSession, sess)
			return next(c)
		}
	}
}
