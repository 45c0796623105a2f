package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/juthworks/webapp/internal/api/middleware"
	"github.com/juthworks/webapp/internal/core/domain"
)

// currentSession extracts the session injected by the Session middleware.
// Always non-nil: an absent entry reads as an anonymous session.
func currentSession(c echo.Context) *domain.Session {
	if sess, ok := c.Get(middleware.CtxSession).(*domain.Session); ok && sess != nil {
		return sess
	}
	return &domain.Session{}
}

// currentSID returns the session ID, or "" for anonymous visitors.
func currentSID(c echo.Context) string {
	sid, _ := c.Get(middleware.CtxSID).(string)
	return sid
}

// requireUser performs a fast-fail check behind the gate: on gated routes the
// gate has already admitted the user, so a missing one here means the
// middleware chain was miswired; reject rather than dereference.
func requireUser(c echo.Context) (*domain.User, string, error) {
	sess := currentSession(c)
	if sess.User == nil {
		return nil, "", echo.NewHTTPError(http.StatusUnauthorized, "no authenticated session")
	}
	return sess.User, sess.Token, nil
}

// fetchMessage converts a data-fetch failure into the message shown in the
// affected view. Fetch failures degrade to a retryable in-page error; they
// never fail the navigation itself.
func fetchMessage(err error) string {
	if be, ok := err.(*domain.BackendError); ok && be.Message != "" {
		return be.Message
	}
	return "No se pudo cargar la información. Intenta nuevamente."
}
