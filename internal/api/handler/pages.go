package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type pageResponse struct {
	Page     string `json:"page"`
	Redirect string `json:"redirect,omitempty"`
}

// PublicPage serves the descriptor for an unauthenticated page. A visitor who
// already holds a session is pointed at their landing page instead, so the
// login and register pages never render over an active session.
func PublicPage(name, authenticatedTarget string) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := pageResponse{Page: name}
		if currentSession(c).Authenticated() {
			resp.Redirect = authenticatedTarget
		}
		return c.JSON(http.StatusOK, resp)
	}
}
