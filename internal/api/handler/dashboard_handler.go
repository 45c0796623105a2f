package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
)

// DashboardHandler serves the main authenticated landing page and the
// request history. Both views are built from the same backend listing.
type DashboardHandler struct {
	users ports.UserAPI
	log   zerolog.Logger
}

func NewDashboardHandler(users ports.UserAPI, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{users: users, log: log}
}

type dashboardResponse struct {
	User     *domain.User    `json:"user"`
	Requests json.RawMessage `json:"requests,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Show renders the dashboard view model. A failed listing degrades to an
// in-page error with the user block intact; the navigation itself succeeds.
func (h *DashboardHandler) Show(c echo.Context) error {
	user, token, err := requireUser(c)
	if err != nil {
		return err
	}

	resp := dashboardResponse{User: user}
	requests, err := h.users.UserRequests(c.Request().Context(), token, user.ID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Msg("dashboard listing failed")
		resp.Error = fetchMessage(err)
	} else {
		resp.Requests = requests
	}
	return c.JSON(http.StatusOK, resp)
}

type historyResponse struct {
	Requests json.RawMessage `json:"requests,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// History renders the request history view model.
func (h *DashboardHandler) History(c echo.Context) error {
	user, token, err := requireUser(c)
	if err != nil {
		return err
	}

	requests, err := h.users.UserRequests(c.Request().Context(), token, user.ID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Msg("history listing failed")
		return c.JSON(http.StatusOK, historyResponse{Error: fetchMessage(err)})
	}
	return c.JSON(http.StatusOK, historyResponse{Requests: requests})
}
