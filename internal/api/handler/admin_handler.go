package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/ports"
)

// AdminHandler serves the administrator triage views. Role enforcement lives
// in the gate middleware on the /admin group, not here.
type AdminHandler struct {
	admin ports.AdminAPI
	log   zerolog.Logger
}

func NewAdminHandler(admin ports.AdminAPI, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, log: log}
}

type adminListResponse struct {
	Requests json.RawMessage `json:"requests,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Dashboard renders the full request list.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	return h.list(c, h.admin.Requests, "admin request listing failed")
}

// NewRequests renders the requests awaiting a first quote.
func (h *AdminHandler) NewRequests(c echo.Context) error {
	return h.list(c, h.admin.NewRequests, "new request listing failed")
}

// PendingQuotes renders the quotes awaiting customer approval.
func (h *AdminHandler) PendingQuotes(c echo.Context) error {
	return h.list(c, h.admin.PendingQuotes, "pending quote listing failed")
}

func (h *AdminHandler) list(c echo.Context, fetch func(context.Context, string) (json.RawMessage, error), msg string) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	requests, err := fetch(c.Request().Context(), token)
	if err != nil {
		h.log.Warn().Err(err).Msg(msg)
		return c.JSON(http.StatusOK, adminListResponse{Error: fetchMessage(err)})
	}
	return c.JSON(http.StatusOK, adminListResponse{Requests: requests})
}

type sendQuoteRequest struct {
	SolicitudID int64   `json:"solicitud_id" validate:"required"`
	Price       float64 `json:"precio_estimado" validate:"required,gt=0"`
	AdminNotes  string  `json:"notas_admin"`
}

// SendQuote attaches a price estimate to a request.
func (h *AdminHandler) SendQuote(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	var req sendQuoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.admin.SendQuote(c.Request().Context(), token, ports.QuoteInput{
		SolicitudID: req.SolicitudID,
		Price:       req.Price,
		AdminNotes:  req.AdminNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
}

type quoteDecisionRequest struct {
	AdminNotes string `json:"notas_admin"`
}

// ApproveQuote marks a quoted request approved.
func (h *AdminHandler) ApproveQuote(c echo.Context) error {
	return h.decide(c, h.admin.ApproveQuote, "approved")
}

// RejectQuote marks a quoted request rejected.
func (h *AdminHandler) RejectQuote(c echo.Context) error {
	return h.decide(c, h.admin.RejectQuote, "rejected")
}

func (h *AdminHandler) decide(c echo.Context, apply func(context.Context, string, int64, string) error, status string) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	solicitudID, err := strconv.ParseInt(c.Param("solicitud_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	var req quoteDecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := apply(c.Request().Context(), token, solicitudID, req.AdminNotes); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}
