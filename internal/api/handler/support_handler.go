package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/juthworks/webapp/internal/core/ports"
)

// SupportHandler forwards support messages to the backend inbox.
type SupportHandler struct {
	support ports.SupportAPI
}

func NewSupportHandler(support ports.SupportAPI) *SupportHandler {
	return &SupportHandler{support: support}
}

type supportRequest struct {
	Subject string `json:"asunto" validate:"required"`
	Message string `json:"mensaje" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// Send submits a support message.
func (h *SupportHandler) Send(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	var req supportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.support.SendSupportMessage(c.Request().Context(), token, ports.SupportMessage{
		Subject: req.Subject,
		Message: req.Message,
		Email:   req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
}
