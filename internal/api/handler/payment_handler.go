package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/ports"
)

// PaymentHandler serves the payment page for a quoted request.
type PaymentHandler struct {
	payments ports.PaymentAPI
	log      zerolog.Logger
}

func NewPaymentHandler(payments ports.PaymentAPI, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

type paymentPageResponse struct {
	SolicitudID  int64           `json:"solicitudId"`
	ExchangeRate json.RawMessage `json:"exchangeRate,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Show renders the payment view model, including the current exchange rate.
// A failed rate fetch degrades to an in-page error.
func (h *PaymentHandler) Show(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	solicitudID, err := strconv.ParseInt(c.Param("solicitud_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request id")
	}

	resp := paymentPageResponse{SolicitudID: solicitudID}
	rate, err := h.payments.ExchangeRate(c.Request().Context(), token)
	if err != nil {
		h.log.Warn().Err(err).Msg("exchange rate fetch failed")
		resp.Error = fetchMessage(err)
	} else {
		resp.ExchangeRate = rate
	}
	return c.JSON(http.StatusOK, resp)
}

type processPaymentRequest struct {
	SolicitudID int64   `json:"solicitud_id" validate:"required"`
	Amount      float64 `json:"monto" validate:"required,gt=0"`
	Method      string  `json:"metodo_pago" validate:"required"`
	Currency    string  `json:"moneda"`
	Reference   string  `json:"referencia"`
}

// Process submits the payment and sends the user back to their history.
func (h *PaymentHandler) Process(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	var req processPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.payments.ProcessPayment(c.Request().Context(), token, ports.PaymentInput{
		SolicitudID: req.SolicitudID,
		Amount:      req.Amount,
		Method:      req.Method,
		Currency:    req.Currency,
		Reference:   req.Reference,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": "/historial"})
}
