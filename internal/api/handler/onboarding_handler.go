package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/juthworks/webapp/internal/api/metrics"
	"github.com/juthworks/webapp/internal/core/service"
)

// OnboardingHandler serves the introductory tour shown before first use.
type OnboardingHandler struct {
	flow *service.OnboardingService
}

func NewOnboardingHandler(flow *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{flow: flow}
}

type onboardingResponse struct {
	Step        int    `json:"step"`
	TotalSteps  int    `json:"totalSteps"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Show returns the current step of the tour.
//
// @Summary      Current onboarding step
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  onboardingResponse
// @Router       /onboarding [get]
func (h *OnboardingHandler) Show(c echo.Context) error {
	step, err := h.flow.Step(c.Request().Context(), currentSID(c))
	if err != nil {
		return err
	}
	return h.respond(c, step)
}

// Next advances to the following step.
func (h *OnboardingHandler) Next(c echo.Context) error {
	step, err := h.flow.Advance(c.Request().Context(), currentSID(c))
	if err != nil {
		return err
	}
	return h.respond(c, step)
}

// Previous goes back one step.
func (h *OnboardingHandler) Previous(c echo.Context) error {
	step, err := h.flow.Back(c.Request().Context(), currentSID(c))
	if err != nil {
		return err
	}
	return h.respond(c, step)
}

// Skip abandons the tour. Same effect as finishing it: the flag is set
// locally, the backend is told best-effort, the user lands on the dashboard.
func (h *OnboardingHandler) Skip(c echo.Context) error {
	return h.complete(c, "skip")
}

// Finish completes the tour from its last step.
func (h *OnboardingHandler) Finish(c echo.Context) error {
	return h.complete(c, "finish")
}

func (h *OnboardingHandler) complete(c echo.Context, via string) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.flow.Finish(c.Request().Context(), currentSID(c), token); err != nil {
		return err
	}
	metrics.OnboardingCompletedTotal.WithLabelValues(via).Inc()
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.DefaultPath})
}

func (h *OnboardingHandler) respond(c echo.Context, step int) error {
	steps := h.flow.Steps()
	cur := steps[step]
	return c.JSON(http.StatusOK, onboardingResponse{
		Step:        step,
		TotalSteps:  len(steps),
		Title:       cur.Title,
		Description: cur.Description,
	})
}
