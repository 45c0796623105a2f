package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
	"github.com/juthworks/webapp/internal/core/service"
)

// SettingsHandler serves the account settings page: UI preferences, the
// onboarding replay switch, and account deletion.
type SettingsHandler struct {
	sessions ports.SessionStore
	users    ports.UserAPI
	flow     *service.OnboardingService
	cookie   CookieConfig
	log      zerolog.Logger
}

func NewSettingsHandler(sessions ports.SessionStore, users ports.UserAPI, flow *service.OnboardingService, cookie CookieConfig, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{sessions: sessions, users: users, flow: flow, cookie: cookie, log: log}
}

type settingsResponse struct {
	User     *domain.User `json:"user"`
	DarkMode bool         `json:"darkMode"`
}

// Show renders the settings view model.
func (h *SettingsHandler) Show(c echo.Context) error {
	user, _, err := requireUser(c)
	if err != nil {
		return err
	}

	dark, err := h.sessions.Get(c.Request().Context(), currentSID(c), ports.KeyDarkMode)
	if err != nil {
		h.log.Warn().Err(err).Msg("dark mode flag unreadable")
	}
	return c.JSON(http.StatusOK, settingsResponse{User: user, DarkMode: dark == "true"})
}

type darkModeRequest struct {
	Enabled bool `json:"enabled"`
}

// SetDarkMode persists the theme preference for this session.
func (h *SettingsHandler) SetDarkMode(c echo.Context) error {
	if _, _, err := requireUser(c); err != nil {
		return err
	}

	var req darkModeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	value := "false"
	if req.Enabled {
		value = "true"
	}
	if err := h.sessions.Set(c.Request().Context(), currentSID(c), ports.KeyDarkMode, value); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"darkMode": req.Enabled})
}

type resetOnboardingResponse struct {
	Synced   bool   `json:"synced"`
	Redirect string `json:"redirect"`
}

// ResetOnboarding flips the completed flag back so the tour plays again. The
// response reports whether the backend accepted the change; the local reset
// holds either way.
func (h *SettingsHandler) ResetOnboarding(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	synced, err := h.flow.Reset(c.Request().Context(), currentSID(c), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resetOnboardingResponse{
		Synced:   synced,
		Redirect: service.OnboardingPath,
	})
}

// DeleteAccount removes the account on the backend, then tears the session
// down. Once the backend confirms deletion there is no identity left to keep a
// session for, so teardown failures only get logged.
func (h *SettingsHandler) DeleteAccount(c echo.Context) error {
	_, token, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.users.DeleteAccount(c.Request().Context(), token); err != nil {
		return err
	}

	if sid := currentSID(c); sid != "" {
		if err := h.sessions.Logout(c.Request().Context(), sid); err != nil {
			h.log.Warn().Err(err).Msg("session teardown after account deletion failed")
		}
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.LoginPath})
}
