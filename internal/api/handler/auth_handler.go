package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/juthworks/webapp/internal/api/metrics"
	"github.com/juthworks/webapp/internal/core/ports"
	"github.com/juthworks/webapp/internal/core/service"
)

// CookieConfig describes the session cookie the gateway issues at login.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles account entry and exit: login, registration, email
// verification, password recovery, logout.
type AuthHandler struct {
	auth     ports.AuthAPI
	sessions ports.SessionStore
	cookie   CookieConfig
	// tokenTTL maps a freshly issued credential to the session lifetime.
	tokenTTL func(token string) time.Duration
}

func NewAuthHandler(auth ports.AuthAPI, sessions ports.SessionStore, cookie CookieConfig, tokenTTL func(string) time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, cookie: cookie, tokenTTL: tokenTTL}
}

type loginRequest struct {
	Username string `json:"usuario" validate:"required"`
	Password string `json:"contrasena" validate:"required"`
	UserType string `json:"tipo_usuario"`
}

type loginResponse struct {
	User     json.RawMessage `json:"user"`
	Redirect string          `json:"redirect"`
}

// Login authenticates against the backend and establishes the session.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.auth.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Password: req.Password,
		UserType: req.UserType,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	// A fresh session ID on every login: nothing from a previous session
	// (or a fixated cookie) carries over into the new identity.
	sid := uuid.NewString()
	if err := h.sessions.Login(c.Request().Context(), sid, res.RawUser, res.Token); err != nil {
		return err
	}
	h.setCookie(c, sid, h.tokenTTL(res.Token))
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	target := service.DefaultPath
	if res.User.IsAdmin() {
		target = "/admin"
	}
	return c.JSON(http.StatusOK, loginResponse{User: res.RawUser, Redirect: target})
}

type registerRequest struct {
	NationalID     string `json:"cedula" validate:"required"`
	FirstName      string `json:"primer_nombre" validate:"required"`
	MiddleName     string `json:"segundo_nombre"`
	LastName       string `json:"primer_apellido" validate:"required"`
	SecondLastName string `json:"segundo_apellido"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"telefono"`
	Address        string `json:"direccion"`
	Username       string `json:"usuario" validate:"required"`
	Password       string `json:"contrasena" validate:"required,min=8"`
	UserType       string `json:"tipo_usuario"`
}

type registerResponse struct {
	NeedsVerification bool   `json:"needsVerification"`
	Redirect          string `json:"redirect"`
}

// Register creates an account and routes the user to verification or login.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      200   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		NationalID:     req.NationalID,
		FirstName:      req.FirstName,
		MiddleName:     req.MiddleName,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		Username:       req.Username,
		Password:       req.Password,
		UserType:       req.UserType,
	})
	if err != nil {
		return err
	}

	resp := registerResponse{NeedsVerification: res.NeedsVerification, Redirect: service.LoginPath}
	if res.NeedsVerification {
		if res.UserID == 0 {
			return echo.NewHTTPError(http.StatusBadGateway, "backend did not return a user id for verification")
		}
		resp.Redirect = fmt.Sprintf("/verify-email?userId=%d", res.UserID)
	}
	return c.JSON(http.StatusOK, resp)
}

type verifyEmailRequest struct {
	UserID int64  `json:"userId" validate:"required"`
	Code   string `json:"verificationCode" validate:"required"`
}

// VerifyEmail confirms the code mailed after registration.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.auth.VerifyEmail(c.Request().Context(), req.UserID, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.LoginPath})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword requests a recovery code for the given address.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.LoginPath})
}

type resetPasswordRequest struct {
	UserID      int64  `json:"userId" validate:"required"`
	Code        string `json:"verificationCode" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetPassword sets a new password using a recovery code.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.UserID, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.LoginPath})
}

// Logout tears the session down. Safe to call when already logged out.
func (h *AuthHandler) Logout(c echo.Context) error {
	if sid := currentSID(c); sid != "" {
		if err := h.sessions.Logout(c.Request().Context(), sid); err != nil {
			return err
		}
	}
	h.setCookie(c, "", -time.Second)
	return c.JSON(http.StatusOK, map[string]string{"redirect": service.LoginPath})
}

func (h *AuthHandler) setCookie(c echo.Context, sid string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
