package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/juthworks/webapp/internal/api/handler"
	"github.com/juthworks/webapp/internal/api/middleware"
	"github.com/juthworks/webapp/internal/core/domain"
	"github.com/juthworks/webapp/internal/core/ports"
	"github.com/juthworks/webapp/internal/core/service"
	"github.com/juthworks/webapp/internal/infrastructure/backend"
	"github.com/juthworks/webapp/internal/infrastructure/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil when sessions run in memory; it is only used by the
// readiness probe.
func NewRouter(cfg *config.Config, sessions ports.SessionStore, rdb *redis.Client, client ports.BackendClient, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("juthworks"))
	e.Use(middleware.Session(cfg.Session.CookieName, sessions, log))

	// --- Dependencies ---
	cookie := handler.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}
	tokenTTL := func(token string) time.Duration {
		return backend.TokenTTL(token, cfg.Session.TTL)
	}
	flow := service.NewOnboardingService(sessions, client, log)

	authHandler := handler.NewAuthHandler(client, sessions, cookie, tokenTTL)
	onboardingHandler := handler.NewOnboardingHandler(flow)
	dashboardHandler := handler.NewDashboardHandler(client, log)
	servicesHandler := handler.NewServicesHandler(client, log)
	commentsHandler := handler.NewCommentsHandler(client, log)
	supportHandler := handler.NewSupportHandler(client)
	paymentHandler := handler.NewPaymentHandler(client, log)
	settingsHandler := handler.NewSettingsHandler(sessions, client, flow, cookie, log)
	adminHandler := handler.NewAdminHandler(client, log)

	// --- Operational endpoints ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(rdb, client.Ping)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Public pages and account actions ---
	// The POST actions are throttled per client IP; credential endpoints are
	// the ones worth brute-forcing.
	limiter := echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStoreWithConfig(
		echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(cfg.AuthRPS),
			Burst: cfg.AuthBurst,
		},
	))

	e.GET(service.LoginPath, handler.PublicPage("login", service.DefaultPath))
	e.GET("/register", handler.PublicPage("register", service.DefaultPath))
	e.GET("/verify-email", handler.PublicPage("verify-email", service.DefaultPath))
	e.GET("/forgot-password", handler.PublicPage("forgot-password", service.DefaultPath))
	e.GET("/reset-password", handler.PublicPage("reset-password", service.DefaultPath))

	e.POST(service.LoginPath, authHandler.Login, limiter)
	e.POST("/register", authHandler.Register, limiter)
	e.POST("/verify-email", authHandler.VerifyEmail, limiter)
	e.POST("/forgot-password", authHandler.ForgotPassword, limiter)
	e.POST("/reset-password", authHandler.ResetPassword, limiter)
	e.POST("/logout", authHandler.Logout)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, service.DefaultPath)
	})

	// --- Gated navigation (any authenticated user) ---
	user := e.Group("", middleware.Gate(service.Route{}))

	user.GET(service.DefaultPath, dashboardHandler.Show)
	user.GET("/historial", dashboardHandler.History)

	user.GET(service.OnboardingPath, onboardingHandler.Show)
	user.POST(service.OnboardingPath+"/next", onboardingHandler.Next)
	user.POST(service.OnboardingPath+"/previous", onboardingHandler.Previous)
	user.POST(service.OnboardingPath+"/skip", onboardingHandler.Skip)
	user.POST(service.OnboardingPath+"/finish", onboardingHandler.Finish)

	user.GET("/services", servicesHandler.List)
	user.POST("/services/request", servicesHandler.Request)
	user.POST("/services/:solicitud_id/photos", servicesHandler.UploadPhotos)

	user.GET("/comments", commentsHandler.List)
	user.POST("/comments", commentsHandler.Create)
	user.PUT("/comments/:comment_id", commentsHandler.Update)
	user.DELETE("/comments/:comment_id", commentsHandler.Delete)

	user.POST("/support", supportHandler.Send)

	user.GET("/payment/:solicitud_id", paymentHandler.Show)
	user.POST("/payment", paymentHandler.Process)

	user.GET("/settings", settingsHandler.Show)
	user.POST("/settings/dark-mode", settingsHandler.SetDarkMode)
	user.POST("/settings/reset-onboarding", settingsHandler.ResetOnboarding)
	user.DELETE("/settings/account", settingsHandler.DeleteAccount)

	// --- Administrator triage ---
	admin := e.Group("/admin", middleware.Gate(service.Route{RequiredRole: domain.RoleAdministrator}))

	admin.GET("", adminHandler.Dashboard)
	admin.GET("/solicitudes-nuevas", adminHandler.NewRequests)
	admin.GET("/presupuestos-pendientes", adminHandler.PendingQuotes)
	admin.POST("/enviar-presupuesto", adminHandler.SendQuote)
	admin.POST("/aprobar-presupuesto/:solicitud_id", adminHandler.ApproveQuote)
	admin.POST("/rechazar-presupuesto/:solicitud_id", adminHandler.RejectQuote)

	return e
}
