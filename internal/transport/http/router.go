package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/walleto-api/internal/config"
	"github.com/walleto-api/internal/transport/http/handler"
	appmiddleware "github.com/walleto-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. The returned closer stops
// background work owned by the router's middleware.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, func()) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.ClientIP(cfg.TrustedProxies))
	r.Use(appmiddleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Deprecation"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, per client IP on the public auth and OTP routes.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(deps.Auth)
	otpH := handler.NewOTPHandler(deps.Auth, deps.OTP)
	deviceH := handler.NewDeviceHandler(deps.Devices)
	userH := handler.NewUserHandler(deps.Users)
	ledgerH := handler.NewLedgerHandler(deps.Ledger)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)

			r.Post("/auth/signin", authH.Signin)
			r.Post("/auth/signup/request-otp", authH.SignupRequestOTP)
			r.Post("/auth/signup/verify", authH.SignupVerify)
			r.Post("/auth/signin/request-otp", authH.SigninRequestOTP)
			r.Post("/auth/signin/verify", authH.SigninVerify)
			r.Post("/auth/forgot-password/request-otp", authH.ForgotPasswordRequestOTP)
			r.Post("/auth/forgot-password/reset", authH.ForgotPasswordReset)
			r.Post("/auth/google", authH.Google)

			r.Post("/otp/generate", otpH.Generate)
			r.Post("/otp/verify", otpH.Verify)
			r.Post("/otp/resend", otpH.Resend)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/change-password", authH.ChangePassword)
			r.Get("/auth/me", userH.Me)
			r.Put("/auth/me", userH.UpdateMe)
			r.Get("/auth/me/avatar", userH.Avatar)
			r.Put("/auth/me/avatar", userH.SetAvatar)
			r.Delete("/auth/me/avatar", userH.DeleteAvatar)
			r.Get("/auth/devices", deviceH.List)
			r.Post("/auth/devices/revoke", deviceH.Revoke)

			r.Get("/dashboard", ledgerH.Dashboard)

			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", ledgerH.CreateAccount)
				r.Get("/", ledgerH.ListAccounts)
				r.Get("/{id}", ledgerH.GetAccount)
				r.Put("/{id}", ledgerH.UpdateAccount)
				r.Delete("/{id}", ledgerH.DeleteAccount)
			})
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", ledgerH.CreateCategory)
				r.Get("/", ledgerH.ListCategories)
				r.Get("/{id}", ledgerH.GetCategory)
				r.Put("/{id}", ledgerH.UpdateCategory)
				r.Delete("/{id}", ledgerH.DeleteCategory)
			})
			r.Route("/budgets", func(r chi.Router) {
				r.Post("/", ledgerH.CreateBudget)
				r.Get("/", ledgerH.ListBudgets)
				r.Get("/{id}", ledgerH.GetBudget)
				r.Put("/{id}", ledgerH.UpdateBudget)
				r.Delete("/{id}", ledgerH.DeleteBudget)
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", ledgerH.CreateTransaction)
				r.Get("/", ledgerH.ListTransactions)
				r.Get("/summary/monthly", ledgerH.MonthlySummary)
				r.Get("/{id}", ledgerH.GetTransaction)
				r.Put("/{id}", ledgerH.UpdateTransaction)
				r.Delete("/{id}", ledgerH.DeleteTransaction)
			})
		})
	})

	return r, sensitiveRL.Close
}
