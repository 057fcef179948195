package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/visitgate-api/internal/application/dailytask"
	"github.com/visitgate-api/internal/application/invite"
	"github.com/visitgate-api/internal/application/otp"
	"github.com/visitgate-api/internal/application/registration"
	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/config"
	"github.com/visitgate-api/internal/infrastructure/dynamo"
	"github.com/visitgate-api/internal/infrastructure/smtp"
	"github.com/visitgate-api/internal/infrastructure/verifier"
	"github.com/visitgate-api/internal/transport/http/handler"
	appmiddleware "github.com/visitgate-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Cache       cache.Store
	VisitorRepo *dynamo.VisitorRepo
	Mailer      smtp.Mailer
	Verifier    verifier.Verifier
	// DailyTask is built in main so the scheduler and the manual admin
	// trigger share one service (and therefore one lock key).
	DailyTask dailytask.Service
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(otp.ServiceDeps{Cache: deps.Cache, Mailer: deps.Mailer})
	inviteSvc := invite.NewService(invite.ServiceDeps{Cache: deps.Cache})
	regSvc := registration.NewService(registration.ServiceDeps{
		Cache:    deps.Cache,
		Visitors: deps.VisitorRepo,
		Invites:  inviteSvc,
		Verifier: deps.Verifier,
	})

	healthH := handler.NewHealthHandler()
	codeH := handler.NewCodeHandler(otpSvc)
	inviteH := handler.NewInvitationHandler(inviteSvc)
	regH := handler.NewRegistrationHandler(regSvc)
	taskH := handler.NewDailyTaskHandler(deps.DailyTask)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/codes", codeH.Issue)
		r.With(sensitiveRL.Limit).Post("/codes/verify", codeH.Verify)
		r.Get("/invitations/{token}", inviteH.Resolve)
		r.With(sensitiveRL.Limit).Post("/registrations", regH.Submit)
		r.Get("/registrations/{transactionID}", regH.Poll)

		// ── Admin routes (static API key) ────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAPIKey(cfg.AdminAPIKey))

			r.Post("/invitations", inviteH.Create)
			r.Get("/invitations", inviteH.List)
			r.Post("/daily-task/run", taskH.Run)
		})
	})

	return r
}
