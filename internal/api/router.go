package api

import (
	"context"
	"net/http"
	"time"

	"codeprep/internal/api/handler"
	"codeprep/internal/api/middleware"
	"codeprep/internal/app/service"
	"codeprep/internal/common"
	"codeprep/internal/common/security"
	"codeprep/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Services struct {
	Auth       *service.AuthService
	User       *service.UserService
	Problem    *service.ProblemService
	Submission *service.SubmissionService
	Interview  *service.InterviewService
	Community  *service.CommunityService
	Payment    *service.PaymentService
}

type Options struct {
	AllowedOrigins  []string
	Cookie          handler.CookieConfig
	AuthProxySecret string
	// Health reports dependency health for /health; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(svc Services, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(middleware.Verifier(security.TokenAuth, opts.Cookie.Name))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				common.RespondWithError(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		common.RespondWithMessage(w, http.StatusOK, "OK")
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(svc.Auth, opts.Cookie, opts.AuthProxySecret)
		v1.Route("/auth", authHandler.RegisterRoutes)

		problemHandler := handler.NewProblemHandler(svc.Problem)
		submissionHandler := handler.NewSubmissionHandler(svc.Submission)
		v1.Route("/problems", func(pr chi.Router) {
			problemHandler.RegisterRoutes(pr)
			submissionHandler.RegisterProblemRoutes(pr)
		})
		v1.Route("/submissions", submissionHandler.RegisterRoutes)

		communityHandler := handler.NewCommunityHandler(svc.Community)
		v1.Route("/community", communityHandler.RegisterRoutes)

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.Authenticator)

			userHandler := handler.NewUserHandler(svc.User)
			authed.Route("/users", userHandler.RegisterRoutes)

			interviewHandler := handler.NewInterviewHandler(svc.Interview)
			authed.Route("/interviews", interviewHandler.RegisterRoutes)

			paymentHandler := handler.NewPaymentHandler(svc.Payment)
			authed.Route("/payments", paymentHandler.RegisterRoutes)
		})
	})

	return r
}
