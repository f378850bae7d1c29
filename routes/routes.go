package routes

import (
	"github.com/contesthub/server/handlers"
	"github.com/contesthub/server/middleware"
	"github.com/contesthub/server/models"
	"github.com/contesthub/server/repositories"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Contest    *handlers.ContestHandler
	Payment    *handlers.PaymentHandler
	Submission *handlers.SubmissionHandler
	Stats      *handlers.StatsHandler
	WebSocket  *handlers.WebSocketHandler
}

// SetupRoutes wires the whole HTTP surface. Route groups share the
// bearer-token verifier; role gates re-read the user row per request,
// so role changes are effective immediately.
func SetupRoutes(
	router *chi.Mux,
	h Handlers,
	userRepo repositories.UserRepository,
	jwtSecret string,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	requireUser := middleware.RequireUser(userRepo)
	requireCreator := middleware.RequireRole(userRepo, models.RoleCreator)
	requireAdmin := middleware.RequireRole(userRepo, models.RoleAdmin)

	// Public surface
	router.Get("/", h.Health.Root)
	router.Get("/healthz", h.Health.Healthz)
	router.Post("/auth/jwt", h.Auth.IssueToken)
	router.Post("/users", h.User.SignUp)
	router.Get("/contests", h.Contest.List)
	router.Get("/contests/popular", h.Contest.Popular)
	router.Get("/leaderboard", h.Stats.Leaderboard)
	router.Get("/ws/contests/{contestID}", h.WebSocket.ServeWs)

	// Token-protected surface
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/users/admin/{email}", h.User.AdminProbe)
		r.Get("/users/creator/{email}", h.User.CreatorProbe)
		r.Get("/contests/{contestID}", h.Contest.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Patch("/users/{userID}", h.User.UpdateProfile)
			r.Patch("/contests/{contestID}", h.Contest.Update)
			r.Patch("/contests/winner/{contestID}", h.Contest.DeclareWinner)
			r.Delete("/contests/{contestID}", h.Contest.Delete)
			r.Post("/contests/{contestID}/image", h.Contest.UploadImage)
			r.Post("/payments/create-payment-intent", h.Payment.CreateIntent)
			r.Post("/payments", h.Payment.Record)
			r.Get("/payments/{email}", h.Payment.ListForUser)
			r.Post("/submissions", h.Submission.Submit)
			r.Get("/submissions/{contestID}", h.Submission.ListForContest)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireCreator)

			r.Post("/contests", h.Contest.Create)
			r.Get("/contests/my-contests", h.Contest.MyContests)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/users", h.User.List)
			r.Patch("/users/role/{userID}", h.User.UpdateRole)
			r.Patch("/contests/status/{contestID}", h.Contest.SetStatus)
			r.Get("/contests/admin/all", h.Contest.AdminListAll)
			r.Get("/stats", h.Stats.GetStats)
		})
	})
}
