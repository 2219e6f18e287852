package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-todo-api/internal/config"
	"go-todo-api/internal/handler"
	"go-todo-api/internal/metrics"
	"go-todo-api/internal/middleware"
	"go-todo-api/internal/model"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Todo   *handler.TodoHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, m *metrics.Metrics, h Handlers) http.Handler {
	prefix := "/" + strings.Trim(cfg.APIPathPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, prefix+"/auth/users/")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging(nil))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(m.Middleware)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	access := authMiddleware.Authenticate(model.TokenAccess)
	refresh := authMiddleware.Authenticate(model.TokenRefresh)
	active := authMiddleware.RequireActive
	admin := authMiddleware.RequireRoles(model.RoleAdmin)
	member := authMiddleware.RequireRoles(model.RoleUser, model.RoleAdmin)

	mount := func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Get("/healthchecks", h.Health.Check)

		api.Route("/auth/users", func(users chi.Router) {
			users.Post("/signup", h.Auth.Signup)
			users.Post("/login", h.Auth.Login)
			users.With(refresh, active).Get("/refresh-token", h.Auth.Refresh)
			users.With(access).Get("/logout", h.Auth.Logout)
			users.Get("/verify/{token}", h.Auth.VerifyEmail)
			users.With(access, active).Post("/verify/resend", h.Auth.ResendVerification)
			users.Post("/password-reset", h.Auth.RequestPasswordReset)
			users.Post("/password-reset-confirm/{token}", h.Auth.ConfirmPasswordReset)

			users.With(access, active, admin).Get("/", h.User.List)
			users.With(access, active, admin).Post("/register", h.User.Provision)
			users.With(access, active).Get("/profile", h.User.Profile)
			users.With(access).Get("/profile/activate", h.User.Activate)
			users.With(access, active).Get("/profile/deactivate", h.User.Deactivate)

			users.Group(func(self chi.Router) {
				self.Use(access, active, member)
				self.Get("/{id}", h.User.Get)
				self.Put("/{id}", h.User.Update)
				self.Delete("/{id}", h.User.Delete)
			})
		})

		api.Group(func(todos chi.Router) {
			todos.Use(access, active, member)

			todos.Get("/todolists", h.Todo.ListLists)
			todos.Post("/todolists", h.Todo.CreateList)
			todos.Get("/todolists/{id}", h.Todo.GetList)
			todos.Put("/todolists/{id}", h.Todo.UpdateList)
			todos.Delete("/todolists/{id}", h.Todo.DeleteList)

			todos.Get("/todoitems", h.Todo.ListItems)
			todos.Post("/todoitems", h.Todo.CreateItem)
			todos.Get("/todoitems/{id}", h.Todo.GetItem)
			todos.Put("/todoitems/{id}", h.Todo.UpdateItem)
			todos.Delete("/todoitems/{id}", h.Todo.DeleteItem)
		})
	}

	if prefix == "" {
		r.Group(mount)
	} else {
		r.Route(prefix, mount)
	}

	return r
}
