package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/api/handlers"
	"github.com/felixgeelhaar/codemastery/internal/api/middleware"
)

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux      *http.ServeMux
	app      *App
	auth     *handlers.AuthHandler
	users    *handlers.UserHandler
	catalog  *handlers.CatalogHandler
	progress *handlers.ProgressHandler
	exercise *handlers.ExerciseHandler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(app *App) http.Handler {
	r := &Router{
		mux:      http.NewServeMux(),
		app:      app,
		auth:     handlers.NewAuthHandler(app.Auth),
		users:    handlers.NewUserHandler(app.Users),
		catalog:  handlers.NewCatalogHandler(app.Catalog),
		progress: handlers.NewProgressHandler(app.Progress),
		exercise: handlers.NewExerciseHandler(app.Grading),
	}

	r.registerRoutes()

	return r.buildMiddlewareChain(r.mux)
}

func (r *Router) registerRoutes() {
	r.mux.HandleFunc("GET /{$}", r.handleInfo)
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Auth
	r.mux.HandleFunc("POST /auth/register", r.auth.Register)
	r.mux.HandleFunc("POST /auth/login", r.auth.Login)
	r.mux.HandleFunc("GET /auth/me", r.auth.RequireAuth(r.auth.Me))

	// Users
	r.mux.HandleFunc("GET /users", r.users.List)
	r.mux.HandleFunc("GET /users/{id}", r.users.Get)
	r.mux.HandleFunc("PUT /users/{id}", r.users.Update)
	r.mux.HandleFunc("DELETE /users/{id}", r.users.Delete)

	// Courses
	r.mux.HandleFunc("GET /courses", r.catalog.ListCourses)
	r.mux.HandleFunc("POST /courses", r.catalog.CreateCourse)
	r.mux.HandleFunc("GET /courses/{id}", r.catalog.GetCourse)
	r.mux.HandleFunc("PUT /courses/{id}", r.catalog.UpdateCourse)
	r.mux.HandleFunc("DELETE /courses/{id}", r.catalog.DeleteCourse)
	r.mux.HandleFunc("GET /courses/{course_id}/modules", r.catalog.ListModules)

	// Modules
	r.mux.HandleFunc("POST /modules", r.catalog.CreateModule)
	r.mux.HandleFunc("GET /modules/{id}", r.catalog.GetModule)
	r.mux.HandleFunc("PUT /modules/{id}", r.catalog.UpdateModule)
	r.mux.HandleFunc("DELETE /modules/{id}", r.catalog.DeleteModule)
	r.mux.HandleFunc("GET /modules/{module_id}/lessons", r.catalog.ListLessons)

	// Lessons
	r.mux.HandleFunc("POST /lessons", r.catalog.CreateLesson)
	r.mux.HandleFunc("GET /lessons/{id}", r.catalog.GetLesson)
	r.mux.HandleFunc("PUT /lessons/{id}", r.catalog.UpdateLesson)
	r.mux.HandleFunc("DELETE /lessons/{id}", r.catalog.DeleteLesson)

	// Progress
	r.mux.HandleFunc("GET /progress", r.progress.List)
	r.mux.HandleFunc("POST /progress", r.progress.Create)
	r.mux.HandleFunc("GET /progress/{user_id}", r.progress.ByUser)
	r.mux.HandleFunc("GET /progress/module/{module_id}", r.progress.ByModule)
	r.mux.HandleFunc("GET /progress/status/{status}", r.progress.ByStatus)
	r.mux.HandleFunc("GET /progress/date-range", r.progress.ByDateRange)
	r.mux.HandleFunc("GET /progress/completion/{module_id}", r.progress.Completion)
	r.mux.HandleFunc("GET /progress/completed/{module_id}", r.progress.Completed)
	r.mux.HandleFunc("GET /progress/incomplete/{module_id}", r.progress.Incomplete)
	r.mux.HandleFunc("GET /progress/summary/{user_id}", r.progress.Summary)
	r.mux.HandleFunc("PUT /progress/{user_id}/{module_id}", r.progress.Update)
	r.mux.HandleFunc("DELETE /progress/{user_id}/{module_id}", r.progress.Delete)

	// Exercises
	r.mux.HandleFunc("POST /exercises/{lesson_id}/submit", r.exercise.Submit)
	r.mux.HandleFunc("GET /exercises/attempts", r.exercise.ListAttempts)
	r.mux.HandleFunc("GET /exercises/{lesson_id}/latest", r.exercise.LatestAttempt)
	r.mux.HandleFunc("DELETE /exercises/attempts/{id}", r.exercise.DeleteAttempt)

	// Unmatched paths get the JSON envelope instead of the mux's plain text
	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		handlers.WriteError(w, req, http.StatusNotFound, handlers.NewAPIError(handlers.CodeNotFound, "route not found"))
	})
}

func (r *Router) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last applied = first executed)
	if r.app.Config.RequestTimeout > 0 {
		handler = middleware.Timeout(r.app.Config.RequestTimeout)(handler)
	}
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)

	// Apply rate limiting (skip in debug mode for easier development)
	if !r.app.Config.Debug && r.app.Limiter != nil {
		handler = middleware.RateLimit(r.app.Limiter)(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.CORS(handler)

	return handler
}

func (r *Router) handleInfo(w http.ResponseWriter, req *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "CodeMastery API",
		"version": Version,
		"routes": map[string]string{
			"auth":      "/auth/register, /auth/login, /auth/me",
			"users":     "/users",
			"courses":   "/courses",
			"modules":   "/modules",
			"lessons":   "/lessons",
			"progress":  "/progress",
			"exercises": "/exercises",
			"health":    "/health, /ready",
		},
	})
}

// Health check handlers
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if err := r.app.DB.PingContext(req.Context()); err != nil {
		slog.Error("database health check failed",
			"error", err,
			"request_id", middleware.GetRequestID(req.Context()),
		)
		handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not ready",
			"checks": map[string]string{
				"database": "unhealthy",
			},
		})
		return
	}

	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}
