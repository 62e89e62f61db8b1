package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/vitatrack/vitatrack-backend/internal/handlers"
	"github.com/vitatrack/vitatrack-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.With(middleware.RequireAuth).Get("/api/auth/me", handlers.Me)

	// Activity routes (owner-scoped)
	r.Route("/api/activities", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handlers.GetActivities)
		r.Post("/", handlers.CreateActivity)
		r.Get("/range", handlers.GetActivitiesByRange)
		r.Put("/{id}", handlers.UpdateActivity)
		r.Delete("/{id}", handlers.DeleteActivity)
	})

	// Message routes
	r.Route("/api/messages", func(r chi.Router) {
		r.With(middleware.RequireAdmin).Post("/send", handlers.SendMessage)
		r.With(middleware.RequireAdmin).Post("/broadcast", handlers.Broadcast)
		r.With(middleware.RequireAdmin).Get("/all", handlers.GetAllMessages)
		r.With(middleware.RequireAdmin).Delete("/{id}", handlers.DeleteMessage)
		r.With(middleware.RequireAuth).Get("/my-messages", handlers.GetMyMessages)
		r.With(middleware.RequireAuth).Put("/{id}/read", handlers.MarkMessageRead)
		r.With(middleware.RequireAuth).Post("/attachments", handlers.UploadAttachment)
	})

	// Admin dashboard and user management
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/dashboard", handlers.GetDashboardStats)
		r.Get("/users", handlers.GetUsers)
		r.Get("/users/{id}", handlers.GetUserByID)
		r.Put("/users/{id}", handlers.UpdateUser)
		r.Delete("/users/{id}", handlers.DeleteUser)
	})

	// Progress routes are intentionally unauthenticated; see handlers/progress.go
	r.Route("/api/progress", func(r chi.Router) {
		r.Get("/user/{userId}", handlers.GetProgressByUser)
		r.Post("/", handlers.CreateProgress)
		r.Patch("/{id}", handlers.UpdateProgress)
		r.Delete("/{id}", handlers.DeleteProgress)
	})

	// WebSocket endpoint for realtime message notifications
	r.Get("/ws/messages", handlers.MessagesWebSocket)
}
