package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stakeq/stakeq/internal/handlers"
)

func Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handlers.WithAuth)

	// Public
	r.Get("/healthz", handlers.Health)
	r.Post("/api/login", handlers.Login)
	r.Get("/qr/{id}.png", handlers.QR)

	// Any authenticated user
	r.Group(func(au chi.Router) {
		au.Use(handlers.RequireAuth)

		au.Get("/api/users/me", handlers.Me)
		au.Get("/api/users/me/session", handlers.MySession)

		au.Post("/api/sessions", handlers.CreateSession)
		au.Get("/api/sessions/{id}", handlers.GetSession)
		au.Patch("/api/sessions/{id}", handlers.PatchSession)
		au.Post("/api/sessions/{id}/answers", handlers.CreateAnswer)
	})

	// Admin only
	r.Group(func(ad chi.Router) {
		ad.Use(handlers.RequireAdmin)

		ad.Get("/api/questionnaires", handlers.ListQuestionnaires)
		ad.Post("/api/questionnaires", handlers.CreateQuestionnaire)
		ad.Get("/api/questionnaires/{id}", handlers.GetQuestionnaire)
		ad.Delete("/api/questionnaires/{id}", handlers.DeleteQuestionnaire)

		ad.Get("/api/users", handlers.ListUsers)
		ad.Post("/api/users", handlers.CreateUser)
		ad.Patch("/api/users/{id}", handlers.UpdateUser)
		ad.Post("/api/users/{id}/assign", handlers.AssignUser)
		ad.Post("/api/users/{id}/remind", handlers.RemindUser)
		ad.Get("/api/users/{id}/report", handlers.UserReport)

		ad.Get("/api/responses", handlers.ListResponses)
		ad.Get("/api/dashboard/stats", handlers.DashboardStats)
		ad.Get("/api/dashboard/activity", handlers.RecentActivity)
	})

	return r
}
