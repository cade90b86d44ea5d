package handlers

import (
	"context"
	"net/http"
	"time"

	"tupilaqs/auth"
	appmiddleware "tupilaqs/middleware"
	"tupilaqs/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router maps URL paths to the landing page, the quiz socket and the JSON API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.SendError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("WebSocket Quiz - Bug, Feature or Tupilaqs"))
	})
	r.Get("/healthz", h.Health)
	r.Get("/quiz", h.QuizSocket)

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Get("/questions", h.GetQuestions)
	r.Get("/questions/top", h.GetTopQuestion)
	r.Get("/questions/{ident}/explanation", h.GetExplanation)

	r.Group(func(r chi.Router) {
		r.Use(auth.JwtVerify(h.Tokens, h.Quiz))

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)
		r.Put("/profile/password", h.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAdmin)
			r.Put("/admin/questions/{ident}", h.UpdateQuestion)
			r.Delete("/admin/questions/{ident}", h.DeleteQuestion)
			r.Get("/admin/users", h.GetAllUsers)
			r.Delete("/admin/users/{ident}", h.DeleteUser)
			r.Put("/admin/users/{ident}/admin", h.AssignAdmin)
			r.Delete("/admin/users/{ident}/admin", h.RemoveAdmin)
		})
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		utils.SendError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	utils.SendSuccess(w, "ok", map[string]int{"clients": h.Hub.Len()})
}
