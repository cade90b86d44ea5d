package handlers

import (
	"errors"
	"log"
	"net/http"

	"tupilaqs/services"
	"tupilaqs/utils"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Quiz.ListUsers(r.Context())
	if err != nil {
		log.Printf("list users: %v", err)
		utils.SendError(w, http.StatusInternalServerError, "Error fetching users")
		return
	}

	utils.SendSuccess(w, "Users fetched successfully", users)
}

// AssignAdmin gives a user admin rights.
func (h *Handler) AssignAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, true)
}

// RemoveAdmin takes admin rights away again.
func (h *Handler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, false)
}

func (h *Handler) setAdmin(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	ident := chi.URLParam(r, "ident")

	user, err := h.Quiz.SetAdmin(r.Context(), ident, isAdmin)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.SendError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("set admin %s=%t: %v", ident, isAdmin, err)
		utils.SendError(w, http.StatusInternalServerError, "Error updating user")
		return
	}

	utils.SendSuccess(w, "User updated successfully", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	err := h.Quiz.DeleteUser(r.Context(), ident)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.SendError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("delete user %s: %v", ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error deleting user")
		return
	}

	utils.SendSuccess(w, "User deleted", nil)
}
