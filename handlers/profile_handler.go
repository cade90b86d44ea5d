package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tupilaqs/auth"
	"tupilaqs/services"
	"tupilaqs/utils"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "Login required")
		return
	}

	info, err := h.Quiz.UserInfo(r.Context(), user.Ident)
	if err != nil {
		log.Printf("profile %s: %v", user.Ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error fetching profile")
		return
	}

	utils.SendSuccess(w, "Profile fetched successfully", map[string]interface{}{
		"user": user,
		"info": info,
	})
}

// UpdateProfile renames the logged in user.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "Login required")
		return
	}

	var updateData struct {
		UserName string `json:"user_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&updateData); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.Quiz.RenameUser(r.Context(), user.Ident, updateData.UserName)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrUserNameTaken):
		utils.SendError(w, http.StatusConflict, "User name is already taken")
		return
	case err != nil:
		log.Printf("update profile %s: %v", user.Ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	utils.SendSuccess(w, "Profile updated successfully", updated)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "Login required")
		return
	}

	var passwordData struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&passwordData); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Quiz.ChangePassword(r.Context(), user.Ident, passwordData.CurrentPassword, passwordData.NewPassword)
	switch {
	case errors.Is(err, services.ErrWrongPassword):
		utils.SendError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	case errors.Is(err, services.ErrInvalidInput):
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("change password %s: %v", user.Ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error updating password")
		return
	}

	utils.SendSuccess(w, "Password changed successfully", nil)
}
