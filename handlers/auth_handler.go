package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tupilaqs/auth"
	"tupilaqs/models"
	"tupilaqs/services"
	"tupilaqs/utils"
)

// Login signs a user in over HTTP, registering the name on first use, and
// hands back a token both in the body and as a cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.Quiz.GetOrCreateUser(r.Context(), creds.UserName, creds.Password)
	if errors.Is(err, services.ErrWrongPassword) {
		utils.SendError(w, http.StatusUnauthorized, services.WrongPasswordMessage)
		return
	}
	if errors.Is(err, services.ErrInvalidInput) {
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("login %q: %v", creds.UserName, err)
		utils.SendError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.Tokens.Generate(user.Ident, user.UserName)
	if err != nil {
		log.Printf("token for %q: %v", user.UserName, err)
		utils.SendError(w, http.StatusInternalServerError, "Could not create token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})

	utils.SendSuccess(w, "Login successful", map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if tokenString := auth.ExtractToken(r); tokenString != "" {
		h.Tokens.Revoke(tokenString)

		http.SetCookie(w, &http.Cookie{
			Name:     "token",
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}

	utils.SendSuccess(w, "Logged out", nil)
}
