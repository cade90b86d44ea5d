package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"tupilaqs/models"
	"tupilaqs/services"
	"tupilaqs/utils"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxListLimit {
			utils.SendError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	questions, err := h.Quiz.ListQuestions(r.Context(), limit)
	if err != nil {
		log.Printf("list questions: %v", err)
		utils.SendError(w, http.StatusInternalServerError, "Error fetching questions")
		return
	}

	utils.SendSuccess(w, "Questions fetched successfully", questions)
}

// GetTopQuestion returns the most voted question, or the least voted one with
// ?order=asc.
func (h *Handler) GetTopQuestion(w http.ResponseWriter, r *http.Request) {
	desc := true
	switch r.URL.Query().Get("order") {
	case "", "desc":
	case "asc":
		desc = false
	default:
		utils.SendError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	q, err := h.Quiz.TopQuestion(r.Context(), desc)
	if errors.Is(err, services.ErrQuestionNotFound) {
		utils.SendError(w, http.StatusNotFound, "No questions yet")
		return
	}
	if err != nil {
		log.Printf("top question: %v", err)
		utils.SendError(w, http.StatusInternalServerError, "Error fetching question")
		return
	}

	utils.SendSuccess(w, "Question fetched successfully", q)
}

// GetExplanation renders a question's Markdown explanation as HTML.
func (h *Handler) GetExplanation(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	expl, err := h.Quiz.Explanation(r.Context(), ident)
	if errors.Is(err, services.ErrQuestionNotFound) {
		utils.SendError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Printf("explanation %s: %v", ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error fetching explanation")
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(expl), &buf); err != nil {
		log.Printf("render explanation %s: %v", ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error rendering explanation")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	var u models.QuestionUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Quiz.UpdateQuestion(r.Context(), ident, u)
	switch {
	case errors.Is(err, services.ErrQuestionNotFound):
		utils.SendError(w, http.StatusNotFound, "Question not found")
		return
	case errors.Is(err, services.ErrInvalidInput):
		utils.SendError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("update question %s: %v", ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error updating question")
		return
	}

	utils.SendSuccess(w, "Question updated successfully", map[string]string{"ident": ident})
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	err := h.Quiz.DeleteQuestion(r.Context(), ident)
	if errors.Is(err, services.ErrQuestionNotFound) {
		utils.SendError(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		log.Printf("delete question %s: %v", ident, err)
		utils.SendError(w, http.StatusInternalServerError, "Error deleting question")
		return
	}

	utils.SendSuccess(w, "Question deleted", nil)
}
