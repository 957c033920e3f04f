package handlers

import (
	"net/http"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/grading"
)

// ExerciseHandler handles submission and attempt endpoints
type ExerciseHandler struct {
	grading *grading.Service
}

// NewExerciseHandler creates a new exercise handler
func NewExerciseHandler(svc *grading.Service) *ExerciseHandler {
	return &ExerciseHandler{grading: svc}
}

// SubmitRequest is the request body for a code submission. user_id may be
// given in the body or as a query parameter.
type SubmitRequest struct {
	CodeSubmitted string `json:"code_submitted"`
	UserID        *int64 `json:"user_id"`
}

// Submit grades a submission for a lesson
func (h *ExerciseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt64(r, "lesson_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	userID := req.UserID
	if userID == nil {
		if userID, err = queryInt64(r, "user_id"); err != nil {
			WriteServiceError(w, r, err)
			return
		}
	}
	if userID == nil {
		WriteServiceError(w, r, domain.Invalid("user_id", "is required"))
		return
	}

	attempt, err := h.grading.Submit(r.Context(), grading.SubmitRequest{
		LessonID: lessonID,
		UserID:   *userID,
		Code:     req.CodeSubmitted,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toAttemptResponse(attempt))
}

// ListAttempts lists a page of attempts, optionally filtered by user_id
func (h *ExerciseHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	attempts, err := h.grading.ListAttempts(r.Context(), domain.AttemptFilter{UserID: userID, Page: page})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(attempts, toAttemptResponse))
}

// LatestAttempt returns a user's most recent attempt on a lesson
func (h *ExerciseHandler) LatestAttempt(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathInt64(r, "lesson_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if userID == nil {
		WriteServiceError(w, r, domain.Invalid("user_id", "is required"))
		return
	}

	attempt, err := h.grading.LatestAttempt(r.Context(), lessonID, *userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toAttemptResponse(attempt))
}

// DeleteAttempt removes an attempt
func (h *ExerciseHandler) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	if err := h.grading.DeleteAttempt(r.Context(), id); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityAttempt)
}
