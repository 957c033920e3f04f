package handlers

import (
	"net/http"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/progress"
)

// ProgressHandler handles progress and aggregate endpoints
type ProgressHandler struct {
	progress *progress.Service
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc *progress.Service) *ProgressHandler {
	return &ProgressHandler{progress: svc}
}

// CreateProgressRequest is the request body for recording progress
type CreateProgressRequest struct {
	UserID         *int64     `json:"user_id"`
	ModuleID       string     `json:"module_id"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
}

// UpdateProgressRequest is the request body for a progress update. An
// explicit null completion_date clears the stored date.
type UpdateProgressRequest struct {
	Completed      *bool               `json:"completed"`
	CompletionDate domain.OptionalTime `json:"completion_date"`
}

// List lists a page of progress rows
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.writeRows(w, r)(h.progress.List(r.Context(), page))
}

// Create records progress for a user on a module
func (h *ProgressHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	if req.UserID == nil {
		WriteServiceError(w, r, domain.Invalid("user_id", "is required"))
		return
	}
	if req.ModuleID == "" {
		WriteServiceError(w, r, domain.Invalid("module_id", "is required"))
		return
	}

	p, err := h.progress.Create(r.Context(), progress.CreateRequest{
		UserID:         *req.UserID,
		ModuleID:       req.ModuleID,
		Completed:      req.Completed,
		CompletionDate: req.CompletionDate,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toProgressResponse(p))
}

// Update applies a patch to the row of a (user, module) pair
func (h *ProgressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req UpdateProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	p, err := h.progress.Update(r.Context(), userID, r.PathValue("module_id"), domain.ProgressPatch{
		Completed:      req.Completed,
		CompletionDate: req.CompletionDate,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toProgressResponse(p))
}

// Delete removes the row of a (user, module) pair
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	if err := h.progress.Delete(r.Context(), userID, r.PathValue("module_id")); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityProgress)
}

// ByUser lists a user's rows
func (h *ProgressHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	h.writeRows(w, r)(h.progress.ByUser(r.Context(), userID))
}

// ByModule lists a module's rows
func (h *ProgressHandler) ByModule(w http.ResponseWriter, r *http.Request) {
	h.writeRows(w, r)(h.progress.ByModule(r.Context(), r.PathValue("module_id")))
}

// ByStatus lists rows by completion flag, given as 1 or 0
func (h *ProgressHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	h.writeRows(w, r)(h.progress.ByStatus(r.Context(), r.PathValue("status")))
}

// ByDateRange lists rows completed between start_date and end_date inclusive
func (h *ProgressHandler) ByDateRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writeRows(w, r)(h.progress.ByDateRange(r.Context(), q.Get("start_date"), q.Get("end_date")))
}

// Completion returns both completion lists of a module
func (h *ProgressHandler) Completion(w http.ResponseWriter, r *http.Request) {
	lists, err := h.progress.ModuleCompletion(r.Context(), r.PathValue("module_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, CompletionResponse{
		ModuleID:   lists.ModuleID,
		Completed:  toUserRefs(lists.Completed),
		Incomplete: toUserRefs(lists.Incomplete),
	})
}

// Completed lists the users who completed a module
func (h *ProgressHandler) Completed(w http.ResponseWriter, r *http.Request) {
	lists, err := h.progress.ModuleCompletion(r.Context(), r.PathValue("module_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserRefs(lists.Completed))
}

// Incomplete lists the users with an incomplete row for a module
func (h *ProgressHandler) Incomplete(w http.ResponseWriter, r *http.Request) {
	lists, err := h.progress.ModuleCompletion(r.Context(), r.PathValue("module_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserRefs(lists.Incomplete))
}

// Summary returns a user's completion summary
func (h *ProgressHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt64(r, "user_id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	summary, err := h.progress.UserSummary(r.Context(), userID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// writeRows returns a callback that writes a row listing or the error
func (h *ProgressHandler) writeRows(w http.ResponseWriter, r *http.Request) func([]domain.UserProgress, error) {
	return func(rows []domain.UserProgress, err error) {
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, mapSlice(rows, toProgressResponse))
	}
}
