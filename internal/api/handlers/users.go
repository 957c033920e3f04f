package handlers

import (
	"net/http"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/users"
)

// UserHandler handles user endpoints
type UserHandler struct {
	users *users.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *users.Service) *UserHandler {
	return &UserHandler{users: svc}
}

// UpdateUserRequest is the request body for a partial user update
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Image *string `json:"image"`
}

// List lists all users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.List(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(all, toUserResponse))
}

// Get returns one user
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Update applies a partial update
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, domain.UserPatch{
		Name:  req.Name,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Delete removes a user
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityUser)
}
