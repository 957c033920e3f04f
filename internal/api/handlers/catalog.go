package handlers

import (
	"net/http"

	"github.com/felixgeelhaar/codemastery/internal/catalog"
	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// CatalogHandler handles course, module and lesson endpoints
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// -----------------------------------------------------------------------------
// Courses
// -----------------------------------------------------------------------------

// CreateCourseRequest is the request body for creating a course
type CreateCourseRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	ColorClass  string `json:"color_class"`
}

// UpdateCourseRequest is the request body for a partial course update
type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	ColorClass  *string `json:"color_class"`
}

// ListCourses lists all courses
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(courses, toCourseResponse))
}

// GetCourse returns one course
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.catalog.GetCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

// CreateCourse creates a course
func (h *CatalogHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	course, err := h.catalog.CreateCourse(r.Context(), catalog.CreateCourseRequest{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		ColorClass:  req.ColorClass,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCourseResponse(course))
}

// UpdateCourse applies a partial update
func (h *CatalogHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req UpdateCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	course, err := h.catalog.UpdateCourse(r.Context(), r.PathValue("id"), domain.CoursePatch{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		ColorClass:  req.ColorClass,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

// DeleteCourse removes a course
func (h *CatalogHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCourse(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityCourse)
}

// -----------------------------------------------------------------------------
// Modules
// -----------------------------------------------------------------------------

// CreateModuleRequest is the request body for creating a module
type CreateModuleRequest struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Position    int    `json:"position"`
}

// UpdateModuleRequest is the request body for a partial module update
type UpdateModuleRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
}

// ListModules lists the modules of a course
func (h *CatalogHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.catalog.ListModules(r.Context(), r.PathValue("course_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(modules, toModuleResponse))
}

// GetModule returns one module
func (h *CatalogHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	module, err := h.catalog.GetModule(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toModuleResponse(module))
}

// CreateModule creates a module
func (h *CatalogHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req CreateModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	module, err := h.catalog.CreateModule(r.Context(), catalog.CreateModuleRequest{
		ID:          req.ID,
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toModuleResponse(module))
}

// UpdateModule applies a partial update
func (h *CatalogHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var req UpdateModuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	module, err := h.catalog.UpdateModule(r.Context(), r.PathValue("id"), domain.ModulePatch{
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toModuleResponse(module))
}

// DeleteModule removes a module
func (h *CatalogHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteModule(r.Context(), r.PathValue("id")); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityModule)
}

// -----------------------------------------------------------------------------
// Lessons
// -----------------------------------------------------------------------------

// CreateLessonRequest is the request body for creating a lesson
type CreateLessonRequest struct {
	ModuleID             string `json:"module_id"`
	Title                string `json:"title"`
	Theory               string `json:"theory"`
	PracticeInstructions string `json:"practice_instructions"`
	PracticeInitialCode  string `json:"practice_initial_code"`
	PracticeSolution     string `json:"practice_solution"`
	Position             int    `json:"position"`
}

// UpdateLessonRequest is the request body for a partial lesson update
type UpdateLessonRequest struct {
	Title                *string `json:"title"`
	Theory               *string `json:"theory"`
	PracticeInstructions *string `json:"practice_instructions"`
	PracticeInitialCode  *string `json:"practice_initial_code"`
	PracticeSolution     *string `json:"practice_solution"`
	Position             *int    `json:"position"`
}

// ListLessons lists the lessons of a module
func (h *CatalogHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.catalog.ListLessons(r.Context(), r.PathValue("module_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, mapSlice(lessons, toLessonResponse))
}

// GetLesson returns one lesson
func (h *CatalogHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	lesson, err := h.catalog.GetLesson(r.Context(), id)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toLessonResponse(lesson))
}

// CreateLesson creates a lesson
func (h *CatalogHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req CreateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	lesson, err := h.catalog.CreateLesson(r.Context(), catalog.CreateLessonRequest{
		ModuleID:             req.ModuleID,
		Title:                req.Title,
		Theory:               req.Theory,
		PracticeInstructions: req.PracticeInstructions,
		PracticeInitialCode:  req.PracticeInitialCode,
		PracticeSolution:     req.PracticeSolution,
		Position:             req.Position,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toLessonResponse(lesson))
}

// UpdateLesson applies a partial update
func (h *CatalogHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	var req UpdateLessonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	lesson, err := h.catalog.UpdateLesson(r.Context(), id, domain.LessonPatch{
		Title:                req.Title,
		Theory:               req.Theory,
		PracticeInstructions: req.PracticeInstructions,
		PracticeInitialCode:  req.PracticeInitialCode,
		PracticeSolution:     req.PracticeSolution,
		Position:             req.Position,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toLessonResponse(lesson))
}

// DeleteLesson removes a lesson
func (h *CatalogHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	if err := h.catalog.DeleteLesson(r.Context(), id); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	Deleted(w, domain.EntityLesson)
}
