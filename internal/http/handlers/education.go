package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/deligo/server/internal/education"
	"github.com/deligo/server/internal/middleware"
	"github.com/deligo/server/internal/model"
)

// EducationHandler handles the education content library endpoints.
type EducationHandler struct {
	eduService *education.Service
}

// NewEducationHandler creates a new education handler
func NewEducationHandler(eduService *education.Service) *EducationHandler {
	return &EducationHandler{eduService: eduService}
}

type moduleResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	URL         string `json:"url,omitempty"`
	Content     string `json:"content,omitempty"`
}

type quizResponse struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

type categoryResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Modules     []moduleResponse `json:"modules"`
	Quizzes     []quizResponse   `json:"quizzes"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func newModuleResponse(m model.EducationModule) moduleResponse {
	return moduleResponse{
		ID:          m.ID.String(),
		Title:       m.Title,
		Description: m.Description,
		Type:        m.Type,
		URL:         m.URL,
		Content:     m.Content,
	}
}

func newQuizResponse(q model.QuizQuestion) quizResponse {
	return quizResponse{
		ID:       q.ID.String(),
		Question: q.Question,
		Answer:   q.Answer,
		Options:  q.Options,
	}
}

func newCategoryResponse(c model.EducationCategory) categoryResponse {
	out := categoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Modules:     make([]moduleResponse, 0, len(c.Modules)),
		Quizzes:     make([]quizResponse, 0, len(c.Quizzes)),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, m := range c.Modules {
		out.Modules = append(out.Modules, newModuleResponse(m))
	}
	for _, q := range c.Quizzes {
		out.Quizzes = append(out.Quizzes, newQuizResponse(q))
	}
	return out
}

// categoryRequest is the request body for category create/update.
type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleAddCategory handles POST /api/education
func (h *EducationHandler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	created, err := h.eduService.CreateCategory(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Education category added successfully",
		"data":    newCategoryResponse(created),
	})
}

// HandleListCategories handles GET /api/education
func (h *EducationHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.eduService.ListCategories(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, newCategoryResponse(c))
	}
	respondData(w, http.StatusOK, out)
}

func educationID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "educationId"))
	return id, err == nil
}

// HandleGetCategory handles GET /api/education/{educationId}
func (h *EducationHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}

	c, err := h.eduService.GetCategory(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, newCategoryResponse(c))
}

// HandleUpdateCategory handles PUT /api/education/{educationId}
func (h *EducationHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	updated, err := h.eduService.UpdateCategory(r.Context(), id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Education category updated successfully",
		"data":    newCategoryResponse(updated),
	})
}

// HandleDeleteCategory handles DELETE /api/education/{educationId}
func (h *EducationHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}

	if err := h.eduService.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Education category deleted successfully")
}

// moduleRequest is the request body for module create/update.
type moduleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Content     string `json:"content"`
}

// HandleAddModule handles POST /api/education/{educationId}/modules
func (h *EducationHandler) HandleAddModule(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}

	var req moduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	created, err := h.eduService.AddModule(r.Context(), model.EducationModule{
		CategoryID:  categoryID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		URL:         strings.TrimSpace(req.URL),
		Content:     req.Content,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Module added successfully",
		"data":    newModuleResponse(created),
	})
}

// HandleUpdateModule handles PUT /api/education/{educationId}/modules/{moduleId}
func (h *EducationHandler) HandleUpdateModule(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}
	moduleID, err := uuid.Parse(chi.URLParam(r, "moduleId"))
	if err != nil {
		badRequest(w, "Invalid module ID")
		return
	}

	var req moduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	updated, err := h.eduService.UpdateModule(r.Context(), model.EducationModule{
		ID:          moduleID,
		CategoryID:  categoryID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		URL:         strings.TrimSpace(req.URL),
		Content:     req.Content,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Module updated successfully",
		"data":    newModuleResponse(updated),
	})
}

// HandleDeleteModule handles DELETE /api/education/{educationId}/modules/{moduleId}
func (h *EducationHandler) HandleDeleteModule(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}
	moduleID, err := uuid.Parse(chi.URLParam(r, "moduleId"))
	if err != nil {
		badRequest(w, "Invalid module ID")
		return
	}

	if err := h.eduService.DeleteModule(r.Context(), categoryID, moduleID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Module deleted successfully")
}

// quizRequest is the request body for quiz create/update.
type quizRequest struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

// HandleAddQuiz handles POST /api/education/{educationId}/quizzes
func (h *EducationHandler) HandleAddQuiz(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	created, err := h.eduService.AddQuestion(r.Context(), model.QuizQuestion{
		CategoryID: categoryID,
		Question:   strings.TrimSpace(req.Question),
		Answer:     strings.TrimSpace(req.Answer),
		Options:    req.Options,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Quiz added successfully",
		"data":    newQuizResponse(created),
	})
}

// HandleUpdateQuiz handles PUT /api/education/{educationId}/quizzes/{quizId}
func (h *EducationHandler) HandleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}
	quizID, err := uuid.Parse(chi.URLParam(r, "quizId"))
	if err != nil {
		badRequest(w, "Invalid quiz ID")
		return
	}

	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	updated, err := h.eduService.UpdateQuestion(r.Context(), model.QuizQuestion{
		ID:         quizID,
		CategoryID: categoryID,
		Question:   strings.TrimSpace(req.Question),
		Answer:     strings.TrimSpace(req.Answer),
		Options:    req.Options,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Quiz updated successfully",
		"data":    newQuizResponse(updated),
	})
}

// HandleDeleteQuiz handles DELETE /api/education/{educationId}/quizzes/{quizId}
func (h *EducationHandler) HandleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := educationID(r)
	if !ok {
		badRequest(w, "Invalid education category ID")
		return
	}
	quizID, err := uuid.Parse(chi.URLParam(r, "quizId"))
	if err != nil {
		badRequest(w, "Invalid quiz ID")
		return
	}

	if err := h.eduService.DeleteQuestion(r.Context(), categoryID, quizID); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "Quiz deleted successfully")
}

// quizResultRequest is the request body for POST /api/education/results
type quizResultRequest struct {
	ModuleName string `json:"moduleName"`
	Passed     bool   `json:"passed"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
}

type quizResultResponse struct {
	ID         string    `json:"id"`
	ModuleName string    `json:"moduleName"`
	Passed     bool      `json:"passed"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newQuizResultResponse(res model.QuizResult) quizResultResponse {
	return quizResultResponse{
		ID:         res.ID.String(),
		ModuleName: res.ModuleName,
		Passed:     res.Passed,
		Score:      res.Score,
		Total:      res.Total,
		CreatedAt:  res.CreatedAt,
	}
}

// HandleSubmitResult handles POST /api/education/results
func (h *EducationHandler) HandleSubmitResult(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req quizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	saved, err := h.eduService.SubmitResult(r.Context(), model.QuizResult{
		UserID:     user.ID,
		ModuleName: strings.TrimSpace(req.ModuleName),
		Passed:     req.Passed,
		Score:      req.Score,
		Total:      req.Total,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Quiz result saved successfully",
		"data":    newQuizResultResponse(saved),
	})
}

// HandleListResults handles GET /api/education/results
func (h *EducationHandler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	results, err := h.eduService.ListResults(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]quizResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, newQuizResultResponse(res))
	}
	respondData(w, http.StatusOK, out)
}
