// Package education manages the content library: categories of learning
// modules with attached quiz questions, and per-user quiz results.
package education

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/deligo/server/internal/apperr"
	"github.com/deligo/server/internal/model"
	"github.com/deligo/server/internal/repo"
)

// Service wraps the education repository with the domain's validation rules.
type Service struct {
	repo repo.EducationRepo
}

// NewService creates a new education service
func NewService(r repo.EducationRepo) *Service {
	return &Service{repo: r}
}

func validModuleType(t string) bool {
	switch t {
	case model.ModuleTypeVideo, model.ModuleTypeAudio, model.ModuleTypeText:
		return true
	}
	return false
}

// CreateCategory adds a new education category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (model.EducationCategory, error) {
	if name == "" {
		return model.EducationCategory{}, apperr.BadRequest("Education name is required")
	}
	c, err := s.repo.CreateCategory(ctx, name, description)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return model.EducationCategory{}, apperr.BadRequest("Education category already exists")
		}
		return model.EducationCategory{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories with their modules and questions.
func (s *Service) ListCategories(ctx context.Context) ([]model.EducationCategory, error) {
	return s.repo.ListCategories(ctx)
}

// GetCategory returns one category by ID.
func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (model.EducationCategory, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.EducationCategory{}, apperr.NotFound("Education category not found")
		}
		return model.EducationCategory{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// UpdateCategory renames a category; the new name must stay unique.
func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (model.EducationCategory, error) {
	if name == "" {
		return model.EducationCategory{}, apperr.BadRequest("Education name is required")
	}
	c, err := s.repo.UpdateCategory(ctx, id, name, description)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return model.EducationCategory{}, apperr.NotFound("Education category not found")
		case errors.Is(err, repo.ErrDuplicate):
			return model.EducationCategory{}, apperr.BadRequest("Education category with this name already exists")
		}
		return model.EducationCategory{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category and, via cascade, its children.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Education category not found")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AddModule attaches a content module to a category.
func (s *Service) AddModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error) {
	if m.Title == "" || m.Type == "" {
		return model.EducationModule{}, apperr.BadRequest("Module title and type are required")
	}
	if !validModuleType(m.Type) {
		return model.EducationModule{}, apperr.BadRequest("Module type must be video, audio, or text")
	}
	if _, err := s.GetCategory(ctx, m.CategoryID); err != nil {
		return model.EducationModule{}, err
	}
	out, err := s.repo.AddModule(ctx, m)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return model.EducationModule{}, apperr.BadRequest("Module with this title already exists in this education category")
		}
		return model.EducationModule{}, fmt.Errorf("add module: %w", err)
	}
	return out, nil
}

// UpdateModule rewrites a module in place.
func (s *Service) UpdateModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error) {
	if m.Title == "" || m.Type == "" {
		return model.EducationModule{}, apperr.BadRequest("Module title and type are required")
	}
	if !validModuleType(m.Type) {
		return model.EducationModule{}, apperr.BadRequest("Module type must be video, audio, or text")
	}
	out, err := s.repo.UpdateModule(ctx, m)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return model.EducationModule{}, apperr.NotFound("Module not found")
		case errors.Is(err, repo.ErrDuplicate):
			return model.EducationModule{}, apperr.BadRequest("Module with this title already exists in this education category")
		}
		return model.EducationModule{}, fmt.Errorf("update module: %w", err)
	}
	return out, nil
}

// DeleteModule removes one module.
func (s *Service) DeleteModule(ctx context.Context, categoryID, moduleID uuid.UUID) error {
	if err := s.repo.DeleteModule(ctx, categoryID, moduleID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Module not found")
		}
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

func validateQuestion(q model.QuizQuestion) error {
	if q.Question == "" || q.Answer == "" || len(q.Options) < 2 {
		return apperr.BadRequest("Question, answer, and at least 2 options are required")
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return apperr.BadRequest("Answer must be one of the provided options")
}

// AddQuestion attaches a quiz question to a category.
func (s *Service) AddQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error) {
	if err := validateQuestion(q); err != nil {
		return model.QuizQuestion{}, err
	}
	if _, err := s.GetCategory(ctx, q.CategoryID); err != nil {
		return model.QuizQuestion{}, err
	}
	out, err := s.repo.AddQuestion(ctx, q)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return model.QuizQuestion{}, apperr.BadRequest("Quiz with this question already exists in this education category")
		}
		return model.QuizQuestion{}, fmt.Errorf("add question: %w", err)
	}
	return out, nil
}

// UpdateQuestion rewrites a quiz question in place.
func (s *Service) UpdateQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error) {
	if err := validateQuestion(q); err != nil {
		return model.QuizQuestion{}, err
	}
	out, err := s.repo.UpdateQuestion(ctx, q)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return model.QuizQuestion{}, apperr.NotFound("Quiz not found")
		case errors.Is(err, repo.ErrDuplicate):
			return model.QuizQuestion{}, apperr.BadRequest("Quiz with this question already exists in this education category")
		}
		return model.QuizQuestion{}, fmt.Errorf("update question: %w", err)
	}
	return out, nil
}

// DeleteQuestion removes one quiz question.
func (s *Service) DeleteQuestion(ctx context.Context, categoryID, questionID uuid.UUID) error {
	if err := s.repo.DeleteQuestion(ctx, categoryID, questionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound("Quiz not found")
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// SubmitResult records (or replaces) the caller's outcome for a module.
func (s *Service) SubmitResult(ctx context.Context, res model.QuizResult) (model.QuizResult, error) {
	if res.ModuleName == "" {
		return model.QuizResult{}, apperr.BadRequest("Module Name is required")
	}
	if res.Total < 0 || res.Score < 0 || res.Score > res.Total {
		return model.QuizResult{}, apperr.BadRequest("Score must be between 0 and total")
	}
	out, err := s.repo.UpsertResult(ctx, res)
	if err != nil {
		return model.QuizResult{}, fmt.Errorf("submit quiz result: %w", err)
	}
	return out, nil
}

// ListResults returns the caller's results.
func (s *Service) ListResults(ctx context.Context, userID uuid.UUID) ([]model.QuizResult, error) {
	return s.repo.ListResultsForUser(ctx, userID)
}
