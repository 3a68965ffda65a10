package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/deligo/server/internal/model"
)

// EducationRepo manages the content library: categories with their modules
// and quiz questions, plus per-user quiz results.
type EducationRepo interface {
	CreateCategory(ctx context.Context, name, description string) (model.EducationCategory, error)
	GetCategory(ctx context.Context, id uuid.UUID) (model.EducationCategory, error)
	GetCategoryByName(ctx context.Context, name string) (model.EducationCategory, error)
	ListCategories(ctx context.Context) ([]model.EducationCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (model.EducationCategory, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	AddModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error)
	UpdateModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error)
	DeleteModule(ctx context.Context, categoryID, moduleID uuid.UUID) error

	AddQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error)
	UpdateQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error)
	DeleteQuestion(ctx context.Context, categoryID, questionID uuid.UUID) error

	UpsertResult(ctx context.Context, res model.QuizResult) (model.QuizResult, error)
	ListResultsForUser(ctx context.Context, userID uuid.UUID) ([]model.QuizResult, error)
}

type educationRepo struct {
	db *sql.DB
}

// NewEducationRepo creates a new EducationRepo instance
func NewEducationRepo(db *sql.DB) EducationRepo {
	return &educationRepo{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *educationRepo) CreateCategory(ctx context.Context, name, description string) (model.EducationCategory, error) {
	var c model.EducationCategory
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO education_categories (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at
	`, name, description).Scan(&idStr, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.EducationCategory{}, ErrDuplicate
		}
		return model.EducationCategory{}, fmt.Errorf("insert education category: %w", err)
	}
	c.ID, _ = uuid.Parse(idStr)
	c.Modules = []model.EducationModule{}
	c.Quizzes = []model.QuizQuestion{}
	return c, nil
}

func (r *educationRepo) loadChildren(ctx context.Context, c *model.EducationCategory) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, title, description, type, url, content
		FROM education_modules WHERE category_id = $1 ORDER BY title
	`, c.ID)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()
	c.Modules = []model.EducationModule{}
	for rows.Next() {
		var m model.EducationModule
		var idStr, catStr string
		if err := rows.Scan(&idStr, &catStr, &m.Title, &m.Description, &m.Type, &m.URL, &m.Content); err != nil {
			return fmt.Errorf("scan module: %w", err)
		}
		m.ID, _ = uuid.Parse(idStr)
		m.CategoryID, _ = uuid.Parse(catStr)
		c.Modules = append(c.Modules, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	qrows, err := r.db.QueryContext(ctx, `
		SELECT id, category_id, question, answer, options
		FROM quiz_questions WHERE category_id = $1 ORDER BY question
	`, c.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	defer qrows.Close()
	c.Quizzes = []model.QuizQuestion{}
	for qrows.Next() {
		var q model.QuizQuestion
		var idStr, catStr string
		if err := qrows.Scan(&idStr, &catStr, &q.Question, &q.Answer, pq.Array(&q.Options)); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		q.ID, _ = uuid.Parse(idStr)
		q.CategoryID, _ = uuid.Parse(catStr)
		c.Quizzes = append(c.Quizzes, q)
	}
	return qrows.Err()
}

func (r *educationRepo) getCategory(ctx context.Context, where string, arg any) (model.EducationCategory, error) {
	var c model.EducationCategory
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM education_categories WHERE `+where,
		arg).Scan(&idStr, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EducationCategory{}, ErrNotFound
		}
		return model.EducationCategory{}, fmt.Errorf("query education category: %w", err)
	}
	c.ID, _ = uuid.Parse(idStr)
	if err := r.loadChildren(ctx, &c); err != nil {
		return model.EducationCategory{}, err
	}
	return c, nil
}

func (r *educationRepo) GetCategory(ctx context.Context, id uuid.UUID) (model.EducationCategory, error) {
	return r.getCategory(ctx, "id = $1", id)
}

func (r *educationRepo) GetCategoryByName(ctx context.Context, name string) (model.EducationCategory, error) {
	return r.getCategory(ctx, "name = $1", name)
}

func (r *educationRepo) ListCategories(ctx context.Context) ([]model.EducationCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM education_categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list education categories: %w", err)
	}
	defer rows.Close()

	var out []model.EducationCategory
	for rows.Next() {
		var c model.EducationCategory
		var idStr string
		if err := rows.Scan(&idStr, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan education category: %w", err)
		}
		c.ID, _ = uuid.Parse(idStr)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *educationRepo) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) (model.EducationCategory, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE education_categories SET name = $2, description = $3, updated_at = now() WHERE id = $1
	`, id, name, description)
	if err != nil {
		if isUniqueViolation(err) {
			return model.EducationCategory{}, ErrDuplicate
		}
		return model.EducationCategory{}, fmt.Errorf("update education category: %w", err)
	}
	if err := requireRow(res); err != nil {
		return model.EducationCategory{}, err
	}
	return r.GetCategory(ctx, id)
}

func (r *educationRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM education_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete education category: %w", err)
	}
	return requireRow(res)
}

func (r *educationRepo) AddModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO education_modules (category_id, title, description, type, url, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, m.CategoryID, m.Title, m.Description, m.Type, m.URL, m.Content).Scan(&idStr)
	if err != nil {
		if isUniqueViolation(err) {
			return model.EducationModule{}, ErrDuplicate
		}
		return model.EducationModule{}, fmt.Errorf("insert module: %w", err)
	}
	m.ID, _ = uuid.Parse(idStr)
	return m, nil
}

func (r *educationRepo) UpdateModule(ctx context.Context, m model.EducationModule) (model.EducationModule, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE education_modules
		SET title = $3, description = $4, type = $5, url = $6, content = $7
		WHERE id = $1 AND category_id = $2
	`, m.ID, m.CategoryID, m.Title, m.Description, m.Type, m.URL, m.Content)
	if err != nil {
		if isUniqueViolation(err) {
			return model.EducationModule{}, ErrDuplicate
		}
		return model.EducationModule{}, fmt.Errorf("update module: %w", err)
	}
	if err := requireRow(res); err != nil {
		return model.EducationModule{}, err
	}
	return m, nil
}

func (r *educationRepo) DeleteModule(ctx context.Context, categoryID, moduleID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM education_modules WHERE id = $1 AND category_id = $2
	`, moduleID, categoryID)
	if err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return requireRow(res)
}

func (r *educationRepo) AddQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quiz_questions (category_id, question, answer, options)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, q.CategoryID, q.Question, q.Answer, pq.Array(q.Options)).Scan(&idStr)
	if err != nil {
		if isUniqueViolation(err) {
			return model.QuizQuestion{}, ErrDuplicate
		}
		return model.QuizQuestion{}, fmt.Errorf("insert question: %w", err)
	}
	q.ID, _ = uuid.Parse(idStr)
	return q, nil
}

func (r *educationRepo) UpdateQuestion(ctx context.Context, q model.QuizQuestion) (model.QuizQuestion, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quiz_questions SET question = $3, answer = $4, options = $5
		WHERE id = $1 AND category_id = $2
	`, q.ID, q.CategoryID, q.Question, q.Answer, pq.Array(q.Options))
	if err != nil {
		if isUniqueViolation(err) {
			return model.QuizQuestion{}, ErrDuplicate
		}
		return model.QuizQuestion{}, fmt.Errorf("update question: %w", err)
	}
	if err := requireRow(res); err != nil {
		return model.QuizQuestion{}, err
	}
	return q, nil
}

func (r *educationRepo) DeleteQuestion(ctx context.Context, categoryID, questionID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM quiz_questions WHERE id = $1 AND category_id = $2
	`, questionID, categoryID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireRow(res)
}

func (r *educationRepo) UpsertResult(ctx context.Context, res model.QuizResult) (model.QuizResult, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO quiz_results (user_id, module_name, passed, score, total)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, module_name)
		DO UPDATE SET passed = EXCLUDED.passed, score = EXCLUDED.score, total = EXCLUDED.total
		RETURNING id, created_at
	`, res.UserID, res.ModuleName, res.Passed, res.Score, res.Total).Scan(&idStr, &res.CreatedAt)
	if err != nil {
		return model.QuizResult{}, fmt.Errorf("upsert quiz result: %w", err)
	}
	res.ID, _ = uuid.Parse(idStr)
	return res, nil
}

func (r *educationRepo) ListResultsForUser(ctx context.Context, userID uuid.UUID) ([]model.QuizResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, module_name, passed, score, total, created_at
		FROM quiz_results WHERE user_id = $1 ORDER BY module_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	defer rows.Close()

	var out []model.QuizResult
	for rows.Next() {
		var res model.QuizResult
		var idStr, userIDStr string
		if err := rows.Scan(&idStr, &userIDStr, &res.ModuleName, &res.Passed, &res.Score, &res.Total, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz result: %w", err)
		}
		res.ID, _ = uuid.Parse(idStr)
		res.UserID, _ = uuid.Parse(userIDStr)
		out = append(out, res)
	}
	return out, rows.Err()
}
