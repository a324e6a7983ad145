package repository

import (
	"context"
	"fmt"
	"time"

	"millionaire/internal/database"
	"millionaire/internal/models"
)

// QuestionRepository handles database operations for the question pool
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, level, text, answer_a, answer_b, answer_c, answer_d, correct_answer, created_at, updated_at`

// QuestionsAt returns every question of a difficulty level
func (r *QuestionRepository) QuestionsAt(ctx context.Context, level int) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE level = ? ORDER BY id`
	return r.queryQuestions(ctx, query, level)
}

// ListQuestions returns the whole pool ordered by level
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions ORDER BY level, id`
	return r.queryQuestions(ctx, query)
}

// GetQuestionByID retrieves a question by ID
func (r *QuestionRepository) GetQuestionByID(ctx context.Context, id int64) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = ?`
	questions, err := r.queryQuestions(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

// FindQuestion looks a question up by its level and text, the pool's
// natural key. It returns nil when there is no match.
func (r *QuestionRepository) FindQuestion(ctx context.Context, level int, text string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE level = ? AND text = ?`
	questions, err := r.queryQuestions(ctx, query, level, text)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}
	return &questions[0], nil
}

// CreateQuestion inserts a question into the pool
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	query := `
		INSERT INTO questions (level, text, answer_a, answer_b, answer_c, answer_d, correct_answer, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	id, err := r.db.ExecReturningID(ctx, query,
		q.Level, q.Text,
		q.Answers["a"], q.Answers["b"], q.Answers["c"], q.Answers["d"],
		q.CorrectAnswer, now, now,
	)
	if err != nil {
		return nil, err
	}

	created := q.Clone()
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// ImportQuestions adds questions to the pool, skipping ones whose level and
// text already exist. It returns how many were inserted.
func (r *QuestionRepository) ImportQuestions(ctx context.Context, questions []models.Question) (int, error) {
	inserted := 0
	for _, q := range questions {
		if _, err := r.CreateQuestion(ctx, q); err != nil {
			if r.db.GetDialect().IsUniqueViolation(err) {
				continue
			}
			return inserted, fmt.Errorf("failed to import question %q: %w", q.Text, err)
		}
		inserted++
	}
	return inserted, nil
}

// CountByLevel returns the pool size per level
func (r *QuestionRepository) CountByLevel(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT level, COUNT(*) FROM questions GROUP BY level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[level] = count
	}
	return counts, rows.Err()
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, query string, args ...any) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner, extra ...any) (models.Question, error) {
	var q models.Question
	var a, b, c, d string
	dest := []any{&q.ID, &q.Level, &q.Text, &a, &b, &c, &d, &q.CorrectAnswer, &q.CreatedAt, &q.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return q, err
	}
	q.Answers = map[string]string{"a": a, "b": b, "c": c, "d": d}
	return q, nil
}
