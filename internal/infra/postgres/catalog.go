package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-master-service/internal/domain"
)

// Catalog reads quiz content from Postgres. It implements
// app.CatalogRepository and is strictly read-only: catalog administration
// happens outside this service.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.pool.QueryRow(ctx,
		`SELECT id, name, description, chapter_id, date_of_quiz, duration_seconds, remarks
		 FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Name, &quiz.Description, &quiz.ChapterID, &quiz.DateOfQuiz, &quiz.DurationSeconds, &quiz.Remarks)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (c *Catalog) GetQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, quiz_id, prompt, option1, option2, option3, option4, correct_option
		 FROM questions WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Prompt,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.CorrectOption); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (c *Catalog) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name, description FROM subjects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.Subject
	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (c *Catalog) ListChapters(ctx context.Context) ([]domain.Chapter, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, name, description, subject_id FROM chapters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []domain.Chapter
	for rows.Next() {
		var c domain.Chapter
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SubjectID); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, name, description, chapter_id, date_of_quiz, duration_seconds, remarks
		 FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.Name, &q.Description, &q.ChapterID, &q.DateOfQuiz, &q.DurationSeconds, &q.Remarks); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}
