package memory

import (
	"context"
	"sort"

	"quiz-master-service/internal/domain"
)

// Catalog is a static in-memory implementation of app.CatalogRepository,
// useful for tests and for running the server without Postgres.
type Catalog struct {
	subjects  []domain.Subject
	chapters  []domain.Chapter
	quizzes   map[int64]domain.Quiz
	questions map[int64][]domain.Question
}

func NewCatalog(subjects []domain.Subject, chapters []domain.Chapter, quizzes []domain.Quiz, questions []domain.Question) *Catalog {
	c := &Catalog{
		subjects:  subjects,
		chapters:  chapters,
		quizzes:   make(map[int64]domain.Quiz, len(quizzes)),
		questions: make(map[int64][]domain.Question),
	}
	for _, q := range quizzes {
		c.quizzes[q.ID] = q
	}
	for _, q := range questions {
		c.questions[q.QuizID] = append(c.questions[q.QuizID], q)
	}
	return c
}

func (c *Catalog) GetQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (c *Catalog) GetQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	if _, ok := c.quizzes[quizID]; !ok {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.Question, len(c.questions[quizID]))
	copy(out, c.questions[quizID])
	return out, nil
}

func (c *Catalog) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	out := make([]domain.Subject, len(c.subjects))
	copy(out, c.subjects)
	return out, nil
}

func (c *Catalog) ListChapters(_ context.Context) ([]domain.Chapter, error) {
	out := make([]domain.Chapter, len(c.chapters))
	copy(out, c.chapters)
	return out, nil
}

func (c *Catalog) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	out := make([]domain.Quiz, 0, len(c.quizzes))
	for _, quiz := range c.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
