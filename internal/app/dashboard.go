package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quiz-master-service/internal/cache"
	"quiz-master-service/internal/domain"
)

// DashboardService composes the cached aggregate views. Each view checks the
// TTL cache first; on a miss the payload is recomputed read-only from the
// catalog and persisted scores under singleflight, stored with the view
// family's TTL, and returned.
type DashboardService struct {
	cache   cache.Store
	catalog CatalogRepository
	scores  ScoreRepository
	sf      singleflight.Group
	log     *zap.Logger
}

func NewDashboardService(store cache.Store, catalog CatalogRepository, scores ScoreRepository, log *zap.Logger) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardService{cache: store, catalog: catalog, scores: scores, log: log}
}

type chapterView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SubjectID   int64  `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

type quizView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DateOfQuiz  string `json:"dateOfQuiz"`
	ChapterID   int64  `json:"chapterId"`
	ChapterName string `json:"chapterName"`
	SubjectID   int64  `json:"subjectId"`
	SubjectName string `json:"subjectName"`
}

type userDashboardPayload struct {
	Subjects []domain.Subject `json:"subjects"`
	Chapters []chapterView    `json:"chapters"`
	Quizzes  []quizView       `json:"quizzes"`
}

type adminDashboardPayload struct {
	TotalSubjects int                  `json:"totalSubjects"`
	TotalChapters int                  `json:"totalChapters"`
	TotalQuizzes  int                  `json:"totalQuizzes"`
	RecentScores  []domain.ScoreRecord `json:"recentScores"`
}

type scoreView struct {
	QuizID     int64   `json:"quizId"`
	Correct    int     `json:"correct"`
	Attempted  int     `json:"attempted"`
	Percentage float64 `json:"percentage"`
	TimeTaken  int     `json:"timeTakenSeconds"`
	At         string  `json:"at"`
}

// UserDashboard returns the catalog overview a signed-in principal lands on.
func (d *DashboardService) UserDashboard(ctx context.Context, principalID string) (json.RawMessage, error) {
	return d.view(ctx, cache.UserDashboardKey(principalID), cache.TTLDashboard, func(ctx context.Context) (any, error) {
		subjects, err := d.catalog.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		chapters, err := d.catalog.ListChapters(ctx)
		if err != nil {
			return nil, err
		}
		quizzes, err := d.catalog.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}

		subjectByID := make(map[int64]domain.Subject, len(subjects))
		for _, s := range subjects {
			subjectByID[s.ID] = s
		}
		chapterByID := make(map[int64]domain.Chapter, len(chapters))

		payload := userDashboardPayload{Subjects: subjects}
		for _, c := range chapters {
			chapterByID[c.ID] = c
			payload.Chapters = append(payload.Chapters, chapterView{
				ID:          c.ID,
				Name:        c.Name,
				SubjectID:   c.SubjectID,
				SubjectName: subjectByID[c.SubjectID].Name,
			})
		}
		for _, q := range quizzes {
			chapter := chapterByID[q.ChapterID]
			view := quizView{
				ID:          q.ID,
				Name:        q.Name,
				Description: q.Description,
				ChapterID:   q.ChapterID,
				ChapterName: chapter.Name,
				SubjectID:   chapter.SubjectID,
				SubjectName: subjectByID[chapter.SubjectID].Name,
			}
			if !q.DateOfQuiz.IsZero() {
				view.DateOfQuiz = q.DateOfQuiz.Format("02 Jan 2006")
			}
			payload.Quizzes = append(payload.Quizzes, view)
		}
		return payload, nil
	})
}

// AdminDashboard returns catalog totals plus recent attempts.
func (d *DashboardService) AdminDashboard(ctx context.Context) (json.RawMessage, error) {
	return d.view(ctx, cache.AdminDashboardKey, cache.TTLDashboard, func(ctx context.Context) (any, error) {
		subjects, err := d.catalog.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		chapters, err := d.catalog.ListChapters(ctx)
		if err != nil {
			return nil, err
		}
		quizzes, err := d.catalog.ListQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		recent, err := d.scores.ListRecent(ctx, 10)
		if err != nil {
			return nil, err
		}
		return adminDashboardPayload{
			TotalSubjects: len(subjects),
			TotalChapters: len(chapters),
			TotalQuizzes:  len(quizzes),
			RecentScores:  recent,
		}, nil
	})
}

// SubjectsList returns the bare subject listing; it changes rarely and uses
// the long subjects TTL.
func (d *DashboardService) SubjectsList(ctx context.Context) (json.RawMessage, error) {
	return d.view(ctx, cache.SubjectsListKey, cache.TTLSubjects, func(ctx context.Context) (any, error) {
		return d.catalog.ListSubjects(ctx)
	})
}

// UserScores returns a principal's attempt history, newest first.
func (d *DashboardService) UserScores(ctx context.Context, principalID string) (json.RawMessage, error) {
	return d.view(ctx, cache.UserScoresKey(principalID), cache.TTLScores, func(ctx context.Context) (any, error) {
		records, err := d.scores.List(ctx, principalID, 0)
		if err != nil {
			return nil, err
		}
		views := make([]scoreView, 0, len(records))
		for _, r := range records {
			v := scoreView{
				QuizID:    r.QuizID,
				Correct:   r.CorrectCount,
				Attempted: r.AttemptedCount,
				TimeTaken: r.TimeTakenSeconds,
				At:        r.AttemptedAt.Format("02-01-06 | 15:04"),
			}
			if r.AttemptedCount > 0 {
				v.Percentage = float64(r.CorrectCount) / float64(r.AttemptedCount) * 100
			}
			views = append(views, v)
		}
		return views, nil
	})
}

// RecentActivity is the report view of the latest attempts across all
// principals; cached with the long report TTL.
func (d *DashboardService) RecentActivity(ctx context.Context) (json.RawMessage, error) {
	return d.view(ctx, cache.RecentActivityKey, cache.TTLReports, func(ctx context.Context) (any, error) {
		return d.scores.ListRecent(ctx, 50)
	})
}

// InvalidateUser drops the per-principal views after a finalized attempt so
// the next dashboard read reflects the new score.
func (d *DashboardService) InvalidateUser(ctx context.Context, principalID string) {
	for _, key := range []string{cache.UserDashboardKey(principalID), cache.UserScoresKey(principalID)} {
		if err := d.cache.ClearKey(ctx, key); err != nil {
			d.log.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (d *DashboardService) view(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	if cached, ok, err := d.cache.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	result, err, _ := d.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another request filled it while we queued.
		if cached, ok, err := d.cache.Get(ctx, key); err == nil && ok {
			return []byte(cached), nil
		}

		payload, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s view: %w", key, err)
		}
		if err := d.cache.Set(ctx, key, encoded, ttl); err != nil {
			return nil, err
		}
		return encoded, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
