package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-master-service/internal/domain"
)

// ScoreStore is an in-memory, append-only implementation of
// app.ScoreRepository for tests and Postgres-less runs.
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) Save(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *ScoreStore) List(_ context.Context, principalID string, quizID int64) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScoreRecord
	for _, r := range s.records {
		if r.PrincipalID != principalID {
			continue
		}
		if quizID != 0 && r.QuizID != quizID {
			continue
		}
		out = append(out, r)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *ScoreStore) ListRecent(_ context.Context, limit int) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, len(s.records))
	copy(out, s.records)
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AttemptedAt.After(records[j].AttemptedAt)
	})
}
