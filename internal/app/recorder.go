package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiz-master-service/internal/domain"
)

// ScoreRecorder turns a scoring breakdown into an immutable ScoreRecord and
// appends it to the score repository. It never updates an existing record;
// each finalized attempt adds one row to the principal's history.
type ScoreRecorder struct {
	scores ScoreRepository
	newID  func() string
}

func NewScoreRecorder(scores ScoreRepository) *ScoreRecorder {
	return &ScoreRecorder{scores: scores, newID: uuid.NewString}
}

// Record persists exactly one new record. The answer map is serialized into
// AnswerDetails as JSON, which round-trips back to the same key/value pairs.
// Persistence failures are reported as domain.ErrPersistence and leave no
// partial state behind.
func (r *ScoreRecorder) Record(ctx context.Context, breakdown domain.ScoreBreakdown, quizID int64, principalID string, startedAt, submittedAt time.Time, answers domain.AnswerMap) (domain.ScoreRecord, error) {
	details, err := json.Marshal(answers)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("encode answer details: %w", err)
	}

	record := domain.ScoreRecord{
		ID:               r.newID(),
		QuizID:           quizID,
		PrincipalID:      principalID,
		AttemptedAt:      startedAt,
		SubmittedAt:      submittedAt,
		CorrectCount:     breakdown.CorrectCount,
		WrongCount:       breakdown.WrongCount,
		AttemptedCount:   breakdown.AttemptedCount,
		TimeTakenSeconds: breakdown.TimeTakenSeconds,
		AnswerDetails:    string(details),
	}

	if err := r.scores.Save(ctx, record); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("%w: save score: %v", domain.ErrPersistence, err)
	}
	return record, nil
}

// DecodeAnswerDetails restores the answer map serialized by Record.
func DecodeAnswerDetails(details string) (domain.AnswerMap, error) {
	if details == "" {
		return domain.AnswerMap{}, nil
	}
	var answers domain.AnswerMap
	if err := json.Unmarshal([]byte(details), &answers); err != nil {
		return nil, fmt.Errorf("decode answer details: %w", err)
	}
	return answers, nil
}
