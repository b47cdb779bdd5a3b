package app

import (
	"time"

	"quiz-master-service/internal/domain"
)

// Score computes the correctness breakdown for a finished attempt. It is a
// pure function of its inputs: no session, store, or clock involved.
//
// A question counts as attempted when the answer map holds a value for it;
// unanswered questions count toward neither correct nor wrong. Answer keys
// that match no question in the set are ignored. timeTakenSeconds is clamped
// at zero against clock skew.
func Score(questions []domain.Question, answers domain.AnswerMap, startedAt, submittedAt time.Time) domain.ScoreBreakdown {
	var attempted, correct int
	for _, q := range questions {
		selected, ok := answers[q.ID]
		if !ok {
			continue
		}
		attempted++
		if selected == q.CorrectOption {
			correct++
		}
	}

	taken := int(submittedAt.Sub(startedAt) / time.Second)
	if taken < 0 {
		taken = 0
	}

	return domain.ScoreBreakdown{
		CorrectCount:     correct,
		WrongCount:       attempted - correct,
		AttemptedCount:   attempted,
		TimeTakenSeconds: taken,
	}
}
