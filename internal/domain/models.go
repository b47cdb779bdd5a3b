package domain

import "time"

// Subject groups chapters in the catalog.
type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Chapter groups quizzes under a subject.
type Chapter struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SubjectID   int64  `json:"subjectId"`
}

// Quiz is a catalog entry; questions are loaded separately.
type Quiz struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ChapterID       int64     `json:"chapterId"`
	DateOfQuiz      time.Time `json:"dateOfQuiz"`
	DurationSeconds int       `json:"durationSeconds"` // 0 means unset; sessions default to an hour
	Remarks         string    `json:"remarks"`
}

// Question models an MCQ question with four option slots and one correct
// option, identified by its 1-based index.
type Question struct {
	ID            int64     `json:"id"`
	QuizID        int64     `json:"quizId"`
	Prompt        string    `json:"prompt"`
	Options       [4]string `json:"options"`
	CorrectOption int       `json:"correctOption"`
}

// AttemptKey identifies one principal's in-flight attempt at one quiz.
// At most one live session exists per key.
type AttemptKey struct {
	PrincipalID string
	QuizID      int64
}

// AnswerMap records the selected option index per question, last write wins.
type AnswerMap map[int64]int

// Clone returns an independent copy of the map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for q, opt := range m {
		out[q] = opt
	}
	return out
}

// ScoreBreakdown is the output of the scoring engine.
type ScoreBreakdown struct {
	CorrectCount     int `json:"correctCount"`
	WrongCount       int `json:"wrongCount"`
	AttemptedCount   int `json:"attemptedCount"`
	TimeTakenSeconds int `json:"timeTakenSeconds"`
}

// ScoreRecord is one finalized attempt. Records are append-only: written once
// at finalization and never mutated.
type ScoreRecord struct {
	ID               string    `json:"id"`
	QuizID           int64     `json:"quizId"`
	PrincipalID      string    `json:"principalId"`
	AttemptedAt      time.Time `json:"attemptedAt"`
	SubmittedAt      time.Time `json:"submittedAt"`
	CorrectCount     int       `json:"correctCount"`
	WrongCount       int       `json:"wrongCount"`
	AttemptedCount   int       `json:"attemptedCount"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	AnswerDetails    string    `json:"answerDetails"` // JSON-encoded AnswerMap
}
