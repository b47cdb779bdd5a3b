package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-master-service/internal/domain"
)

// SessionRepository abstracts how attempt sessions are stored. One live
// session exists per AttemptKey at a time.
type SessionRepository interface {
	// GetOrCreate returns the existing session for key, or stores and returns
	// the one produced by create. The check and insert are atomic.
	GetOrCreate(key domain.AttemptKey, create func() *Session) *Session
	Get(key domain.AttemptKey) (*Session, bool)
	Delete(key domain.AttemptKey)
}

// CatalogRepository is the read-only accessor for quiz content.
type CatalogRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
	GetQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)
	ListChapters(ctx context.Context) ([]domain.Chapter, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// ScoreRepository persists finalized attempts. Save is append-only.
type ScoreRepository interface {
	Save(ctx context.Context, record domain.ScoreRecord) error
	// List returns a principal's records, newest first. quizID 0 means all quizzes.
	List(ctx context.Context, principalID string, quizID int64) ([]domain.ScoreRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ScoreRecord, error)
}

// JobDispatcher enqueues background work (reports, exports). Fire-and-forget:
// callers never block on task completion.
type JobDispatcher interface {
	Submit(ctx context.Context, task string, args map[string]any) (handle string, err error)
}

// DefaultDurationSeconds applies when a quiz definition carries no duration.
const DefaultDurationSeconds = 3600

// AttemptService owns the quiz attempt lifecycle: idempotent start, answer
// accumulation, and exactly-once finalization into a persisted score record.
type AttemptService struct {
	sessions SessionRepository
	catalog  CatalogRepository
	recorder *ScoreRecorder
	clock    func() time.Time
	log      *zap.Logger

	// DefaultDuration applies to quizzes whose definition has no duration.
	// Set before serving; not safe to change with sessions in flight.
	DefaultDuration int
}

func NewAttemptService(sessions SessionRepository, catalog CatalogRepository, recorder *ScoreRecorder, log *zap.Logger) *AttemptService {
	return NewAttemptServiceWithClock(sessions, catalog, recorder, log, time.Now)
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(sessions SessionRepository, catalog CatalogRepository, recorder *ScoreRecorder, log *zap.Logger, clock func() time.Time) *AttemptService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttemptService{
		sessions:        sessions,
		catalog:         catalog,
		recorder:        recorder,
		clock:           clock,
		log:             log,
		DefaultDuration: DefaultDurationSeconds,
	}
}

// QuizInfo is the session-facing quiz header in a snapshot.
type QuizInfo struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	DurationSeconds  int    `json:"durationSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// QuestionView is a question sanitized for delivery: no correct option.
type QuestionView struct {
	ID      int64     `json:"id"`
	Prompt  string    `json:"prompt"`
	Options [4]string `json:"options"`
}

// AttemptSnapshot is the take-quiz payload: quiz header with the advisory
// remaining time, sanitized questions, and the answers recorded so far.
type AttemptSnapshot struct {
	Quiz           QuizInfo         `json:"quiz"`
	Questions      []QuestionView   `json:"questions"`
	TotalQuestions int              `json:"totalQuestions"`
	Answers        domain.AnswerMap `json:"answers"`
}

// Start creates or resumes the session for (principalID, quizID) and returns
// its snapshot. Repeated starts are idempotent: a client reload does not reset
// the timer or drop recorded answers.
func (s *AttemptService) Start(ctx context.Context, principalID string, quizID int64) (AttemptSnapshot, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	questions, err := s.catalog.GetQuestions(ctx, quizID)
	if err != nil {
		return AttemptSnapshot{}, err
	}

	duration := quiz.DurationSeconds
	if duration <= 0 {
		duration = s.DefaultDuration
	}

	key := domain.AttemptKey{PrincipalID: principalID, QuizID: quizID}
	session := s.sessions.GetOrCreate(key, func() *Session {
		return newSessionWithClock(key, duration, questions, s.clock)
	})
	return session.snapshot(quiz.Name), nil
}

// RecordAnswer merges one question/option pair into the live session, last
// write per question wins. Option indices are not range-checked; out-of-range
// values simply score wrong at submit.
func (s *AttemptService) RecordAnswer(ctx context.Context, principalID string, quizID, questionID int64, option int) error {
	key := domain.AttemptKey{PrincipalID: principalID, QuizID: quizID}
	session, ok := s.sessions.Get(key)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.recordAnswer(questionID, option)
}

// RemainingTime reports the advisory remaining seconds for a live session.
// Expiry is display-only: the server never finalizes a session on its own.
func (s *AttemptService) RemainingTime(_ context.Context, principalID string, quizID int64) (int, error) {
	key := domain.AttemptKey{PrincipalID: principalID, QuizID: quizID}
	session, ok := s.sessions.Get(key)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.remaining(), nil
}

// Abandon drops a live session without recording anything. A later start
// begins a fresh attempt.
func (s *AttemptService) Abandon(_ context.Context, principalID string, quizID int64) {
	s.sessions.Delete(domain.AttemptKey{PrincipalID: principalID, QuizID: quizID})
}

// Submit finalizes the attempt. The optional answers argument overrides or
// extends the session's accumulated answers per question. Exactly one of two
// racing submits wins; the loser gets domain.ErrAttemptFinalized and writes
// nothing. On a persistence failure the session survives for a retry.
//
// Submitting without a live session is deliberately lenient: it proceeds with
// whatever answers the caller supplied (possibly none) against the current
// question set, so a lost session still yields a recorded attempt.
func (s *AttemptService) Submit(ctx context.Context, principalID string, quizID int64, answers domain.AnswerMap) (domain.ScoreRecord, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	key := domain.AttemptKey{PrincipalID: principalID, QuizID: quizID}
	session, ok := s.sessions.Get(key)
	if !ok {
		return s.submitWithoutSession(ctx, principalID, quiz, answers)
	}

	final, won := session.beginFinalize(answers)
	if !won {
		return domain.ScoreRecord{}, domain.ErrAttemptFinalized
	}

	submittedAt := s.clock()
	breakdown := Score(session.questions, final, session.startedAt, submittedAt)
	record, err := s.recorder.Record(ctx, breakdown, quizID, principalID, session.startedAt, submittedAt, final)
	if err != nil {
		session.abortFinalize()
		s.log.Warn("score persistence failed, session kept for retry",
			zap.String("principal", principalID), zap.Int64("quiz", quizID), zap.Error(err))
		return domain.ScoreRecord{}, err
	}

	session.completeFinalize()
	s.sessions.Delete(key)
	s.log.Info("attempt finalized",
		zap.String("principal", principalID), zap.Int64("quiz", quizID),
		zap.Int("correct", breakdown.CorrectCount), zap.Int("attempted", breakdown.AttemptedCount))
	return record, nil
}

func (s *AttemptService) submitWithoutSession(ctx context.Context, principalID string, quiz domain.Quiz, answers domain.AnswerMap) (domain.ScoreRecord, error) {
	questions, err := s.catalog.GetQuestions(ctx, quiz.ID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	now := s.clock()
	breakdown := Score(questions, answers, now, now)
	return s.recorder.Record(ctx, breakdown, quiz.ID, principalID, now, now, answers)
}

// Session is the server-held state of one in-progress attempt. It lives in
// the session store from start until finalization or abandonment and is never
// persisted; the question set is snapshotted at creation, so later catalog
// edits do not affect an in-flight attempt.
type Session struct {
	key             domain.AttemptKey
	startedAt       time.Time
	durationSeconds int
	questions       []domain.Question
	now             func() time.Time

	mu         sync.Mutex
	answers    domain.AnswerMap
	finalizing bool
	finalized  bool
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(key domain.AttemptKey, durationSeconds int, questions []domain.Question) *Session {
	return newSessionWithClock(key, durationSeconds, questions, time.Now)
}

func newSessionWithClock(key domain.AttemptKey, durationSeconds int, questions []domain.Question, now func() time.Time) *Session {
	return &Session{
		key:             key,
		startedAt:       now(),
		durationSeconds: durationSeconds,
		questions:       questions,
		now:             now,
		answers:         make(domain.AnswerMap),
	}
}

// StartedAt returns the creation timestamp, set once for the session's life.
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) recordAnswer(questionID int64, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizing || s.finalized {
		return domain.ErrAttemptFinalized
	}
	s.answers[questionID] = option
	return nil
}

func (s *Session) remaining() int {
	elapsed := int(s.now().Sub(s.startedAt) / time.Second)
	if remaining := s.durationSeconds - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

func (s *Session) snapshot(quizName string) AttemptSnapshot {
	s.mu.Lock()
	answers := s.answers.Clone()
	s.mu.Unlock()

	views := make([]QuestionView, 0, len(s.questions))
	for _, q := range s.questions {
		views = append(views, QuestionView{ID: q.ID, Prompt: q.Prompt, Options: q.Options})
	}
	return AttemptSnapshot{
		Quiz: QuizInfo{
			ID:               s.key.QuizID,
			Name:             quizName,
			DurationSeconds:  s.durationSeconds,
			RemainingSeconds: s.remaining(),
		},
		Questions:      views,
		TotalQuestions: len(views),
		Answers:        answers,
	}
}

// beginFinalize claims the finalize latch and returns the merged final answer
// map. Only the first caller wins; everyone else gets won=false. The merge is
// applied to the session state as well, so answers supplied at submit time are
// not lost if persistence fails and the client retries.
func (s *Session) beginFinalize(overrides domain.AnswerMap) (domain.AnswerMap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizing || s.finalized {
		return nil, false
	}
	s.finalizing = true
	for q, opt := range overrides {
		s.answers[q] = opt
	}
	return s.answers.Clone(), true
}

func (s *Session) abortFinalize() {
	s.mu.Lock()
	s.finalizing = false
	s.mu.Unlock()
}

func (s *Session) completeFinalize() {
	s.mu.Lock()
	s.finalizing = false
	s.finalized = true
	s.mu.Unlock()
}
