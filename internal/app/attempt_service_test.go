package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-master-service/internal/app"
	"quiz-master-service/internal/domain"
	"quiz-master-service/internal/infra/memory"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	service *app.AttemptService
	scores  *memory.ScoreStore
	clock   *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithScores(t, memory.NewScoreStore(), nil)
}

func newTestEnvWithScores(t *testing.T, scoreRepo app.ScoreRepository, keep *memory.ScoreStore) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	catalog := memory.NewCatalog(
		[]domain.Subject{{ID: 1, Name: "Math"}},
		[]domain.Chapter{{ID: 1, Name: "Basics", SubjectID: 1}},
		[]domain.Quiz{
			{ID: 1, Name: "Warm-up", ChapterID: 1, DurationSeconds: 600},
			{ID: 2, Name: "No duration", ChapterID: 1},
		},
		[]domain.Question{
			{ID: 1, QuizID: 1, Prompt: "pick 2", CorrectOption: 2},
			{ID: 2, QuizID: 1, Prompt: "pick 3", CorrectOption: 3},
			{ID: 3, QuizID: 2, Prompt: "pick 1", CorrectOption: 1},
		},
	)
	service := app.NewAttemptServiceWithClock(
		memory.NewSessionStore(), catalog, app.NewScoreRecorder(scoreRepo), nil, clock.Now)
	env := &testEnv{service: service, clock: clock}
	if store, ok := scoreRepo.(*memory.ScoreStore); ok {
		env.scores = store
	} else {
		env.scores = keep
	}
	return env
}

func TestStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.Equal(t, 600, first.Quiz.DurationSeconds)
	require.Equal(t, 600, first.Quiz.RemainingSeconds)
	require.Len(t, first.Questions, 2)

	require.NoError(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 2))
	env.clock.Advance(30 * time.Second)

	// A client reload must not reset the timer or drop answers.
	second, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.Equal(t, 570, second.Quiz.RemainingSeconds)
	require.Equal(t, domain.AnswerMap{1: 2}, second.Answers)
}

func TestStartUnknownQuiz(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Start(context.Background(), "u1", 999)
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestStartDefaultsDuration(t *testing.T) {
	env := newTestEnv(t)

	snapshot, err := env.service.Start(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Equal(t, app.DefaultDurationSeconds, snapshot.Quiz.DurationSeconds)
}

func TestRecordAnswerLastWriteWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)

	require.NoError(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 3))
	require.NoError(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 2))

	snapshot, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.Equal(t, domain.AnswerMap{1: 2}, snapshot.Answers)
}

func TestRecordAnswerWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	err := env.service.RecordAnswer(context.Background(), "u1", 1, 1, 2)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRemainingTimeFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)

	env.clock.Advance(601 * time.Second)
	remaining, err := env.service.RemainingTime(ctx, "u1", 1)
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	// Expiry is advisory: the session is still live and submittable.
	_, err = env.service.Submit(ctx, "u1", 1, nil)
	require.NoError(t, err)
}

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	startedAt := env.clock.Now()

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)

	env.clock.Advance(30 * time.Second)
	require.NoError(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 2))

	env.clock.Advance(15 * time.Second)
	record, err := env.service.Submit(ctx, "u1", 1, domain.AnswerMap{1: 2, 2: 4})
	require.NoError(t, err)

	require.Equal(t, 1, record.CorrectCount)
	require.Equal(t, 1, record.WrongCount)
	require.Equal(t, 2, record.AttemptedCount)
	require.Equal(t, 45, record.TimeTakenSeconds)
	require.Equal(t, startedAt, record.AttemptedAt)
	require.Equal(t, startedAt.Add(45*time.Second), record.SubmittedAt)

	// Answer details round-trip to the submitted mapping.
	decoded, err := app.DecodeAnswerDetails(record.AnswerDetails)
	require.NoError(t, err)
	require.Equal(t, domain.AnswerMap{1: 2, 2: 4}, decoded)

	// The session is gone; the next start is a fresh attempt with history kept.
	require.ErrorIs(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 2), domain.ErrSessionNotFound)
	snapshot, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.Empty(t, snapshot.Answers)

	records, err := env.scores.List(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestSubmitWithoutSessionIsLenient(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	record, err := env.service.Submit(ctx, "u1", 1, nil)
	require.NoError(t, err)
	require.Equal(t, 0, record.AttemptedCount)
	require.Equal(t, 0, record.CorrectCount)
	require.Equal(t, 0, record.TimeTakenSeconds)

	decoded, err := app.DecodeAnswerDetails(record.AnswerDetails)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestSubmitUnknownQuiz(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Submit(context.Background(), "u1", 999, nil)
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

// gateScoreStore blocks the first Save until released, pinning the winner
// inside finalization while the racing submit runs.
type gateScoreStore struct {
	*memory.ScoreStore
	entered chan struct{}
	release chan struct{}
	gated   bool
}

func (g *gateScoreStore) Save(ctx context.Context, record domain.ScoreRecord) error {
	if !g.gated {
		g.gated = true
		close(g.entered)
		<-g.release
	}
	return g.ScoreStore.Save(ctx, record)
}

func TestConcurrentSubmitFinalizesOnce(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewScoreStore()
	gate := &gateScoreStore{
		ScoreStore: backing,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	env := newTestEnvWithScores(t, gate, backing)

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)

	winnerErr := make(chan error, 1)
	go func() {
		_, err := env.service.Submit(ctx, "u1", 1, domain.AnswerMap{1: 2})
		winnerErr <- err
	}()

	// The winner is now parked inside Save with the finalize latch held.
	<-gate.entered
	_, err = env.service.Submit(ctx, "u1", 1, domain.AnswerMap{1: 3})
	require.ErrorIs(t, err, domain.ErrAttemptFinalized)

	close(gate.release)
	require.NoError(t, <-winnerErr)

	records, err := backing.List(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, records[0].CorrectCount)
}

// failingScoreStore rejects every Save.
type failingScoreStore struct {
	*memory.ScoreStore
	fail bool
}

func (f *failingScoreStore) Save(ctx context.Context, record domain.ScoreRecord) error {
	if f.fail {
		return errors.New("connection reset")
	}
	return f.ScoreStore.Save(ctx, record)
}

func TestSessionSurvivesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewScoreStore()
	flaky := &failingScoreStore{ScoreStore: backing, fail: true}
	env := newTestEnvWithScores(t, flaky, backing)

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.NoError(t, env.service.RecordAnswer(ctx, "u1", 1, 1, 2))
	env.clock.Advance(20 * time.Second)

	_, err = env.service.Submit(ctx, "u1", 1, domain.AnswerMap{2: 3})
	require.ErrorIs(t, err, domain.ErrPersistence)

	// The session and every answer, including the ones carried by the failed
	// submit, must survive for a retry.
	snapshot, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)
	require.Equal(t, domain.AnswerMap{1: 2, 2: 3}, snapshot.Answers)

	flaky.fail = false
	record, err := env.service.Submit(ctx, "u1", 1, nil)
	require.NoError(t, err)
	require.Equal(t, 2, record.CorrectCount)
	require.Equal(t, 2, record.AttemptedCount)
	require.Equal(t, 20, record.TimeTakenSeconds)
}

func TestAbandonDropsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.service.Start(ctx, "u1", 1)
	require.NoError(t, err)

	env.service.Abandon(ctx, "u1", 1)
	_, err = env.service.RemainingTime(ctx, "u1", 1)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Nothing was recorded.
	records, err := env.scores.List(ctx, "u1", 1)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestAnswerDetailsMarshalling(t *testing.T) {
	answers := domain.AnswerMap{1: 2, 17: 4}
	encoded, err := json.Marshal(answers)
	require.NoError(t, err)

	decoded, err := app.DecodeAnswerDetails(string(encoded))
	require.NoError(t, err)
	require.Equal(t, answers, decoded)
}
