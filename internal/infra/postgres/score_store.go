package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-master-service/internal/domain"
)

// ScoreStore persists finalized attempts. Rows are insert-only; nothing in
// this service ever updates or deletes a score.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) Save(ctx context.Context, r domain.ScoreRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores
		   (id, quiz_id, principal_id, attempted_at, submitted_at,
		    correct_count, wrong_count, attempted_count, time_taken_seconds, answer_details)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.QuizID, r.PrincipalID, r.AttemptedAt, r.SubmittedAt,
		r.CorrectCount, r.WrongCount, r.AttemptedCount, r.TimeTakenSeconds, r.AnswerDetails)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) List(ctx context.Context, principalID string, quizID int64) ([]domain.ScoreRecord, error) {
	query := `SELECT id, quiz_id, principal_id, attempted_at, submitted_at,
	                 correct_count, wrong_count, attempted_count, time_taken_seconds, answer_details
	          FROM scores WHERE principal_id=$1`
	args := []any{principalID}
	if quizID != 0 {
		query += ` AND quiz_id=$2`
		args = append(args, quizID)
	}
	query += ` ORDER BY attempted_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *ScoreStore) ListRecent(ctx context.Context, limit int) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, principal_id, attempted_at, submitted_at,
		        correct_count, wrong_count, attempted_count, time_taken_seconds, answer_details
		 FROM scores ORDER BY attempted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent scores: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]domain.ScoreRecord, error) {
	var records []domain.ScoreRecord
	for rows.Next() {
		var r domain.ScoreRecord
		if err := rows.Scan(&r.ID, &r.QuizID, &r.PrincipalID, &r.AttemptedAt, &r.SubmittedAt,
			&r.CorrectCount, &r.WrongCount, &r.AttemptedCount, &r.TimeTakenSeconds, &r.AnswerDetails); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
