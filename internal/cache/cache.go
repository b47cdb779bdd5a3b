// Package cache defines the TTL cache port shared by the dashboard read path
// and the admin cache endpoints, plus the view key/TTL policy.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Store is a key-value cache with per-entry absolute expiry. Implementations
// must be safe for concurrent use and must never serve an entry at or past its
// expiry. The empty key is a caller-contract violation (domain.ErrInvalidKey).
type Store interface {
	// Set stores value under key with expiry now+ttl, overwriting any prior
	// entry unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the value for key. ok=false when absent or expired; an
	// expired entry is evicted by the access that observes it.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// ClearKey removes an entry if present; absence is not an error.
	ClearKey(ctx context.Context, key string) error
	// ClearAll removes every entry and returns the count removed.
	ClearAll(ctx context.Context) (int, error)
}

// TTL classes per view family. Policy constants, not per-view logic.
const (
	TTLDashboard = 300 * time.Second
	TTLQuizData  = 1800 * time.Second
	TTLScores    = 600 * time.Second
	TTLSubjects  = 3600 * time.Second
	TTLReports   = 7200 * time.Second
)

// View key builders. Keys are deterministic in the view name and its
// parameterizing identifiers.
func UserDashboardKey(principalID string) string { return "user_dashboard_" + principalID }
func UserScoresKey(principalID string) string    { return "user_scores_" + principalID }
func QuizStatsKey(quizID int64) string           { return fmt.Sprintf("quiz_stats_%d", quizID) }
func QuizQuestionsKey(quizID int64) string       { return fmt.Sprintf("quiz_questions_%d", quizID) }

const (
	AdminDashboardKey = "admin_dashboard"
	SubjectsListKey   = "subjects_list"
	RecentActivityKey = "recent_activity"
)
