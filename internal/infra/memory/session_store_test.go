package memory

import (
	"testing"

	"quiz-master-service/internal/app"
	"quiz-master-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	key := domain.AttemptKey{PrincipalID: "u1", QuizID: 1}

	created := store.GetOrCreate(key, func() *app.Session {
		return app.NewSession(key, 600, nil)
	})
	if created == nil {
		t.Fatalf("expected session")
	}

	// A second GetOrCreate must return the same session, not a fresh one.
	again := store.GetOrCreate(key, func() *app.Session {
		t.Fatalf("create must not run for an existing key")
		return nil
	})
	if again != created {
		t.Fatalf("expected the existing session back")
	}

	if _, ok := store.Get(key); !ok {
		t.Fatalf("expected session present")
	}

	// Sessions are isolated per (principal, quiz) pair.
	other := domain.AttemptKey{PrincipalID: "u2", QuizID: 1}
	if _, ok := store.Get(other); ok {
		t.Fatalf("expected no session for another principal")
	}

	store.Delete(key)
	if _, ok := store.Get(key); ok {
		t.Fatalf("expected session removed")
	}
}
