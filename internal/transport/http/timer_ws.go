package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-master-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type timerMessage struct {
	QuizID           int64 `json:"quizId"`
	RemainingSeconds int   `json:"remainingSeconds"`
}

// serveTimer streams the advisory countdown for the caller's live session,
// one message per second. The stream ends when the timer reaches zero or the
// client disconnects; reaching zero does not finalize the attempt, only an
// explicit submit does.
func (h *Handler) serveTimer(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	if _, err := h.attempts.RemainingTime(r.Context(), principal.ID, quizID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Read pump: discard inbound frames, signal disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		remaining, err := h.attempts.RemainingTime(r.Context(), principal.ID, quizID)
		if err != nil {
			// Session finalized or abandoned mid-stream.
			return
		}
		if err := conn.WriteJSON(timerMessage{QuizID: quizID, RemainingSeconds: remaining}); err != nil {
			return
		}
		if remaining == 0 {
			return
		}

		select {
		case <-ticker.C:
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
