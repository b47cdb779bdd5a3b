package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"quiz-master-service/internal/app"
	"quiz-master-service/internal/cache"
	"quiz-master-service/internal/domain"
	"quiz-master-service/internal/infra/rabbit"
)

// Handler wires the attempt lifecycle and dashboard read path into the REST API.
type Handler struct {
	attempts   *app.AttemptService
	dashboards *app.DashboardService
	scores     app.ScoreRepository
	store      cache.Store
	jobs       app.JobDispatcher
	auth       *Authenticator
	log        *zap.Logger
}

func NewHandler(attempts *app.AttemptService, dashboards *app.DashboardService, scores app.ScoreRepository, store cache.Store, jobs app.JobDispatcher, auth *Authenticator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		attempts:   attempts,
		dashboards: dashboards,
		scores:     scores,
		store:      store,
		jobs:       jobs,
		auth:       auth,
		log:        log,
	}
}

// Router builds the full route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.auth.Middleware)

	api.HandleFunc("/quizzes/{quizID}/attempt", h.startAttempt).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/attempt", h.abandonAttempt).Methods(http.MethodDelete)
	api.HandleFunc("/quizzes/{quizID}/attempt/answers", h.recordAnswer).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{quizID}/attempt/submit", h.submitAttempt).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{quizID}/attempt/remaining", h.remainingTime).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{quizID}/attempt/timer", h.serveTimer).Methods(http.MethodGet)

	api.HandleFunc("/dashboard", h.userDashboard).Methods(http.MethodGet)
	api.HandleFunc("/scores", h.userScores).Methods(http.MethodGet)
	api.HandleFunc("/subjects", h.subjects).Methods(http.MethodGet)
	api.HandleFunc("/exports", h.requestExport).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.auth.RequireAdmin)
	admin.HandleFunc("/dashboard", h.adminDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/reports/activity", h.recentActivity).Methods(http.MethodGet)
	admin.HandleFunc("/reports/monthly", h.requestMonthlyReport).Methods(http.MethodPost)
	admin.HandleFunc("/cache", h.cacheInfo).Methods(http.MethodGet)
	admin.HandleFunc("/cache/clear", h.clearCache).Methods(http.MethodPost)

	return r
}

// startAttempt creates or resumes the caller's session for the quiz and
// returns the take-quiz payload. Reloading this endpoint never resets the timer.
func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	snapshot, err := h.attempts.Start(r.Context(), principal.ID, quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) abandonAttempt(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	h.attempts.Abandon(r.Context(), principal.ID, quizID)
	w.WriteHeader(http.StatusNoContent)
}

type recordAnswerRequest struct {
	QuestionID int64 `json:"questionId"`
	Option     int   `json:"option"`
}

func (h *Handler) recordAnswer(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.attempts.RecordAnswer(r.Context(), principal.ID, quizID, req.QuestionID, req.Option); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitRequest struct {
	Answers domain.AnswerMap `json:"answers"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if r.Body != nil {
		// A missing or empty body is fine; submit falls back to the answers
		// accumulated in the session.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	record, err := h.attempts.Submit(r.Context(), principal.ID, quizID, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.dashboards.InvalidateUser(r.Context(), principal.ID)
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) remainingTime(w http.ResponseWriter, r *http.Request) {
	principal, quizID, ok := h.attemptParams(w, r)
	if !ok {
		return
	}
	remaining, err := h.attempts.RemainingTime(r.Context(), principal.ID, quizID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"remainingSeconds": remaining})
}

func (h *Handler) userDashboard(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	payload, err := h.dashboards.UserDashboard(r.Context(), principal.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, payload)
}

func (h *Handler) userScores(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	payload, err := h.dashboards.UserScores(r.Context(), principal.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, payload)
}

func (h *Handler) subjects(w http.ResponseWriter, r *http.Request) {
	payload, err := h.dashboards.SubjectsList(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, payload)
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	payload, err := h.dashboards.AdminDashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, payload)
}

func (h *Handler) recentActivity(w http.ResponseWriter, r *http.Request) {
	payload, err := h.dashboards.RecentActivity(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRaw(w, payload)
}

// requestExport enqueues a CSV export of the caller's attempt history.
func (h *Handler) requestExport(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	handle, err := h.jobs.Submit(r.Context(), rabbit.TaskExportUserData, map[string]any{
		"principalId": principal.ID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"taskHandle": handle})
}

func (h *Handler) requestMonthlyReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrincipalID string `json:"principalId"`
		Format      string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		req.Format = "html"
	}
	handle, err := h.jobs.Submit(r.Context(), rabbit.TaskMonthlyReport, map[string]any{
		"principalId": req.PrincipalID,
		"format":      req.Format,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"taskHandle": handle})
}

func (h *Handler) cacheInfo(w http.ResponseWriter, _ *http.Request) {
	info := map[string]any{"backend": "redis"}
	if counter, ok := h.store.(interface{ Len() int }); ok {
		info["backend"] = "memory"
		info["entries"] = counter.Len()
	}
	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.store.ClearAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	principal, _ := PrincipalFrom(r.Context())
	h.log.Info("cache cleared", zap.String("by", principal.ID), zap.Int("entries", cleared))
	h.writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (h *Handler) attemptParams(w http.ResponseWriter, r *http.Request) (Principal, int64, bool) {
	principal, ok := PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Principal{}, 0, false
	}
	quizID, err := strconv.ParseInt(mux.Vars(r)["quizID"], 10, 64)
	if err != nil || quizID <= 0 {
		http.Error(w, "invalid quiz id", http.StatusBadRequest)
		return Principal{}, 0, false
	}
	return principal, quizID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("write response", zap.Error(err))
	}
}

func (h *Handler) writeRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAttemptFinalized):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrPersistence):
		// Retryable: the session and its answers are still alive server-side.
		http.Error(w, "error saving quiz score, please resubmit", http.StatusServiceUnavailable)
	default:
		h.log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
