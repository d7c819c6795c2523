// Package httpapi exposes the content-index API: a GraphQL-shaped JSON
// endpoint at /graphql plus plain JSON auth endpoints under /auth/.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
	"github.com/studaxis/studaxis/internal/server/models"
	"github.com/studaxis/studaxis/internal/server/services"
)

// Small service surfaces, so handlers can be tested with fakes.

type contentService interface {
	FetchOfflineContent(ctx context.Context, userID, subject string) (*services.Manifest, error)
	GetQuizPresignedURL(ctx context.Context, quizID string) (string, error)
	ListQuizzes(ctx context.Context, subject string) ([]*models.Quiz, error)
	PublishQuiz(ctx context.Context, teacherID string, in *services.PublishInput) (*models.Quiz, error)
}

type syncService interface {
	RecordAttempt(ctx context.Context, in *services.AttemptInput) (*services.AttemptResult, error)
	UpdateStreak(ctx context.Context, userID string, current, longest int) (*services.StreakResult, error)
	GetStatsUploadURL(ctx context.Context, userID string) (*services.UploadSlot, error)
	IngestStats(ctx context.Context, snapshot *services.StatsSnapshot) (*services.IngestResult, error)
}

type userService interface {
	Register(ctx context.Context, role, username, password string) (string, error)
	Login(ctx context.Context, role, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type Handler struct {
	content   contentService
	sync      syncService
	users     userService
	logger    logging.Logger
	apiKey    string
	jwtSecret []byte
}

func NewHandler(cs contentService, ss syncService, us userService, logger logging.Logger, apiKey, secretKey string) *Handler {
	return &Handler{
		content:   cs,
		sync:      ss,
		users:     us,
		logger:    logger.With("module", "httpapi"),
		apiKey:    apiKey,
		jwtSecret: []byte(secretKey),
	}
}

// Mux wires up the routes.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /graphql", h.withRequestLog(h.requireAPIKey(http.HandlerFunc(h.handleGraphQL))))
	mux.Handle("POST /auth/register", h.withRequestLog(http.HandlerFunc(h.handleRegister)))
	mux.Handle("POST /auth/login", h.withRequestLog(http.HandlerFunc(h.handleLogin)))
	mux.Handle("POST /auth/refresh", h.withRequestLog(http.HandlerFunc(h.handleRefresh)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeGQLData(w http.ResponseWriter, field string, v interface{}) {
	writeJSON(w, http.StatusOK, gqlResponse{Data: map[string]interface{}{field: v}})
}

// writeGQLError reports a failed operation. Domain failures keep HTTP 200
// with an errors list, matching how GraphQL servers respond; only auth
// failures get a non-200 status.
func (h *Handler) writeGQLError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusOK
	message := "internal error"

	switch {
	case errors.Is(err, common.ErrorValidation):
		message = err.Error()
	case errors.Is(err, common.ErrorNotFound):
		message = "not found"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		status = http.StatusUnauthorized
		message = "unauthorized"
	default:
		h.logger.Error(ctx, "operation failed", "error", err.Error())
	}

	writeJSON(w, status, gqlResponse{Errors: []gqlError{{Message: message}}})
}

func (h *Handler) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, gqlResponse{Errors: []gqlError{{Message: "malformed request body"}}})
		return
	}

	field := operationField(req.Query)
	if req.Variables == nil {
		req.Variables = map[string]interface{}{}
	}

	switch field {
	case "fetchOfflineContent":
		h.fetchOfflineContent(ctx, w, req.Variables)
	case "getQuizPresignedUrl":
		h.getQuizPresignedURL(ctx, w, req.Variables)
	case "listQuizzes":
		h.listQuizzes(ctx, w, req.Variables)
	case "recordQuizAttempt":
		h.recordQuizAttempt(ctx, w, req.Variables)
	case "updateStreak":
		h.updateStreak(ctx, w, req.Variables)
	case "getStatsUploadUrl":
		h.getStatsUploadURL(ctx, w, req.Variables)
	case "ingestStudentStats":
		h.ingestStudentStats(ctx, w, req.Variables)
	case "publishQuiz":
		h.publishQuiz(ctx, w, r, req.Variables)
	default:
		writeJSON(w, http.StatusOK, gqlResponse{Errors: []gqlError{{Message: "unknown operation"}}})
	}
}

func (h *Handler) fetchOfflineContent(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	userID := argString(vars, "userId", "user_id")
	subject := argString(vars, "subject")

	manifest, err := h.content.FetchOfflineContent(ctx, userID, subject)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "fetchOfflineContent", manifest)
}

func (h *Handler) getQuizPresignedURL(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	quizID := argString(vars, "quizId", "quiz_id")

	url, err := h.content.GetQuizPresignedURL(ctx, quizID)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "getQuizPresignedUrl", map[string]interface{}{
		"quizId":         quizID,
		"offlineQuizUrl": url,
	})
}

func (h *Handler) listQuizzes(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	subject := argString(vars, "subject")

	rows, err := h.content.ListQuizzes(ctx, subject)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}

	items := make([]map[string]interface{}, 0, len(rows))
	for _, q := range rows {
		items = append(items, map[string]interface{}{
			"quiz_id":        q.ID,
			"title":          q.Title,
			"subject":        q.Subject,
			"difficulty":     q.Difficulty,
			"question_count": q.QuestionCount,
			"created_at":     q.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	h.writeGQLData(w, "listQuizzes", items)
}

func (h *Handler) recordQuizAttempt(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	in := &services.AttemptInput{
		UserID:           argString(vars, "userId", "user_id"),
		QuizID:           argString(vars, "quizId", "quiz_id"),
		Score:            argInt(vars, "score"),
		TotalQuestions:   argInt(vars, "totalQuestions", "total_questions"),
		Subject:          argString(vars, "subject"),
		Difficulty:       argString(vars, "difficulty"),
		DeviceID:         argString(vars, "deviceId", "device_id"),
		CompletedAtLocal: argString(vars, "completedAtLocal", "completed_at_local"),
	}

	res, err := h.sync.RecordAttempt(ctx, in)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "recordQuizAttempt", res)
}

func (h *Handler) updateStreak(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	res, err := h.sync.UpdateStreak(ctx,
		argString(vars, "userId", "user_id"),
		argInt(vars, "currentStreak", "current_streak"),
		argInt(vars, "longestStreak", "longest_streak"))
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "updateStreak", res)
}

func (h *Handler) getStatsUploadURL(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	slot, err := h.sync.GetStatsUploadURL(ctx, argString(vars, "userId", "user_id"))
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "getStatsUploadUrl", slot)
}

func (h *Handler) ingestStudentStats(ctx context.Context, w http.ResponseWriter, vars map[string]interface{}) {
	snapshot := &services.StatsSnapshot{}
	if !argObject(vars, snapshot, "snapshot", "stats") {
		h.writeGQLError(ctx, w, fmt.Errorf("%w: snapshot is required", common.ErrorValidation))
		return
	}

	res, err := h.sync.IngestStats(ctx, snapshot)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "ingestStudentStats", res)
}

// publishQuiz is the only operation that needs a user identity: the quiz is
// attributed to the teacher from the Bearer token.
func (h *Handler) publishQuiz(ctx context.Context, w http.ResponseWriter, r *http.Request, vars map[string]interface{}) {
	teacherID, err := h.bearerUserID(r)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}

	in := &services.PublishInput{}
	if !argObject(vars, in, "quiz") {
		h.writeGQLError(ctx, w, fmt.Errorf("%w: quiz is required", common.ErrorValidation))
		return
	}

	quiz, err := h.content.PublishQuiz(ctx, teacherID, in)
	if err != nil {
		h.writeGQLError(ctx, w, err)
		return
	}
	h.writeGQLData(w, "publishQuiz", map[string]interface{}{
		"quiz_id":        quiz.ID,
		"title":          quiz.Title,
		"subject":        quiz.Subject,
		"difficulty":     quiz.Difficulty,
		"question_count": quiz.QuestionCount,
		"s3_key":         quiz.StorageKey,
		"created_at":     quiz.CreatedAt.UTC().Format(time.RFC3339),
	})
}
