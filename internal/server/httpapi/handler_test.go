package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
	"github.com/studaxis/studaxis/internal/server/auth"
	"github.com/studaxis/studaxis/internal/server/models"
	"github.com/studaxis/studaxis/internal/server/services"
)

const (
	testAPIKey = "test-key"
	testSecret = "test-secret"
)

type fakeContent struct {
	manifest *services.Manifest
	url      string
	rows     []*models.Quiz
	quiz     *models.Quiz
	err      error

	publishedBy string
}

func (f *fakeContent) FetchOfflineContent(ctx context.Context, userID, subject string) (*services.Manifest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.manifest, nil
}
func (f *fakeContent) GetQuizPresignedURL(ctx context.Context, quizID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}
func (f *fakeContent) ListQuizzes(ctx context.Context, subject string) ([]*models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}
func (f *fakeContent) PublishQuiz(ctx context.Context, teacherID string, in *services.PublishInput) (*models.Quiz, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.publishedBy = teacherID
	return f.quiz, nil
}

type fakeSync struct {
	lastAttempt *services.AttemptInput
	attemptRes  *services.AttemptResult
	streakRes   *services.StreakResult
	slot        *services.UploadSlot
	ingestRes   *services.IngestResult
	err         error
}

func (f *fakeSync) RecordAttempt(ctx context.Context, in *services.AttemptInput) (*services.AttemptResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastAttempt = in
	return f.attemptRes, nil
}
func (f *fakeSync) UpdateStreak(ctx context.Context, userID string, current, longest int) (*services.StreakResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.streakRes, nil
}
func (f *fakeSync) GetStatsUploadURL(ctx context.Context, userID string) (*services.UploadSlot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.slot, nil
}
func (f *fakeSync) IngestStats(ctx context.Context, snapshot *services.StatsSnapshot) (*services.IngestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ingestRes, nil
}

type fakeUsers struct {
	id   string
	pair *services.TokenPair
	err  error
}

func (f *fakeUsers) Register(ctx context.Context, role, username, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}
func (f *fakeUsers) Login(ctx context.Context, role, username, password string) (*services.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}
func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pair, nil
}

func newTestHandler(t *testing.T, fc *fakeContent, fs *fakeSync, fu *fakeUsers) *httptest.Server {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	h := NewHandler(fc, fs, fu, logger, testAPIKey, testSecret)
	srv := httptest.NewServer(h.Mux())
	t.Cleanup(srv.Close)
	return srv
}

func postGraphQL(t *testing.T, srv *httptest.Server, apiKey, bearer, query string, vars map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/graphql", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(common.APIKeyHeaderName, apiKey)
	}
	if bearer != "" {
		req.Header.Set(common.AuthHeaderName, "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestGraphQL_RequiresAPIKey(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, "", "", `{ listQuizzes }`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, envelope["errors"])
}

func TestGraphQL_FetchOfflineContent(t *testing.T) {
	fc := &fakeContent{manifest: &services.Manifest{
		ManifestID: "m-1", TotalItems: 1,
		Quizzes: []services.ManifestItem{{QuizID: "quiz_1", DownloadURL: "https://signed.example/q1"}},
	}}
	srv := newTestHandler(t, fc, &fakeSync{}, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, testAPIKey, "",
		`query FetchOfflineContent($userId: String!) { fetchOfflineContent(userId: $userId) { manifestId } }`,
		map[string]interface{}{"userId": "student_042", "subject": "All"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	manifest := data["fetchOfflineContent"].(map[string]interface{})
	assert.Equal(t, "m-1", manifest["manifestId"])
	assert.Equal(t, float64(1), manifest["totalItems"])
}

func TestGraphQL_RecordAttempt_SnakeCaseArgs(t *testing.T) {
	fs := &fakeSync{attemptRes: &services.AttemptResult{AttemptID: "a-1", AccuracyPercentage: 80}}
	srv := newTestHandler(t, &fakeContent{}, fs, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, testAPIKey, "",
		`mutation { recordQuizAttempt { attemptId } }`,
		map[string]interface{}{
			"user_id": "student_042", "quiz_id": "quiz_1",
			"score": 8, "total_questions": 10,
		})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope["data"])
	require.NotNil(t, fs.lastAttempt)
	assert.Equal(t, "student_042", fs.lastAttempt.UserID)
	assert.Equal(t, "quiz_1", fs.lastAttempt.QuizID)
	assert.Equal(t, 10, fs.lastAttempt.TotalQuestions)
}

func TestGraphQL_ValidationErrorKeeps200(t *testing.T) {
	fs := &fakeSync{err: common.ErrorValidation}
	srv := newTestHandler(t, &fakeContent{}, fs, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, testAPIKey, "",
		`mutation { recordQuizAttempt { attemptId } }`, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, envelope["errors"])
	assert.Nil(t, envelope["data"])
}

func TestGraphQL_UnknownOperation(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, testAPIKey, "", `{ dropAllTables }`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	errs := envelope["errors"].([]interface{})
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "unknown operation", first["message"])
}

func TestGraphQL_PublishQuiz_RequiresBearer(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{})

	resp, _ := postGraphQL(t, srv, testAPIKey, "",
		`mutation { publishQuiz { quiz_id } }`,
		map[string]interface{}{"quiz": map[string]interface{}{"title": "x"}})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGraphQL_PublishQuiz_WithToken(t *testing.T) {
	fc := &fakeContent{quiz: &models.Quiz{
		ID: "quiz_1", Title: "Fractions", Subject: "Math",
		QuestionCount: 1, StorageKey: "quizzes/math/quiz_1.json",
		CreatedAt: time.Now(),
	}}
	srv := newTestHandler(t, fc, &fakeSync{}, &fakeUsers{})

	token, err := auth.GenerateToken("t-1", []byte(testSecret), time.Minute)
	require.NoError(t, err)

	resp, envelope := postGraphQL(t, srv, testAPIKey, token,
		`mutation { publishQuiz { quiz_id } }`,
		map[string]interface{}{"quiz": map[string]interface{}{
			"title": "Fractions", "subject": "Math",
			"questions": []map[string]interface{}{{"question": "?", "options": []string{"a", "b"}, "correct_answer": "a"}},
		}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	published := data["publishQuiz"].(map[string]interface{})
	assert.Equal(t, "quiz_1", published["quiz_id"])
	assert.Equal(t, "t-1", fc.publishedBy)
}

func TestGraphQL_IngestStats(t *testing.T) {
	fs := &fakeSync{ingestRes: &services.IngestResult{Ingested: 2, Duplicates: 1}}
	srv := newTestHandler(t, &fakeContent{}, fs, &fakeUsers{})

	resp, envelope := postGraphQL(t, srv, testAPIKey, "",
		`mutation { ingestStudentStats { ingested } }`,
		map[string]interface{}{"snapshot": map[string]interface{}{
			"student_id":    "student_042",
			"device_id":     "dev-1",
			"quiz_attempts": 3,
			"attempts": []map[string]interface{}{
				{"quizId": "quiz_1", "score": 8, "totalQuestions": 10, "completedAtLocal": "2025-08-26T10:00:00Z"},
			},
		}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := envelope["data"].(map[string]interface{})
	res := data["ingestStudentStats"].(map[string]interface{})
	assert.Equal(t, float64(2), res["ingested"])
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAuth_Register(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{id: "s-1"})

	resp, out := postJSON(t, srv, "/auth/register",
		registerRequest{Role: "student", Username: "alice", Password: "pw"})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "s-1", out["userId"])
}

func TestAuth_Login(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{},
		&fakeUsers{pair: &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}})

	resp, out := postJSON(t, srv, "/auth/login",
		loginRequest{Role: "student", Username: "alice", Password: "pw"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "at", out["accessToken"])
	assert.Equal(t, "rt", out["refreshToken"])
}

func TestAuth_Login_Unauthorized(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{err: common.ErrorUnauthorized})

	resp, _ := postJSON(t, srv, "/auth/login",
		loginRequest{Role: "student", Username: "alice", Password: "bad"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_Refresh_Expired(t *testing.T) {
	srv := newTestHandler(t, &fakeContent{}, &fakeSync{}, &fakeUsers{err: common.ErrRefreshTokenExpired})

	resp, _ := postJSON(t, srv, "/auth/refresh", refreshRequest{RefreshToken: "old"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
