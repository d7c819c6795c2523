package progress

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	s, err := New(filepath.Join(t.TempDir(), "data"), logger)
	require.NoError(t, err)
	return s
}

func TestInitAndLoad(t *testing.T) {
	s := newStore(t)

	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)
	assert.Equal(t, "student_001", stats.UserID)
	assert.Equal(t, "Beginner", stats.Preferences.DifficultyLevel)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)
}

func TestLoad_MissingIsNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLoad_CorruptRestoresFromBackup(t *testing.T) {
	s := newStore(t)

	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)

	// a save with backup preserves the good copy, then the primary rots
	require.NoError(t, s.Save(stats, true))
	require.NoError(t, os.WriteFile(s.statsPath, []byte("{oops"), 0o660))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "student_001", loaded.UserID)
}

func mathAttempt(score, total int) PendingAttempt {
	return PendingAttempt{
		QuizID: "quiz_1", Subject: "Mathematics", Difficulty: "easy",
		Score: score, TotalQuestions: total,
	}
}

func TestApplyAttempt_UpdatesAggregatesAndStreak(t *testing.T) {
	s := newStore(t)
	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)

	require.NoError(t, s.ApplyAttempt(stats, mathAttempt(4, 5)))

	assert.Equal(t, 1, stats.QuizStats.TotalAttempted)
	assert.Equal(t, 4, stats.QuizStats.TotalCorrect)
	assert.InDelta(t, 80.0, stats.QuizStats.AverageScore, 0.01)
	assert.Equal(t, 1, stats.QuizStats.BySubject["Mathematics"])
	assert.GreaterOrEqual(t, stats.Streak.Current, 1)
	assert.GreaterOrEqual(t, stats.Streak.Longest, stats.Streak.Current)

	// second attempt averages in
	require.NoError(t, s.ApplyAttempt(stats, mathAttempt(5, 5)))
	assert.Equal(t, 2, stats.QuizStats.TotalAttempted)
	assert.InDelta(t, 90.0, stats.QuizStats.AverageScore, 0.01)
}

func TestApplyAttempt_QueuesForPush(t *testing.T) {
	s := newStore(t)
	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)

	require.NoError(t, s.ApplyAttempt(stats, mathAttempt(4, 5)))
	require.Len(t, stats.PendingAttempts, 1)
	assert.Equal(t, "quiz_1", stats.PendingAttempts[0].QuizID)
	assert.NotEmpty(t, stats.PendingAttempts[0].CompletedAtLocal)

	snap := s.Snapshot(stats)
	assert.Equal(t, 1, snap.QuizAttempts)
	require.Len(t, snap.Attempts, 1)
	assert.Equal(t, stats.PendingAttempts[0], snap.Attempts[0])
}

func TestApplyAttempt_Validation(t *testing.T) {
	s := newStore(t)
	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ApplyAttempt(stats, mathAttempt(1, 0)), common.ErrorValidation)
	assert.ErrorIs(t, s.ApplyAttempt(stats, mathAttempt(-1, 5)), common.ErrorValidation)
	assert.ErrorIs(t, s.ApplyAttempt(stats, mathAttempt(6, 5)), common.ErrorValidation)
}

type fakeURLProvider struct {
	url string
	err error
}

func (f *fakeURLProvider) GetStatsUploadURL(ctx context.Context, userID string) (string, error) {
	return f.url, f.err
}

func TestPusher_PushUploadsSnapshot(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4096)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newStore(t)
	stats, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)
	require.NoError(t, s.ApplyAttempt(stats, mathAttempt(3, 5)))

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	p := NewPusher(&fakeURLProvider{url: srv.URL}, s, logger)

	require.NoError(t, p.Push(context.Background()))
	assert.Contains(t, gotBody, `"student_id":"student_001"`)
	assert.Contains(t, gotBody, `"quiz_attempts":1`)
	assert.Contains(t, gotBody, `"quizId":"quiz_1"`)

	// delivered attempts leave the queue
	after, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, after.PendingAttempts)
}

func TestPusher_PushFailsWithoutStats(t *testing.T) {
	s := newStore(t)
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	p := NewPusher(&fakeURLProvider{url: "http://unused"}, s, logger)

	err := p.Push(context.Background())
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPusher_PushSurfacesProviderError(t *testing.T) {
	s := newStore(t)
	_, err := s.Init("student_001", "DEV-001")
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	p := NewPusher(&fakeURLProvider{err: common.ErrOffline}, s, logger)

	assert.ErrorIs(t, p.Push(context.Background()), common.ErrOffline)
}
