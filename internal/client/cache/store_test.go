package cache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studaxis/studaxis/internal/client/models"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	s, err := New(filepath.Join(t.TempDir(), "quiz_cache"), logger)
	require.NoError(t, err)
	return s
}

func sampleQuiz(id, createdAt string) *models.Quiz {
	return &models.Quiz{
		QuizID:    id,
		Title:     "Fractions basics",
		Subject:   "Mathematics",
		CreatedAt: createdAt,
		Questions: []models.Question{
			{Question: "1/2 + 1/4 = ?", Options: []string{"3/4", "2/6"}, CorrectAnswer: "3/4"},
		},
	}
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	want := sampleQuiz("quiz_ab12", "2026-03-01T10:00:00Z")

	require.NoError(t, s.Put("quiz_ab12", want))

	got, err := s.Get("quiz_ab12")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_GetAbsent(t *testing.T) {
	s := newStore(t)

	_, err := s.Get("quiz_missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_CorruptEntryTreatedAsAbsent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "quiz_bad.json"), []byte("{not json"), 0o660))

	_, err := s.Get("quiz_bad")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_ExistsDoesNotParse(t *testing.T) {
	s := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "quiz_bad.json"), []byte("{not json"), 0o660))

	assert.True(t, s.Exists("quiz_bad"))
	assert.False(t, s.Exists("quiz_other"))
}

func TestStore_RejectsPathLikeIDs(t *testing.T) {
	s := newStore(t)

	err := s.Put("../escape", sampleQuiz("x", ""))
	require.Error(t, err)

	_, err = s.Get("../escape")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestStore_ListAll_NewestFirstSkipsUnreadable(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Put("quiz_old", sampleQuiz("quiz_old", "2026-01-01T00:00:00Z")))
	require.NoError(t, s.Put("quiz_new", sampleQuiz("quiz_new", "2026-03-01T00:00:00Z")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "quiz_bad.json"), []byte("oops"), 0o660))

	got := s.ListAll()
	require.Len(t, got, 2)
	assert.Equal(t, "quiz_new", got[0].QuizID)
	assert.Equal(t, "quiz_old", got[1].QuizID)
}

func TestStore_ListAll_IgnoresManifest(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Put("quiz_a", sampleQuiz("quiz_a", "")))
	require.NoError(t, s.SaveManifest(&models.Manifest{ManifestID: "m1"}))

	assert.Len(t, s.ListAll(), 1)
}

func TestStore_ClearRemovesEntriesAndManifest(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Put("quiz_a", sampleQuiz("quiz_a", "")))
	require.NoError(t, s.SaveManifest(&models.Manifest{ManifestID: "m1"}))

	s.Clear()

	assert.Empty(t, s.ListAll())
	_, err := s.LoadManifest()
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, s.Stats().Count)
}

func TestStore_Stats(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Put("quiz_a", sampleQuiz("quiz_a", "")))
	require.NoError(t, s.Put("quiz_b", sampleQuiz("quiz_b", "")))
	require.NoError(t, s.SaveManifest(&models.Manifest{ManifestID: "m1"}))

	st := s.Stats()
	assert.Equal(t, 2, st.Count)
	assert.Greater(t, st.TotalBytes, int64(0))
	assert.Equal(t, s.Dir(), st.Dir)
}

func TestStore_ManifestRoundTrip(t *testing.T) {
	s := newStore(t)
	want := &models.Manifest{
		ManifestID:       "abc123",
		GeneratedAt:      "2026-03-02T12:00:00Z",
		UserID:           "student_001",
		TotalItems:       1,
		URLExpirySeconds: 3600,
		Items: []models.ContentDescriptor{
			{ID: "quiz_a", Title: "T", DownloadURL: "https://x/quiz_a.json"},
		},
	}

	require.NoError(t, s.SaveManifest(want))

	got, err := s.LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
