package remote

import "github.com/studaxis/studaxis/internal/client/models"

// Wire DTOs for the GraphQL-shaped content-index API. Field spellings are
// resolved to the canonical domain names here, once, at the boundary.

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlEnvelope struct {
	Data   gqlData    `json:"data"`
	Errors []gqlError `json:"errors,omitempty"`
}

type gqlData struct {
	FetchOfflineContent *manifestDTO    `json:"fetchOfflineContent,omitempty"`
	RecordQuizAttempt   *attemptDTO     `json:"recordQuizAttempt,omitempty"`
	GetStatsUploadURL   *uploadSlotDTO  `json:"getStatsUploadUrl,omitempty"`
	UpdateStreak        *streakDTO      `json:"updateStreak,omitempty"`
}

type manifestDTO struct {
	ManifestID       string        `json:"manifestId"`
	GeneratedAt      string        `json:"generatedAt"`
	UserID           string        `json:"userId"`
	TotalItems       int           `json:"totalItems"`
	URLExpirySeconds int           `json:"presignedUrlExpirySeconds"`
	Quizzes          []quizMetaDTO `json:"quizzes"`
}

type quizMetaDTO struct {
	QuizID         string `json:"quiz_id"`
	Title          string `json:"title"`
	Subject        string `json:"subject"`
	Difficulty     string `json:"difficulty"`
	S3Key          string `json:"s3_key"`
	OfflineQuizURL string `json:"offlineQuizUrl"`
	QuestionCount  int    `json:"question_count"`
	CreatedAt      string `json:"created_at"`
}

type attemptDTO struct {
	AttemptID          string  `json:"attemptId"`
	UserID             string  `json:"userId"`
	QuizID             string  `json:"quizId"`
	Score              int     `json:"score"`
	TotalQuestions     int     `json:"totalQuestions"`
	AccuracyPercentage float64 `json:"accuracyPercentage"`
	SyncedAt           string  `json:"syncedAt"`
}

type uploadSlotDTO struct {
	UploadURL string `json:"uploadUrl"`
	ExpiresAt string `json:"expiresAt"`
}

type streakDTO struct {
	UserID        string `json:"userId"`
	CurrentStreak int    `json:"currentStreak"`
	SyncedAt      string `json:"syncedAt"`
}

func (m *manifestDTO) toDomain() *models.Manifest {
	out := &models.Manifest{
		ManifestID:       m.ManifestID,
		GeneratedAt:      m.GeneratedAt,
		UserID:           m.UserID,
		TotalItems:       m.TotalItems,
		URLExpirySeconds: m.URLExpirySeconds,
		Items:            make([]models.ContentDescriptor, 0, len(m.Quizzes)),
	}
	for _, q := range m.Quizzes {
		out.Items = append(out.Items, models.ContentDescriptor{
			ID:            q.QuizID,
			Title:         q.Title,
			Subject:       q.Subject,
			Difficulty:    q.Difficulty,
			StorageKey:    q.S3Key,
			DownloadURL:   q.OfflineQuizURL,
			QuestionCount: q.QuestionCount,
			CreatedAt:     q.CreatedAt,
		})
	}
	return out
}
