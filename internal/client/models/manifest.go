package models

// ContentDescriptor identifies one downloadable unit in a manifest.
// ID is stable across manifests: re-fetching the same content under the
// same id is idempotent.
type ContentDescriptor struct {
	ID            string `json:"quiz_id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	StorageKey    string `json:"s3_key"`
	DownloadURL   string `json:"offlineQuizUrl"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     string `json:"created_at"`
}

// Manifest is the result of one content-index query. It is created fresh on
// each successful fetch, persisted as the last-known manifest, and never
// mutated afterwards.
type Manifest struct {
	ManifestID       string              `json:"manifestId"`
	GeneratedAt      string              `json:"generatedAt"`
	UserID           string              `json:"userId"`
	TotalItems       int                 `json:"totalItems"`
	URLExpirySeconds int                 `json:"presignedUrlExpirySeconds"`
	Items            []ContentDescriptor `json:"quizzes"`
}

// SyncResult aggregates the outcome of one sync pass. It is transient and
// never persisted.
type SyncResult struct {
	Downloaded int
	Cached     int
	Failed     int
	Quizzes    []Quiz
}

// HasItems reports whether the sync produced any usable content.
func (r SyncResult) HasItems() bool {
	return len(r.Quizzes) > 0
}
