// Package remote implements the client of the content-index service: a
// GraphQL-shaped JSON-over-HTTPS API that returns manifests with time-limited
// download URLs and accepts progress mutations.
//
// Connectivity failures and server rejections both degrade to cached data;
// the two cases are kept apart only as sentinels (common.ErrOffline vs
// common.ErrRemoteRejected) so logs can tell them apart.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studaxis/studaxis/internal/client/cache"
	"github.com/studaxis/studaxis/internal/client/models"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

const defaultTimeout = 15 * time.Second

const fetchOfflineContentQuery = `
query FetchOfflineContent($userId: String!, $subject: String) {
  fetchOfflineContent(userId: $userId, subject: $subject) {
    manifestId
    generatedAt
    totalItems
    presignedUrlExpirySeconds
    quizzes {
      quiz_id
      title
      subject
      difficulty
      s3_key
      offlineQuizUrl
      question_count
      created_at
    }
  }
}`

const recordQuizAttemptMutation = `
mutation RecordQuizAttempt($userId: String!, $quizId: String!, $score: Int!, $totalQuestions: Int!, $subject: String, $difficulty: String, $deviceId: String, $completedAtLocal: String) {
  recordQuizAttempt(userId: $userId, quizId: $quizId, score: $score, totalQuestions: $totalQuestions, subject: $subject, difficulty: $difficulty, deviceId: $deviceId, completedAtLocal: $completedAtLocal) {
    attemptId
    accuracyPercentage
    syncedAt
  }
}`

const getStatsUploadURLMutation = `
mutation GetStatsUploadUrl($userId: String!) {
  getStatsUploadUrl(userId: $userId) {
    uploadUrl
    expiresAt
  }
}`

// AttemptReport is one completed quiz result pushed to the index.
type AttemptReport struct {
	UserID           string
	QuizID           string
	Score            int
	TotalQuestions   int
	Subject          string
	Difficulty       string
	DeviceID         string
	CompletedAtLocal string
}

// Client talks to the content-index endpoint. A successful manifest fetch is
// persisted through the cache store before it is returned.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Store
	logger     logging.Logger
}

// New returns a Client. An empty endpoint is allowed and makes every fetch
// report ErrOffline, which keeps a fully offline install working.
func New(endpoint, apiKey string, store *cache.Store, logger logging.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      store,
		logger:     logger.With("module", "remote"),
	}
}

// SetTimeout overrides the per-request timeout (default 15s).
func (c *Client) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any) (*gqlData, error) {
	if c.endpoint == "" {
		c.logger.Warn(ctx, "content-index endpoint not configured, staying offline")
		return nil, common.ErrOffline
	}

	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.APIKeyHeaderName, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Info(ctx, "content index unreachable", "error", err.Error())
		return nil, common.ErrOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error(ctx, "content index rejected request", "status", resp.StatusCode)
		return nil, common.ErrRemoteRejected
	}

	var envelope gqlEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Error(ctx, "content index returned malformed body", "error", err.Error())
		return nil, common.ErrRemoteRejected
	}
	if len(envelope.Errors) > 0 {
		c.logger.Error(ctx, "content index returned errors", "message", envelope.Errors[0].Message)
		return nil, common.ErrRemoteRejected
	}

	return &envelope.Data, nil
}

// FetchManifest queries the index for the user's assigned content. On any
// failure the returned error is one of the degrade-to-cache sentinels; the
// caller is expected to fall back to the local cache, not to surface it.
func (c *Client) FetchManifest(ctx context.Context, userID, subject string) (*models.Manifest, error) {
	if subject == "" {
		subject = "All"
	}

	data, err := c.post(ctx, fetchOfflineContentQuery, map[string]any{
		"userId":  userID,
		"subject": subject,
	})
	if err != nil {
		return nil, err
	}
	if data.FetchOfflineContent == nil {
		c.logger.Error(ctx, "content index response missing manifest")
		return nil, common.ErrRemoteRejected
	}

	manifest := data.FetchOfflineContent.toDomain()
	if err := c.cache.SaveManifest(manifest); err != nil {
		// The manifest is still usable for this sync; only offline
		// reference is lost.
		c.logger.Error(ctx, "failed to persist manifest", "error", err.Error())
	}

	c.logger.Info(ctx, "fetched manifest", "items", manifest.TotalItems, "manifest_id", manifest.ManifestID)
	return manifest, nil
}

// RecordAttempt pushes one completed quiz result. Unlike manifest fetches
// this is an explicit action, so errors surface to the caller.
func (c *Client) RecordAttempt(ctx context.Context, report AttemptReport) error {
	data, err := c.post(ctx, recordQuizAttemptMutation, map[string]any{
		"userId":           report.UserID,
		"quizId":           report.QuizID,
		"score":            report.Score,
		"totalQuestions":   report.TotalQuestions,
		"subject":          report.Subject,
		"difficulty":       report.Difficulty,
		"deviceId":         report.DeviceID,
		"completedAtLocal": report.CompletedAtLocal,
	})
	if err != nil {
		return err
	}
	if data.RecordQuizAttempt == nil {
		return common.ErrRemoteRejected
	}
	c.logger.Info(ctx, "attempt recorded", "attempt_id", data.RecordQuizAttempt.AttemptID)
	return nil
}

// GetStatsUploadURL asks the index for a presigned PUT URL for the local
// stats snapshot.
func (c *Client) GetStatsUploadURL(ctx context.Context, userID string) (string, error) {
	data, err := c.post(ctx, getStatsUploadURLMutation, map[string]any{"userId": userID})
	if err != nil {
		return "", err
	}
	if data.GetStatsUploadURL == nil || data.GetStatsUploadURL.UploadURL == "" {
		return "", common.ErrRemoteRejected
	}
	return data.GetStatsUploadURL.UploadURL, nil
}
