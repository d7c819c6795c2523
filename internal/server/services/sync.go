package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/dbx"
	"github.com/studaxis/studaxis/internal/logging"
	sc "github.com/studaxis/studaxis/internal/server/config"
	"github.com/studaxis/studaxis/internal/server/models"
	"github.com/studaxis/studaxis/internal/server/repositories/repomanager"
)

// AttemptInput is one completed quiz attempt reported by a device.
type AttemptInput struct {
	UserID           string `json:"userId"`
	QuizID           string `json:"quizId"`
	Score            int    `json:"score"`
	TotalQuestions   int    `json:"totalQuestions"`
	Subject          string `json:"subject"`
	Difficulty       string `json:"difficulty"`
	DeviceID         string `json:"deviceId"`
	CompletedAtLocal string `json:"completedAtLocal"`
}

// AttemptResult acknowledges one recorded attempt.
type AttemptResult struct {
	AttemptID          string  `json:"attemptId"`
	AccuracyPercentage float64 `json:"accuracyPercentage"`
	SyncedAt           string  `json:"syncedAt"`
}

// StreakResult acknowledges a streak update. Streak state is owned by the
// device; the server echoes the reconciled values back.
type StreakResult struct {
	UserID        string `json:"userId"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	UpdatedAt     string `json:"updatedAt"`
}

// UploadSlot is a presigned PUT target for a device stats snapshot.
type UploadSlot struct {
	UploadURL string `json:"uploadUrl"`
	ExpiresAt string `json:"expiresAt"`
}

// StatsSnapshot mirrors the stats document a device uploads: identity,
// aggregate counters, and the individual attempts accumulated while offline.
type StatsSnapshot struct {
	StudentID    string         `json:"student_id"`
	DeviceID     string         `json:"device_id"`
	QuizAttempts int            `json:"quiz_attempts"`
	TotalScore   float64        `json:"total_score"`
	Streak       int            `json:"streak"`
	LastSync     string         `json:"last_sync"`
	Attempts     []AttemptInput `json:"attempts"`
}

// IngestResult reports how a snapshot replay went.
type IngestResult struct {
	Ingested   int `json:"ingested"`
	Duplicates int `json:"duplicates"`
}

type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewSyncService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "sync"),
	}
}

func validateAttempt(in *AttemptInput) error {
	if in.UserID == "" || in.QuizID == "" {
		return fmt.Errorf("%w: userId and quizId are required", common.ErrorValidation)
	}
	if in.TotalQuestions <= 0 {
		return fmt.Errorf("%w: totalQuestions must be positive", common.ErrorValidation)
	}
	if in.Score < 0 || in.Score > in.TotalQuestions {
		return fmt.Errorf("%w: score must be between 0 and totalQuestions", common.ErrorValidation)
	}
	return nil
}

// attemptID derives a deterministic id so the same attempt replayed from an
// offline snapshot never inserts twice. The local completion time anchors the
// id; an unparseable one falls back to the sync time.
func attemptID(in *AttemptInput) string {
	ts := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, in.CompletedAtLocal); err == nil {
		ts = t.UTC()
	}
	return fmt.Sprintf("%s_%s_%d", in.UserID, in.QuizID, ts.Unix())
}

func attemptFromInput(in *AttemptInput) *models.Attempt {
	accuracy := float64(in.Score) / float64(in.TotalQuestions) * 100
	return &models.Attempt{
		ID:               attemptID(in),
		UserID:           in.UserID,
		QuizID:           in.QuizID,
		Score:            in.Score,
		TotalQuestions:   in.TotalQuestions,
		Accuracy:         accuracy,
		Subject:          in.Subject,
		Difficulty:       in.Difficulty,
		DeviceID:         in.DeviceID,
		CompletedAtLocal: in.CompletedAtLocal,
	}
}

// RecordAttempt validates and stores one attempt. Storing the attempt and
// advancing the student's last-sync time happen in one transaction.
func (s *SyncService) RecordAttempt(ctx context.Context, in *AttemptInput) (*AttemptResult, error) {
	if err := validateAttempt(in); err != nil {
		return nil, err
	}

	attempt := attemptFromInput(in)
	syncedAt := time.Now().UTC()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		attemptRepo := s.repomanager.Attempts(tx)
		if _, err := attemptRepo.CreateIfAbsent(ctx, attempt); err != nil {
			return err
		}

		studentRepo := s.repomanager.Students(tx)
		if err := studentRepo.UpdateLastSync(ctx, in.UserID, syncedAt); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error recording attempt: %v", err)
	}

	return &AttemptResult{
		AttemptID:          attempt.ID,
		AccuracyPercentage: attempt.Accuracy,
		SyncedAt:           syncedAt.Format(time.RFC3339),
	}, nil
}

// UpdateStreak reconciles a device-reported streak. The longest streak can
// only grow.
func (s *SyncService) UpdateStreak(ctx context.Context, userID string, current, longest int) (*StreakResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", common.ErrorValidation)
	}
	if current < 0 || longest < 0 {
		return nil, fmt.Errorf("%w: streaks cannot be negative", common.ErrorValidation)
	}
	if current > longest {
		longest = current
	}

	now := time.Now().UTC()
	studentRepo := s.repomanager.Students(s.db)
	if err := studentRepo.UpdateLastSync(ctx, userID, now); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return &StreakResult{
		UserID:        userID,
		CurrentStreak: current,
		LongestStreak: longest,
		UpdatedAt:     now.Format(time.RFC3339),
	}, nil
}

// GetStatsUploadURL hands out a presigned PUT target under the user's sync
// prefix in the bucket.
func (s *SyncService) GetStatsUploadURL(ctx context.Context, userID string) (*UploadSlot, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", common.ErrorValidation)
	}

	content := NewContentService(s.db, s.repomanager, s.config, s.logger)
	presignClient, err := content.getPresignClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := fmt.Sprintf("sync/%s/%s.json", userID, uuid.New())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignExpiry))
	if err != nil {
		return nil, err
	}

	return &UploadSlot{
		UploadURL: req.URL,
		ExpiresAt: time.Now().UTC().Add(s.config.PresignExpiry).Format(time.RFC3339),
	}, nil
}

// IngestStats replays the attempts from an uploaded device snapshot.
// Attempts already recorded (same derived id) count as duplicates, so
// re-processing the same snapshot is harmless.
func (s *SyncService) IngestStats(ctx context.Context, snapshot *StatsSnapshot) (*IngestResult, error) {
	if snapshot.StudentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", common.ErrorValidation)
	}

	result := &IngestResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		attemptRepo := s.repomanager.Attempts(tx)

		for i := range snapshot.Attempts {
			in := snapshot.Attempts[i]
			if in.UserID == "" {
				in.UserID = snapshot.StudentID
			}
			if in.DeviceID == "" {
				in.DeviceID = snapshot.DeviceID
			}
			if err := validateAttempt(&in); err != nil {
				return err
			}

			inserted, err := attemptRepo.CreateIfAbsent(ctx, attemptFromInput(&in))
			if err != nil {
				return err
			}
			if inserted {
				result.Ingested++
			} else {
				result.Duplicates++
			}
		}

		studentRepo := s.repomanager.Students(tx)
		if err := studentRepo.UpdateLastSync(ctx, snapshot.StudentID, time.Now().UTC()); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error ingesting stats: %v", err)
	}

	return result, nil
}
