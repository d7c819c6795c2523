// Package services implements the content-index business logic on top of the
// repositories and object storage.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
	sc "github.com/studaxis/studaxis/internal/server/config"
	"github.com/studaxis/studaxis/internal/server/models"
	"github.com/studaxis/studaxis/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// ManifestItem is one downloadable quiz in a manifest. Field names follow the
// wire contract consumed by the student app.
type ManifestItem struct {
	QuizID        string `json:"quiz_id"`
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	StorageKey    string `json:"s3_key"`
	DownloadURL   string `json:"offlineQuizUrl"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     string `json:"created_at"`
}

// Manifest is the answer to a fetchOfflineContent query: every matching quiz
// with a time-limited download URL.
type Manifest struct {
	ManifestID                string         `json:"manifestId"`
	GeneratedAt               string         `json:"generatedAt"`
	UserID                    string         `json:"userId"`
	TotalItems                int            `json:"totalItems"`
	PresignedURLExpirySeconds int            `json:"presignedUrlExpirySeconds"`
	Quizzes                   []ManifestItem `json:"quizzes"`
}

// QuestionInput is one question of a quiz being published. The correct
// answer is the option text itself, as stored in the quiz documents student
// devices download.
type QuestionInput struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// PublishInput is a quiz a teacher submits for distribution. ID is optional;
// a missing id gets generated.
type PublishInput struct {
	ID         string          `json:"quiz_id"`
	Title      string          `json:"title"`
	Subject    string          `json:"subject"`
	Difficulty string          `json:"difficulty"`
	Questions  []QuestionInput `json:"questions"`
}

// quizPayload is the document stored in the bucket and later downloaded by
// student devices.
type quizPayload struct {
	QuizID     string          `json:"quiz_id"`
	Title      string          `json:"title"`
	Subject    string          `json:"subject"`
	Difficulty string          `json:"difficulty"`
	Questions  []QuestionInput `json:"questions"`
	CreatedAt  string          `json:"created_at"`
}

type ContentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger
}

func NewContentService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *ContentService {
	return &ContentService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		logger:      logger.With("module", "content"),
	}
}

func (s *ContentService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *ContentService) getPresignClient() (*s3.PresignClient, error) {
	client, err := s.getS3Client()
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// GetPresignedGetUrl returns a time-limited download URL for an object key.
func (s *ContentService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.PresignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// QuizStorageKey derives the bucket key for a published quiz.
func QuizStorageKey(subject, quizID string) string {
	return fmt.Sprintf("quizzes/%s/%s.json", strings.ToLower(subject), quizID)
}

// FetchOfflineContent builds a download manifest for the user. Subject "All"
// (or empty) selects every quiz. Index rows without a storage key are skipped
// with a warning, and a presign failure leaves that item's URL empty rather
// than failing the whole manifest. The student's last-sync time is read for
// logging only; it advances when the device reports progress, not here.
func (s *ContentService) FetchOfflineContent(ctx context.Context, userID, subject string) (*Manifest, error) {
	quizRepo := s.repomanager.Quizzes(s.db)

	var rows []*models.Quiz
	var err error
	if subject == "" || subject == "All" {
		rows, err = quizRepo.SelectAll(ctx)
	} else {
		rows, err = quizRepo.SelectBySubject(ctx, subject)
	}
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		ManifestID:                uuid.New().String(),
		GeneratedAt:               time.Now().UTC().Format(time.RFC3339),
		UserID:                    userID,
		PresignedURLExpirySeconds: int(s.config.PresignExpiry.Seconds()),
		Quizzes:                   []ManifestItem{},
	}

	for _, q := range rows {
		if q.StorageKey == "" {
			s.logger.Warn(ctx, "quiz has no storage key, skipping", "quiz_id", q.ID)
			continue
		}
		url, err := s.GetPresignedGetUrl(ctx, q.StorageKey)
		if err != nil {
			s.logger.Error(ctx, "could not presign quiz, leaving url empty",
				"quiz_id", q.ID, "error", err.Error())
			url = ""
		}
		manifest.Quizzes = append(manifest.Quizzes, ManifestItem{
			QuizID:        q.ID,
			Title:         q.Title,
			Subject:       q.Subject,
			Difficulty:    q.Difficulty,
			StorageKey:    q.StorageKey,
			DownloadURL:   url,
			QuestionCount: q.QuestionCount,
			CreatedAt:     q.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	manifest.TotalItems = len(manifest.Quizzes)

	studentRepo := s.repomanager.Students(s.db)
	if last, err := studentRepo.GetLastSync(ctx, userID); err == nil && last != nil {
		s.logger.Info(ctx, "manifest built",
			"user", userID, "items", manifest.TotalItems,
			"last_sync", last.UTC().Format(time.RFC3339))
	} else {
		s.logger.Info(ctx, "manifest built for never-synced user",
			"user", userID, "items", manifest.TotalItems)
	}

	return manifest, nil
}

// GetQuizPresignedURL returns a fresh download URL for one quiz.
func (s *ContentService) GetQuizPresignedURL(ctx context.Context, quizID string) (string, error) {
	quizRepo := s.repomanager.Quizzes(s.db)

	quiz, err := quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return "", err
	}
	if quiz.StorageKey == "" {
		return "", common.ErrorNotFound
	}

	return s.GetPresignedGetUrl(ctx, quiz.StorageKey)
}

// ListQuizzes returns the index rows, optionally filtered by subject.
func (s *ContentService) ListQuizzes(ctx context.Context, subject string) ([]*models.Quiz, error) {
	quizRepo := s.repomanager.Quizzes(s.db)

	if subject == "" || subject == "All" {
		return quizRepo.SelectAll(ctx)
	}
	return quizRepo.SelectBySubject(ctx, subject)
}

// PublishQuiz stores the quiz payload in the bucket and upserts its index
// row. Republishing an existing id replaces the payload and metadata.
func (s *ContentService) PublishQuiz(ctx context.Context, teacherID string, in *PublishInput) (*models.Quiz, error) {
	if in.Title == "" || in.Subject == "" || len(in.Questions) == 0 {
		return nil, fmt.Errorf("%w: title, subject and questions are required", common.ErrorValidation)
	}
	for i, q := range in.Questions {
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return nil, fmt.Errorf("%w: question %d correct_answer is not one of its options", common.ErrorValidation, i)
		}
	}

	quizID := in.ID
	if quizID == "" {
		suffix, err := common.MakeRandHexString(8)
		if err != nil {
			return nil, common.ErrorInternal
		}
		quizID = "quiz_" + suffix
	}

	now := time.Now().UTC()
	payload := quizPayload{
		QuizID:     quizID,
		Title:      in.Title,
		Subject:    in.Subject,
		Difficulty: in.Difficulty,
		Questions:  in.Questions,
		CreatedAt:  now.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding quiz: %v", err)
	}

	client, err := s.getS3Client()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := QuizStorageKey(in.Subject, quizID)
	contentType := "application/json"

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	}); err != nil {
		return nil, fmt.Errorf("error uploading quiz: %v", err)
	}

	quiz := &models.Quiz{
		ID:            quizID,
		Title:         in.Title,
		Subject:       in.Subject,
		Difficulty:    in.Difficulty,
		QuestionCount: len(in.Questions),
		StorageKey:    key,
		CreatedBy:     teacherID,
		CreatedAt:     now,
	}

	quizRepo := s.repomanager.Quizzes(s.db)
	if err := quizRepo.CreateOrUpdate(ctx, quiz); err != nil {
		return nil, err
	}

	return quiz, nil
}
