package services

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/studaxis/studaxis/internal/dbx"
	"github.com/studaxis/studaxis/internal/logging"
	"github.com/studaxis/studaxis/internal/server/config"
	"github.com/studaxis/studaxis/internal/server/models"
	attemptsrepo "github.com/studaxis/studaxis/internal/server/repositories/attempts"
	quizzesrepo "github.com/studaxis/studaxis/internal/server/repositories/quizzes"
	refreshtokensrepo "github.com/studaxis/studaxis/internal/server/repositories/refreshtokens"
	studentsrepo "github.com/studaxis/studaxis/internal/server/repositories/students"
	teachersrepo "github.com/studaxis/studaxis/internal/server/repositories/teachers"
)

// stubAWSConfigLoader replaces loadDefaultAWSConfig so tests never touch
// the environment or instance metadata.
func stubAWSConfigLoader(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
	return aws.Config{}, nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Bucket:                     "bucket",
		S3Region:                     "us-east-1",
		S3RootUser:                   "user",
		S3RootPassword:               "password",
		S3BaseEndpoint:               "http://127.0.0.1:9000/",
		PresignExpiry:                time.Hour,
	}
}

type fakeQuizzesRepo struct {
	rows      []*models.Quiz
	selectErr error

	byID   *models.Quiz
	getErr error

	upserted  []*models.Quiz
	upsertErr error
}

func (f *fakeQuizzesRepo) CreateOrUpdate(ctx context.Context, q *models.Quiz) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, q)
	return nil
}
func (f *fakeQuizzesRepo) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID, nil
}
func (f *fakeQuizzesRepo) SelectBySubject(ctx context.Context, subject string) ([]*models.Quiz, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []*models.Quiz
	for _, q := range f.rows {
		if q.Subject == subject {
			out = append(out, q)
		}
	}
	return out, nil
}
func (f *fakeQuizzesRepo) SelectAll(ctx context.Context) ([]*models.Quiz, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	return f.rows, nil
}

type fakeAttemptsRepo struct {
	inserted  []*models.Attempt
	seen      map[string]bool
	createErr error
}

func (f *fakeAttemptsRepo) CreateIfAbsent(ctx context.Context, a *models.Attempt) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[a.ID] {
		return false, nil
	}
	f.seen[a.ID] = true
	f.inserted = append(f.inserted, a)
	return true, nil
}
func (f *fakeAttemptsRepo) SelectByUser(ctx context.Context, userID string) ([]*models.Attempt, error) {
	return f.inserted, nil
}

type fakeStudentsRepo struct {
	createOut *models.Student
	createErr error

	getOut *models.Student
	getErr error

	lastSyncUser string
	lastSyncAt   time.Time
	lastSyncErr  error
}

func (f *fakeStudentsRepo) Create(ctx context.Context, s *models.Student) (*models.Student, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeStudentsRepo) GetByLogin(ctx context.Context, login string) (*models.Student, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}
func (f *fakeStudentsRepo) GetLastSync(ctx context.Context, userID string) (*time.Time, error) {
	if f.lastSyncAt.IsZero() {
		return nil, nil
	}
	return &f.lastSyncAt, nil
}
func (f *fakeStudentsRepo) UpdateLastSync(ctx context.Context, userID string, at time.Time) error {
	if f.lastSyncErr != nil {
		return f.lastSyncErr
	}
	f.lastSyncUser = userID
	f.lastSyncAt = at
	return nil
}

type fakeTeachersRepo struct {
	createOut *models.Teacher
	createErr error

	getOut *models.Teacher
	getErr error
}

func (f *fakeTeachersRepo) Create(ctx context.Context, tc *models.Teacher) (*models.Teacher, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}
func (f *fakeTeachersRepo) GetByLogin(ctx context.Context, login string) (*models.Teacher, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	return f.createErr
}
func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}
func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

type fakeRepoManager struct {
	q  *fakeQuizzesRepo
	a  *fakeAttemptsRepo
	s  *fakeStudentsRepo
	tc *fakeTeachersRepo
	r  *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Quizzes(db dbx.DBTX) quizzesrepo.Repository  { return m.q }
func (m *fakeRepoManager) Attempts(db dbx.DBTX) attemptsrepo.Repository {
	return m.a
}
func (m *fakeRepoManager) Students(db dbx.DBTX) studentsrepo.Repository { return m.s }
func (m *fakeRepoManager) Teachers(db dbx.DBTX) teachersrepo.Repository { return m.tc }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.r
}
