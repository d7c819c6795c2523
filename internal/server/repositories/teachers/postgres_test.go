package teachers

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("t-1")
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+teachers\s*\(username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2\)\s*RETURNING\s+id`).
		WithArgs("bob", []byte("hash")).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.Teacher{UserName: "bob", PasswordHash: []byte("hash")})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "t-1" {
		t.Fatalf("unexpected teacher: %+v", got)
	}
}

func TestGetByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
		AddRow("t-1", "bob", []byte("hash"), time.Now())

	mock.ExpectQuery(`SELECT\s+id,.*FROM\s+teachers\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("bob").
		WillReturnRows(rows)

	got, err := repo.GetByLogin(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetByLogin error: %v", err)
	}
	if got.ID != "t-1" {
		t.Fatalf("unexpected teacher: %+v", got)
	}
}

func TestGetByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,.*FROM\s+teachers\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
