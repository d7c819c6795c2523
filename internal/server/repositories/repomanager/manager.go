package repomanager

import (
	"context"
	"database/sql"

	"github.com/studaxis/studaxis/internal/dbx"
	"github.com/studaxis/studaxis/internal/server/repositories/attempts"
	"github.com/studaxis/studaxis/internal/server/repositories/quizzes"
	"github.com/studaxis/studaxis/internal/server/repositories/refreshtokens"
	"github.com/studaxis/studaxis/internal/server/repositories/students"
	"github.com/studaxis/studaxis/internal/server/repositories/teachers"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Quizzes(db dbx.DBTX) quizzes.Repository
	Attempts(db dbx.DBTX) attempts.Repository
	Students(db dbx.DBTX) students.Repository
	Teachers(db dbx.DBTX) teachers.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
