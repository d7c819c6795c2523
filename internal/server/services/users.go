package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/dbx"
	"github.com/studaxis/studaxis/internal/server/auth"
	"github.com/studaxis/studaxis/internal/server/config"
	"github.com/studaxis/studaxis/internal/server/models"
	"github.com/studaxis/studaxis/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// Account roles accepted by Register and Login.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// hashPassword is a seam for tests; bcrypt at default cost otherwise.
var hashPassword = func(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Register creates a student or teacher account and returns its id.
func (s *UserService) Register(ctx context.Context, role, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", common.ErrorInternal
	}

	switch role {
	case RoleStudent:
		repo := s.repomanager.Students(s.db)
		student, err := repo.Create(ctx, &models.Student{UserName: username, PasswordHash: hash})
		if err != nil {
			return "", fmt.Errorf("error creating student: %v", err)
		}
		return student.ID, nil
	case RoleTeacher:
		repo := s.repomanager.Teachers(s.db)
		teacher, err := repo.Create(ctx, &models.Teacher{UserName: username, PasswordHash: hash})
		if err != nil {
			return "", fmt.Errorf("error creating teacher: %v", err)
		}
		return teacher.ID, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
}

func (s *UserService) lookupAccount(ctx context.Context, role, username string) (id string, hash []byte, err error) {
	switch role {
	case RoleStudent:
		student, err := s.repomanager.Students(s.db).GetByLogin(ctx, username)
		if err != nil {
			return "", nil, err
		}
		return student.ID, student.PasswordHash, nil
	case RoleTeacher:
		teacher, err := s.repomanager.Teachers(s.db).GetByLogin(ctx, username)
		if err != nil {
			return "", nil, err
		}
		return teacher.ID, teacher.PasswordHash, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
}

// Login checks credentials and returns a fresh token pair. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, role, username, password string) (*TokenPair, error) {
	id, hash, err := s.lookupAccount(ctx, role, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, id)
}

// RefreshToken rotates a refresh token: the presented token is deleted and a
// new pair is issued inside one transaction.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}

	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}

		tokenPair, err = s.generateTokenPairTx(ctx, tx, token.UserID)
		if err != nil {
			return fmt.Errorf("error generating token pair: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	return s.generateTokenPairTx(ctx, s.db, userID)
}

func (s *UserService) generateTokenPairTx(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshTokenRepo := s.repomanager.RefreshTokens(db)
	if err := refreshTokenRepo.Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
