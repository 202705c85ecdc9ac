// Package services contains server-side business logic. This file implements
// AuthService: signup, credential verification behind the login rate
// limiter, and resolving a session token back to its user.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/auth"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/ratelimit"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const minPasswordLength = 6

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresIn int
	User      models.PublicUser
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	limiter     ratelimit.Limiter
	log         logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	hasher *auth.PasswordHasher, limiter ratelimit.Limiter, log logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		limiter:     limiter,
		log:         log.With("module", "auth"),
	}
}

// NormalizeEmail trims and lower-cases an address; lookups and storage
// both go through it so matching is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an account. Invalid input yields common.ErrorValidation, a
// taken email common.ErrorAlreadyExists.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*models.PublicUser, error) {
	email = NormalizeEmail(email)
	if !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return nil, common.ErrorValidation
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetUserByEmail(ctx, email)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.log.Error(ctx, "signup failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user created", "user_id", user.ID)
	public := user.Public()
	return &public, nil
}

// Admit consumes one login attempt for clientAddr. It fails with
// common.ErrorRateLimited once the client's window is used up.
func (s *AuthService) Admit(ctx context.Context, clientAddr string) error {
	if !s.limiter.Allow(clientAddr) {
		s.log.Warn(ctx, "login rate limited", "client", clientAddr)
		return common.ErrorRateLimited
	}
	return nil
}

// Login admits the attempt and then verifies the credentials, so rejected
// attempts never touch the store.
func (s *AuthService) Login(ctx context.Context, clientAddr, email, password string) (*Session, error) {
	if err := s.Admit(ctx, clientAddr); err != nil {
		return nil, err
	}
	return s.VerifyCredentials(ctx, clientAddr, email, password)
}

// VerifyCredentials checks email and password without touching the limiter.
// Unknown emails and wrong passwords both yield common.ErrInvalidCredentials.
func (s *AuthService) VerifyCredentials(ctx context.Context, clientAddr, email, password string) (*Session, error) {
	email = NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			s.log.Info(ctx, "login failed", "client", clientAddr, "reason", "unknown email")
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "password comparison failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		s.log.Info(ctx, "login failed", "client", clientAddr, "reason", "wrong password", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	token, expiresIn, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.log.Error(ctx, "token signing failed", "error", err)
		return nil, common.ErrorInternal
	}

	return &Session{Token: token, ExpiresIn: expiresIn, User: user.Public()}, nil
}

// Me resolves a session token to its user. Any failure means "not signed
// in"; the cause is only logged.
func (s *AuthService) Me(ctx context.Context, token string) (*models.PublicUser, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.log.Debug(ctx, "me: token rejected", "reason", err)
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	public := user.Public()
	return &public, nil
}

// VerifyToken exposes the token check to the HTTP layer.
func (s *AuthService) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

// TokenValidity is the session lifetime, used for the cookie Max-Age.
func (s *AuthService) TokenValidity() int {
	return int(s.tokens.Validity().Seconds())
}
